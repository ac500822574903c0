package registry

import "errors"

// Status classifies what happened to one query during registration.
type Status string

const (
	// StatusAccepted: the query was stored under a fresh name, or upgraded
	// a placeholder table entry.
	StatusAccepted Status = "accepted"
	// StatusReplaced: the query displaced an earlier query of the same name.
	StatusReplaced Status = "replaced"
	// StatusRejected: the query failed to parse or resolve and was not stored.
	StatusRejected Status = "rejected"
)

// Outcome is the registration result for one named query.
type Outcome struct {
	Name   string
	Status Status
	Err    error // non-nil exactly when Status is StatusRejected
}

// Report is the result of one Register call. Outcomes appear in batch
// order; Synthesized lists the placeholder table entries created for this
// batch, sorted by name.
type Report struct {
	Batch       string // unique id for this ingest batch
	Outcomes    []Outcome
	Synthesized []string
}

func (r *Report) add(name string, status Status, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Name: name, Status: status, Err: err})
}

// Stored counts the queries that landed in the collection (accepted or
// replaced).
func (r *Report) Stored() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status != StatusRejected {
			n++
		}
	}
	return n
}

// Rejected returns the outcomes that failed, in batch order.
func (r *Report) Rejected() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusRejected {
			out = append(out, o)
		}
	}
	return out
}

// Err joins every rejection error, or returns nil when the whole batch
// landed.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
