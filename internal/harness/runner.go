package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/veilwork/grimoire/internal/plan"
	"github.com/veilwork/grimoire/internal/registry"
)

// Result captures everything a scenario run produced. A failed graph
// construction is data here, not an error: scenarios assert on it.
type Result struct {
	Entries     int
	Synthesized []string
	Rejected    []string // "name: message" per rejected query
	Roots       []string
	Order       []string
	Isolated    []string
	BuildError  string
}

// Run executes a scenario against a fresh collection. Registration
// logs are discarded so scenario runs stay quiet under go test.
func Run(s *Scenario) *Result {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []registry.Option{registry.WithLogger(logger)}
	if len(s.Vars) > 0 {
		opts = append(opts, registry.WithVars(s.Vars))
	}
	collection := registry.NewCollection(opts...)

	batch := make([]registry.RawQuery, len(s.Queries))
	for i, q := range s.Queries {
		batch[i] = registry.RawQuery{Name: q.Name, Text: q.Text}
	}
	report := collection.Register(batch)

	result := &Result{
		Entries:     collection.Len(),
		Synthesized: report.Synthesized,
	}
	for _, outcome := range report.Rejected() {
		result.Rejected = append(result.Rejected, fmt.Sprintf("%s: %v", outcome.Name, outcome.Err))
	}

	p, err := plan.BuildPlan(collection)
	if err != nil {
		result.BuildError = err.Error()
		return result
	}
	result.Roots = p.RootNames()
	result.Order = p.ExecutionOrder()
	result.Isolated = p.Isolated
	return result
}

// CheckExpectations compares a result against the scenario's expect
// clause and returns one message per mismatch. An empty slice means
// the scenario passed.
func CheckExpectations(r *Result, s *Scenario) []string {
	var mismatches []string
	e := s.Expect

	if e.Entries > 0 && r.Entries != e.Entries {
		mismatches = append(mismatches, fmt.Sprintf("entries: want %d, got %d", e.Entries, r.Entries))
	}
	if len(e.Tables) > 0 && !equalStrings(e.Tables, r.Synthesized) {
		mismatches = append(mismatches, fmt.Sprintf("tables: want %v, got %v", e.Tables, r.Synthesized))
	}
	if len(e.Roots) > 0 && !equalStrings(e.Roots, r.Roots) {
		mismatches = append(mismatches, fmt.Sprintf("roots: want %v, got %v", e.Roots, r.Roots))
	}
	if len(e.Order) > 0 && !equalStrings(e.Order, r.Order) {
		mismatches = append(mismatches, fmt.Sprintf("order: want %v, got %v", e.Order, r.Order))
	}
	for _, name := range e.Rejected {
		if !rejectedContains(r.Rejected, name) {
			mismatches = append(mismatches, fmt.Sprintf("rejected: %q missing from %v", name, r.Rejected))
		}
	}
	if e.BuildError != "" && !strings.Contains(r.BuildError, e.BuildError) {
		mismatches = append(mismatches, fmt.Sprintf("build_error: want substring %q, got %q", e.BuildError, r.BuildError))
	}
	if e.BuildError == "" && r.BuildError != "" {
		mismatches = append(mismatches, fmt.Sprintf("build_error: unexpected %q", r.BuildError))
	}

	return mismatches
}

func equalStrings(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// rejectedContains reports whether some rejection belongs to name.
// Entries are formatted "name: message".
func rejectedContains(rejected []string, name string) bool {
	for _, entry := range rejected {
		if strings.HasPrefix(entry, name+": ") {
			return true
		}
	}
	return false
}
