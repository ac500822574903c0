package registry

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/veilwork/grimoire/internal/identity"
	"github.com/veilwork/grimoire/internal/pql"
)

// RawQuery is one query as it arrives: a name and unparsed source text.
type RawQuery struct {
	Name string
	Text string
}

// Option configures a Collection.
type Option func(*Collection)

// WithVars supplies project variables for $name substitution in queries.
func WithVars(vars map[string]string) Option {
	return func(c *Collection) {
		c.resolveOpts = append(c.resolveOpts, pql.WithVars(vars))
	}
}

// WithCatalog enables column checking against known source tables.
func WithCatalog(r pql.TableResolver) Option {
	return func(c *Collection) {
		c.resolveOpts = append(c.resolveOpts, pql.WithCatalog(r))
	}
}

// WithLogger routes registration logging. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) { c.logger = l }
}

// Collection holds every registered entry and the name/id map over them.
// It is owned by a single writer; concurrent reads between Register calls
// are safe, concurrent mutation is not.
type Collection struct {
	entries     map[string]Entry
	ids         *identity.Map
	resolveOpts []pql.ResolveOption
	logger      *slog.Logger
}

// NewCollection returns an empty Collection.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{
		entries: make(map[string]Entry),
		ids:     identity.NewMap(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register ingests a batch of raw queries and returns the per-entry report.
//
// Registration runs in two phases. First every query is parsed and
// resolved: failures are recorded as rejected outcomes and the batch
// continues, successes are stored, and a stored query replaces any earlier
// entry of the same name (last write wins). Second, every dependency name
// with no entry gets a placeholder Table entry, so the collection comes out
// closed under dependencies.
//
// Register never removes entries. A placeholder left behind by a replaced
// query stays; graph validation surfaces it as disconnected if nothing
// references it anymore.
func (c *Collection) Register(batch []RawQuery) *Report {
	report := &Report{Batch: uuid.Must(uuid.NewV7()).String()}

	for _, raw := range batch {
		resolved, err := pql.Prepare(raw.Text, c.resolveOpts...)
		if err != nil {
			report.add(raw.Name, StatusRejected, err)
			c.logger.Warn("query rejected",
				"name", raw.Name, "batch", report.Batch, "error", err)
			continue
		}

		id, err := c.ids.Insert(raw.Name)
		if err != nil {
			report.add(raw.Name, StatusRejected, err)
			c.logger.Warn("query rejected",
				"name", raw.Name, "batch", report.Batch, "error", err)
			continue
		}

		status := StatusAccepted
		if prev, exists := c.entries[raw.Name]; exists {
			if _, wasQuery := prev.(*Query); wasQuery {
				status = StatusReplaced
				c.logger.Warn("query replaced",
					"name", raw.Name, "batch", report.Batch)
			}
		}

		entry := newQuery(raw.Name, id, resolved)
		c.entries[raw.Name] = entry
		report.add(raw.Name, status, nil)
		c.logger.Debug("query registered",
			"name", raw.Name, "dependencies", len(entry.deps))
	}

	for _, name := range c.missingDependencies() {
		id, err := c.ids.Insert(name)
		if err != nil {
			report.add(name, StatusRejected, err)
			c.logger.Warn("table entry rejected",
				"name", name, "batch", report.Batch, "error", err)
			continue
		}
		c.entries[name] = &Table{id: id, name: name}
		report.Synthesized = append(report.Synthesized, name)
	}

	c.logger.Info("batch registered",
		"batch", report.Batch,
		"stored", report.Stored(),
		"rejected", len(report.Rejected()),
		"synthesized", len(report.Synthesized),
		"entries", len(c.entries))
	return report
}

// missingDependencies returns every dependency name with no entry, sorted.
func (c *Collection) missingDependencies() []string {
	missing := map[string]bool{}
	for _, entry := range c.entries {
		q, ok := entry.(*Query)
		if !ok {
			continue
		}
		for _, dep := range q.deps {
			if _, exists := c.entries[dep]; !exists {
				missing[dep] = true
			}
		}
	}
	out := make([]string, 0, len(missing))
	for name := range missing {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Get returns the entry registered under name.
func (c *Collection) Get(name string) (Entry, bool) {
	entry, ok := c.entries[name]
	return entry, ok
}

// Len returns the number of entries, placeholders included.
func (c *Collection) Len() int { return len(c.entries) }

// Names returns every entry name in sorted order.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns every entry sorted by name.
func (c *Collection) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, name := range c.Names() {
		out = append(out, c.entries[name])
	}
	return out
}

// IDs exposes the name/id map for read-only use.
func (c *Collection) IDs() *identity.Map { return c.ids }
