package catalog

import "github.com/veilwork/grimoire/internal/pql"

// View is an immutable in-memory snapshot of the catalog, usable as
// the table resolver during query resolution.
type View struct {
	columns map[string][]string
}

var _ pql.TableResolver = (*View)(nil)

// NewView builds a snapshot directly from table definitions, without a
// catalog database behind it.
func NewView(tables []SourceTable) *View {
	v := &View{columns: make(map[string][]string, len(tables))}
	for _, table := range tables {
		cols := make([]string, len(table.Columns))
		copy(cols, table.Columns)
		v.columns[table.Name] = cols
	}
	return v
}

// HasTable reports whether name was recorded at snapshot time.
func (v *View) HasTable(name string) bool {
	_, ok := v.columns[name]
	return ok
}

// TableColumns returns a copy of the recorded columns of name.
func (v *View) TableColumns(name string) ([]string, bool) {
	cols, ok := v.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, true
}

// Len returns the number of tables in the view.
func (v *View) Len() int { return len(v.columns) }
