package pql

import (
	"sort"
	"strings"
)

// TableResolver answers questions about known source tables during
// resolution. The catalog's View implements it; tests use small fakes.
type TableResolver interface {
	HasTable(name string) bool
	TableColumns(name string) ([]string, bool)
}

// ResolveOption configures resolution.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	vars    map[string]string
	catalog TableResolver
}

// WithVars supplies project variables for $name substitution.
func WithVars(vars map[string]string) ResolveOption {
	return func(c *resolveConfig) { c.vars = vars }
}

// WithCatalog enables column checking against known source tables. Tables
// the resolver does not know are skipped: they may be sibling queries whose
// output shape is not declared anywhere.
func WithCatalog(r TableResolver) ResolveOption {
	return func(c *resolveConfig) { c.catalog = r }
}

// ResolvedQuery is the semantic form of a query: variables substituted,
// shape checked, and referenced tables enumerated.
type ResolvedQuery struct {
	dialect string
	stages  []Stage
	tables  []string
}

// Dialect returns the header dialect, "" when the query had no header.
func (q *ResolvedQuery) Dialect() string { return q.dialect }

// Stages returns the resolved stage list. Callers must not modify it.
func (q *ResolvedQuery) Stages() []Stage { return q.stages }

// ReferencedTables returns every relation the query reads: the from-table
// first, then each join-table in occurrence order. The list may contain
// duplicates when the same relation is joined more than once; callers that
// need a set must deduplicate.
func (q *ResolvedQuery) ReferencedTables() []string {
	out := make([]string, len(q.tables))
	copy(out, q.tables)
	return out
}

// Prepare parses and resolves src in one step.
func Prepare(src string, opts ...ResolveOption) (*ResolvedQuery, error) {
	pipe, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Resolve(pipe, opts...)
}

// Resolve checks a parsed pipeline and produces its semantic form.
//
// Rules:
//   - the pipeline must begin with from, and only the first stage may be from
//   - every $var must be present in the supplied variables
//   - join sides must be inner, left, right, or full
//   - take counts must be positive
//   - with a catalog, column references are checked when every referenced
//     table is a known source table
func Resolve(p *Pipeline, opts ...ResolveOption) (*ResolvedQuery, error) {
	var cfg resolveConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(p.Stages) == 0 {
		return nil, resolveErrorf(Position{}, "empty pipeline")
	}
	if _, ok := p.Stages[0].(*FromStage); !ok {
		return nil, resolveErrorf(p.Stages[0].StagePos(), "pipeline must begin with from")
	}

	stages := make([]Stage, 0, len(p.Stages))
	var tables []string
	for i, stage := range p.Stages {
		if from, ok := stage.(*FromStage); ok {
			if i != 0 {
				return nil, resolveErrorf(from.Pos, "from is only allowed as the first stage")
			}
			tables = append(tables, from.Table)
			stages = append(stages, from)
			continue
		}
		resolved, err := resolveStage(stage, cfg.vars)
		if err != nil {
			return nil, err
		}
		if join, ok := resolved.(*JoinStage); ok {
			tables = append(tables, join.Table)
		}
		stages = append(stages, resolved)
	}

	if cfg.catalog != nil {
		if err := checkColumns(stages, tables, cfg.catalog); err != nil {
			return nil, err
		}
	}

	return &ResolvedQuery{dialect: p.Dialect, stages: stages, tables: tables}, nil
}

func resolveStage(s Stage, vars map[string]string) (Stage, error) {
	switch s := s.(type) {
	case *FilterStage:
		cond, err := substituteExpr(s.Cond, vars)
		if err != nil {
			return nil, err
		}
		return &FilterStage{Pos: s.Pos, Cond: cond}, nil
	case *SelectStage:
		exprs := make([]Expr, len(s.Exprs))
		for i, e := range s.Exprs {
			sub, err := substituteExpr(e, vars)
			if err != nil {
				return nil, err
			}
			exprs[i] = sub
		}
		return &SelectStage{Pos: s.Pos, Exprs: exprs}, nil
	case *DeriveStage:
		assigns := make([]Assign, len(s.Assigns))
		for i, a := range s.Assigns {
			value, err := substituteExpr(a.Value, vars)
			if err != nil {
				return nil, err
			}
			assigns[i] = Assign{Name: a.Name, Value: value}
		}
		return &DeriveStage{Pos: s.Pos, Assigns: assigns}, nil
	case *JoinStage:
		switch s.Side {
		case JoinInner, JoinLeft, JoinRight, JoinFull:
		default:
			return nil, resolveErrorf(s.Pos, "unknown join side %q", s.Side)
		}
		if s.On.On == nil {
			return s, nil
		}
		on, err := substituteExpr(s.On.On, vars)
		if err != nil {
			return nil, err
		}
		return &JoinStage{Pos: s.Pos, Side: s.Side, Table: s.Table, On: JoinCond{On: on}}, nil
	case *SortStage:
		return s, nil
	case *TakeStage:
		if s.Count < 1 {
			return nil, resolveErrorf(s.Pos, "take expects a positive row count, got %d", s.Count)
		}
		return s, nil
	}
	return s, nil
}

// substituteExpr replaces every $var with its value as a string literal.
// Expressions without variables are returned unchanged.
func substituteExpr(e Expr, vars map[string]string) (Expr, error) {
	switch e := e.(type) {
	case *VarRef:
		val, ok := vars[e.Name]
		if !ok {
			return nil, resolveErrorf(e.Pos, "unknown variable $%s", e.Name)
		}
		return &StringLit{Pos: e.Pos, Value: val}, nil
	case *Unary:
		x, err := substituteExpr(e.X, vars)
		if err != nil {
			return nil, err
		}
		if x == e.X {
			return e, nil
		}
		return &Unary{Pos: e.Pos, Op: e.Op, X: x}, nil
	case *Binary:
		left, err := substituteExpr(e.Left, vars)
		if err != nil {
			return nil, err
		}
		right, err := substituteExpr(e.Right, vars)
		if err != nil {
			return nil, err
		}
		if left == e.Left && right == e.Right {
			return e, nil
		}
		return &Binary{Pos: e.Pos, Op: e.Op, Left: left, Right: right}, nil
	default:
		return e, nil
	}
}

// checkColumns validates column references against catalog columns. The
// check only runs when every referenced table is known and has a recorded
// shape: as soon as one table might be another query, or was cataloged
// without columns, the flowing column set is unknowable here.
func checkColumns(stages []Stage, tables []string, cat TableResolver) error {
	perTable := make(map[string]map[string]bool, len(tables))
	union := map[string]bool{}
	for _, t := range tables {
		cols, ok := cat.TableColumns(t)
		if !ok || len(cols) == 0 {
			return nil
		}
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c] = true
			union[c] = true
		}
		perTable[t] = set
	}

	// Derived names are columns from their stage onward; being lenient about
	// ordering keeps this a shape check rather than a full type checker.
	for _, s := range stages {
		if d, ok := s.(*DeriveStage); ok {
			for _, a := range d.Assigns {
				union[a.Name] = true
			}
		}
	}

	check := func(id *Ident) error {
		name := id.Name
		if i := strings.IndexByte(name, '.'); i >= 0 {
			table, col := name[:i], name[i+1:]
			if set, ok := perTable[table]; ok && !set[col] {
				return resolveErrorf(id.Pos, "column %q does not exist on table %q", col, table)
			}
			return nil
		}
		if !union[name] {
			return resolveErrorf(id.Pos, "unknown column %q (tables: %s)", name, strings.Join(sortedUnique(tables), ", "))
		}
		return nil
	}

	for _, s := range stages {
		var err error
		switch s := s.(type) {
		case *FilterStage:
			err = walkIdents(s.Cond, check)
		case *SelectStage:
			for _, e := range s.Exprs {
				if err = walkIdents(e, check); err != nil {
					break
				}
			}
		case *DeriveStage:
			for _, a := range s.Assigns {
				if err = walkIdents(a.Value, check); err != nil {
					break
				}
			}
		case *JoinStage:
			if s.On.Using != "" && !union[s.On.Using] {
				err = resolveErrorf(s.Pos, "join column %q does not exist on the joined tables", s.On.Using)
			} else if s.On.On != nil {
				err = walkIdents(s.On.On, check)
			}
		case *SortStage:
			for _, k := range s.Keys {
				if !union[k.Column] {
					err = resolveErrorf(s.Pos, "unknown sort column %q", k.Column)
					break
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func walkIdents(e Expr, fn func(*Ident) error) error {
	switch e := e.(type) {
	case *Ident:
		return fn(e)
	case *Unary:
		return walkIdents(e.X, fn)
	case *Binary:
		if err := walkIdents(e.Left, fn); err != nil {
			return err
		}
		return walkIdents(e.Right, fn)
	default:
		return nil
	}
}

func sortedUnique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
