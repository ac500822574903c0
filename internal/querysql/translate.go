// Package querysql renders resolved pipeline queries as SQL text.
//
// Translation folds the stage list into a single SELECT statement: derive
// assignments become select-list aliases, filters conjoin into WHERE, joins
// keep their side, sort becomes ORDER BY, take becomes LIMIT. Queries whose
// shape cannot fold into one SELECT are rejected with an UnsupportedError
// rather than silently mistranslated.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/veilwork/grimoire/internal/pql"
)

// ErrUnsupported marks query shapes Translate cannot express as a single
// SELECT statement.
var ErrUnsupported = errors.New("query not translatable")

// UnsupportedError explains which shape was rejected.
type UnsupportedError struct {
	Msg string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupported, e.Msg)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Translate renders a resolved query as one SQL SELECT statement in the
// query's own dialect. The output is a single line with uppercase keywords,
// stable for a given query.
func Translate(rq *pql.ResolvedQuery) (string, error) {
	dialect, err := ParseDialect(rq.Dialect())
	if err != nil {
		return "", err
	}
	t := &translator{dialect: dialect, derived: map[string]string{}}
	return t.translate(rq.Stages())
}

type joinClause struct {
	keyword string
	table   string
	cond    string
}

type translator struct {
	dialect Dialect

	baseTable string
	selects   []string
	derives   []string // "expr AS name", select-list form
	derived   map[string]string
	wheres    []string
	joins     []joinClause
	orderBy   []string
	limit     *int64

	sawSelect bool
}

func (t *translator) translate(stages []pql.Stage) (string, error) {
	for _, stage := range stages {
		if err := t.fold(stage); err != nil {
			return "", err
		}
	}
	return t.render(), nil
}

func (t *translator) fold(stage pql.Stage) error {
	switch s := stage.(type) {
	case *pql.FromStage:
		t.baseTable = s.Table
		return nil
	case *pql.FilterStage:
		// Filters over a derived alias inline the defining expression;
		// WHERE cannot reference select-list aliases.
		cond, err := t.renderExpr(s.Cond, true)
		if err != nil {
			return err
		}
		t.wheres = append(t.wheres, cond)
		return nil
	case *pql.SelectStage:
		if t.sawSelect {
			return &UnsupportedError{Msg: "multiple select stages"}
		}
		t.sawSelect = true
		for _, e := range s.Exprs {
			col, err := t.renderSelectExpr(e)
			if err != nil {
				return err
			}
			t.selects = append(t.selects, col)
		}
		return nil
	case *pql.DeriveStage:
		for _, a := range s.Assigns {
			expr, err := t.renderExpr(a.Value, false)
			if err != nil {
				return err
			}
			t.derived[a.Name] = expr
			t.derives = append(t.derives, expr+" AS "+quoteIdent(t.dialect, a.Name))
		}
		return nil
	case *pql.JoinStage:
		return t.foldJoin(s)
	case *pql.SortStage:
		for _, key := range s.Keys {
			col := quoteIdent(t.dialect, key.Column)
			if key.Desc {
				col += " DESC"
			}
			t.orderBy = append(t.orderBy, col)
		}
		return nil
	case *pql.TakeStage:
		n := s.Count
		t.limit = &n
		return nil
	}
	return &UnsupportedError{Msg: fmt.Sprintf("stage %T", stage)}
}

func (t *translator) foldJoin(s *pql.JoinStage) error {
	var keyword string
	switch s.Side {
	case pql.JoinInner, "":
		keyword = "INNER JOIN"
	case pql.JoinLeft:
		keyword = "LEFT JOIN"
	case pql.JoinRight:
		keyword = "RIGHT JOIN"
	case pql.JoinFull:
		keyword = "FULL JOIN"
	default:
		return &UnsupportedError{Msg: fmt.Sprintf("join side %q", s.Side)}
	}

	var cond string
	if s.On.Using != "" {
		col := quoteIdent(t.dialect, s.On.Using)
		cond = fmt.Sprintf("%s.%s = %s.%s",
			quoteIdent(t.dialect, t.baseTable), col,
			quoteIdent(t.dialect, s.Table), col)
	} else {
		rendered, err := t.renderExpr(s.On.On, true)
		if err != nil {
			return err
		}
		cond = rendered
	}
	t.joins = append(t.joins, joinClause{
		keyword: keyword,
		table:   quoteIdent(t.dialect, s.Table),
		cond:    cond,
	})
	return nil
}

func (t *translator) render() string {
	var b strings.Builder
	b.WriteString("SELECT ")

	switch {
	case t.sawSelect:
		b.WriteString(strings.Join(t.selects, ", "))
	case len(t.derives) > 0:
		b.WriteString("*, ")
		b.WriteString(strings.Join(t.derives, ", "))
	default:
		b.WriteString("*")
	}

	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(t.dialect, t.baseTable))

	for _, j := range t.joins {
		fmt.Fprintf(&b, " %s %s ON %s", j.keyword, j.table, j.cond)
	}
	if len(t.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(t.wheres, " AND "))
	}
	if len(t.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(t.orderBy, ", "))
	}
	if t.limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *t.limit)
	}
	return b.String()
}

// renderSelectExpr renders one select-list entry. A bare reference to a
// derived column expands to its defining expression with the alias kept.
func (t *translator) renderSelectExpr(e pql.Expr) (string, error) {
	if id, ok := e.(*pql.Ident); ok {
		if expr, isDerived := t.derived[id.Name]; isDerived {
			return expr + " AS " + quoteIdent(t.dialect, id.Name), nil
		}
	}
	return t.renderExpr(e, false)
}

// renderExpr renders an expression. With inlineDerived set, identifiers
// naming derived columns are replaced by their parenthesized definitions.
func (t *translator) renderExpr(e pql.Expr, inlineDerived bool) (string, error) {
	return t.renderPrec(e, 0, inlineDerived)
}

// Precedence levels: comparisons bind loosest, then additive, then
// multiplicative. Primaries never need parens.
func exprPrec(e pql.Expr) int {
	b, ok := e.(*pql.Binary)
	if !ok {
		return 4
	}
	switch b.Op {
	case "+", "-":
		return 2
	case "*", "/":
		return 3
	default:
		return 1
	}
}

var sqlOps = map[string]string{
	"==": "=",
	"!=": "<>",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
	"+":  "+",
	"-":  "-",
	"*":  "*",
	"/":  "/",
}

func (t *translator) renderPrec(e pql.Expr, parent int, inlineDerived bool) (string, error) {
	switch e := e.(type) {
	case *pql.Ident:
		if inlineDerived {
			if expr, ok := t.derived[e.Name]; ok {
				return "(" + expr + ")", nil
			}
		}
		return quoteIdent(t.dialect, e.Name), nil
	case *pql.StringLit:
		return "'" + strings.ReplaceAll(e.Value, "'", "''") + "'", nil
	case *pql.NumberLit:
		return e.Text, nil
	case *pql.Unary:
		x, err := t.renderPrec(e.X, 4, inlineDerived)
		if err != nil {
			return "", err
		}
		return "-" + x, nil
	case *pql.Binary:
		op, ok := sqlOps[e.Op]
		if !ok {
			return "", &UnsupportedError{Msg: fmt.Sprintf("operator %q", e.Op)}
		}
		prec := exprPrec(e)
		left, err := t.renderPrec(e.Left, prec, inlineDerived)
		if err != nil {
			return "", err
		}
		// Right operands of the same precedence re-associate under - and /,
		// so they keep their parens.
		rightParent := prec
		if e.Op == "-" || e.Op == "/" {
			rightParent = prec + 1
		}
		right, err := t.renderPrec(e.Right, rightParent, inlineDerived)
		if err != nil {
			return "", err
		}
		rendered := left + " " + op + " " + right
		if prec < parent {
			rendered = "(" + rendered + ")"
		}
		return rendered, nil
	}
	return "", &UnsupportedError{Msg: fmt.Sprintf("expression %T", e)}
}
