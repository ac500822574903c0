package pql

import "fmt"

// Position locates a token in query source. Lines and columns are 1-based.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// ParseError reports a syntax error in query source.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

func parseErrorf(pos Position, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ResolveError reports a semantic error found after parsing: a pipeline that
// does not start with from, an unknown variable, a column that does not exist
// on a known source table, and so on. Pos is the offending node's position
// when one is known, zero otherwise.
type ResolveError struct {
	Pos Position
	Msg string
}

func (e *ResolveError) Error() string {
	if e.Pos.Line == 0 {
		return "resolve error: " + e.Msg
	}
	return fmt.Sprintf("resolve error at %s: %s", e.Pos, e.Msg)
}

func resolveErrorf(pos Position, format string, args ...any) *ResolveError {
	return &ResolveError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
