package pql

// Pipeline is the parsed form of one query: an optional dialect header plus
// an ordered list of transform stages.
type Pipeline struct {
	Dialect string // from the "prql dialect:<name>" header, "" when absent
	Stages  []Stage
}

// Stage is one pipeline transform.
//
// This is a sealed interface: only types in this package implement it. The
// marker method keeps type switches in consumers exhaustive.
type Stage interface {
	stageNode()
	StagePos() Position
}

// FromStage names the relation the pipeline starts from.
type FromStage struct {
	Pos   Position
	Table string
}

// FilterStage keeps rows where Cond is true. Multiple filters conjoin.
type FilterStage struct {
	Pos  Position
	Cond Expr
}

// SelectStage narrows the output to the listed expressions.
type SelectStage struct {
	Pos   Position
	Exprs []Expr
}

// DeriveStage introduces computed columns.
type DeriveStage struct {
	Pos     Position
	Assigns []Assign
}

// JoinStage joins another relation onto the pipeline.
type JoinStage struct {
	Pos   Position
	Side  JoinSide
	Table string
	On    JoinCond
}

// SortStage orders the output by the listed keys.
type SortStage struct {
	Pos  Position
	Keys []SortKey
}

// TakeStage limits the output to the first Count rows.
type TakeStage struct {
	Pos   Position
	Count int64
}

func (s *FromStage) stageNode()   {}
func (s *FilterStage) stageNode() {}
func (s *SelectStage) stageNode() {}
func (s *DeriveStage) stageNode() {}
func (s *JoinStage) stageNode()   {}
func (s *SortStage) stageNode()   {}
func (s *TakeStage) stageNode()   {}

func (s *FromStage) StagePos() Position   { return s.Pos }
func (s *FilterStage) StagePos() Position { return s.Pos }
func (s *SelectStage) StagePos() Position { return s.Pos }
func (s *DeriveStage) StagePos() Position { return s.Pos }
func (s *JoinStage) StagePos() Position   { return s.Pos }
func (s *SortStage) StagePos() Position   { return s.Pos }
func (s *TakeStage) StagePos() Position   { return s.Pos }

// Assign binds a derived column name to the expression computing it.
type Assign struct {
	Name  string
	Value Expr
}

// JoinSide selects the join flavor. The zero value means inner.
type JoinSide string

const (
	JoinInner JoinSide = "inner"
	JoinLeft  JoinSide = "left"
	JoinRight JoinSide = "right"
	JoinFull  JoinSide = "full"
)

// JoinCond is either the ==column shorthand (Using set, On nil) or a full
// boolean expression (On set, Using empty).
type JoinCond struct {
	Using string
	On    Expr
}

// SortKey orders by one column, descending when Desc is set.
type SortKey struct {
	Column string
	Desc   bool
}

// Expr is a scalar expression inside a stage.
//
// Sealed like Stage: only types in this package implement it.
type Expr interface {
	exprNode()
	ExprPos() Position
}

// Ident references a column, possibly qualified as table.column.
type Ident struct {
	Pos  Position
	Name string
}

// StringLit is a quoted literal with escapes already decoded.
type StringLit struct {
	Pos   Position
	Value string
}

// NumberLit is an integer or decimal literal, kept as source text so
// translation never reformats it.
type NumberLit struct {
	Pos     Position
	Text    string
	IsFloat bool
}

// VarRef references a project variable ($name). Resolution substitutes it;
// no VarRef survives in a ResolvedQuery.
type VarRef struct {
	Pos  Position
	Name string
}

// Unary is a prefix operation, currently only negation.
type Unary struct {
	Pos Position
	Op  string
	X   Expr
}

// Binary is an infix operation: comparisons and arithmetic.
type Binary struct {
	Pos   Position
	Op    string
	Left  Expr
	Right Expr
}

func (e *Ident) exprNode()     {}
func (e *StringLit) exprNode() {}
func (e *NumberLit) exprNode() {}
func (e *VarRef) exprNode()    {}
func (e *Unary) exprNode()     {}
func (e *Binary) exprNode()    {}

func (e *Ident) ExprPos() Position     { return e.Pos }
func (e *StringLit) ExprPos() Position { return e.Pos }
func (e *NumberLit) ExprPos() Position { return e.Pos }
func (e *VarRef) ExprPos() Position    { return e.Pos }
func (e *Unary) ExprPos() Position     { return e.Pos }
func (e *Binary) ExprPos() Position    { return e.Pos }
