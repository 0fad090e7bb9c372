// Package ast defines the abstract syntax tree produced by the parser.
//
// The shape follows spec.md §3 directly: a Program is a list of Procedures;
// each Procedure has a name, ordered (name, type) parameters, and a body of
// Stmt; expressions are a closed set of literals, reads, and operators.
package ast

import "github.com/skx/animationled-compiler/token"

// Node is implemented by every AST node; Span reports the source range the
// node was parsed from (spec.md §8's "parser locality" invariant).
type Node interface {
	Span() token.Span
}

// SyntaxType is a type as written in source: a keyword, or type(expr).
type SyntaxType struct {
	// Keyword is one of token.KW_INT, KW_BOOL, KW_LIST, KW_MAT, KW_FLOAT,
	// or zero if OfExpr is set (the `type(expr)` form).
	Keyword token.Kind
	OfExpr  Expr
	span    token.Span
}

func (t SyntaxType) Span() token.Span { return t.span }

// NewKeywordType builds a SyntaxType for a bare keyword type.
func NewKeywordType(kw token.Kind, span token.Span) SyntaxType {
	return SyntaxType{Keyword: kw, span: span}
}

// NewExprType builds a SyntaxType for the `type(expr)` form.
func NewExprType(e Expr, span token.Span) SyntaxType {
	return SyntaxType{OfExpr: e, span: span}
}

// Param is a single (name, declared type) procedure parameter.
type Param struct {
	Name string
	Type SyntaxType
	Sp   token.Span
}

func (p Param) Span() token.Span { return p.Sp }

// Procedure is a top-level declaration: a name, ordered parameters, and a
// statement-list body.
type Procedure struct {
	Name   string
	Params []Param
	Body   []Stmt
	Sp     token.Span
}

func (p *Procedure) Span() token.Span { return p.Sp }

// Program is the root AST node: an ordered list of procedures.
type Program struct {
	Procedures []*Procedure
}

func (p *Program) Span() token.Span {
	if len(p.Procedures) == 0 {
		return token.Span{}
	}
	return token.Join(p.Procedures[0].Span(), p.Procedures[len(p.Procedures)-1].Span())
}

// ---- Statements ----------------------------------------------------------

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

type BaseStmt struct{ Sp token.Span }

func (b BaseStmt) Span() token.Span { return b.Sp }
func (BaseStmt) stmtNode()          {}

// IfStmt is `if cond { body }`. There is no surface `else`.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Body []Stmt
}

// ForStmt is `for Var in Iterable [step Step] { body }`.
type ForStmt struct {
	BaseStmt
	Var      string
	Iterable Expr
	Step     Expr // nil if no `step` clause was given
	Body     []Stmt
}

// CallStmt is a bare procedure call used as a statement, e.g. `f(1, 2);`.
type CallStmt struct {
	BaseStmt
	Call *CallExpr
}

// GlobalStmt is `global x, y;`: lifts identifiers to global visibility in
// the current scope.
type GlobalStmt struct {
	BaseStmt
	Names []string
}

// DelStmt is `del x;`, an explicit early drop of a heap-valued variable.
// Supplemented from original_source's Keyword::Del; see SPEC_FULL.md §11.
type DelStmt struct {
	BaseStmt
	Names []string
}

// AssignStmt is a comma-separated target list assigned from a
// comma-separated value list: `a, b = 1, 2;`.
type AssignStmt struct {
	BaseStmt
	Targets []Expr
	Values  []Expr
}

// MethodCallStmt is `target.method(args)` used as a statement.
type MethodCallStmt struct {
	BaseStmt
	Target Expr
	Method string
	Args   []Expr
}

// BuiltinKind identifies one of the five fixed-shape builtin action
// statements.
type BuiltinKind int

const (
	BuiltinDebug BuiltinKind = iota
	BuiltinBlink
	BuiltinDelay
	BuiltinPrintLed
	BuiltinPrintLedX
)

// BuiltinStmt is one of `debug(...)`, `blink(...)`, `delay(...)`,
// `printled(...)`, `printledx(...)`.
type BuiltinStmt struct {
	BaseStmt
	Kind BuiltinKind
	Args []Expr
}

// ---- Expressions ----------------------------------------------------------

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

type BaseExpr struct{ Sp token.Span }

func (b BaseExpr) Span() token.Span { return b.Sp }
func (BaseExpr) exprNode()          {}

// IntLit is an integer literal.
type IntLit struct {
	BaseExpr
	Value int32
}

// BoolLit is `true` or `false`.
type BoolLit struct {
	BaseExpr
	Value bool
}

// StringLit is a double-quoted string literal.
type StringLit struct {
	BaseExpr
	Value string
}

// VarExpr reads a variable by name.
type VarExpr struct {
	BaseExpr
	Name string
}

// AttrExpr is `target.attr`, e.g. `m.shapeF`.
type AttrExpr struct {
	BaseExpr
	Target Expr
	Attr   string
}

// IndexKind distinguishes the four indexing shapes of spec.md §3.
type IndexKind int

const (
	// IndexSingle is `a[i]`.
	IndexSingle IndexKind = iota
	// IndexRange is `a[lo:hi]`.
	IndexRange
	// IndexIndirect is `m[r, c]`.
	IndexIndirect
	// IndexTransposed is `m[:, c]`.
	IndexTransposed
)

// IndexExpr covers single/range/indirect/transposed indexing.
type IndexExpr struct {
	BaseExpr
	Target Expr
	Kind   IndexKind
	// Single: Lo is the index.
	// Range: Lo:Hi are the bounds (either may be nil for an open end).
	// Indirect: Lo, Hi are row, col.
	// Transposed: Hi is the column (Lo is unused).
	Lo, Hi Expr
}

// LenExpr is `len(e)`.
type LenExpr struct {
	BaseExpr
	Arg Expr
}

// RangeExpr is `range(n, v)`.
type RangeExpr struct {
	BaseExpr
	N, V Expr
}

// ListLit is a list literal `[e1, e2, ...]`.
type ListLit struct {
	BaseExpr
	Elements []Expr
}

// CastExpr is `T(e)`, or `T()` (zero-valued construction) when Arg is nil.
type CastExpr struct {
	BaseExpr
	Type SyntaxType
	Arg  Expr // nil for zero-valued construction
}

// UnaryExpr is a prefix operator, currently only negation.
type UnaryExpr struct {
	BaseExpr
	Op      token.Kind
	Operand Expr
	// Enclosed records that the expression appeared inside parentheses
	// in the surface syntax, blocking further precedence rotation
	// across it, per spec.md §4.2.
	Enclosed bool
}

// BinaryExpr is a left/right binary operator application.
type BinaryExpr struct {
	BaseExpr
	Op          token.Kind
	Left, Right Expr
	Enclosed    bool
}

// CallExpr is a user-procedure call `name(args)`.
type CallExpr struct {
	BaseExpr
	Name string
	Args []Expr
}
