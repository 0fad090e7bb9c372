package resolver

import (
	"fmt"

	"github.com/skx/animationled-compiler/symtab"
	"github.com/skx/animationled-compiler/token"
)

// ErrorKind is the closed set of semantic error kinds from spec.md §7.
type ErrorKind int

const (
	NoMain ErrorKind = iota
	UnbalancedAssignment
	TypeMismatch1
	TypeMismatch2
	TypeMismatch3
	ExpectedVar
	ExpectedProc
	Undefined
	NameClash
	SignatureClash
	RepeatedParameter
	NoSuchOverload
	InvalidOperands
	BadArgumentCount
	NoSuchAttr
	GlobalLiftConflict
	UnsupportedLValue
)

// Error is a single located semantic error.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    token.Span
}

func (e *Error) Error() string { return e.Message }

// At returns the error's source span, satisfying diagnostics.Located.
func (e *Error) At() token.Span { return e.Span }

func newError(kind ErrorKind, span token.Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}

func errNoMain(span token.Span) *Error {
	return newError(NoMain, span, "program must declare exactly one zero-parameter procedure named 'main'")
}

func errUnbalancedAssignment(span token.Span, targets, values int) *Error {
	return newError(UnbalancedAssignment, span, "assignment has %d target(s) but %d value(s)", targets, values)
}

// errTypeMismatch1/2/3 reproduce original_source/src/semantic.rs's three
// distinct arities for a type-mismatch message: one, two, or three
// acceptable types named at the failing position.
func errTypeMismatch1(span token.Span, want symtab.Type, got symtab.Type) *Error {
	return newError(TypeMismatch1, span, "expected %s, found %s", want, got)
}

func errTypeMismatch2(span token.Span, want1, want2 symtab.Type, got symtab.Type) *Error {
	return newError(TypeMismatch2, span, "expected %s or %s, found %s", want1, want2, got)
}

func errTypeMismatch3(span token.Span, want1, want2, want3 symtab.Type, got symtab.Type) *Error {
	return newError(TypeMismatch3, span, "expected %s, %s, or %s, found %s", want1, want2, want3, got)
}

func errExpectedVar(span token.Span, name string) *Error {
	return newError(ExpectedVar, span, "%q is a procedure, not a variable", name)
}

func errExpectedProc(span token.Span, name string) *Error {
	return newError(ExpectedProc, span, "%q is a variable, not a procedure", name)
}

func errUndefined(span token.Span, name string) *Error {
	return newError(Undefined, span, "undefined name %q", name)
}

func errNameClash(span token.Span, name string) *Error {
	return newError(NameClash, span, "%q is already declared with a different kind in this scope", name)
}

func errSignatureClash(span token.Span, name string, types []symtab.Type) *Error {
	return newError(SignatureClash, span, "procedure %q already has an overload with parameter types %s", name, symtab.TypeListString(types))
}

func errRepeatedParameter(span token.Span, name string) *Error {
	return newError(RepeatedParameter, span, "parameter %q is repeated", name)
}

func errNoSuchOverload(span token.Span, name string, types []symtab.Type) *Error {
	return newError(NoSuchOverload, span, "no overload of %q accepts arguments %s", name, symtab.TypeListString(types))
}

func errInvalidOperands(span token.Span, op string, left, right symtab.Type) *Error {
	return newError(InvalidOperands, span, "operator %s is not defined for %s and %s", op, left, right)
}

func errBadArgumentCount(span token.Span, name string, want, got int) *Error {
	return newError(BadArgumentCount, span, "%q expects %d argument(s), found %d", name, want, got)
}

func errNoSuchAttr(span token.Span, typ symtab.Type, attr string) *Error {
	return newError(NoSuchAttr, span, "%s has no attribute %q", typ, attr)
}

func errGlobalLiftConflict(span token.Span, name string) *Error {
	return newError(GlobalLiftConflict, span, "%q named in 'global' does not refer to a global variable", name)
}

func errUnsupportedLValue(span token.Span) *Error {
	return newError(UnsupportedLValue, span, "indexing expressions are not supported as assignment targets")
}
