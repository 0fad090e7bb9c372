package parser

import (
	"fmt"

	"github.com/skx/animationled-compiler/token"
)

// ErrorKind is one of the ten syntactic error kinds of spec.md §4.2.
type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	MissingToken
	ExpectedId
	ExpectedStatement
	ExpectedType
	ExpectedExpr
	ExpectedOperator
	ExpectedOption
	MissingParameterType
	UnexpectedEof
)

// ParseError is a single located syntax error. Weak marks a failure that
// means "this alternative did not start" — the caller may try another
// without this becoming a user-visible diagnostic. A non-Weak (Strict)
// failure commits: once raised, it propagates to the top without being
// swallowed by attempt/optional. See spec.md §4.2 / §9.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Span    token.Span
	Weak    bool
}

func (e *ParseError) Error() string { return e.Message }

// At returns the error's source span, satisfying diagnostics.Located.
func (e *ParseError) At() token.Span { return e.Span }

func weak(kind ErrorKind, span token.Span, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Span: span, Weak: true, Message: fmt.Sprintf(format, args...)}
}

func strict(kind ErrorKind, span token.Span, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Span: span, Weak: false, Message: fmt.Sprintf(format, args...)}
}

// asStrict converts a (possibly weak) failure into a committed one, used
// once a production has consumed enough input that failure can no longer
// mean "try a different alternative".
func asStrict(err *ParseError) *ParseError {
	if err == nil {
		return nil
	}
	return &ParseError{Kind: err.Kind, Message: err.Message, Span: err.Span, Weak: false}
}
