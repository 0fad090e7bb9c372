package lexer

import (
	"fmt"

	"github.com/skx/animationled-compiler/token"
)

// ErrorKind is the closed set of lexical error kinds from spec.md §7.
type ErrorKind int

const (
	BadChar ErrorKind = iota
	BadCommentOpener
	BadEscape
	UnterminatedString
	IdTooLong
	UppercaseId
	IntOverflow
)

// Error is a single located lexical error. The lexer accumulates these
// (recovering at line boundaries) rather than stopping at the first one,
// per spec.md §4.1 / §7.
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
