package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skx/animationled-compiler/token"
)

func kinds(t *testing.T, input string) []token.Kind {
	t.Helper()
	toks, errs := New(input).TryExhaustive()
	require.Empty(t, errs)

	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestSimplePunctuation(t *testing.T) {
	got := kinds(t, "+ - * / // % ** = == <> < <= > >= , . : ; ( ) [ ] { }")
	want := []token.Kind{
		token.PLUS, token.MINUS, token.TIMES, token.DIV, token.INTDIV, token.MOD,
		token.POW, token.ASSIGN, token.EQUAL, token.NOTEQUAL, token.LESS, token.LESSEQ,
		token.GREATER, token.GREATEREQ, token.COMMA, token.DOT, token.COLON, token.SEMICOLON,
		token.LPAREN, token.RPAREN, token.LSQUARE, token.RSQUARE, token.LCURLY, token.RCURLY,
		token.EOF,
	}
	require.Equal(t, want, got)
}

func TestKeywordsCaseInsensitive(t *testing.T) {
	toks, errs := New("PROCEDURE main If FOR").TryExhaustive()
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{token.KW_PROCEDURE, token.IDENT, token.KW_IF, token.KW_FOR, token.EOF},
		[]token.Kind{toks[0].Kind, toks[1].Kind, toks[2].Kind, toks[3].Kind, toks[4].Kind})
}

func TestIdentifierLengthBoundary(t *testing.T) {
	toks, errs := New("abcdefghij").TryExhaustive()
	require.Empty(t, errs)
	require.Equal(t, token.IDENT, toks[0].Kind)
	require.Equal(t, "abcdefghij", toks[0].Literal)

	_, errs = New("abcdefghijk").TryExhaustive()
	require.Len(t, errs, 1)
	require.Equal(t, IdTooLong, errs[0].Kind)
}

func TestUppercaseIdentifierIsAnError(t *testing.T) {
	_, errs := New("Foo").TryExhaustive()
	require.Len(t, errs, 1)
	require.Equal(t, UppercaseId, errs[0].Kind)
}

func TestSingleHashIsAnError(t *testing.T) {
	_, errs := New("# not a comment").TryExhaustive()
	require.Len(t, errs, 1)
	require.Equal(t, BadCommentOpener, errs[0].Kind)
}

func TestDoubleHashStartsACommentToEndOfLine(t *testing.T) {
	toks, errs := New("1 ## comment\n2").TryExhaustive()
	require.Empty(t, errs)
	require.Equal(t, []string{"1", "2", ""}, []string{toks[0].Literal, toks[1].Literal, toks[2].Literal})
}

func TestCommentRunsToEndOfInputToo(t *testing.T) {
	toks, errs := New("1 ## comment with no trailing newline").TryExhaustive()
	require.Empty(t, errs)
	require.Equal(t, token.INT, toks[0].Kind)
	require.Equal(t, token.EOF, toks[1].Kind)
}

func TestIntegerOverflowIsDetected(t *testing.T) {
	_, errs := New("99999999999").TryExhaustive()
	require.Len(t, errs, 1)
	require.Equal(t, IntOverflow, errs[0].Kind)
}

func TestStringLiteralsHaveNoEscapes(t *testing.T) {
	toks, errs := New(`"hello world"`).TryExhaustive()
	require.Empty(t, errs)
	require.Equal(t, "hello world", toks[0].Literal)

	_, errs = New(`"bad \n escape"`).TryExhaustive()
	require.Len(t, errs, 1)
	require.Equal(t, BadEscape, errs[0].Kind)
}

func TestUnterminatedString(t *testing.T) {
	_, errs := New(`"unterminated`).TryExhaustive()
	require.Len(t, errs, 1)
	require.Equal(t, UnterminatedString, errs[0].Kind)
}

func TestErrorRecoveryAtLineBreakAccumulatesMultipleErrors(t *testing.T) {
	_, errs := New("Foo\nBar\n3").TryExhaustive()
	require.Len(t, errs, 2)
	require.Equal(t, UppercaseId, errs[0].Kind)
	require.Equal(t, UppercaseId, errs[1].Kind)
}

func TestSpanTracksLineAndColumn(t *testing.T) {
	toks, errs := New("x\n  y").TryExhaustive()
	require.Empty(t, errs)
	require.Equal(t, token.Position{Line: 1, Col: 1}, toks[0].Span.Start)
	require.Equal(t, token.Position{Line: 2, Col: 3}, toks[1].Span.Start)
}

// TestLexerRoundTrip is the whitespace-insensitive round-trip invariant of
// spec.md §8: printing each token separated by a single space and re-lexing
// reproduces the same token kind sequence.
func TestLexerRoundTrip(t *testing.T) {
	input := `procedure main ( ) { x = 1 + 2 ; }`
	first := kinds(t, input)

	var rebuilt string
	toks, errs := New(input).TryExhaustive()
	require.Empty(t, errs)
	for i, tok := range toks {
		if i > 0 {
			rebuilt += " "
		}
		if tok.Kind == token.EOF {
			continue
		}
		if tok.Literal != "" && tok.Kind != token.STRING {
			rebuilt += tok.Literal
		} else if tok.Kind == token.STRING {
			rebuilt += `"` + tok.Literal + `"`
		} else {
			rebuilt += tok.Kind.String()
		}
	}

	second := kinds(t, rebuilt)
	require.Equal(t, first, second)
}
