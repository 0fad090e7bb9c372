package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Every reserved word round-trips through LookupIdentifier.
func TestLookupKeywords(t *testing.T) {
	for word, kind := range keywords {
		require.Equal(t, kind, LookupIdentifier(word), "keyword %q", word)
	}
}

func TestLookupNonKeyword(t *testing.T) {
	require.Equal(t, IDENT, LookupIdentifier("blinkled"))
	require.Equal(t, IDENT, LookupIdentifier("x"))
}

func TestSpanJoin(t *testing.T) {
	a := Span{Start: Position{1, 1}, End: Position{1, 4}}
	b := Span{Start: Position{1, 10}, End: Position{2, 1}}

	got := Join(a, b)
	require.Equal(t, Position{1, 1}, got.Start)
	require.Equal(t, Position{2, 1}, got.End)
}

func TestPositionString(t *testing.T) {
	require.Equal(t, "3:7", Position{Line: 3, Col: 7}.String())
}
