package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skx/animationled-compiler/ast"
	"github.com/skx/animationled-compiler/lexer"
	"github.com/skx/animationled-compiler/parser"
)

// parseProgram runs the real lexer/parser so resolver tests exercise the
// resolver against the same ast.Program shape the compiler facade feeds
// it, rather than a hand-built tree that could drift from what the
// parser actually produces.
func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	lx := lexer.New(src)
	tokens, errs := lx.TryExhaustive()
	require.Empty(t, errs, "lex errors for %q", src)
	prog, err := parser.New(tokens).Parse()
	require.NoError(t, err, "parse error for %q", src)
	return prog
}

func TestResolveRequiresExactlyOneMain(t *testing.T) {
	prog := parseProgram(t, `procedure helper(){}`)
	_, err := New().Resolve(prog)
	require.NotNil(t, err)
	require.Equal(t, NoMain, err.Kind)
}

func TestResolveOverloadFamilyByParamType(t *testing.T) {
	prog := parseProgram(t, `
	  procedure f(x:int){ debug(x); }
	  procedure f(x:bool){ debug(x); }
	  procedure main(){ f(1); f(true); }
	`)
	out, err := New().Resolve(prog)
	require.Nil(t, err)
	require.NotNil(t, out)

	names := map[string]bool{}
	for _, fn := range out.Functions {
		names[fn.Name] = true
	}
	require.True(t, names["user_f$$i"])
	require.True(t, names["user_f$$b"])
}

func TestResolveDuplicateOverloadIsSignatureClash(t *testing.T) {
	prog := parseProgram(t, `
	  procedure f(a:int){}
	  procedure f(b:int){}
	  procedure main(){}
	`)
	_, err := New().Resolve(prog)
	require.NotNil(t, err)
	require.Equal(t, SignatureClash, err.Kind)
}

func TestResolveLeadingAssignmentDeclaresGlobal(t *testing.T) {
	prog := parseProgram(t, `procedure main(){ x = 1; debug(x); }`)
	out, err := New().Resolve(prog)
	require.Nil(t, err)
	require.Len(t, out.Globals, 1)
	require.Equal(t, "user_x", out.Globals[0].Name)
}

func TestResolveIndexOnAssignmentLHSIsUnsupported(t *testing.T) {
	prog := parseProgram(t, `procedure main(){ a=[true,false]; a[0] = true; }`)
	_, err := New().Resolve(prog)
	require.NotNil(t, err)
	require.Equal(t, UnsupportedLValue, err.Kind)
}
