package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skx/animationled-compiler/ast"
	"github.com/skx/animationled-compiler/lexer"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, errs := lexer.New(src).TryExhaustive()
	require.Empty(t, errs)
	prog, err := New(toks).Parse()
	require.NoError(t, err)
	return prog
}

func TestParseEmptyProcedure(t *testing.T) {
	prog := mustParse(t, "procedure main() { }")
	require.Len(t, prog.Procedures, 1)
	require.Equal(t, "main", prog.Procedures[0].Name)
	require.Empty(t, prog.Procedures[0].Params)
	require.Empty(t, prog.Procedures[0].Body)
}

func TestParseParameters(t *testing.T) {
	prog := mustParse(t, "procedure f(x: int, y: bool) { }")
	params := prog.Procedures[0].Params
	require.Len(t, params, 2)
	require.Equal(t, "x", params[0].Name)
	require.Equal(t, "y", params[1].Name)
}

func TestParseAssignment(t *testing.T) {
	prog := mustParse(t, "procedure main() { x = 1; }")
	stmt := prog.Procedures[0].Body[0].(*ast.AssignStmt)
	require.Len(t, stmt.Targets, 1)
	require.Equal(t, "x", stmt.Targets[0].(*ast.VarExpr).Name)
	require.Equal(t, int32(1), stmt.Values[0].(*ast.IntLit).Value)
}

func TestParseMultiAssignment(t *testing.T) {
	prog := mustParse(t, "procedure main() { a, b = 1, 2; }")
	stmt := prog.Procedures[0].Body[0].(*ast.AssignStmt)
	require.Len(t, stmt.Targets, 2)
	require.Len(t, stmt.Values, 2)
}

func TestParseCallStatementVsAssignment(t *testing.T) {
	prog := mustParse(t, "procedure main() { f(1, 2); x = f(1); }")
	body := prog.Procedures[0].Body
	require.IsType(t, &ast.CallStmt{}, body[0])
	callStmt := body[0].(*ast.CallStmt)
	require.Equal(t, "f", callStmt.Call.Name)

	assign := body[1].(*ast.AssignStmt)
	require.Equal(t, "f", assign.Values[0].(*ast.CallExpr).Name)
}

func TestParseMethodCallStatement(t *testing.T) {
	prog := mustParse(t, "procedure main() { m.push(1); }")
	stmt := prog.Procedures[0].Body[0].(*ast.MethodCallStmt)
	require.Equal(t, "push", stmt.Method)
	require.Equal(t, "m", stmt.Target.(*ast.VarExpr).Name)
}

func TestParseIfAndFor(t *testing.T) {
	prog := mustParse(t, `procedure main() {
		if x == 1 { y = 2; }
		for i in range(0, 10) step 2 { y = i; }
	}`)
	body := prog.Procedures[0].Body
	require.IsType(t, &ast.IfStmt{}, body[0])
	require.IsType(t, &ast.ForStmt{}, body[1])

	forStmt := body[1].(*ast.ForStmt)
	require.Equal(t, "i", forStmt.Var)
	require.NotNil(t, forStmt.Step)
}

func TestParseGlobalAndDel(t *testing.T) {
	prog := mustParse(t, "procedure main() { global x, y; del x; }")
	body := prog.Procedures[0].Body
	g := body[0].(*ast.GlobalStmt)
	require.Equal(t, []string{"x", "y"}, g.Names)
	d := body[1].(*ast.DelStmt)
	require.Equal(t, []string{"x"}, d.Names)
}

func TestParseBuiltinStatements(t *testing.T) {
	prog := mustParse(t, `procedure main() {
		debug("hi");
		blink(1, 2);
		delay(100);
		printled(m);
		printledx(m, "label");
	}`)
	body := prog.Procedures[0].Body
	kinds := []ast.BuiltinKind{
		ast.BuiltinDebug, ast.BuiltinBlink, ast.BuiltinDelay,
		ast.BuiltinPrintLed, ast.BuiltinPrintLedX,
	}
	for i, k := range kinds {
		require.Equal(t, k, body[i].(*ast.BuiltinStmt).Kind)
	}
}

func TestPrecedenceClimbing(t *testing.T) {
	prog := mustParse(t, "procedure main() { x = 1 + 2 * 3; }")
	val := prog.Procedures[0].Body[0].(*ast.AssignStmt).Values[0]
	bin := val.(*ast.BinaryExpr)
	require.Equal(t, "+", bin.Op.String())
	require.IsType(t, &ast.IntLit{}, bin.Left)
	require.IsType(t, &ast.BinaryExpr{}, bin.Right)
}

func TestPowerIsRightAssociative(t *testing.T) {
	prog := mustParse(t, "procedure main() { x = 2 ** 3 ** 2; }")
	val := prog.Procedures[0].Body[0].(*ast.AssignStmt).Values[0]
	outer := val.(*ast.BinaryExpr)
	require.Equal(t, "**", outer.Op.String())
	require.IsType(t, &ast.IntLit{}, outer.Left)
	inner := outer.Right.(*ast.BinaryExpr)
	require.Equal(t, "**", inner.Op.String())
}

func TestEnclosedFlagSetOnParens(t *testing.T) {
	prog := mustParse(t, "procedure main() { x = (1 + 2) * 3; }")
	val := prog.Procedures[0].Body[0].(*ast.AssignStmt).Values[0]
	outer := val.(*ast.BinaryExpr)
	require.Equal(t, "*", outer.Op.String())
	left := outer.Left.(*ast.BinaryExpr)
	require.True(t, left.Enclosed)
	require.False(t, outer.Enclosed)
}

func TestIndexingShapes(t *testing.T) {
	prog := mustParse(t, `procedure main() {
		a = v[0];
		b = v[0:2];
		c = m[0, 1];
		d = m[:, 1];
	}`)
	body := prog.Procedures[0].Body

	single := body[0].(*ast.AssignStmt).Values[0].(*ast.IndexExpr)
	require.Equal(t, ast.IndexSingle, single.Kind)

	rng := body[1].(*ast.AssignStmt).Values[0].(*ast.IndexExpr)
	require.Equal(t, ast.IndexRange, rng.Kind)

	indirect := body[2].(*ast.AssignStmt).Values[0].(*ast.IndexExpr)
	require.Equal(t, ast.IndexIndirect, indirect.Kind)

	transposed := body[3].(*ast.AssignStmt).Values[0].(*ast.IndexExpr)
	require.Equal(t, ast.IndexTransposed, transposed.Kind)
}

func TestLenAndListLiteralAndCast(t *testing.T) {
	prog := mustParse(t, `procedure main() {
		n = len(v);
		v = [1, 2, 3];
		m = mat();
		f = float(n);
	}`)
	body := prog.Procedures[0].Body

	require.IsType(t, &ast.LenExpr{}, body[0].(*ast.AssignStmt).Values[0])

	list := body[1].(*ast.AssignStmt).Values[0].(*ast.ListLit)
	require.Len(t, list.Elements, 3)

	zeroCast := body[2].(*ast.AssignStmt).Values[0].(*ast.CastExpr)
	require.Nil(t, zeroCast.Arg)

	cast := body[3].(*ast.AssignStmt).Values[0].(*ast.CastExpr)
	require.NotNil(t, cast.Arg)
}

func TestTypeOfExprAsParamType(t *testing.T) {
	prog := mustParse(t, "procedure f(x: type(1)) { }")
	param := prog.Procedures[0].Params[0]
	require.NotNil(t, param.Type.OfExpr)
}

func TestMissingSemicolonIsAParseError(t *testing.T) {
	toks, errs := lexer.New("procedure main() { x = 1 }").TryExhaustive()
	require.Empty(t, errs)
	_, err := New(toks).Parse()
	require.Error(t, err)
}

func TestMultipleProcedures(t *testing.T) {
	prog := mustParse(t, "procedure a() { } procedure b() { }")
	require.Len(t, prog.Procedures, 2)
}
