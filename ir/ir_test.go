package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ptrLocal is a small helper so test tables can take the address of a
// literal without a throwaway variable at each call site.
func ptrLocal(l Local) *Local { return &l }

func TestRequiredLocalsTakesHighestReferencedLocal(t *testing.T) {
	fn := &Function{
		Name:       "user_main",
		ParamCount: 1,
		Body: FunctionBody{
			Instructions: []Instruction{
				LoadConst{Value: 1, Output: 0},
				LoadConst{Value: 2, Output: 3},
				Call{Target: &Function{Name: "builtin_debug_int"}, Arguments: []Local{3}},
			},
		},
	}

	if got, want := RequiredLocals(fn), 4; got != want {
		t.Fatalf("RequiredLocals = %d, want %d", got, want)
	}
}

func TestRequiredLocalsFallsBackToParamCount(t *testing.T) {
	fn := &Function{Name: "user_f", ParamCount: 2}
	if got, want := RequiredLocals(fn), 2; got != want {
		t.Fatalf("RequiredLocals = %d, want %d", got, want)
	}
}

func TestProgramInterningReturnsStablePointers(t *testing.T) {
	prog := NewProgram()
	g := prog.AddGlobal("x")
	fn := prog.AddFunction("user_main", 0)

	fn.Body.Instructions = append(fn.Body.Instructions, StoreGlobal{Input: 0, Global: g})

	// cmp.Diff over the Global/Function headers (skipping Body, whose
	// Instruction values embed an unexported marker struct cmp would
	// otherwise refuse to traverse) checks the arena's entries match what
	// was interned field for field; cmp compares the pointed-to values, so
	// pointer identity is checked separately below.
	if diff := cmp.Diff(g, prog.Globals[0]); diff != "" {
		t.Fatalf("interned global identity mismatch (-want +got):\n%s", diff)
	}

	type header struct {
		Name       string
		ParamCount int
	}
	got := header{prog.Functions[0].Name, prog.Functions[0].ParamCount}
	want := header{fn.Name, fn.ParamCount}
	if diff := cmp.Diff(want, got, cmpopts.EquateComparable()); diff != "" {
		t.Fatalf("interned function header mismatch (-want +got):\n%s", diff)
	}
	if prog.Functions[0] != fn {
		t.Fatalf("interned function pointer identity mismatch")
	}
}

func TestCallOutputMustNotAliasArguments(t *testing.T) {
	// Documents the invariant from the Call doc comment: Output, when
	// present, is distinct from every Arguments entry. This is enforced
	// by the resolver, not by the ir package itself; this test only
	// pins the shape the resolver must produce.
	c := Call{
		Target:    &Function{Name: "native_add_int"},
		Arguments: []Local{0, 1},
		Output:    ptrLocal(2),
	}
	for _, a := range c.Arguments {
		if c.Output != nil && a == *c.Output {
			t.Fatalf("Output %d aliases an argument", *c.Output)
		}
	}
}
