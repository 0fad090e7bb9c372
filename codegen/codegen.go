// Package codegen is the shared front end of spec.md §4.4: it walks an
// ir.Program's Generated functions and asks an arch.Target to lower each
// instruction, writing section headers and per-function locals counts
// the same way for every backend.
//
// Grounded on original_source/src/codegen/mod.rs's emit/emit_body/
// required_locals split, and on the teacher's compiler/generator.go for
// the "one package owns the textual assembly stream" shape — generalized
// here from one backend to a target-parameterized driver.
package codegen

import (
	"fmt"
	"io"

	"github.com/skx/animationled-compiler/arch"
	"github.com/skx/animationled-compiler/ir"
)

// Emit writes target's assembly rendering of prog to w: the global
// directives, then one section per Generated function. External
// functions (runtime builtins) contribute no code of their own.
func Emit(prog *ir.Program, target arch.Target, w io.Writer) error {
	if _, err := io.WriteString(w, target.Directives(prog.Globals)); err != nil {
		return err
	}

	for _, fn := range prog.Functions {
		if fn.Body.External {
			continue
		}
		if err := emitFunction(fn, target, w); err != nil {
			return fmt.Errorf("codegen: function %s: %w", fn.Name, err)
		}
	}
	return nil
}

func emitFunction(fn *ir.Function, target arch.Target, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "\n.section .text.%s\n%s:\n", fn.Name, fn.Name); err != nil {
		return err
	}

	required := ir.RequiredLocals(fn)
	f := target.NewFunction(fn, required)

	if _, err := io.WriteString(w, f.Prologue()); err != nil {
		return err
	}

	for _, instr := range fn.Body.Instructions {
		text, err := lower(f, instr)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, f.Epilogue())
	return err
}

// lower dispatches one IR instruction to the matching arch.Function
// method, per the instruction-lowering table of spec.md §4.4.
func lower(f arch.Function, instr ir.Instruction) (string, error) {
	switch in := instr.(type) {
	case ir.SetLabel:
		return f.SetLabel(in.Label), nil
	case ir.Jump:
		return f.Jump(in.Label), nil
	case ir.JumpIfFalse:
		return f.JumpIfFalse(in.Cond, in.Label), nil
	case ir.LoadConst:
		return f.LoadConst(in.Value, in.Output), nil
	case ir.LoadGlobal:
		return f.LoadGlobal(in.Global, in.Output), nil
	case ir.StoreGlobal:
		return f.StoreGlobal(in.Input, in.Global), nil
	case ir.Call:
		return f.Call(in.Target, in.Arguments, in.Output), nil
	default:
		return "", fmt.Errorf("unhandled IR instruction %T", instr)
	}
}

// Targets lists the --target flag's closed set, by name.
func Targets() map[string]arch.Target {
	return map[string]arch.Target{
		"native":  arch.X86_64{},
		"esp8266": arch.Xtensa{},
	}
}
