// Package arch defines the per-target backend contract the code generator
// drives: register files, ABI constants, and instruction lowering, for the
// two architectures of spec.md §4.4 (a 64-bit desktop ISA and the Xtensa
// call0 embedded ISA).
//
// Grounded on original_source/src/arch/{x86_64,xtensa}.rs for the ABI
// constants and original_source/src/codegen/{mod,xtensa}.rs for the
// register-allocator contract; the teacher's compiler/generator.go shows
// the "one gen*-style function per IR concern returning assembly text"
// shape this package generalizes to two backends instead of one.
package arch

import "github.com/skx/animationled-compiler/ir"

// Register is one architected general-purpose register's assembly-text
// spelling (e.g. "%rax" or "a2").
type Register string

// FrameEmitter lets the allocator spill/reload a local to/from its
// stack-frame home slot without knowing the target's frame layout.
type FrameEmitter interface {
	LoadLocal(reg Register, local ir.Local) string
	StoreLocal(reg Register, local ir.Local) string
}

// Target is one backend: it knows its value size, its global/section
// directives, and how to build a per-function code generator.
type Target interface {
	// Name identifies the target for diagnostics and the --target flag.
	Name() string

	// ValueSize is the machine word size in bytes: 8 for the desktop
	// ISA, 4 for Xtensa.
	ValueSize() int

	// Directives renders the program-wide prologue: one .lcomm per
	// global, then .text and .global user_main, per spec.md §6.
	Directives(globals []*ir.Global) string

	// NewFunction returns a fresh per-function code generator. required
	// is the locals count computed by ir.RequiredLocals.
	NewFunction(fn *ir.Function, required int) Function
}

// Function emits one Generated function's body, instruction by
// instruction, threading its own register allocator through the calls.
// Every method returns the assembly text to append; there is no shared
// mutable output buffer, so two Functions' output is independent and
// codegen.Emit's byte-for-byte determinism (spec.md §8) follows directly
// from each method being a pure function of instruction + allocator state.
type Function interface {
	Prologue() string
	Epilogue() string

	SetLabel(l ir.Label) string
	Jump(l ir.Label) string
	JumpIfFalse(cond ir.Local, l ir.Label) string
	LoadConst(v int32, out ir.Local) string
	LoadGlobal(g *ir.Global, out ir.Local) string
	StoreGlobal(in ir.Local, g *ir.Global) string
	Call(target *ir.Function, args []ir.Local, out *ir.Local) string
}
