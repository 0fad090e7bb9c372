package arch

import (
	"fmt"
	"strings"

	"github.com/skx/animationled-compiler/ir"
)

// x86ArgRegs are the SysV AMD64 integer argument registers, in order.
var x86ArgRegs = []Register{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// x86GPRegs is the allocator's pool: caller-saved scratch registers plus
// the argument registers (free for allocation between calls), excluding
// %rsp/%rbp, which the frame owns.
var x86GPRegs = []Register{"%rax", "%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9", "%r10", "%r11"}

const x86ReturnReg Register = "%rax"

// X86_64 targets the 64-bit desktop ISA: SysV AMD64 ABI, AT&T assembly
// syntax, grounded on original_source/src/arch/x86_64.rs.
type X86_64 struct{}

func (X86_64) Name() string   { return "native" }
func (X86_64) ValueSize() int { return 8 }

// Directives emits one .lcomm per global (value-size-8 cells), then the
// .text/.global user_main preamble of spec.md §6.
func (X86_64) Directives(globals []*ir.Global) string {
	var b strings.Builder
	for _, g := range globals {
		fmt.Fprintf(&b, ".lcomm %s, 8\n", g.Name)
	}
	b.WriteString(".text\n.global user_main\n")
	return b.String()
}

func (X86_64) NewFunction(fn *ir.Function, required int) Function {
	f := &x86Function{fn: fn, required: required}
	f.alloc = NewAllocator(x86GPRegs, f)
	return f
}

// x86Function lowers one Generated function's instructions to AT&T
// assembly text, threading an Allocator through every call.
type x86Function struct {
	fn       *ir.Function
	required int
	alloc    *Allocator
}

// frameSize is the stack-frame size in bytes: one 8-byte slot per local,
// rounded up so the frame itself keeps %rsp 16-byte aligned after the
// `push %rbp`.
func (f *x86Function) frameSize() int {
	size := f.required * 8
	if size%16 != 0 {
		size += 16 - size%16
	}
	return size
}

func (f *x86Function) localOffset(l ir.Local) int {
	return -8 * (int(l) + 1)
}

// LoadLocal/StoreLocal implement arch.FrameEmitter over the %rbp-relative
// local slots spec.md §4.4 describes for this backend.
func (f *x86Function) LoadLocal(reg Register, l ir.Local) string {
	return fmt.Sprintf("\tmov %d(%%rbp), %s\n", f.localOffset(l), reg)
}

func (f *x86Function) StoreLocal(reg Register, l ir.Local) string {
	return fmt.Sprintf("\tmov %s, %d(%%rbp)\n", reg, f.localOffset(l))
}

func (f *x86Function) Prologue() string {
	var b strings.Builder
	b.WriteString("\tpush %rbp\n\tmov %rsp, %rbp\n")
	if sz := f.frameSize(); sz > 0 {
		fmt.Fprintf(&b, "\tsub $%d, %%rsp\n", sz)
	}
	for i := 0; i < f.fn.ParamCount && i < len(x86ArgRegs); i++ {
		fmt.Fprintf(&b, "\tmov %s, %d(%%rbp)\n", x86ArgRegs[i], f.localOffset(ir.Local(i)))
	}
	// Parameters beyond the 6th were pushed right-to-left by the caller
	// and sit above the return address at 16(%rbp), 24(%rbp), ...
	for i := len(x86ArgRegs); i < f.fn.ParamCount; i++ {
		off := 16 + 8*(i-len(x86ArgRegs))
		fmt.Fprintf(&b, "\tmov %d(%%rbp), %%rax\n\tmov %%rax, %d(%%rbp)\n", off, f.localOffset(ir.Local(i)))
	}
	return b.String()
}

func (f *x86Function) Epilogue() string {
	return "\tmov %rbp, %rsp\n\tpop %rbp\n\tret\n"
}

func (f *x86Function) label(l ir.Label) string {
	return fmt.Sprintf(".L%s.%d", f.fn.Name, int(l))
}

func (f *x86Function) SetLabel(l ir.Label) string {
	clear := f.alloc.Clear()
	return clear + f.label(l) + ":\n"
}

func (f *x86Function) Jump(l ir.Label) string {
	spill := f.alloc.Spill()
	return fmt.Sprintf("%s\tjmp %s\n", spill, f.label(l))
}

func (f *x86Function) JumpIfFalse(cond ir.Local, l ir.Label) string {
	reg, load := f.alloc.Read(cond)
	spill := f.alloc.Spill()
	return fmt.Sprintf("%s\ttestq %s, %s\n%s\tjz %s\n", load, reg, reg, spill, f.label(l))
}

func (f *x86Function) LoadConst(v int32, out ir.Local) string {
	reg, pre := f.alloc.Write(out)
	return fmt.Sprintf("%s\tmov $%d, %s\n", pre, v, reg)
}

func (f *x86Function) LoadGlobal(g *ir.Global, out ir.Local) string {
	reg, pre := f.alloc.Write(out)
	return fmt.Sprintf("%s\tmov %s(%%rip), %s\n", pre, g.Name, reg)
}

func (f *x86Function) StoreGlobal(in ir.Local, g *ir.Global) string {
	reg, load := f.alloc.Read(in)
	return fmt.Sprintf("%s\tmov %s, %s(%%rip)\n", load, reg, g.Name)
}

func (f *x86Function) Call(target *ir.Function, args []ir.Local, out *ir.Local) string {
	if strings.HasPrefix(target.Name, "native_") {
		return f.callNative(strings.TrimPrefix(target.Name, "native_"), args, out)
	}

	var b strings.Builder
	b.WriteString(f.alloc.Spill())

	n := len(args)
	direct := n
	if direct > len(x86ArgRegs) {
		direct = len(x86ArgRegs)
	}
	for i := 0; i < direct; i++ {
		r, load := f.alloc.Read(args[i])
		b.WriteString(load)
		if r != x86ArgRegs[i] {
			fmt.Fprintf(&b, "\tmov %s, %s\n", r, x86ArgRegs[i])
		}
	}

	// Arguments beyond the 6th are pushed right-to-left; an odd count
	// needs one word of padding to keep %rsp 16-byte aligned at `call`.
	extra := n - direct
	if extra%2 != 0 {
		b.WriteString("\tsub $8, %rsp\n")
	}
	for i := n - 1; i >= direct; i-- {
		r, load := f.alloc.Read(args[i])
		b.WriteString(load)
		fmt.Fprintf(&b, "\tpush %s\n", r)
	}

	fmt.Fprintf(&b, "\tcall %s\n", target.Name)

	if stackBytes := extra * 8; stackBytes > 0 || extra%2 != 0 {
		if extra%2 != 0 {
			stackBytes += 8
		}
		fmt.Fprintf(&b, "\tadd $%d, %%rsp\n", stackBytes)
	}

	b.WriteString(f.alloc.Clear())
	if out != nil {
		b.WriteString(f.alloc.AssertDirty(x86ReturnReg, *out))
	}
	return b.String()
}

// callNative inlines the handful of CPU-native integer/boolean operations
// the resolver routes through a synthetic "native_*" Call target instead
// of a dedicated IR opcode (see resolver.native). "/" and "**" over Int
// still dispatch to the runtime (spec.md §4.3), so div_int/pow_int fall
// through to a real `call` against the matching builtin.
func (f *x86Function) callNative(op string, args []ir.Local, out *ir.Local) string {
	switch op {
	case "div_int":
		return f.Call(&ir.Function{Name: "builtin_div_int", Body: ir.FunctionBody{External: true}}, args, out)
	case "pow_int":
		return f.Call(&ir.Function{Name: "builtin_pow_int", Body: ir.FunctionBody{External: true}}, args, out)
	case "not":
		src, load := f.alloc.Read(args[0])
		scratch, sLoad := f.alloc.Scratch([]Register{src})
		dst, pre := f.alloc.Write(*out)
		return fmt.Sprintf("%s%s%s\tcmp $0, %s\n\tsete %s\n\tmovzx %s, %s\n",
			load, sLoad, pre, src, lowByte(scratch), lowByte(scratch), dst)
	case "copy":
		src, load := f.alloc.Read(args[0])
		dst, pre := f.alloc.Write(*out)
		return fmt.Sprintf("%s%s\tmov %s, %s\n", load, pre, src, dst)
	case "negate_int":
		src, load := f.alloc.Read(args[0])
		dst, pre := f.alloc.Write(*out)
		return fmt.Sprintf("%s%s\tmov %s, %s\n\tneg %s\n", load, pre, src, dst, dst)
	case "intdiv_int", "mod_int":
		return f.callDivMod(op, args, out)
	}

	lhs, lload := f.alloc.Read(args[0])
	rhs, rload := f.alloc.Read(args[1])
	dst, pre := f.alloc.Write(*out)
	var b strings.Builder
	b.WriteString(lload)
	b.WriteString(rload)
	b.WriteString(pre)

	switch op {
	case "add_int":
		fmt.Fprintf(&b, "\tmov %s, %s\n\tadd %s, %s\n", lhs, dst, rhs, dst)
	case "sub_int":
		fmt.Fprintf(&b, "\tmov %s, %s\n\tsub %s, %s\n", lhs, dst, rhs, dst)
	case "mul_int":
		fmt.Fprintf(&b, "\tmov %s, %s\n\timul %s, %s\n", lhs, dst, rhs, dst)
	case "lt_int", "le_int", "gt_int", "ge_int", "eq", "ne":
		setcc := map[string]string{
			"lt_int": "setl", "le_int": "setle", "gt_int": "setg", "ge_int": "setge",
			"eq": "sete", "ne": "setne",
		}[op]
		fmt.Fprintf(&b, "\tcmp %s, %s\n\t%s %s\n\tmovzx %s, %s\n", rhs, lhs, setcc, lowByte(dst), lowByte(dst), dst)
	default:
		panic("arch: unknown native op " + op)
	}
	return b.String()
}

// callDivMod computes `lhs op rhs` via the idiv instruction, which forces
// the dividend into %rax/%rdx — exactly the scenario AssertDirty exists
// for (spec.md §4.4's "used when the callee ABI forces a value into a
// specific register without going through a load").
func (f *x86Function) callDivMod(op string, args []ir.Local, out *ir.Local) string {
	var b strings.Builder
	lhs, lload := f.alloc.ReadInto(args[0], []Register{"%rax", "%rdx"})
	b.WriteString(lload)
	rhs, rload := f.alloc.ReadInto(args[1], []Register{"%rax", "%rdx"})
	b.WriteString(rload)

	b.WriteString(f.alloc.AssertDirty("%rax", args[0]))
	if lhs != "%rax" {
		fmt.Fprintf(&b, "\tmov %s, %%rax\n", lhs)
	}
	b.WriteString("\tcqto\n")
	fmt.Fprintf(&b, "\tidiv %s\n", rhs)

	if op == "intdiv_int" {
		b.WriteString(f.alloc.AssertDirty("%rax", *out))
	} else {
		b.WriteString(f.alloc.AssertDirty("%rdx", *out))
	}
	return b.String()
}

// lowByte returns the 8-bit sub-register name for a setcc destination.
func lowByte(r Register) string {
	names := map[Register]string{
		"%rax": "%al", "%rbx": "%bl", "%rcx": "%cl", "%rdx": "%dl",
		"%rsi": "%sil", "%rdi": "%dil", "%r8": "%r8b", "%r9": "%r9b",
		"%r10": "%r10b", "%r11": "%r11b",
	}
	if n, ok := names[r]; ok {
		return n
	}
	return string(r)
}
