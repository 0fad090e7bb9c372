// Package ir defines the three-address intermediate representation that
// the resolver emits and the code generator consumes, per spec.md §3.
//
// Globals and Functions are interned once into a Program's arena slices;
// instructions hold direct Go pointers into those slices rather than the
// original Rust source's Rc<Global>/Rc<Function> shared-pointer handles.
// A Go pointer into an arena slice plays the same role an index would —
// stable identity, no ownership-transfer ceremony — without needing a
// borrow checker to prove it's safe, so there is no separate index type to
// thread through the resolver. See DESIGN.md for this Open Question's
// resolution.
package ir

// Local is a word-sized, function-scoped storage slot index.
type Local int

// Label is a per-function jump-target index.
type Label int

// Global is a named, word-sized, program-scoped storage cell.
type Global struct {
	Name string
}

// FunctionBody is either External (the runtime provides the code) or
// Generated (instructions this compiler must emit).
type FunctionBody struct {
	External     bool
	Instructions []Instruction
}

// Function is one procedure's or builtin's external symbol plus body.
type Function struct {
	Name       string
	ParamCount int
	Body       FunctionBody
}

// Instruction is the closed set of IR operations from spec.md §3.
type Instruction interface {
	instructionNode()
}

type base struct{}

func (base) instructionNode() {}

// SetLabel defines a jump target.
type SetLabel struct {
	base
	Label Label
}

// Jump is an unconditional jump to Label.
type Jump struct {
	base
	Label Label
}

// JumpIfFalse jumps to Label when Cond is zero/false.
type JumpIfFalse struct {
	base
	Cond  Local
	Label Label
}

// LoadConst materializes an int32 constant into a local.
type LoadConst struct {
	base
	Value  int32
	Output Local
}

// LoadGlobal reads a global cell into a local.
type LoadGlobal struct {
	base
	Global *Global
	Output Local
}

// StoreGlobal writes a local's value into a global cell.
type StoreGlobal struct {
	base
	Input  Local
	Global *Global
}

// Call invokes a Function (user procedure or builtin) with the given
// argument locals, optionally capturing its result into Output.
//
// Invariant (spec.md §3): Output, when present, must be distinct from every
// entry of Arguments, so that marshaling arguments into the callee's ABI
// registers cannot clobber the output local before the call executes.
type Call struct {
	base
	Target    *Function
	Arguments []Local
	Output    *Local
}

// Program is the whole compiled unit: the interned set of globals and
// functions produced by the resolver.
type Program struct {
	Globals   []*Global
	Functions []*Function
}

// NewProgram returns an empty Program ready to be populated by the
// resolver via AddGlobal/AddFunction.
func NewProgram() *Program {
	return &Program{}
}

// AddGlobal interns a new global cell and returns it.
func (p *Program) AddGlobal(name string) *Global {
	g := &Global{Name: name}
	p.Globals = append(p.Globals, g)
	return g
}

// AddFunction interns a new function descriptor and returns it.
func (p *Program) AddFunction(name string, paramCount int) *Function {
	f := &Function{Name: name, ParamCount: paramCount}
	p.Functions = append(p.Functions, f)
	return f
}

// RequiredLocals computes the number of locals a Generated function's
// frame must reserve: the greatest of its parameter count and one more
// than the highest local index referenced by any instruction, per
// spec.md §4.4's shared front end.
func RequiredLocals(fn *Function) int {
	required := fn.ParamCount
	for _, instr := range fn.Body.Instructions {
		if n := instructionMaxLocal(instr); n+1 > required {
			required = n + 1
		}
	}
	return required
}

func instructionMaxLocal(instr Instruction) int {
	switch in := instr.(type) {
	case SetLabel, Jump:
		return -1
	case JumpIfFalse:
		return int(in.Cond)
	case LoadConst:
		return int(in.Output)
	case LoadGlobal:
		return int(in.Output)
	case StoreGlobal:
		return int(in.Input)
	case Call:
		max := -1
		for _, a := range in.Arguments {
			if int(a) > max {
				max = int(a)
			}
		}
		if in.Output != nil && int(*in.Output) > max {
			max = int(*in.Output)
		}
		return max
	default:
		return -1
	}
}
