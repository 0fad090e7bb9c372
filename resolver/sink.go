package resolver

import (
	"github.com/skx/animationled-compiler/ir"
	"github.com/skx/animationled-compiler/stack"
)

// Sink abstracts "where lowered IR goes", so the same expression/statement
// lowering code serves both resolver passes: Pass 1 type-checks leading
// global initializers with a TypeCheckSink that throws instructions away,
// and Pass 2 lowers full procedure bodies with a ListingSink that appends
// to a real ir.Function. Grounded on the teacher's two-step
// tokenize-then-makeinternalform split (compiler/compiler.go), generalized
// from "two passes over tokens" to "two sinks over one lowering pass".
type Sink interface {
	Emit(instr ir.Instruction)
	AllocLocal() ir.Local
	FreeLocal(l ir.Local)
	NewLabel() ir.Label
}

// TypeCheckSink discards every instruction; only the types it derives
// along the way matter. Locals and labels are still handed out so the
// lowering code has something to reference, but numbering resets per use.
type TypeCheckSink struct {
	nextLocal int
	nextLabel int
}

// NewTypeCheckSink returns a fresh Pass 1 sink.
func NewTypeCheckSink() *TypeCheckSink { return &TypeCheckSink{} }

func (s *TypeCheckSink) Emit(ir.Instruction) {}

func (s *TypeCheckSink) AllocLocal() ir.Local {
	l := ir.Local(s.nextLocal)
	s.nextLocal++
	return l
}

func (s *TypeCheckSink) FreeLocal(ir.Local) {}

func (s *TypeCheckSink) NewLabel() ir.Label {
	l := ir.Label(s.nextLabel)
	s.nextLabel++
	return l
}

// ListingSink lowers into a real ir.Function body. Locals are a stack
// allocator with a free list (alloc_local/free_local of spec.md §4.3):
// AllocLocal returns a freed slot if one is available, else bumps a
// monotonic counter; FreeLocal records the slot for reuse and panics on
// double-free or an out-of-range slot, matching the teacher's willingness
// to panic on an internal invariant violation (see genFactorial/genPower's
// label-uniqueness assumption in compiler/generator.go).
//
// The free list itself is the teacher's generic stack.Stack: freeing a
// slot pushes it, allocating pops the most recently freed one first,
// which keeps reused locals clustered near the bottom of the frame.
type ListingSink struct {
	fn        *ir.Function
	freeList  *stack.Stack[ir.Local]
	allocated []bool
	nextLabel int
}

// NewListingSink returns a Pass 2 sink appending to fn.
func NewListingSink(fn *ir.Function) *ListingSink {
	return &ListingSink{fn: fn, freeList: stack.New[ir.Local]()}
}

func (s *ListingSink) Emit(instr ir.Instruction) {
	s.fn.Body.Instructions = append(s.fn.Body.Instructions, instr)
}

func (s *ListingSink) AllocLocal() ir.Local {
	if !s.freeList.Empty() {
		l, _ := s.freeList.Pop()
		s.allocated[l] = true
		return l
	}
	l := ir.Local(len(s.allocated))
	s.allocated = append(s.allocated, true)
	return l
}

func (s *ListingSink) FreeLocal(l ir.Local) {
	if int(l) < 0 || int(l) >= len(s.allocated) {
		panic("resolver: free_local out of range")
	}
	if !s.allocated[l] {
		panic("resolver: double free_local")
	}
	s.allocated[l] = false
	s.freeList.Push(l)
}

func (s *ListingSink) NewLabel() ir.Label {
	l := ir.Label(s.nextLabel)
	s.nextLabel++
	return l
}

// ReserveParamLocals pre-allocates locals 0..n-1 for the parameters the
// caller is about to install, so the first AllocLocal call afterwards
// starts at n.
func (s *ListingSink) ReserveParamLocals(n int) {
	for i := 0; i < n; i++ {
		s.allocated = append(s.allocated, true)
	}
}
