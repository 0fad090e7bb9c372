package arch

import "github.com/skx/animationled-compiler/ir"

// slot is one register's current occupant: the local it holds, and
// whether that value has been written since it was loaded (and so must
// be spilled before the slot can be reused or before the register's
// value may be forgotten).
type slot struct {
	local *ir.Local
	dirty bool
}

// Allocator is the fixed-size register file of spec.md §4.4: one slot
// per architected GP register, each empty or holding {local, dirty}.
// Every backend owns one Allocator per function, wired to that
// function's FrameEmitter so spills and reloads land in the right
// stack-frame slots.
type Allocator struct {
	regs  []Register
	slots []slot
	frame FrameEmitter
}

// NewAllocator returns an allocator over regs, spilling/reloading
// through frame.
func NewAllocator(regs []Register, frame FrameEmitter) *Allocator {
	return &Allocator{regs: regs, slots: make([]slot, len(regs)), frame: frame}
}

func (a *Allocator) indexHolding(local ir.Local) int {
	for i, s := range a.slots {
		if s.local != nil && *s.local == local {
			return i
		}
	}
	return -1
}

func locked(reg Register, lockedRegs []Register) bool {
	for _, l := range lockedRegs {
		if l == reg {
			return true
		}
	}
	return false
}

func (a *Allocator) spillSlot(i int) string {
	s := a.slots[i]
	out := ""
	if s.local != nil && s.dirty {
		out = a.frame.StoreLocal(a.regs[i], *s.local)
	}
	a.slots[i] = slot{}
	return out
}

type slotPick struct {
	idx int
	asm string
}

func (a *Allocator) takeSlotWithAsm(lockedRegs []Register) slotPick {
	for i, s := range a.slots {
		if s.local == nil && !locked(a.regs[i], lockedRegs) {
			return slotPick{idx: i}
		}
	}
	for i := range a.slots {
		if !locked(a.regs[i], lockedRegs) {
			asm := a.spillSlot(i)
			return slotPick{idx: i, asm: asm}
		}
	}
	panic("arch: register allocator exhausted — every slot locked")
}

// Read returns the register holding local's value (reloading it if it
// isn't already resident) and the assembly text needed to get there.
func (a *Allocator) Read(local ir.Local) (Register, string) {
	return a.ReadInto(local, nil)
}

// ReadInto is Read with a set of registers the allocator must not choose
// or evict when a reload is required.
func (a *Allocator) ReadInto(local ir.Local, lockedRegs []Register) (Register, string) {
	if i := a.indexHolding(local); i >= 0 {
		return a.regs[i], ""
	}
	pick := a.takeSlotWithAsm(lockedRegs)
	load := a.frame.LoadLocal(a.regs[pick.idx], local)
	a.slots[pick.idx] = slot{local: &local, dirty: false}
	return a.regs[pick.idx], pick.asm + load
}

// Write reserves a register to hold local's new value, marking it dirty
// so a later Spill writes it back. It never loads the old value.
func (a *Allocator) Write(local ir.Local) (Register, string) {
	if i := a.indexHolding(local); i >= 0 {
		a.slots[i].dirty = true
		return a.regs[i], ""
	}
	pick := a.takeSlotWithAsm(nil)
	a.slots[pick.idx] = slot{local: &local, dirty: true}
	return a.regs[pick.idx], pick.asm
}

// Scratch returns a register holding no live local, usable as temporary
// storage across a single instruction; it may spill a victim.
func (a *Allocator) Scratch(lockedRegs []Register) (Register, string) {
	pick := a.takeSlotWithAsm(lockedRegs)
	a.slots[pick.idx] = slot{}
	return a.regs[pick.idx], pick.asm
}

// AssertDirty marks reg as holding local's value without emitting a
// load, used when the callee ABI has already placed the value there
// (e.g. a call's return register).
func (a *Allocator) AssertDirty(reg Register, local ir.Local) string {
	for i, r := range a.regs {
		if r == reg {
			asm := a.spillSlot(i)
			a.slots[i] = slot{local: &local, dirty: true}
			return asm
		}
	}
	panic("arch: AssertDirty on unknown register " + string(reg))
}

// Spill writes every dirty slot back to its local's home stack slot,
// without forgetting which local each register holds. Used before a
// call or an unconditional jump whose target expects memory to be
// up to date but whose live-register set is unaffected.
func (a *Allocator) Spill() string {
	out := ""
	for i, s := range a.slots {
		if s.local != nil && s.dirty {
			out += a.frame.StoreLocal(a.regs[i], *s.local)
			a.slots[i].dirty = false
		}
	}
	return out
}

// Clear spills every dirty slot and then forgets all residency, used at
// a label landing pad where the allocator cannot assume anything about
// which locals (if any) predecessor edges left in registers.
func (a *Allocator) Clear() string {
	out := a.Spill()
	for i := range a.slots {
		a.slots[i] = slot{}
	}
	return out
}
