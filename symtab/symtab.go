// Package symtab implements the lexically-nested symbol table described in
// spec.md §3: variables (each with an access and a semantic type),
// procedures (stored as overload families keyed by parameter-type tuple),
// and a per-scope set of identifiers lifted to global visibility.
package symtab

import (
	"strings"

	"github.com/skx/animationled-compiler/ir"
)

// Type is the closed set of semantic types.
type Type int

const (
	Int Type = iota
	Bool
	List
	Mat
	Float
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case List:
		return "list"
	case Mat:
		return "mat"
	case Float:
		return "float"
	default:
		return "?"
	}
}

// IsHeap reports whether values of this type are heap-allocated and
// reference-counted by the runtime (List, Mat), per spec.md §3.
func (t Type) IsHeap() bool {
	return t == List || t == Mat
}

// TypeTuple is an ordered parameter-type signature, used as an overload
// family's map key.
type TypeTuple string

// MakeTypeTuple builds the map key for an ordered list of argument types.
func MakeTypeTuple(types []Type) TypeTuple {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return TypeTuple(strings.Join(parts, ","))
}

// TypeListString renders an ordered type list for NoSuchOverload-style
// human-readable diagnostics.
func TypeListString(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// AccessKind distinguishes a global cell from a function-local slot.
type AccessKind int

const (
	GlobalAccess AccessKind = iota
	LocalAccess
)

// Access is where a variable's storage lives.
type Access struct {
	Kind AccessKind
	// Name is the mangled global symbol, valid when Kind == GlobalAccess.
	Name string
	// Slot is the local index, valid when Kind == LocalAccess.
	Slot int
}

// Variable is a symbol table entry for a single variable.
type Variable struct {
	Access Access
	Type   Type
}

// Overload is one member of a procedure's overload family: the external
// (mangled) symbol generated for one parameter-type tuple, and the single
// ir.Function arena entry every call site and the eventual body-lowering
// pass share (set once, during Pass 1's header scan).
type Overload struct {
	ParamTypes []Type
	Mangled    string
	Fn         *ir.Function
}

// ProcFamily is the set of overloads sharing one surface name.
type ProcFamily struct {
	Name      string
	Overloads map[TypeTuple]*Overload
}

func newProcFamily(name string) *ProcFamily {
	return &ProcFamily{Name: name, Overloads: make(map[TypeTuple]*Overload)}
}

// Lookup finds the overload matching an exact parameter-type tuple.
func (f *ProcFamily) Lookup(types []Type) (*Overload, bool) {
	o, ok := f.Overloads[MakeTypeTuple(types)]
	return o, ok
}

// Add inserts a new overload, returning false if one with the same
// parameter-type tuple already exists (a SignatureClash, reported at the
// duplicate declaration).
func (f *ProcFamily) Add(types []Type, mangled string) bool {
	key := MakeTypeTuple(types)
	if _, exists := f.Overloads[key]; exists {
		return false
	}
	f.Overloads[key] = &Overload{ParamTypes: types, Mangled: mangled}
	return true
}

// entry is either a variable or a procedure-overload family.
type entry struct {
	variable *Variable
	procs    *ProcFamily
}

// Scope is one lexically-nested level of the symbol table.
type Scope struct {
	parent  *Scope
	entries map[string]*entry
	lifted  map[string]bool
}

// NewRoot creates the outermost (global) scope.
func NewRoot() *Scope {
	return &Scope{entries: make(map[string]*entry), lifted: make(map[string]bool)}
}

// Child opens a nested scope, e.g. for a procedure body.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, entries: make(map[string]*entry), lifted: make(map[string]bool)}
}

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

func normalize(name string) string { return strings.ToLower(name) }

// DeclareVariable installs a new variable in the current scope, shadowing
// any variable of the same name in an enclosing scope. It returns false if
// a procedure family of the same name already exists in this exact scope
// (a NameClash).
func (s *Scope) DeclareVariable(name string, v Variable) bool {
	key := normalize(name)
	if e, ok := s.entries[key]; ok && e.procs != nil {
		return false
	}
	s.entries[key] = &entry{variable: &v}
	return true
}

// DeclareProcFamily installs (or returns the existing) overload family for
// name in the current scope. It returns false if a variable of the same
// name already exists in this exact scope (a NameClash).
func (s *Scope) DeclareProcFamily(name string) (*ProcFamily, bool) {
	key := normalize(name)
	if e, ok := s.entries[key]; ok {
		if e.variable != nil {
			return nil, false
		}
		return e.procs, true
	}
	fam := newProcFamily(name)
	s.entries[key] = &entry{procs: fam}
	return fam, true
}

// LookupVariable walks outward through parent scopes looking for a
// variable named name.
func (s *Scope) LookupVariable(name string) (*Variable, bool) {
	key := normalize(name)
	for scope := s; scope != nil; scope = scope.parent {
		if e, ok := scope.entries[key]; ok {
			if e.variable != nil {
				return e.variable, true
			}
			return nil, false
		}
	}
	return nil, false
}

// LookupProcFamily walks outward through parent scopes looking for an
// overload family named name.
func (s *Scope) LookupProcFamily(name string) (*ProcFamily, bool) {
	key := normalize(name)
	for scope := s; scope != nil; scope = scope.parent {
		if e, ok := scope.entries[key]; ok {
			if e.procs != nil {
				return e.procs, true
			}
			return nil, false
		}
	}
	return nil, false
}

// Lift marks name as lifted-to-global in the current scope, so that a
// subsequent assignment bypasses the local-shadow rule.
func (s *Scope) Lift(name string) {
	s.lifted[normalize(name)] = true
}

// IsLifted walks outward through parent scopes checking the lifted flag.
func (s *Scope) IsLifted(name string) bool {
	key := normalize(name)
	for scope := s; scope != nil; scope = scope.parent {
		if scope.lifted[key] {
			return true
		}
	}
	return false
}

// DeclaredHere reports whether name is declared directly in this scope
// (not an ancestor), used to decide whether an assignment target is a
// fresh local or a mutation of an existing one.
func (s *Scope) DeclaredHere(name string) bool {
	_, ok := s.entries[normalize(name)]
	return ok
}
