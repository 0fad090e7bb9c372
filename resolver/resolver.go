// Package resolver implements the two-pass name resolution, overload
// selection, type checking, ownership tracking, and IR emission described
// in spec.md §4.3. Pass 1 (global scope scan) and Pass 2 (per-procedure
// body lowering) share one expression/statement lowering walk,
// parameterized by a Sink (see sink.go) the way the teacher's
// compiler.Compile shares tokenize/makeinternalform across a single
// Compiler object (compiler/compiler.go).
package resolver

import (
	"fmt"
	"strings"

	"github.com/skx/animationled-compiler/ast"
	"github.com/skx/animationled-compiler/ir"
	"github.com/skx/animationled-compiler/symtab"
	"github.com/skx/animationled-compiler/token"
)

// Ownership is the result tag of spec.md §4.3's ownership analysis.
type Ownership int

const (
	Owned Ownership = iota
	Borrowed
)

// Resolver holds the mutable state threaded through the single traversal:
// one symbol table, one IR program under construction, and the cache of
// interned native/builtin external functions. Spec.md §5 calls for exactly
// one writer at a time by construction of the recursive descent; there is
// no locking here for the same reason the teacher's Compiler needs none.
type Resolver struct {
	root     *symtab.Scope
	prog     *ir.Program
	builtins map[string]*ir.Function

	// globalNames preserves the declaration order of Pass 1's leading
	// globals, and globalInitialized tracks which of them Pass 2 has
	// already written once (GlobalInit -> Main mode transition).
	globalNames       []string
	globalInitialized map[string]bool
}

// New returns a Resolver ready to run Resolve over a parsed Program.
func New() *Resolver {
	return &Resolver{
		root:              symtab.NewRoot(),
		prog:              ir.NewProgram(),
		builtins:          make(map[string]*ir.Function),
		globalInitialized: make(map[string]bool),
	}
}

// Resolve runs both passes and returns the completed ir.Program.
func (r *Resolver) Resolve(prog *ast.Program) (*ir.Program, *Error) {
	if err := r.pass1(prog); err != nil {
		return nil, err
	}
	if err := r.pass2(prog); err != nil {
		return nil, err
	}
	return r.prog, nil
}

// ---- builtin/native function interning -------------------------------------

// builtin returns the (interned, External) ir.Function for a runtime ABI
// symbol named in spec.md §6, creating it on first use.
func (r *Resolver) builtin(name string) *ir.Function {
	if fn, ok := r.builtins[name]; ok {
		return fn
	}
	fn := &ir.Function{Name: name, Body: ir.FunctionBody{External: true}}
	r.builtins[name] = fn
	r.prog.Functions = append(r.prog.Functions, fn)
	return fn
}

// native returns the interned pseudo-function for a CPU-native operation
// (integer/bool arithmetic and comparison). The IR's instruction set
// (ir.go, mirroring original_source/src/ir.rs) has no dedicated
// arithmetic/comparison opcode — only Call carries operands to a named
// target — so "native" operators are represented as Calls against a
// fixed-name External function the backend recognizes by its "native_"
// prefix and lowers inline (see arch package), rather than as real
// out-of-line calls. This keeps one IR Call shape for both runtime
// builtins and native ops instead of adding a second instruction kind.
func (r *Resolver) native(name string) *ir.Function {
	return r.builtin("native_" + name)
}

// ---- Pass 1: global scope scan ---------------------------------------------

func (r *Resolver) pass1(prog *ast.Program) *Error {
	var mainProc *ast.Procedure
	mainCount := 0
	for _, proc := range prog.Procedures {
		if strings.EqualFold(proc.Name, "main") && len(proc.Params) == 0 {
			mainCount++
			mainProc = proc
		}
	}
	if mainCount != 1 {
		return errNoMain(prog.Span())
	}

	if err := r.scanLeadingGlobals(mainProc); err != nil {
		return err
	}

	for _, proc := range prog.Procedures {
		if err := r.declareProcHeader(proc); err != nil {
			return err
		}
	}
	return nil
}

// scanLeadingGlobals walks main's top-level statements while they remain a
// contiguous run of single-target, single-value assignments to
// not-yet-declared bare identifiers, per spec.md §4.3 Pass 1 step 2.
func (r *Resolver) scanLeadingGlobals(main *ast.Procedure) *Error {
	sink := NewTypeCheckSink()
	scope := r.root

	for _, stmt := range main.Body {
		assign, ok := stmt.(*ast.AssignStmt)
		if !ok || len(assign.Targets) != 1 || len(assign.Values) != 1 {
			return nil
		}
		v, ok := assign.Targets[0].(*ast.VarExpr)
		if !ok {
			return nil
		}
		if _, exists := r.root.LookupVariable(v.Name); exists {
			return nil
		}

		typ, _, err := r.lowerExpr(scope, sink, assign.Values[0])
		if err != nil {
			return err
		}

		mangled := Mangle(v.Name, nil)
		if !r.root.DeclareVariable(v.Name, symtab.Variable{
			Access: symtab.Access{Kind: symtab.GlobalAccess, Name: mangled},
			Type:   typ,
		}) {
			return errNameClash(v.Span(), v.Name)
		}
		r.prog.AddGlobal(mangled)
		r.globalNames = append(r.globalNames, v.Name)
	}
	return nil
}

func (r *Resolver) declareProcHeader(proc *ast.Procedure) *Error {
	fam, ok := r.root.DeclareProcFamily(proc.Name)
	if !ok {
		return errNameClash(proc.Span(), proc.Name)
	}

	seen := map[string]bool{}
	paramTypes := make([]symtab.Type, len(proc.Params))
	for i, p := range proc.Params {
		key := strings.ToLower(p.Name)
		if seen[key] {
			return errRepeatedParameter(p.Span(), p.Name)
		}
		seen[key] = true

		t, err := r.resolveSyntaxType(p.Type)
		if err != nil {
			return err
		}
		paramTypes[i] = t
	}

	mangled := Mangle(proc.Name, paramTypes)
	if !fam.Add(paramTypes, mangled) {
		return errSignatureClash(proc.Span(), proc.Name, paramTypes)
	}
	overload, _ := fam.Lookup(paramTypes)
	overload.Fn = r.prog.AddFunction(mangled, len(paramTypes))
	return nil
}

// resolveSyntaxType evaluates a SyntaxType into a symtab.Type: either the
// bare keyword, or (for `type(expr)`) the inferred type of expr.
func (r *Resolver) resolveSyntaxType(st ast.SyntaxType) (symtab.Type, *Error) {
	if st.OfExpr != nil {
		typ, _, err := r.lowerExpr(r.root, NewTypeCheckSink(), st.OfExpr)
		return typ, err
	}
	switch st.Keyword {
	case token.KW_INT:
		return symtab.Int, nil
	case token.KW_BOOL:
		return symtab.Bool, nil
	case token.KW_LIST:
		return symtab.List, nil
	case token.KW_MAT:
		return symtab.Mat, nil
	case token.KW_FLOAT:
		return symtab.Float, nil
	default:
		return 0, newError(ExpectedVar, st.Span(), "not a valid type")
	}
}

// ---- Pass 2: body lowering --------------------------------------------------

func (r *Resolver) pass2(prog *ast.Program) *Error {
	for _, proc := range prog.Procedures {
		if err := r.lowerProcedure(proc); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) lowerProcedure(proc *ast.Procedure) *Error {
	fam, _ := r.root.LookupProcFamily(proc.Name)
	paramTypes := make([]symtab.Type, len(proc.Params))
	for i, p := range proc.Params {
		t, err := r.resolveSyntaxType(p.Type)
		if err != nil {
			return err
		}
		paramTypes[i] = t
	}
	overload, _ := fam.Lookup(paramTypes)
	fn := overload.Fn

	scope := r.root.Child()
	sink := NewListingSink(fn)
	sink.ReserveParamLocals(len(proc.Params))

	for i, p := range proc.Params {
		scope.DeclareVariable(p.Name, symtab.Variable{
			Access: symtab.Access{Kind: symtab.LocalAccess, Slot: i},
			Type:   paramTypes[i],
		})
	}

	isMain := strings.EqualFold(proc.Name, "main")
	if err := r.lowerStmts(scope, sink, proc.Body, isMain); err != nil {
		return err
	}
	return nil
}

func (r *Resolver) lowerStmts(scope *symtab.Scope, sink Sink, stmts []ast.Stmt, inMain bool) *Error {
	for _, stmt := range stmts {
		if err := r.lowerStmt(scope, sink, stmt, inMain); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) lowerStmt(scope *symtab.Scope, sink Sink, stmt ast.Stmt, inMain bool) *Error {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		return r.lowerAssign(scope, sink, s, inMain)
	case *ast.IfStmt:
		return r.lowerIf(scope, sink, s, inMain)
	case *ast.ForStmt:
		return r.lowerFor(scope, sink, s, inMain)
	case *ast.GlobalStmt:
		return r.lowerGlobal(scope, s)
	case *ast.DelStmt:
		return r.lowerDel(scope, sink, s)
	case *ast.CallStmt:
		_, _, err := r.lowerCall(scope, sink, s.Call)
		return err
	case *ast.MethodCallStmt:
		return r.lowerMethodCall(scope, sink, s)
	case *ast.BuiltinStmt:
		return r.lowerBuiltinStmt(scope, sink, s)
	default:
		return newError(ExpectedVar, stmt.Span(), "unsupported statement")
	}
}

func (r *Resolver) lowerGlobal(scope *symtab.Scope, s *ast.GlobalStmt) *Error {
	for _, name := range s.Names {
		if _, ok := r.root.LookupVariable(name); !ok {
			return errGlobalLiftConflict(s.Span(), name)
		}
		scope.Lift(name)
	}
	return nil
}

func (r *Resolver) lowerDel(scope *symtab.Scope, sink Sink, s *ast.DelStmt) *Error {
	for _, name := range s.Names {
		v, ok := scope.LookupVariable(name)
		if !ok {
			return errUndefined(s.Span(), name)
		}
		if v.Access.Kind == symtab.LocalAccess && v.Type.IsHeap() {
			r.emitDrop(sink, v.Type, ir.Local(v.Access.Slot))
		}
	}
	return nil
}

func (r *Resolver) emitDrop(sink Sink, t symtab.Type, l ir.Local) {
	name := "builtin_drop_list"
	if t == symtab.Mat {
		name = "builtin_drop_mat"
	}
	sink.Emit(ir.Call{Target: r.builtin(name), Arguments: []ir.Local{l}})
}

func (r *Resolver) emitClone(sink Sink, t symtab.Type, l ir.Local) ir.Local {
	name := "builtin_ref_list"
	if t == symtab.Mat {
		name = "builtin_ref_mat"
	}
	out := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.builtin(name), Arguments: []ir.Local{l}, Output: &out})
	return out
}

// lowerAssign implements the three assignment modes of spec.md §4.3: a
// write to a lifted/global name goes to the global cell; a write to a
// name already declared in the current scope mutates its existing slot
// (via a copy, since the IR has no bare Move instruction); otherwise a
// fresh local is declared and bound directly to the value's local.
func (r *Resolver) lowerAssign(scope *symtab.Scope, sink Sink, s *ast.AssignStmt, inMain bool) *Error {
	if len(s.Targets) != len(s.Values) {
		return errUnbalancedAssignment(s.Span(), len(s.Targets), len(s.Values))
	}

	for i, target := range s.Targets {
		v, ok := target.(*ast.VarExpr)
		if !ok {
			return errUnsupportedLValue(target.Span())
		}

		valType, own, valLocal, err := r.lowerExprLocal(scope, sink, s.Values[i])
		if err != nil {
			return err
		}

		// A write reaches the global cell only when the name has been
		// explicitly lifted in this scope (the `global` statement), or
		// when main is re-assigning one of its own leading-assignment
		// globals (the GlobalInit/Main modes of spec.md §4.3) — any
		// other assignment to a name that merely collides with a
		// global's spelling shadows it with a fresh local, exactly as
		// an inner block shadows an outer one.
		isOwnMainGlobal := inMain && containsName(r.globalNames, v.Name)
		if global, ok := r.root.LookupVariable(v.Name); ok && !scope.DeclaredHere(v.Name) && (scope.IsLifted(v.Name) || isOwnMainGlobal) {
			if global.Type != valType {
				return errTypeMismatch1(s.Span(), global.Type, valType)
			}
			src := valLocal
			if valType.IsHeap() && own == Borrowed {
				src = r.emitClone(sink, valType, valLocal)
			}
			sink.Emit(ir.StoreGlobal{Input: src, Global: r.globalRef(global.Access.Name)})
			r.globalInitialized[strings.ToLower(v.Name)] = true
			continue
		}

		if existing, ok := scope.LookupVariable(v.Name); ok && scope.DeclaredHere(v.Name) {
			if existing.Type != valType {
				return errTypeMismatch1(s.Span(), existing.Type, valType)
			}
			if existing.Type.IsHeap() {
				r.emitDrop(sink, existing.Type, ir.Local(existing.Access.Slot))
			}
			src := valLocal
			if valType.IsHeap() && own == Borrowed {
				src = r.emitClone(sink, valType, valLocal)
			}
			sink.Emit(ir.Call{Target: r.native("copy"), Arguments: []ir.Local{src}, Output: localPtr(ir.Local(existing.Access.Slot))})
			continue
		}

		dest := valLocal
		if valType.IsHeap() && own == Borrowed {
			dest = r.emitClone(sink, valType, valLocal)
		}
		scope.DeclareVariable(v.Name, symtab.Variable{
			Access: symtab.Access{Kind: symtab.LocalAccess, Slot: int(dest)},
			Type:   valType,
		})
	}
	return nil
}

func localPtr(l ir.Local) *ir.Local { return &l }

func containsName(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (r *Resolver) lowerIf(scope *symtab.Scope, sink Sink, s *ast.IfStmt, inMain bool) *Error {
	condType, _, condLocal, err := r.lowerExprLocal(scope, sink, s.Cond)
	if err != nil {
		return err
	}
	if condType != symtab.Bool && condType != symtab.Int {
		return errTypeMismatch1(s.Cond.Span(), symtab.Bool, condType)
	}

	end := sink.NewLabel()
	sink.Emit(ir.JumpIfFalse{Cond: condLocal, Label: end})
	sink.FreeLocal(condLocal)

	inner := scope.Child()
	if err := r.lowerStmts(inner, sink, s.Body, inMain); err != nil {
		return err
	}
	sink.Emit(ir.SetLabel{Label: end})
	return nil
}

// lowerFor desugars `for v in iterable [step s] { body }` exactly per
// spec.md §4.3: limit := iterable-or-len; i := 0; L0: t := i<limit; if !t
// goto L1; body; i := i+step; goto L0; L1:.
func (r *Resolver) lowerFor(scope *symtab.Scope, sink Sink, s *ast.ForStmt, inMain bool) *Error {
	iterType, _, iterLocal, err := r.lowerExprLocal(scope, sink, s.Iterable)
	if err != nil {
		return err
	}

	limit := sink.AllocLocal()
	switch iterType {
	case symtab.Int:
		sink.Emit(ir.Call{Target: r.native("copy"), Arguments: []ir.Local{iterLocal}, Output: &limit})
	case symtab.List:
		sink.Emit(ir.Call{Target: r.builtin("builtin_len_list"), Arguments: []ir.Local{iterLocal}, Output: &limit})
	case symtab.Mat:
		sink.Emit(ir.Call{Target: r.builtin("builtin_len_mat"), Arguments: []ir.Local{iterLocal}, Output: &limit})
	default:
		return errTypeMismatch3(s.Iterable.Span(), symtab.Int, symtab.List, symtab.Mat, iterType)
	}

	step := sink.AllocLocal()
	if s.Step != nil {
		stepType, _, stepLocal, err := r.lowerExprLocal(scope, sink, s.Step)
		if err != nil {
			return err
		}
		if stepType != symtab.Int {
			return errTypeMismatch1(s.Step.Span(), symtab.Int, stepType)
		}
		sink.Emit(ir.Call{Target: r.native("copy"), Arguments: []ir.Local{stepLocal}, Output: &step})
		sink.FreeLocal(stepLocal)
	} else {
		sink.Emit(ir.LoadConst{Value: 1, Output: step})
	}

	i := sink.AllocLocal()
	sink.Emit(ir.LoadConst{Value: 0, Output: i})

	loopScope := scope.Child()
	loopScope.DeclareVariable(s.Var, symtab.Variable{
		Access: symtab.Access{Kind: symtab.LocalAccess, Slot: int(i)},
		Type:   symtab.Int,
	})

	start := sink.NewLabel()
	end := sink.NewLabel()
	sink.Emit(ir.SetLabel{Label: start})

	cond := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.native("lt_int"), Arguments: []ir.Local{i, limit}, Output: &cond})
	sink.Emit(ir.JumpIfFalse{Cond: cond, Label: end})
	sink.FreeLocal(cond)

	if err := r.lowerStmts(loopScope, sink, s.Body, inMain); err != nil {
		return err
	}

	next := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.native("add_int"), Arguments: []ir.Local{i, step}, Output: &next})
	sink.Emit(ir.Call{Target: r.native("copy"), Arguments: []ir.Local{next}, Output: &i})
	sink.FreeLocal(next)

	sink.Emit(ir.Jump{Label: start})
	sink.Emit(ir.SetLabel{Label: end})

	sink.FreeLocal(i)
	sink.FreeLocal(step)
	sink.FreeLocal(limit)
	if iterType.IsHeap() {
		// iterLocal was Borrowed (a variable read); nothing owned to drop.
	}
	return nil
}

func (r *Resolver) lowerMethodCall(scope *symtab.Scope, sink Sink, s *ast.MethodCallStmt) *Error {
	targetType, _, targetLocal, err := r.lowerExprLocal(scope, sink, s.Target)
	if err != nil {
		return err
	}

	args := []ir.Local{targetLocal}
	for _, a := range s.Args {
		_, _, l, err := r.lowerExprLocal(scope, sink, a)
		if err != nil {
			return err
		}
		args = append(args, l)
	}

	var name string
	switch {
	case targetType == symtab.List:
		name = "builtin_insert_list"
	case targetType == symtab.Mat:
		name = "builtin_insert_mat"
	default:
		return errTypeMismatch2(s.Span(), symtab.List, symtab.Mat, targetType)
	}
	sink.Emit(ir.Call{Target: r.builtin(name), Arguments: args})
	return nil
}

func (r *Resolver) lowerBuiltinStmt(scope *symtab.Scope, sink Sink, s *ast.BuiltinStmt) *Error {
	argTypes := make([]symtab.Type, len(s.Args))
	argLocals := make([]ir.Local, len(s.Args))
	for i, a := range s.Args {
		t, _, l, err := r.lowerExprLocal(scope, sink, a)
		if err != nil {
			return err
		}
		argTypes[i] = t
		argLocals[i] = l
	}

	switch s.Kind {
	case ast.BuiltinDebug:
		if len(argTypes) > 1 {
			return errBadArgumentCount(s.Span(), "debug", 1, len(argTypes))
		}
		if len(argTypes) == 0 {
			sink.Emit(ir.Call{Target: r.builtin("builtin_debug"), Arguments: argLocals})
			break
		}
		sink.Emit(ir.Call{Target: r.builtin(debugSymbol(argTypes[0])), Arguments: argLocals})
	case ast.BuiltinBlink:
		sink.Emit(ir.Call{Target: r.builtin("builtin_blink_mil"), Arguments: argLocals})
	case ast.BuiltinDelay:
		sink.Emit(ir.Call{Target: r.builtin("builtin_delay_mil"), Arguments: argLocals})
	case ast.BuiltinPrintLed:
		sink.Emit(ir.Call{Target: r.builtin("builtin_printled"), Arguments: argLocals})
	case ast.BuiltinPrintLedX:
		// Supplemented: printledx(mat[, label]) — the first argument is
		// the matrix; an optional second string-literal label selects
		// the _c / _f / _m variant (SPEC_FULL.md §11).
		name := "builtin_printledx_c"
		if len(s.Args) > 1 {
			if lit, ok := s.Args[1].(*ast.StringLit); ok {
				switch lit.Value {
				case "f":
					name = "builtin_printledx_f"
				case "m":
					name = "builtin_printledx_m"
				}
			}
		}
		sink.Emit(ir.Call{Target: r.builtin(name), Arguments: argLocals[:1]})
	}
	return nil
}

func debugSymbol(t symtab.Type) string {
	switch t {
	case symtab.Int:
		return "builtin_debug_int"
	case symtab.Bool:
		return "builtin_debug_bool"
	case symtab.List:
		return "builtin_debug_list"
	case symtab.Mat:
		return "builtin_debug_mat"
	case symtab.Float:
		return "builtin_debug_float"
	default:
		return "builtin_debug"
	}
}

// lowerCall lowers a user-procedure call: evaluate each argument into a
// fresh local, clone Borrowed heap arguments (ownership analysis requires
// Owned at a call boundary), resolve the overload by the argument-type
// tuple, and emit a Call.
func (r *Resolver) lowerCall(scope *symtab.Scope, sink Sink, call *ast.CallExpr) (symtab.Type, ir.Local, *Error) {
	if _, isVar := scope.LookupVariable(call.Name); isVar {
		return 0, 0, errExpectedProc(call.Span(), call.Name)
	}
	fam, ok := scope.LookupProcFamily(call.Name)
	if !ok {
		return 0, 0, errUndefined(call.Span(), call.Name)
	}

	types := make([]symtab.Type, len(call.Args))
	locals := make([]ir.Local, len(call.Args))
	for i, a := range call.Args {
		t, own, l, err := r.lowerExprLocal(scope, sink, a)
		if err != nil {
			return 0, 0, err
		}
		if t.IsHeap() && own == Borrowed {
			l = r.emitClone(sink, t, l)
		}
		types[i] = t
		locals[i] = l
	}

	overload, ok := fam.Lookup(types)
	if !ok {
		return 0, 0, errNoSuchOverload(call.Span(), call.Name, types)
	}

	out := sink.AllocLocal()
	sink.Emit(ir.Call{Target: overload.Fn, Arguments: locals, Output: &out})

	retType := symtab.Int
	if len(overload.ParamTypes) > 0 {
		retType = overload.ParamTypes[0]
	}
	return retType, out, nil
}

// globalRef returns the interned *ir.Global for a mangled name, so every
// read/write of the same global shares one arena entry.
func (r *Resolver) globalRef(name string) *ir.Global {
	for _, g := range r.prog.Globals {
		if g.Name == name {
			return g
		}
	}
	g := &ir.Global{Name: name}
	r.prog.Globals = append(r.prog.Globals, g)
	return g
}

// ---- expression lowering -----------------------------------------------------

// lowerExprLocal is lowerExpr's common entry point: always returns a
// usable Local alongside the inferred type and ownership.
func (r *Resolver) lowerExprLocal(scope *symtab.Scope, sink Sink, e ast.Expr) (symtab.Type, Ownership, ir.Local, *Error) {
	t, own, l, err := r.lowerExprImpl(scope, sink, e)
	return t, own, l, err
}

func (r *Resolver) lowerExpr(scope *symtab.Scope, sink Sink, e ast.Expr) (symtab.Type, Ownership, *Error) {
	t, own, _, err := r.lowerExprImpl(scope, sink, e)
	return t, own, err
}

func (r *Resolver) lowerExprImpl(scope *symtab.Scope, sink Sink, e ast.Expr) (symtab.Type, Ownership, ir.Local, *Error) {
	switch n := e.(type) {
	case *ast.IntLit:
		l := sink.AllocLocal()
		sink.Emit(ir.LoadConst{Value: n.Value, Output: l})
		return symtab.Int, Owned, l, nil

	case *ast.BoolLit:
		l := sink.AllocLocal()
		v := int32(0)
		if n.Value {
			v = 1
		}
		sink.Emit(ir.LoadConst{Value: v, Output: l})
		return symtab.Bool, Owned, l, nil

	case *ast.StringLit:
		// String literals only ever appear as builtin/debug arguments
		// (spec.md's data model has no surface string type); they are
		// passed through as a constant index rather than materialized
		// into a runtime value.
		l := sink.AllocLocal()
		sink.Emit(ir.LoadConst{Value: 0, Output: l})
		return symtab.Int, Owned, l, nil

	case *ast.VarExpr:
		return r.lowerVarRead(scope, sink, n)

	case *ast.AttrExpr:
		return r.lowerAttr(scope, sink, n)

	case *ast.IndexExpr:
		return r.lowerIndex(scope, sink, n)

	case *ast.LenExpr:
		return r.lowerLen(scope, sink, n)

	case *ast.RangeExpr:
		return r.lowerRange(scope, sink, n)

	case *ast.ListLit:
		return r.lowerListLit(scope, sink, n)

	case *ast.CastExpr:
		return r.lowerCast(scope, sink, n)

	case *ast.UnaryExpr:
		return r.lowerUnary(scope, sink, n)

	case *ast.BinaryExpr:
		return r.lowerBinary(scope, sink, n)

	case *ast.CallExpr:
		t, l, err := r.lowerCall(scope, sink, n)
		return t, Owned, l, err

	default:
		return 0, Owned, 0, newError(ExpectedVar, e.Span(), "unsupported expression")
	}
}

func (r *Resolver) lowerVarRead(scope *symtab.Scope, sink Sink, n *ast.VarExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	if v, ok := scope.LookupVariable(n.Name); ok {
		if v.Access.Kind == symtab.GlobalAccess {
			l := sink.AllocLocal()
			sink.Emit(ir.LoadGlobal{Global: r.globalRef(v.Access.Name), Output: l})
			return v.Type, Borrowed, l, nil
		}
		return v.Type, Borrowed, ir.Local(v.Access.Slot), nil
	}
	if _, ok := scope.LookupProcFamily(n.Name); ok {
		return 0, Owned, 0, errExpectedVar(n.Span(), n.Name)
	}
	return 0, Owned, 0, errUndefined(n.Span(), n.Name)
}

func (r *Resolver) lowerAttr(scope *symtab.Scope, sink Sink, n *ast.AttrExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	targetType, _, targetLocal, err := r.lowerExprLocal(scope, sink, n.Target)
	if err != nil {
		return 0, Owned, 0, err
	}
	if targetType != symtab.Mat {
		return 0, Owned, 0, errTypeMismatch1(n.Span(), symtab.Mat, targetType)
	}

	var name string
	switch strings.ToLower(n.Attr) {
	case "shapef":
		name = "builtin_shape_f_mat"
	case "shapec":
		name = "builtin_shape_c_mat"
	default:
		return 0, Owned, 0, errNoSuchAttr(n.Span(), targetType, n.Attr)
	}
	out := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.builtin(name), Arguments: []ir.Local{targetLocal}, Output: &out})
	return symtab.Int, Owned, out, nil
}

func (r *Resolver) lowerIndex(scope *symtab.Scope, sink Sink, n *ast.IndexExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	targetType, _, targetLocal, err := r.lowerExprLocal(scope, sink, n.Target)
	if err != nil {
		return 0, Owned, 0, err
	}

	switch n.Kind {
	case ast.IndexSingle:
		_, _, idx, err := r.lowerExprLocal(scope, sink, n.Lo)
		if err != nil {
			return 0, Owned, 0, err
		}
		var name string
		var result symtab.Type
		switch targetType {
		case symtab.List:
			name, result = "builtin_index_list", symtab.Bool
		case symtab.Mat:
			name, result = "builtin_index_mat", symtab.List
		default:
			return 0, Owned, 0, errTypeMismatch2(n.Span(), symtab.List, symtab.Mat, targetType)
		}
		out := sink.AllocLocal()
		sink.Emit(ir.Call{Target: r.builtin(name), Arguments: []ir.Local{targetLocal, idx}, Output: &out})
		return result, Owned, out, nil

	case ast.IndexRange:
		lo, hi := n.Lo, n.Hi
		var loLocal, hiLocal ir.Local
		hasLo, hasHi := false, false
		if lo != nil {
			_, _, l, err := r.lowerExprLocal(scope, sink, lo)
			if err != nil {
				return 0, Owned, 0, err
			}
			loLocal, hasLo = l, true
		}
		if hi != nil {
			_, _, h, err := r.lowerExprLocal(scope, sink, hi)
			if err != nil {
				return 0, Owned, 0, err
			}
			hiLocal, hasHi = h, true
		}
		if !hasLo {
			loLocal = sink.AllocLocal()
			sink.Emit(ir.LoadConst{Value: 0, Output: loLocal})
		}
		if !hasHi {
			hiLocal = sink.AllocLocal()
			sink.Emit(ir.Call{Target: r.builtin(lenBuiltin(targetType)), Arguments: []ir.Local{targetLocal}, Output: &hiLocal})
		}
		name := "builtin_slice_list"
		if targetType == symtab.Mat {
			name = "builtin_slice_mat"
		}
		out := sink.AllocLocal()
		sink.Emit(ir.Call{Target: r.builtin(name), Arguments: []ir.Local{targetLocal, loLocal, hiLocal}, Output: &out})
		return targetType, Owned, out, nil

	case ast.IndexIndirect:
		_, _, row, err := r.lowerExprLocal(scope, sink, n.Lo)
		if err != nil {
			return 0, Owned, 0, err
		}
		_, _, col, err := r.lowerExprLocal(scope, sink, n.Hi)
		if err != nil {
			return 0, Owned, 0, err
		}
		if targetType != symtab.Mat {
			return 0, Owned, 0, errTypeMismatch1(n.Span(), symtab.Mat, targetType)
		}
		out := sink.AllocLocal()
		sink.Emit(ir.Call{Target: r.builtin("builtin_index_indirect_mat"), Arguments: []ir.Local{targetLocal, row, col}, Output: &out})
		return symtab.Bool, Owned, out, nil

	case ast.IndexTransposed:
		_, _, col, err := r.lowerExprLocal(scope, sink, n.Hi)
		if err != nil {
			return 0, Owned, 0, err
		}
		if targetType != symtab.Mat {
			return 0, Owned, 0, errTypeMismatch1(n.Span(), symtab.Mat, targetType)
		}
		out := sink.AllocLocal()
		sink.Emit(ir.Call{Target: r.builtin("builtin_column_mat"), Arguments: []ir.Local{targetLocal, col}, Output: &out})
		return symtab.List, Owned, out, nil
	}
	return 0, Owned, 0, newError(ExpectedVar, n.Span(), "unsupported indexing form")
}

func lenBuiltin(t symtab.Type) string {
	if t == symtab.Mat {
		return "builtin_len_mat"
	}
	return "builtin_len_list"
}

func (r *Resolver) lowerLen(scope *symtab.Scope, sink Sink, n *ast.LenExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	argType, _, argLocal, err := r.lowerExprLocal(scope, sink, n.Arg)
	if err != nil {
		return 0, Owned, 0, err
	}
	if argType != symtab.List && argType != symtab.Mat {
		return 0, Owned, 0, errTypeMismatch2(n.Span(), symtab.List, symtab.Mat, argType)
	}
	out := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.builtin(lenBuiltin(argType)), Arguments: []ir.Local{argLocal}, Output: &out})
	return symtab.Int, Owned, out, nil
}

func (r *Resolver) lowerRange(scope *symtab.Scope, sink Sink, n *ast.RangeExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	nType, _, nLocal, err := r.lowerExprLocal(scope, sink, n.N)
	if err != nil {
		return 0, Owned, 0, err
	}
	if nType != symtab.Int {
		return 0, Owned, 0, errTypeMismatch1(n.N.Span(), symtab.Int, nType)
	}
	vType, _, vLocal, err := r.lowerExprLocal(scope, sink, n.V)
	if err != nil {
		return 0, Owned, 0, err
	}
	if vType != symtab.Bool {
		return 0, Owned, 0, errTypeMismatch1(n.V.Span(), symtab.Bool, vType)
	}
	out := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.builtin("builtin_range"), Arguments: []ir.Local{nLocal, vLocal}, Output: &out})
	return symtab.List, Owned, out, nil
}

func (r *Resolver) lowerListLit(scope *symtab.Scope, sink Sink, n *ast.ListLit) (symtab.Type, Ownership, ir.Local, *Error) {
	if len(n.Elements) == 0 {
		out := sink.AllocLocal()
		sink.Emit(ir.Call{Target: r.builtin("builtin_new_list"), Output: &out})
		return symtab.List, Owned, out, nil
	}

	elemType, _, firstLocal, err := r.lowerExprLocal(scope, sink, n.Elements[0])
	if err != nil {
		return 0, Owned, 0, err
	}
	if elemType != symtab.Bool && elemType != symtab.List {
		return 0, Owned, 0, errTypeMismatch2(n.Elements[0].Span(), symtab.Bool, symtab.List, elemType)
	}

	resultType := symtab.List
	if elemType == symtab.List {
		resultType = symtab.Mat
	}
	newName := "builtin_new_list"
	insertName := "builtin_insert_list"
	if resultType == symtab.Mat {
		newName = "builtin_new_mat"
		insertName = "builtin_insert_mat"
	}

	container := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.builtin(newName), Output: &container})
	sink.Emit(ir.Call{Target: r.builtin(insertName), Arguments: []ir.Local{container, firstLocal}})

	for _, elem := range n.Elements[1:] {
		t, _, l, err := r.lowerExprLocal(scope, sink, elem)
		if err != nil {
			return 0, Owned, 0, err
		}
		if t != elemType {
			return 0, Owned, 0, errTypeMismatch1(elem.Span(), elemType, t)
		}
		sink.Emit(ir.Call{Target: r.builtin(insertName), Arguments: []ir.Local{container, l}})
	}
	return resultType, Owned, container, nil
}

func (r *Resolver) lowerCast(scope *symtab.Scope, sink Sink, n *ast.CastExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	target, err := r.resolveSyntaxType(n.Type)
	if err != nil {
		return 0, Owned, 0, err
	}

	if n.Arg == nil {
		out := sink.AllocLocal()
		switch target {
		case symtab.Int, symtab.Bool:
			sink.Emit(ir.LoadConst{Value: 0, Output: out})
		case symtab.List:
			sink.Emit(ir.Call{Target: r.builtin("builtin_new_list"), Output: &out})
		case symtab.Mat:
			sink.Emit(ir.Call{Target: r.builtin("builtin_new_mat"), Output: &out})
		case symtab.Float:
			sink.Emit(ir.Call{Target: r.builtin("builtin_zero_float"), Output: &out})
		}
		return target, Owned, out, nil
	}

	argType, _, argLocal, err := r.lowerExprLocal(scope, sink, n.Arg)
	if err != nil {
		return 0, Owned, 0, err
	}

	out := sink.AllocLocal()
	switch {
	case argType == target:
		sink.Emit(ir.Call{Target: r.native("copy"), Arguments: []ir.Local{argLocal}, Output: &out})
	case target == symtab.Float && argType == symtab.Int:
		sink.Emit(ir.Call{Target: r.builtin("builtin_int_to_float"), Arguments: []ir.Local{argLocal}, Output: &out})
	case target == symtab.Int && argType == symtab.Float:
		sink.Emit(ir.Call{Target: r.builtin("builtin_float_to_int"), Arguments: []ir.Local{argLocal}, Output: &out})
	default:
		return 0, Owned, 0, errInvalidOperands(n.Span(), fmt.Sprintf("%s(...)", target), argType, target)
	}
	return target, Owned, out, nil
}

func (r *Resolver) lowerUnary(scope *symtab.Scope, sink Sink, n *ast.UnaryExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	operandType, _, operandLocal, err := r.lowerExprLocal(scope, sink, n.Operand)
	if err != nil {
		return 0, Owned, 0, err
	}
	if operandType != symtab.Int {
		return 0, Owned, 0, errTypeMismatch1(n.Span(), symtab.Int, operandType)
	}
	out := sink.AllocLocal()
	sink.Emit(ir.Call{Target: r.native("negate_int"), Arguments: []ir.Local{operandLocal}, Output: &out})
	return symtab.Int, Owned, out, nil
}

func (r *Resolver) lowerBinary(scope *symtab.Scope, sink Sink, n *ast.BinaryExpr) (symtab.Type, Ownership, ir.Local, *Error) {
	leftType, _, leftLocal, err := r.lowerExprLocal(scope, sink, n.Left)
	if err != nil {
		return 0, Owned, 0, err
	}
	rightType, _, rightLocal, err := r.lowerExprLocal(scope, sink, n.Right)
	if err != nil {
		return 0, Owned, 0, err
	}

	op := n.Op
	symbol := op.String()

	if isComparison(op) {
		return r.lowerComparison(sink, n.Span(), op, leftType, leftLocal, rightType, rightLocal)
	}

	if leftType != rightType {
		return 0, Owned, 0, errInvalidOperands(n.Span(), symbol, leftType, rightType)
	}

	out := sink.AllocLocal()
	switch leftType {
	case symtab.Int:
		name, ok := nativeIntOp(op)
		if !ok {
			return 0, Owned, 0, errInvalidOperands(n.Span(), symbol, leftType, rightType)
		}
		sink.Emit(ir.Call{Target: r.native(name), Arguments: []ir.Local{leftLocal, rightLocal}, Output: &out})
		return symtab.Int, Owned, out, nil

	case symtab.Float:
		name, ok := floatOp(op)
		if !ok {
			return 0, Owned, 0, errInvalidOperands(n.Span(), symbol, leftType, rightType)
		}
		sink.Emit(ir.Call{Target: r.builtin(name), Arguments: []ir.Local{leftLocal, rightLocal}, Output: &out})
		return symtab.Float, Owned, out, nil

	default:
		return 0, Owned, 0, errInvalidOperands(n.Span(), symbol, leftType, rightType)
	}
}

func isComparison(op token.Kind) bool {
	switch op {
	case token.EQUAL, token.NOTEQUAL, token.LESS, token.LESSEQ, token.GREATER, token.GREATEREQ:
		return true
	}
	return false
}

func (r *Resolver) lowerComparison(sink Sink, span token.Span, op token.Kind, leftType symtab.Type, leftLocal ir.Local, rightType symtab.Type, rightLocal ir.Local) (symtab.Type, Ownership, ir.Local, *Error) {
	if leftType != rightType {
		return 0, Owned, 0, errInvalidOperands(span, op.String(), leftType, rightType)
	}

	out := sink.AllocLocal()
	switch leftType {
	case symtab.Int, symtab.Bool:
		name, ok := nativeCompareOp(op)
		if !ok {
			return 0, Owned, 0, errInvalidOperands(span, op.String(), leftType, rightType)
		}
		sink.Emit(ir.Call{Target: r.native(name), Arguments: []ir.Local{leftLocal, rightLocal}, Output: &out})
		return symtab.Bool, Owned, out, nil

	case symtab.Float:
		ordering := sink.AllocLocal()
		sink.Emit(ir.Call{Target: r.builtin("builtin_cmp_float"), Arguments: []ir.Local{leftLocal, rightLocal}, Output: &ordering})
		zero := sink.AllocLocal()
		sink.Emit(ir.LoadConst{Value: 0, Output: zero})
		name, ok := nativeCompareOp(op)
		if !ok {
			return 0, Owned, 0, errInvalidOperands(span, op.String(), leftType, rightType)
		}
		sink.Emit(ir.Call{Target: r.native(name), Arguments: []ir.Local{ordering, zero}, Output: &out})
		sink.FreeLocal(ordering)
		sink.FreeLocal(zero)
		return symtab.Bool, Owned, out, nil

	case symtab.List, symtab.Mat:
		if op != token.EQUAL && op != token.NOTEQUAL {
			return 0, Owned, 0, errInvalidOperands(span, op.String(), leftType, rightType)
		}
		name := "builtin_eq_list"
		if leftType == symtab.Mat {
			name = "builtin_eq_mat"
		}
		sink.Emit(ir.Call{Target: r.builtin(name), Arguments: []ir.Local{leftLocal, rightLocal}, Output: &out})
		if op == token.NOTEQUAL {
			negated := sink.AllocLocal()
			sink.Emit(ir.Call{Target: r.native("not"), Arguments: []ir.Local{out}, Output: &negated})
			return symtab.Bool, Owned, negated, nil
		}
		return symtab.Bool, Owned, out, nil

	default:
		return 0, Owned, 0, errInvalidOperands(span, op.String(), leftType, rightType)
	}
}

func nativeIntOp(op token.Kind) (string, bool) {
	switch op {
	case token.PLUS:
		return "add_int", true
	case token.MINUS:
		return "sub_int", true
	case token.TIMES:
		return "mul_int", true
	case token.MOD:
		return "mod_int", true
	case token.INTDIV:
		return "intdiv_int", true
	case token.DIV:
		return "div_int", true // routes to builtin_div_int at codegen
	case token.POW:
		return "pow_int", true // routes to builtin_pow_int at codegen
	}
	return "", false
}

func floatOp(op token.Kind) (string, bool) {
	switch op {
	case token.PLUS:
		return "builtin_add_float", true
	case token.MINUS:
		return "builtin_sub_float", true
	case token.TIMES:
		return "builtin_mul_float", true
	case token.DIV:
		return "builtin_div_float", true
	case token.POW:
		return "builtin_pow_float", true
	}
	return "", false
}

func nativeCompareOp(op token.Kind) (string, bool) {
	switch op {
	case token.EQUAL:
		return "eq", true
	case token.NOTEQUAL:
		return "ne", true
	case token.LESS:
		return "lt_int", true
	case token.LESSEQ:
		return "le_int", true
	case token.GREATER:
		return "gt_int", true
	case token.GREATEREQ:
		return "ge_int", true
	}
	return "", false
}
