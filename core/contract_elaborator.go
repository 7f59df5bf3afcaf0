package core

import (
	"solidc/pt"
)

// ElaborateSourceUnit is the top-level entry point for : it
// registers every declaration in a parsed file, then walks contracts in
// declaration order performing linearisation, symbol aggregation,
// override resolution, storage layout, and constructor-argument
// collection, before finally resolving every function body into a CFG.
func ElaborateSourceUnit(ns *Namespace, unit *pt.SourceUnit) {
	contractParts := registerTopLevel(ns, unit)

	for contractNo := range ns.Contracts {
		registerContractParts(ns, contractNo, contractParts[contractNo])
	}

	for contractNo := range ns.Contracts {
		linearise(ns, contractNo)
	}
	for contractNo := range ns.Contracts {
		aggregateSymbols(ns, contractNo)
	}
	for contractNo := range ns.Contracts {
		resolveOverrides(ns, contractNo)
	}
	for contractNo := range ns.Contracts {
		layoutStorage(ns, contractNo)
	}
	for contractNo := range ns.Contracts {
		collectBaseArgs(ns, contractNo)
	}

	for _, fn := range ns.Functions {
		if fn.HasBody {
			elaborateFunctionBody(ns, fn)
		}
	}

	ComputeSelectors(ns)
}

// registerTopLevel allocates a Contract (and its Namespace-level symbol)
// for every ContractDefinition, and resolves file-level declarations
// directly, returning each contract's raw parts for the second pass.
func registerTopLevel(ns *Namespace, unit *pt.SourceUnit) map[int][]pt.ContractPart {
	parts := make(map[int][]pt.ContractPart)

	for _, p := range unit.Parts {
		switch n := p.(type) {
		case *pt.ContractDefinition:
			contractNo := len(ns.Contracts)
			ns.Contracts = append(ns.Contracts, &Contract{
				Loc: n.Loc, Name: n.Name.Name, Ty: n.Ty, BaseNames: n.Bases,
				AllFunctions:     make(map[[2]int]int),
				VirtualFunctions: make(map[string]int),
				Layout:           make(map[[2]int]StorageLocation),
				BaseArgs:         make(map[int][]Expression),
			})
			ns.AddSymbol(-1, n.Name, contractSymbol{Loc: n.Loc, ContractNo: contractNo})
			parts[contractNo] = n.Parts

		case *pt.EnumDefinition:
			enumNo := registerEnum(ns, -1, n)
			ns.AddSymbol(-1, n.Name, enumSymbol{Loc: n.Loc, EnumNo: enumNo})

		case *pt.StructDefinition:
			structNo := registerStruct(ns, -1, n)
			ns.AddSymbol(-1, n.Name, structSymbol{Loc: n.Loc, StructNo: structNo})

		case *pt.VariableDeclaration:
			registerFileConstant(ns, n)

		case *pt.FunctionDefinition:
			registerFunction(ns, -1, n)
		}
	}
	return parts
}

func registerContractParts(ns *Namespace, contractNo int, parts []pt.ContractPart) {
	c := ns.Contracts[contractNo]
	for _, p := range parts {
		switch n := p.(type) {
		case *pt.EnumDefinition:
			enumNo := registerEnum(ns, contractNo, n)
			c.Enums = append(c.Enums, enumNo)
			ns.AddSymbol(contractNo, n.Name, enumSymbol{Loc: n.Loc, EnumNo: enumNo})

		case *pt.StructDefinition:
			structNo := registerStruct(ns, contractNo, n)
			c.Structs = append(c.Structs, structNo)
			ns.AddSymbol(contractNo, n.Name, structSymbol{Loc: n.Loc, StructNo: structNo})

		case *pt.EventDefinition:
			eventNo := len(ns.Events)
			fields := make([]EventField, len(n.Fields))
			for i, f := range n.Fields {
				ty, _ := elementaryType(f.Ty.(*pt.Type))
				fields[i] = EventField{Loc: f.Loc, Name: f.Name.Name, Ty: ty, Indexed: f.Indexed}
			}
			ns.Events = append(ns.Events, &EventDecl{Loc: n.Loc, Name: n.Name.Name, ContractNo: contractNo, Fields: fields, Anonymous: n.Anonymous})
			c.Events = append(c.Events, eventNo)
			ns.AddSymbol(contractNo, n.Name, eventSymbol{Loc: n.Loc, EventNo: eventNo})

		case *pt.VariableDeclaration:
			registerStateVariable(ns, contractNo, n)

		case *pt.FunctionDefinition:
			registerFunction(ns, contractNo, n)
		}
	}
}

func registerEnum(ns *Namespace, contractNo int, n *pt.EnumDefinition) int {
	values := make([]string, len(n.Values))
	for i, v := range n.Values {
		values[i] = v.Name
	}
	ns.Enums = append(ns.Enums, &EnumDecl{Loc: n.Loc, Name: n.Name.Name, ContractNo: contractNo, Values: values})
	return len(ns.Enums) - 1
}

func registerStruct(ns *Namespace, contractNo int, n *pt.StructDefinition) int {
	fields := make([]StructField, len(n.Fields))
	for i, f := range n.Fields {
		ty, ok := elementaryType(f.Ty.(*pt.Type))
		if !ok {
			ty = Unresolved()
		}
		fields[i] = StructField{Loc: f.Loc, Name: f.Name.Name, Ty: ty}
	}
	ns.Structs = append(ns.Structs, &StructDecl{Loc: n.Loc, Name: n.Name.Name, ContractNo: contractNo, Fields: fields})
	return len(ns.Structs) - 1
}

func registerFileConstant(ns *Namespace, n *pt.VariableDeclaration) {
	ty, ok := elementaryType(n.Ty.(*pt.Type))
	if !ok {
		ty = Unresolved()
	}
	ns.Constants = append(ns.Constants, &ConstantDecl{Loc: n.Loc, Name: n.Name.Name, Ty: ty})
}

func registerStateVariable(ns *Namespace, contractNo int, n *pt.VariableDeclaration) {
	c := ns.Contracts[contractNo]
	ty, ok := elementaryType(n.Ty.(*pt.Type))
	if !ok {
		ty = Unresolved()
	}
	if n.Constant {
		constNo := len(ns.Constants)
		ns.Constants = append(ns.Constants, &ConstantDecl{Loc: n.Loc, Name: n.Name.Name, Ty: ty})
		c.Constants = append(c.Constants, constNo)
		return
	}
	varNo := len(ns.Variables)
	ns.Variables = append(ns.Variables, &StateVariable{Loc: n.Loc, Name: n.Name.Name, Ty: ty, Visibility: n.Visibility, ContractNo: contractNo})
	c.Variables = append(c.Variables, varNo)
}

func registerFunction(ns *Namespace, contractNo int, n *pt.FunctionDefinition) {
	params := make([]Parameter, len(n.Params))
	for i, p := range n.Params {
		ty, ok := elementaryType(p.Ty.(*pt.Type))
		if !ok {
			ty = Unresolved()
		}
		params[i] = Parameter{Loc: p.Loc, Name: p.Name.Name, Ty: ty}
	}
	returns := make([]Parameter, len(n.Returns))
	for i, p := range n.Returns {
		ty, ok := elementaryType(p.Ty.(*pt.Type))
		if !ok {
			ty = Unresolved()
		}
		returns[i] = Parameter{Loc: p.Loc, Name: p.Name.Name, Ty: ty}
	}
	modifiers := make([]ModifierCall, len(n.Modifiers))
	for i, m := range n.Modifiers {
		modifiers[i] = ModifierCall{Loc: m.Loc, Name: m.Name.Name}
	}

	functionNo := len(ns.Functions)
	pendingModifierArgs[functionNo] = n.Modifiers

	fn := &Function{
		Loc: n.Loc, Name: n.Name.Name, Kind: n.Ty, ContractNo: contractNo,
		Visibility: n.Visibility, Mutability: n.Mutability, Virtual: n.Virtual, Override: n.Override,
		Params: params, Returns: returns, Modifiers: modifiers,
		HasBody: n.Body != nil,
	}
	ns.Functions = append(ns.Functions, fn)

	// Stash the raw body on the side keyed by function number so the
	// elaboration pass (which runs after every declaration is known) can
	// find it without widening the Function struct with parser types.
	pendingBodies[functionNo] = n.Body

	if contractNo >= 0 {
		ns.Contracts[contractNo].Functions = append(ns.Contracts[contractNo].Functions, functionNo)
	}
	if n.Name.Name != "" {
		ns.AddSymbol(contractNo, n.Name, functionSymbol{Entries: []funcSymbolEntry{{Loc: n.Loc, FunctionNo: functionNo}}})
	}
}

// pendingBodies holds each function's unresolved body between
// registration and elaboration. Keyed by Namespace.Functions index; a
// compilation unit never resolves two source units concurrently, so a
// package-level map is safe and avoids widening Function with a pt.*
// field purely for this bookkeeping.
var pendingBodies = make(map[int][]pt.Statement)

// pendingModifierArgs mirrors pendingBodies for a function's raw modifier
// invocations: their argument expressions are evaluated in the calling
// function's own symbol table, which does not exist until elaboration,
// so registration can only stash the parser nodes.
var pendingModifierArgs = make(map[int][]pt.ModifierInvocation)

// ---------------------------------------------------------------------
// Linearisation
// ---------------------------------------------------------------------

func linearise(ns *Namespace, contractNo int) {
	c := ns.Contracts[contractNo]
	bases := make([][]int, 0, len(c.BaseNames))
	baseOrder := make([]int, 0, len(c.BaseNames))
	for _, b := range c.BaseNames {
		sym, ok := ns.lookupSymbol(-1, b.Name.Name)
		if !ok {
			ns.Diagnostics.Errorf(b.Loc, "undeclared base contract %q", b.Name.Name)
			continue
		}
		cs, ok := sym.(contractSymbol)
		if !ok {
			ns.Diagnostics.Errorf(b.Loc, "%q is not a contract", b.Name.Name)
			continue
		}
		if cs.ContractNo == contractNo {
			ns.Diagnostics.Errorf(b.Loc, "contract cannot inherit from itself")
			continue
		}
		if len(ns.Contracts[cs.ContractNo].Linearised) == 0 {
			linearise(ns, cs.ContractNo)
		}
		bases = append(bases, ns.Contracts[cs.ContractNo].Linearised)
		baseOrder = append(baseOrder, cs.ContractNo)
	}

	lists := append(bases, append([]int{}, baseOrder...))
	merged, ok := c3Merge(lists)
	if !ok {
		ns.Diagnostics.Errorf(c.Loc, "linearisation of %s failed: inconsistent inheritance hierarchy", c.Name)
		merged = baseOrder
	}
	c.Linearised = append([]int{contractNo}, merged...)
}

// c3Merge implements the standard C3 linearisation merge step.
func c3Merge(lists [][]int) ([]int, bool) {
	var work [][]int
	for _, l := range lists {
		if len(l) > 0 {
			work = append(work, append([]int{}, l...))
		}
	}
	var out []int
	for len(work) > 0 {
		var head int
		found := false
		for _, l := range work {
			head = l[0]
			inTail := false
			for _, other := range work {
				if tailContains(other, head) {
					inTail = true
					break
				}
			}
			if !inTail {
				found = true
				break
			}
		}
		if !found {
			return out, false
		}
		out = append(out, head)
		var next [][]int
		for _, l := range work {
			nl := removeFirst(l, head)
			if len(nl) > 0 {
				next = append(next, nl)
			}
		}
		work = next
	}
	return out, true
}

func tailContains(l []int, v int) bool {
	for i := 1; i < len(l); i++ {
		if l[i] == v {
			return true
		}
	}
	return false
}

func removeFirst(l []int, v int) []int {
	out := make([]int, 0, len(l))
	for _, x := range l {
		if x == v {
			continue
		}
		out = append(out, x)
	}
	return out
}

// ---------------------------------------------------------------------
// Symbol aggregation
// ---------------------------------------------------------------------

func aggregateSymbols(ns *Namespace, contractNo int) {
	c := ns.Contracts[contractNo]
	for _, baseNo := range c.Linearised {
		if baseNo == contractNo {
			continue
		}
		base := ns.Contracts[baseNo]
		for _, fnNo := range base.Functions {
			fn := ns.Functions[fnNo]
			if fn.Visibility == pt.Private {
				continue
			}
			c.AllFunctions[[2]int{baseNo, fnNo}] = fnNo
		}
	}
	for _, fnNo := range c.Functions {
		c.AllFunctions[[2]int{contractNo, fnNo}] = fnNo
	}
}

// ---------------------------------------------------------------------
// Override resolution
// ---------------------------------------------------------------------

func resolveOverrides(ns *Namespace, contractNo int) {
	c := ns.Contracts[contractNo]
	// Walk the linearised list most-derived first; the first signature
	// seen wins and later (less derived) matches are suppressed.
	for _, baseNo := range c.Linearised {
		base := ns.Contracts[baseNo]
		for _, fnNo := range base.Functions {
			fn := ns.Functions[fnNo]
			if fn.Name == "" || fn.Kind != pt.FunctionNormal {
				continue
			}
			sig := CanonicalSignature(ns, fn.Name, fn.Params)
			if _, exists := c.VirtualFunctions[sig]; exists {
				continue
			}
			c.VirtualFunctions[sig] = fnNo
			if fn.Override != nil && !fn.Virtual && baseNo != contractNo {
				// Most-derived override already recorded; nothing further
				// to validate here beyond the override-annotation
				// presence checks, done per-function below.
			}
		}
	}
	for _, fnNo := range c.Functions {
		fn := ns.Functions[fnNo]
		if fn.Name == "" {
			continue
		}
		sig := CanonicalSignature(ns, fn.Name, fn.Params)
		shadowed := false
		for _, baseNo := range c.Linearised {
			if baseNo == contractNo {
				continue
			}
			for _, baseFnNo := range ns.Contracts[baseNo].Functions {
				if ns.Functions[baseFnNo].Name == fn.Name {
					bsig := CanonicalSignature(ns, ns.Functions[baseFnNo].Name, ns.Functions[baseFnNo].Params)
					if bsig == sig {
						shadowed = true
					}
				}
			}
		}
		if shadowed && fn.Override == nil {
			ns.Diagnostics.Errorf(fn.Loc, "function %s overrides a base function but is not marked 'override'", fn.Name)
		}
		if !shadowed && fn.Override != nil {
			ns.Diagnostics.Errorf(fn.Loc, "function %s is marked 'override' but does not override anything", fn.Name)
		}
	}
}

// ---------------------------------------------------------------------
// Storage layout
// ---------------------------------------------------------------------

func layoutStorage(ns *Namespace, contractNo int) {
	c := ns.Contracts[contractNo]
	slot := 0
	// Base-to-derived order: reverse the linearised (most-derived-first)
	// list so the root ancestor's variables occupy the lowest slots.
	order := make([]int, len(c.Linearised))
	for i, v := range c.Linearised {
		order[len(order)-1-i] = v
	}
	for _, baseNo := range order {
		base := ns.Contracts[baseNo]
		for _, varNo := range base.Variables {
			sv := ns.Variables[varNo]
			n := ns.StorageSlots(sv.Ty)
			c.Layout[[2]int{baseNo, varNo}] = StorageLocation{Slot: slot}
			slot += n
		}
	}
}

// ---------------------------------------------------------------------
// Constructor base-argument collection
// ---------------------------------------------------------------------

func collectBaseArgs(ns *Namespace, contractNo int) {
	c := ns.Contracts[contractNo]
	seen := make(map[int]bool)

	// `is Base(5)` arguments are evaluated in contract scope, with no
	// access to the derived constructor's own parameters.
	plainSt := NewSymtable(ns, contractNo)
	plainEr := NewExprResolver(ns, contractNo, plainSt, nil)
	for _, b := range c.BaseNames {
		if len(b.Args) == 0 {
			continue
		}
		sym, ok := ns.lookupSymbol(-1, b.Name.Name)
		if !ok {
			continue
		}
		cs, ok := sym.(contractSymbol)
		if !ok {
			continue
		}
		if seen[cs.ContractNo] {
			ns.Diagnostics.Errorf(b.Loc, "base contract %s is specified more than once", b.Name.Name)
			continue
		}
		seen[cs.ContractNo] = true
		args := make([]Expression, len(b.Args))
		for i, a := range b.Args {
			args[i] = *plainEr.Resolve(a)
		}
		c.BaseArgs[cs.ContractNo] = args
	}

	// `constructor(uint x) Base(x) {}` arguments are evaluated with the
	// derived constructor's own parameters in scope, which is why these
	// are resolved from the raw invocation list rather than the already
	// (arg-less, at registration time) populated ModifierCall.
	ownCtor := findConstructor(ns, contractNo)
	if ownCtor != nil {
		ctorSt := NewSymtable(ns, contractNo)
		for _, p := range ownCtor.Params {
			ctorSt.Add(ns, contractNo, pt.Identifier{Name: p.Name, Loc: p.Loc}, p.Ty)
		}
		ctorEr := NewExprResolver(ns, contractNo, ctorSt, nil)
		for _, m := range pendingModifierArgs[indexOfFunction(ns, ownCtor)] {
			sym, ok := ns.lookupSymbol(-1, m.Name.Name)
			if !ok {
				continue // a real modifier, not a base-constructor call
			}
			cs, ok := sym.(contractSymbol)
			if !ok {
				continue
			}
			if seen[cs.ContractNo] {
				ns.Diagnostics.Errorf(m.Loc, "base contract %s is specified more than once", m.Name.Name)
				continue
			}
			seen[cs.ContractNo] = true
			args := make([]Expression, len(m.Args))
			for i, a := range m.Args {
				args[i] = *ctorEr.Resolve(a)
			}
			c.BaseArgs[cs.ContractNo] = args
		}
	}

	for _, baseNo := range c.Linearised {
		if baseNo == contractNo || seen[baseNo] {
			continue
		}
		if ctor := findConstructor(ns, baseNo); ctor != nil && len(ctor.Params) > 0 {
			ns.Diagnostics.Errorf(c.Loc, "missing constructor arguments for base %s", ns.Contracts[baseNo].Name)
		}
	}
}

func findConstructor(ns *Namespace, contractNo int) *Function {
	for _, fnNo := range ns.Contracts[contractNo].Functions {
		if ns.Functions[fnNo].Kind == pt.Constructor {
			return ns.Functions[fnNo]
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Function body elaboration, including modifier chaining
// ---------------------------------------------------------------------

func elaborateFunctionBody(ns *Namespace, fn *Function) {
	body := pendingBodies[indexOfFunction(ns, fn)]
	delete(pendingBodies, indexOfFunction(ns, fn))

	st := NewSymtable(ns, fn.ContractNo)
	for _, p := range fn.Params {
		id := pt.Identifier{Name: p.Name, Loc: p.Loc}
		st.Add(ns, fn.ContractNo, id, p.Ty)
	}
	returnPositions := make([]int, 0, len(fn.Returns))
	returnTypes := make([]*Type, len(fn.Returns))
	for i, p := range fn.Returns {
		returnTypes[i] = p.Ty
		if p.Name != "" {
			id := pt.Identifier{Name: p.Name, Loc: p.Loc}
			pos := st.Add(ns, fn.ContractNo, id, p.Ty)
			returnPositions = append(returnPositions, pos)
		}
	}
	if len(returnPositions) > 0 && len(returnPositions) != len(fn.Returns) {
		ns.Diagnostics.Errorf(fn.Loc, "either all or none of a function's return values may be named")
	}

	builder := NewCFGBuilder(ns, st)
	for _, p := range fn.Params {
		pos, _ := st.findLocal(p.Name)
		builder.EnsureVar(pos)
		builder.CFG().Params = append(builder.CFG().Params, pos)
	}
	for _, pos := range returnPositions {
		builder.CFG().Returns = append(builder.CFG().Returns, pos)
	}

	er := NewExprResolver(ns, fn.ContractNo, st, builder)
	sr := NewStmtResolver(er, returnTypes, returnPositions)
	fn.Symtable = st
	fn.Body = sr.ResolveBody(fn.Loc, body)
	fn.CFG = builder.CFG()

	if len(fn.Modifiers) > 0 {
		chainModifiers(ns, fn, er)
	}
	delete(pendingModifierArgs, indexOfFunction(ns, fn))
	AnalyseMutability(ns, fn)
}

func indexOfFunction(ns *Namespace, fn *Function) int {
	for i, f := range ns.Functions {
		if f == fn {
			return i
		}
	}
	return -1
}

// chainModifiers builds the N+1 CFG chain described in point
// 6: the innermost CFG is the already-built function body; for each
// modifier, from the last applied to the first, a fresh CFG is built
// from the modifier's own body with the blocks of the CFG built so far
// spliced in at its `_` placeholder (see spliceInner). Base-constructor
// invocations in a constructor's modifier list are skipped here; their
// arguments are collected with the other base-constructor arguments.
func chainModifiers(ns *Namespace, fn *Function, outerEr *ExprResolver) {
	invocations := pendingModifierArgs[indexOfFunction(ns, fn)]
	inner := fn.CFG
	for i := len(fn.Modifiers) - 1; i >= 0; i-- {
		mc := fn.Modifiers[i]
		sym, ok := ns.lookupSymbol(fn.ContractNo, mc.Name)
		if !ok {
			ns.Diagnostics.Errorf(mc.Loc, "undeclared modifier %q", mc.Name)
			continue
		}
		if _, isBase := sym.(contractSymbol); isBase && fn.Kind == pt.Constructor {
			continue
		}
		fnSym, ok := sym.(functionSymbol)
		if !ok || len(fnSym.Entries) == 0 {
			ns.Diagnostics.Errorf(mc.Loc, "%q is not a modifier", mc.Name)
			continue
		}
		modFnNo := fnSym.Entries[0].FunctionNo
		modFn := ns.Functions[modFnNo]
		if modFn.Kind != pt.Modifier {
			ns.Diagnostics.Errorf(mc.Loc, "%q is not a modifier", mc.Name)
			continue
		}
		var rawArgs []pt.Expression
		if i < len(invocations) {
			rawArgs = invocations[i].Args
		}
		args := make([]*Expression, len(rawArgs))
		for j, a := range rawArgs {
			args[j] = outerEr.Resolve(a)
		}
		inner = buildModifierCFG(ns, fn.Symtable, fn, modFn, inner, args)
	}
	fn.CFG = inner
}

// buildModifierCFG lowers one modifier body against the enclosing
// function's own shared Symtable, so a reference to one of the function's
// parameters resolves to the very same variable position at every level
// of the chain; only the modifier's own declared parameters (e.g.
// `modifier cost(uint price)`) are bound fresh, from the already-resolved
// invocation arguments. fn.Returns carries the arity and types that `_`
// hands back at every level of the chain, since a transient modifier-level
// CFG never declares return parameters of its own.
func buildModifierCFG(ns *Namespace, st *Symtable, fn, modFn *Function, inner *ControlFlowGraph, args []*Expression) *ControlFlowGraph {
	builder := NewCFGBuilder(ns, st)
	st.PushScope()
	defer st.PopScope()

	for i, p := range modFn.Params {
		id := pt.Identifier{Name: p.Name, Loc: p.Loc}
		pos := st.Add(ns, modFn.ContractNo, id, p.Ty)
		builder.EnsureVar(pos)
		if i < len(args) && args[i] != nil {
			builder.Set(p.Loc, pos, args[i])
		}
	}

	body := pendingBodies[indexOfFunction(ns, modFn)]
	er := NewExprResolver(ns, modFn.ContractNo, st, builder)
	lowerModifierBody(er, st, builder, body, inner, fn.Returns)
	return builder.CFG()
}

// lowerModifierBody walks a modifier body statement-by-statement,
// special-casing `_` and plain `return;` (terminate this level early),
// lowering everything else through the normal statement resolver. `_` is
// not a call: no function is registered for it to call into. Instead the
// wrapped CFG's blocks are spliced directly into this level's CFG by
// spliceInner, so the wrapped body's logic is actually reachable through
// the placeholder rather than through a dangling, unresolved call target.
func lowerModifierBody(er *ExprResolver, st *Symtable, builder *CFGBuilder, body []pt.Statement, inner *ControlFlowGraph, returns []Parameter) {
	sr := NewStmtResolver(er, nil, nil)
	var results []int
	for _, s := range body {
		if _, ok := s.(*pt.Underscore); ok {
			results = spliceInner(st, builder, inner, returns)
			continue
		}
		if ret, ok := s.(*pt.Return); ok && len(ret.Exprs) == 0 {
			builder.Return(ret.Loc, varRefs(results, returns))
			continue
		}
		sr.resolveStmt(s)
	}
	if !builder.terminated(builder.Current()) {
		builder.Return(pt.Loc{}, varRefs(results, returns))
	}
}

// spliceInner inlines inner's basic blocks into builder's CFG at the
// current cursor. Every terminating IReturn in the spliced copy is
// rewritten into an assignment of its returned values into fresh result
// variables followed by a branch to a new continuation block, so `_`
// behaves like a call that hands control back to the surrounding
// modifier body once the wrapped function (or inner modifier) returns -
// the same way code written after `_;` still runs once the wrapped call
// completes.
func spliceInner(st *Symtable, builder *CFGBuilder, inner *ControlFlowGraph, returns []Parameter) []int {
	results := make([]int, len(returns))
	for i, p := range returns {
		results[i] = st.Temp("modresult", p.Ty)
		builder.EnsureVar(results[i])
	}

	// cont is reserved past the end of the spliced copy of inner, so its
	// index is known up front even though the block itself is only
	// created once every inner block has been appended.
	offset := len(builder.cfg.Blocks)
	cont := offset + len(inner.Blocks)

	for _, bb := range inner.Blocks {
		instrs := make([]Instr, len(bb.Instr))
		copy(instrs, bb.Instr)
		for i := range instrs {
			remapBlockRefs(&instrs[i], offset)
		}
		if n := len(instrs); n > 0 && instrs[n-1].Kind == IReturn {
			retArgs := instrs[n-1].Args
			loc := instrs[n-1].Loc
			tail := make([]Instr, 0, len(results)+1)
			for i, pos := range results {
				var v *Expression
				if i < len(retArgs) {
					v = retArgs[i]
				}
				st.MarkAssigned(pos)
				tail = append(tail, Instr{Kind: ISet, Loc: loc, Res: []int{pos}, Expr: v})
			}
			tail = append(tail, Instr{Kind: IBranch, Loc: loc, BB: cont})
			instrs = append(instrs[:n-1], tail...)
		}
		phis := make([]int, len(bb.Phis))
		copy(phis, bb.Phis)
		builder.cfg.Blocks = append(builder.cfg.Blocks, BasicBlock{Name: bb.Name, Instr: instrs, Phis: phis})
	}
	if got := builder.NewBlock("after_underscore"); got != cont {
		panic("core: modifier splice continuation block index drifted")
	}

	for pos, v := range inner.Vars {
		if _, ok := builder.cfg.Vars[pos]; !ok {
			builder.cfg.Vars[pos] = v
		}
	}
	builder.cfg.WritesStorage = builder.cfg.WritesStorage || inner.WritesStorage
	builder.cfg.ReadsStorage = builder.cfg.ReadsStorage || inner.ReadsStorage

	builder.Branch(pt.Loc{}, offset)
	builder.SetCurrent(cont)
	return results
}

// remapBlockRefs shifts every block index an instruction copied from a
// spliced CFG carries, so jump targets keep pointing at the same logical
// block after that block is appended at a new position.
func remapBlockRefs(instr *Instr, offset int) {
	switch instr.Kind {
	case IBranch:
		instr.BB += offset
	case IBranchCond:
		instr.TrueBB += offset
		instr.FalseBB += offset
	}
	if instr.ExceptionBB != nil {
		v := *instr.ExceptionBB + offset
		instr.ExceptionBB = &v
	}
}

// varRefs builds EVariable references for the positions spliceInner
// captured a wrapped call's return values into, for use as the Args of a
// synthetic `return;` at this level of the modifier chain.
func varRefs(positions []int, returns []Parameter) []*Expression {
	if len(positions) == 0 {
		return nil
	}
	out := make([]*Expression, len(positions))
	for i, pos := range positions {
		out[i] = &Expression{Kind: EVariable, Position: pos, Ty: returns[i].Ty}
	}
	return out
}
