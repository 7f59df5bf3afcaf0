package core

import (
	"solidc/pt"
)

// StmtResolver lowers a function body's pt.Statement tree, emitting CFG
// instructions as it goes and returning a parallel Statement tree used
// by the textual printer and by tests that want to inspect the
// resolved shape without re-walking the IR.
type StmtResolver struct {
	*ExprResolver

	returnTypes     []*Type
	returnPositions []int // empty when the function has anonymous returns
}

func NewStmtResolver(er *ExprResolver, returnTypes []*Type, returnPositions []int) *StmtResolver {
	return &StmtResolver{ExprResolver: er, returnTypes: returnTypes, returnPositions: returnPositions}
}

// ResolveBody lowers a function's statement list, appending the implicit
// trailing return this design requires when control can still fall off the
// end.
func (r *StmtResolver) ResolveBody(loc pt.Loc, stmts []pt.Statement) []Statement {
	out, reachable := r.resolveBlockStmts(stmts)
	if reachable {
		if len(r.returnPositions) > 0 {
			values := make([]*Expression, len(r.returnPositions))
			for i, pos := range r.returnPositions {
				values[i] = &Expression{Kind: EVariable, Loc: loc, Ty: r.returnTypes[i], Position: pos}
			}
			r.cfg.Return(loc, values)
		} else if len(r.returnTypes) == 0 {
			r.cfg.Return(loc, nil)
		} else {
			r.ns.Diagnostics.Errorf(loc, "missing return statement")
		}
	}
	return out
}

// resolveBlockStmts lowers a statement sequence in a fresh scope,
// reporting an error if an unreachable statement is followed by another.
func (r *StmtResolver) resolveBlockStmts(stmts []pt.Statement) ([]Statement, bool) {
	r.st.PushScope()
	defer r.st.PopScope()

	out := make([]Statement, 0, len(stmts))
	reachable := true
	for i, s := range stmts {
		if !reachable {
			r.ns.Diagnostics.Errorf(locOf(s), "unreachable code")
		}
		stmt, rb := r.resolveStmt(s)
		out = append(out, stmt)
		reachable = rb
		if !reachable && i != len(stmts)-1 {
			// still lower remaining statements for diagnostics; // "error recovery is deliberate and broad".
		}
	}
	return out, reachable
}

func locOf(s pt.Statement) pt.Loc {
	switch n := s.(type) {
	case *pt.Block:
		return n.Loc
	case *pt.If:
		return n.Loc
	case *pt.While:
		return n.Loc
	case *pt.DoWhile:
		return n.Loc
	case *pt.For:
		return n.Loc
	case *pt.ExpressionStatement:
		return n.Loc
	case *pt.Return:
		return n.Loc
	case *pt.Break:
		return n.Loc
	case *pt.Continue:
		return n.Loc
	case *pt.Underscore:
		return n.Loc
	case *pt.Delete:
		return n.Loc
	case *pt.Emit:
		return n.Loc
	case *pt.Destructure:
		return n.Loc
	case *pt.TryCatch:
		return n.Loc
	case *pt.Unchecked:
		return n.Loc
	case *pt.VariableDeclaration:
		return n.Loc
	default:
		return pt.Loc{}
	}
}

func (r *StmtResolver) resolveStmt(s pt.Statement) (Statement, bool) {
	switch n := s.(type) {
	case *pt.Block:
		body, reachable := r.resolveBlockStmts(n.Stmts)
		return Statement{Kind: SBlock, Loc: n.Loc, Body: body, Reachable: reachable}, reachable

	case *pt.VariableDeclaration:
		return r.resolveVarDecl(n)

	case *pt.ExpressionStatement:
		expr := r.ExprResolver.Resolve(n.Expr)
		r.cfg.Eval(n.Loc, expr)
		return Statement{Kind: SExpression, Loc: n.Loc, Expr: expr, Reachable: true}, true

	case *pt.If:
		return r.resolveIf(n)

	case *pt.While:
		return r.resolveWhile(n)

	case *pt.DoWhile:
		return r.resolveDoWhile(n)

	case *pt.For:
		return r.resolveFor(n)

	case *pt.Return:
		return r.resolveReturn(n)

	case *pt.Break:
		if !r.cfg.InLoop() {
			r.ns.Diagnostics.Errorf(n.Loc, "break outside of a loop")
			return Statement{Kind: SBreak, Loc: n.Loc, Reachable: false}, false
		}
		r.cfg.RecordBreak(n.Loc)
		return Statement{Kind: SBreak, Loc: n.Loc, Reachable: false}, false

	case *pt.Continue:
		if !r.cfg.InLoop() {
			r.ns.Diagnostics.Errorf(n.Loc, "continue outside of a loop")
			return Statement{Kind: SContinue, Loc: n.Loc, Reachable: false}, false
		}
		r.cfg.RecordContinue(n.Loc)
		return Statement{Kind: SContinue, Loc: n.Loc, Reachable: false}, false

	case *pt.Underscore:
		// Only meaningful inside a modifier body; the contract elaborator
		// splices the next inner CFG's blocks in its place before this
		// resolver ever sees a modifier, so reaching here in a non-
		// modifier context is a parse-tree shape error.
		r.ns.Diagnostics.Errorf(n.Loc, "'_' may only appear in a modifier body")
		return Statement{Kind: SUnderscore, Loc: n.Loc, Reachable: true}, true

	case *pt.Delete:
		expr := r.ExprResolver.Resolve(n.Expr)
		if expr.Ty.Kind != KindStorageRef && expr.Ty.Kind != KindRef {
			r.ns.Diagnostics.Errorf(n.Loc, "delete requires an lvalue")
		} else if expr.Ty.Kind == KindStorageRef {
			r.cfg.emit(Instr{Kind: IClearStorage, Loc: n.Loc, Ty: expr.Ty.Inner, SlotExpr: expr})
		}
		return Statement{Kind: SDelete, Loc: n.Loc, Expr: expr, Reachable: true}, true

	case *pt.Emit:
		return r.resolveEmit(n)

	case *pt.Destructure:
		return r.resolveDestructure(n)

	case *pt.TryCatch:
		return r.resolveTryCatch(n)

	case *pt.Unchecked:
		body, reachable := r.resolveBlockStmts(n.Stmts)
		return Statement{Kind: SUnchecked, Loc: n.Loc, Body: body, Reachable: reachable}, reachable

	default:
		r.ns.Diagnostics.Errorf(pt.Loc{}, "internal: unhandled statement node")
		return Statement{Kind: SExpression, Reachable: true}, true
	}
}

func (r *StmtResolver) resolveVarDecl(n *pt.VariableDeclaration) (Statement, bool) {
	ty, ok := elementaryType(n.Ty.(*pt.Type))
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "local variables of user-defined type are resolved by the contract elaborator, not here")
		ty = Unresolved()
	}
	pos := r.st.Add(r.ns, r.contractNo, n.Name, ty)
	r.cfg.EnsureVar(pos)

	var init *Expression
	if n.Initializer != nil {
		init = r.TryImplicitCast(r.load(r.ExprResolver.Resolve(n.Initializer)), ty)
	} else {
		init = zeroValue(ty)
	}
	r.cfg.Set(n.Loc, pos, init)
	return Statement{Kind: SVariableDecl, Loc: n.Loc, VarPos: pos, VarTy: ty, Init: init, Reachable: true}, true
}

// zeroValue builds the default-valued expression for a declaration with
// no initializer.
func zeroValue(ty *Type) *Expression {
	switch ty.Kind {
	case KindBool:
		return &Expression{Kind: EBoolLiteral, Ty: ty}
	case KindUint, KindInt, KindBytesN, KindAddress, KindEnum:
		return &Expression{Kind: ENumberLiteral, Ty: ty, StringBytes: nil}
	default:
		return &Expression{Kind: ENumberLiteral, Ty: ty, StringBytes: nil}
	}
}

func (r *StmtResolver) resolveIf(n *pt.If) (Statement, bool) {
	cond := r.TryImplicitCast(r.load(r.ExprResolver.Resolve(n.Cond)), BoolType())

	thenBB := r.cfg.NewBlock("then")
	endBB := r.cfg.NewBlock("endif")

	if n.Else == nil {
		r.cfg.EnterDirtyRegion()
		r.cfg.BranchCond(n.Loc, cond, thenBB, endBB)
		r.cfg.SetCurrent(thenBB)
		thenBody, thenReachable := r.resolveStmt(n.Then)
		if thenReachable {
			r.cfg.Branch(n.Loc, endBB)
		}
		phis := r.cfg.ExitDirtyRegion()
		r.cfg.SetPhis(endBB, phis)
		r.cfg.SetCurrent(endBB)
		return Statement{Kind: SIf, Loc: n.Loc, Cond: cond, Body: []Statement{thenBody}, Reachable: true}, true
	}

	elseBB := r.cfg.NewBlock("else")
	r.cfg.EnterDirtyRegion()
	r.cfg.BranchCond(n.Loc, cond, thenBB, elseBB)

	r.cfg.SetCurrent(thenBB)
	thenBody, thenReachable := r.resolveStmt(n.Then)
	if thenReachable {
		r.cfg.Branch(n.Loc, endBB)
	}

	r.cfg.SetCurrent(elseBB)
	elseBody, elseReachable := r.resolveStmt(n.Else)
	if elseReachable {
		r.cfg.Branch(n.Loc, endBB)
	}

	phis := r.cfg.ExitDirtyRegion()
	reachable := thenReachable || elseReachable
	if reachable {
		r.cfg.SetPhis(endBB, phis)
		r.cfg.SetCurrent(endBB)
	}
	return Statement{Kind: SIf, Loc: n.Loc, Cond: cond, Body: []Statement{thenBody}, Else: []Statement{elseBody}, Reachable: reachable}, reachable
}

func (r *StmtResolver) resolveWhile(n *pt.While) (Statement, bool) {
	condBB := r.cfg.NewBlock("cond")
	bodyBB := r.cfg.NewBlock("body")
	endBB := r.cfg.NewBlock("end")

	r.cfg.Branch(n.Loc, condBB)
	r.cfg.SetCurrent(condBB)
	r.cfg.EnterDirtyRegion()
	cond := r.TryImplicitCast(r.load(r.ExprResolver.Resolve(n.Cond)), BoolType())
	r.cfg.BranchCond(n.Loc, cond, bodyBB, endBB)

	r.cfg.SetCurrent(bodyBB)
	r.cfg.PushLoop(endBB, condBB)
	body, bodyReachable := r.resolveStmt(n.Body)
	loop := r.cfg.PopLoop()
	if bodyReachable {
		r.cfg.Branch(n.Loc, condBB)
	}

	phis := r.cfg.ExitDirtyRegion()
	r.cfg.SetPhis(condBB, phis)
	r.cfg.SetCurrent(endBB)
	// The loop may execute zero times (cond false immediately), so end is
	// always reachable regardless of loop.BreakCount/body reachability.
	_ = loop
	return Statement{Kind: SWhile, Loc: n.Loc, Cond: cond, Body: []Statement{body}, Reachable: true}, true
}

func (r *StmtResolver) resolveDoWhile(n *pt.DoWhile) (Statement, bool) {
	bodyBB := r.cfg.NewBlock("body")
	condBB := r.cfg.NewBlock("cond")
	endBB := r.cfg.NewBlock("end")

	r.cfg.Branch(n.Loc, bodyBB)
	r.cfg.SetCurrent(bodyBB)
	r.cfg.EnterDirtyRegion()
	r.cfg.PushLoop(endBB, condBB)
	body, bodyReachable := r.resolveStmt(n.Body)
	loop := r.cfg.PopLoop()
	if bodyReachable {
		r.cfg.Branch(n.Loc, condBB)
	}

	r.cfg.SetCurrent(condBB)
	cond := r.TryImplicitCast(r.load(r.ExprResolver.Resolve(n.Cond)), BoolType())
	r.cfg.BranchCond(n.Loc, cond, bodyBB, endBB)

	phis := r.cfg.ExitDirtyRegion()
	r.cfg.SetPhis(bodyBB, phis)
	_ = loop
	r.cfg.SetCurrent(endBB)
	return Statement{Kind: SDoWhile, Loc: n.Loc, Cond: cond, Body: []Statement{body}, Reachable: true}, true
}

func (r *StmtResolver) resolveFor(n *pt.For) (Statement, bool) {
	r.st.PushScope()
	defer r.st.PopScope()

	var initStmt *Statement
	if n.Init != nil {
		s, _ := r.resolveStmt(n.Init)
		initStmt = &s
	}

	condBB := r.cfg.NewBlock("cond")
	bodyBB := r.cfg.NewBlock("body")
	nextBB := r.cfg.NewBlock("next")
	endBB := r.cfg.NewBlock("end")

	r.cfg.Branch(n.Loc, condBB)
	r.cfg.SetCurrent(condBB)
	r.cfg.EnterDirtyRegion()

	var cond *Expression
	if n.Cond != nil {
		cond = r.TryImplicitCast(r.load(r.ExprResolver.Resolve(n.Cond)), BoolType())
		r.cfg.BranchCond(n.Loc, cond, bodyBB, endBB)
	} else {
		r.cfg.Branch(n.Loc, bodyBB)
	}

	r.cfg.SetCurrent(bodyBB)
	r.cfg.PushLoop(endBB, nextBB)
	body, bodyReachable := r.resolveStmt(n.Body)
	loop := r.cfg.PopLoop()
	if bodyReachable {
		r.cfg.Branch(n.Loc, nextBB)
	}

	r.cfg.SetCurrent(nextBB)
	var nextStmt *Statement
	if n.Next != nil {
		s, _ := r.resolveStmt(n.Next)
		nextStmt = &s
	}
	r.cfg.Branch(n.Loc, condBB)

	phis := r.cfg.ExitDirtyRegion()
	r.cfg.SetPhis(condBB, phis)
	_ = loop
	r.cfg.SetCurrent(endBB)

	st := Statement{Kind: SFor, Loc: n.Loc, Cond: cond, Body: []Statement{body}, ForInit: initStmt, ForNext: nextStmt, Reachable: true}
	return st, true
}

func (r *StmtResolver) resolveReturn(n *pt.Return) (Statement, bool) {
	if len(n.Exprs) == 0 {
		if len(r.returnPositions) > 0 {
			values := make([]*Expression, len(r.returnPositions))
			for i, pos := range r.returnPositions {
				values[i] = &Expression{Kind: EVariable, Loc: n.Loc, Ty: r.returnTypes[i], Position: pos}
			}
			r.cfg.Return(n.Loc, values)
			return Statement{Kind: SReturn, Loc: n.Loc, Returns: values, Reachable: false}, false
		}
		r.cfg.Return(n.Loc, nil)
		return Statement{Kind: SReturn, Loc: n.Loc, Reachable: false}, false
	}
	if len(n.Exprs) != len(r.returnTypes) {
		r.ns.Diagnostics.Errorf(n.Loc, "wrong number of return values: expected %d, got %d", len(r.returnTypes), len(n.Exprs))
	}
	values := make([]*Expression, 0, len(n.Exprs))
	for i, e := range n.Exprs {
		v := r.load(r.ExprResolver.Resolve(e))
		if i < len(r.returnTypes) {
			v = r.TryImplicitCast(v, r.returnTypes[i])
		}
		values = append(values, v)
	}
	r.cfg.Return(n.Loc, values)
	return Statement{Kind: SReturn, Loc: n.Loc, Returns: values, Reachable: false}, false
}

func (r *StmtResolver) resolveEmit(n *pt.Emit) (Statement, bool) {
	sym, ok := r.ns.lookupSymbol(r.contractNo, n.Name.Name)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not a declared event", n.Name.Name)
		return Statement{Kind: SEmit, Loc: n.Loc, Reachable: true}, true
	}
	es, ok := sym.(eventSymbol)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not an event", n.Name.Name)
		return Statement{Kind: SEmit, Loc: n.Loc, Reachable: true}, true
	}
	ed := r.ns.Events[es.EventNo]
	if len(n.Args) != len(ed.Fields) {
		r.ns.Diagnostics.Errorf(n.Loc, "event %s expects %d arguments, got %d", ed.Name, len(ed.Fields), len(n.Args))
		return Statement{Kind: SEmit, Loc: n.Loc, Reachable: true}, true
	}

	args := make([]*Expression, len(n.Args))
	var dataArgs, topics []*Expression
	var dataTys, topicTys []*Type
	for i, a := range n.Args {
		v := r.TryImplicitCast(r.load(r.ExprResolver.Resolve(a)), ed.Fields[i].Ty)
		args[i] = v
		if ed.Fields[i].Indexed {
			topics = append(topics, v)
			topicTys = append(topicTys, ed.Fields[i].Ty)
		} else {
			dataArgs = append(dataArgs, v)
			dataTys = append(dataTys, ed.Fields[i].Ty)
		}
	}

	r.cfg.emit(Instr{
		Kind: IEmitEvent, Loc: n.Loc, EventNo: es.EventNo,
		DataArgs: dataArgs, DataTys: dataTys, Topics: topics, TopicTys: topicTys,
	})
	return Statement{Kind: SEmit, Loc: n.Loc, EventNo: es.EventNo, Args: args, Reachable: true}, true
}

func (r *StmtResolver) resolveDestructure(n *pt.Destructure) (Statement, bool) {
	rhs := r.ExprResolver.Resolve(n.Rhs)
	var elemTys []*Type
	if rhs.Ty.Kind == KindFunction {
		elemTys = rhs.Ty.FuncReturns
	} else {
		elemTys = []*Type{rhs.Ty}
	}

	fields := make([]DestructureField, len(n.Fields))
	for i := range n.Fields {
		var ty *Type
		if i < len(elemTys) {
			ty = elemTys[i]
		} else {
			ty = Unresolved()
		}
		switch {
		case n.Fields[i] == nil && (n.Idents == nil || i >= len(n.Idents) || n.Idents[i] == nil):
			fields[i] = DestructureField{Skip: true}
		case n.Fields[i] != nil:
			decl := n.Fields[i]
			declTy := ty
			if decl.Ty != nil {
				if t, ok := elementaryType(decl.Ty.(*pt.Type)); ok {
					declTy = t
				}
			}
			pos := r.st.Add(r.ns, r.contractNo, decl.Name, declTy)
			r.cfg.EnsureVar(pos)
			fields[i] = DestructureField{Declare: true, Position: pos, Ty: declTy}
		default:
			lv := r.ExprResolver.Resolve(n.Idents[i])
			fields[i] = DestructureField{Lvalue: lv, Ty: ty}
		}
	}

	for i, f := range fields {
		if f.Skip {
			continue
		}
		elem := elemAt(rhs, i, elemTys)
		if f.Declare {
			r.cfg.Set(n.Loc, f.Position, r.TryImplicitCast(elem, f.Ty))
		} else {
			casted := r.TryImplicitCast(elem, f.Ty)
			assign := &Expression{Kind: EAssign, Loc: n.Loc, Ty: f.Ty, Left: f.Lvalue, Right: casted}
			r.cfg.Eval(n.Loc, assign)
		}
	}

	return Statement{Kind: SDestructure, Loc: n.Loc, DestFields: fields, DestRhs: rhs, Reachable: true}, true
}

// elemAt extracts the i'th value out of a multi-return call's result.
// With the CFG IR modelled as single-result instructions, a real
// implementation would bind each tuple slot to its own Call result
// position; this lowers each slot as a projection over the call
// expression, deferred to the printer/codegen stage.
func elemAt(rhs *Expression, i int, elemTys []*Type) *Expression {
	if len(elemTys) <= 1 {
		return rhs
	}
	ty := Unresolved()
	if i < len(elemTys) {
		ty = elemTys[i]
	}
	return &Expression{Kind: EStructMember, Loc: rhs.Loc, Ty: ty, Left: rhs, FieldNo: i}
}

func (r *StmtResolver) resolveTryCatch(n *pt.TryCatch) (Statement, bool) {
	call := r.ExprResolver.Resolve(n.Expr)

	returnPositions := make([]int, len(n.Returns))
	for i, p := range n.Returns {
		ty := Unresolved()
		if p.Ty != nil {
			if t, ok := elementaryType(p.Ty.(*pt.Type)); ok {
				ty = t
			}
		}
		returnPositions[i] = r.st.Add(r.ns, r.contractNo, p.Name, ty)
		r.cfg.EnsureVar(returnPositions[i])
	}

	okBB := r.cfg.NewBlock("try_ok")
	catchBB := r.cfg.NewBlock("try_catch")
	endBB := r.cfg.NewBlock("try_end")

	exception := endBB
	r.cfg.emit(Instr{Kind: IExternalCall, Loc: n.Loc, Expr: call, ExceptionBB: &catchBB})
	r.cfg.Branch(n.Loc, okBB)
	_ = exception

	r.cfg.SetCurrent(okBB)
	r.cfg.EnterDirtyRegion()
	okBody, okReachable := r.resolveBlockStmts(n.OkBody)
	if okReachable {
		r.cfg.Branch(n.Loc, endBB)
	}

	r.cfg.SetCurrent(catchBB)
	errorParam, catchParam := -1, -1
	var errorBody, catchBody []Statement
	hasError := n.ErrorClause != nil
	catchReachable := true
	if n.ErrorClause != nil && len(n.ErrorClause.Params) > 0 {
		errorParam = r.st.Add(r.ns, r.contractNo, n.ErrorClause.Params[0].Name, StringType())
		r.cfg.EnsureVar(errorParam)
		errorBody, catchReachable = r.resolveBlockStmts(n.ErrorClause.Body)
	} else if n.CatchClause != nil {
		if len(n.CatchClause.Params) > 0 {
			catchParam = r.st.Add(r.ns, r.contractNo, n.CatchClause.Params[0].Name, DynamicBytesType())
			r.cfg.EnsureVar(catchParam)
		}
		catchBody, catchReachable = r.resolveBlockStmts(n.CatchClause.Body)
	}
	if catchReachable {
		r.cfg.Branch(n.Loc, endBB)
	}

	phis := r.cfg.ExitDirtyRegion()
	reachable := okReachable || catchReachable
	if reachable {
		r.cfg.SetPhis(endBB, phis)
		r.cfg.SetCurrent(endBB)
	}

	return Statement{
		Kind: STryCatch, Loc: n.Loc, TryExpr: call, TryReturns: returnPositions,
		OkBody: okBody, ErrorParam: errorParam, ErrorBody: errorBody, HasError: hasError,
		CatchParam: catchParam, CatchBody: catchBody, Reachable: reachable,
	}, reachable
}
