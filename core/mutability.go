package core

import "solidc/pt"

// mutabilityFacts is the per-function effect summary the analyser
// derives by walking the already-built CFG, grounded in the
// original compiler's StateCheck struct: one forward pass over every
// instruction and the expressions it carries, classifying each access
// as a state read, a state write, or neither.
type mutabilityFacts struct {
	reads  bool
	writes bool
}

// AnalyseMutability walks fn's CFG once, populates DoesReadState /
// DoesWriteState, and reports a diagnostic when the declared mutability
// promises less access than the body actually performs. It never
// upgrades or rewrites the declared Mutability: inference here is a
// check, not an inferred annotation.
func AnalyseMutability(ns *Namespace, fn *Function) {
	if fn.CFG == nil {
		return
	}
	var f mutabilityFacts
	for _, bb := range fn.CFG.Blocks {
		for _, instr := range bb.Instr {
			instrEffects(&instr, &f)
		}
	}
	fn.DoesReadState = f.reads
	fn.DoesWriteState = f.writes

	switch fn.Mutability {
	case pt.Pure:
		if f.reads || f.writes {
			ns.Diagnostics.Errorf(fn.Loc, "function %s is declared pure but reads contract state or the environment", fn.Name)
		}
	case pt.View:
		if f.writes {
			ns.Diagnostics.Errorf(fn.Loc, "function %s is declared view but writes contract state", fn.Name)
		}
		if !f.reads && !f.writes {
			ns.Diagnostics.Warnf(fn.Loc, "function %s can be declared pure", fn.Name)
		}
	case pt.MutabilityDefault:
		// Payable functions accept value transfer by design and are never
		// flagged here: restricting to view/pure would also forbid the
		// value transfer the declaration exists for.
		if !f.writes {
			if f.reads {
				ns.Diagnostics.Warnf(fn.Loc, "function %s can be declared view", fn.Name)
			} else {
				ns.Diagnostics.Warnf(fn.Loc, "function %s can be declared pure", fn.Name)
			}
		}
	}
}

func instrEffects(i *Instr, f *mutabilityFacts) {
	switch i.Kind {
	case ISetStorage, ISetStorageBytes, IClearStorage, IPushMemory, IPopMemory, ISelfDestruct, IConstructor:
		f.writes = true
	case IExternalCall:
		// A call to another contract may mutate state on the far side;
		// conservatively treated as a write, mirroring Solidity's own
		// "external calls are never pure/view-safe" rule.
		f.writes = true
	case IEmitEvent:
		f.writes = true
	}

	exprEffects(i.Expr, f)
	exprEffects(i.Cond, f)
	exprEffects(i.Dest, f)
	exprEffects(i.SlotExpr, f)
	exprEffects(i.Reason, f)
	exprEffects(i.GasExpr, f)
	exprEffects(i.ValueExpr, f)
	exprEffects(i.SaltExpr, f)
	exprEffects(i.AddrExpr, f)
	exprEffects(i.Array, f)
	exprEffects(i.Value, f)
	exprEffects(i.Data, f)
	for _, a := range i.Args {
		exprEffects(a, f)
	}
	for _, a := range i.DataArgs {
		exprEffects(a, f)
	}
	for _, a := range i.Topics {
		exprEffects(a, f)
	}
}

func exprEffects(e *Expression, f *mutabilityFacts) {
	if e == nil {
		return
	}
	switch e.Kind {
	case EStorageVariable, EStorageLoad, EStorageBytesSubscript, EStorageBytesLength:
		f.reads = true
	case EStorageBytesPush, EStorageBytesPop:
		f.writes = true
	case EExternalFunctionCall, EExternalFunctionCallRaw, EConstructorCall:
		f.writes = true
	case EBuiltinCall:
		switch builtinMutability(e.Builtin) {
		case BMView:
			f.reads = true
		case BMWrites:
			f.writes = true
		}
	}

	exprEffects(e.Left, f)
	exprEffects(e.Right, f)
	exprEffects(e.Cond, f)
	exprEffects(e.Index, f)
	exprEffects(e.Value, f)
	exprEffects(e.Gas, f)
	exprEffects(e.Salt, f)
	exprEffects(e.Address, f)
	for _, a := range e.Args {
		exprEffects(a, f)
	}
	for _, el := range e.Elems {
		exprEffects(el, f)
	}
}

func builtinMutability(k BuiltinKind) BuiltinMutability {
	for _, b := range builtinTable {
		if b.Kind == k {
			return b.Mutability
		}
	}
	return BMPure
}
