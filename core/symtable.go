package core

import "solidc/pt"

// VariableStorage tags where a Symtable variable ultimately lives.
type VariableStorage int

const (
	StorageLocal VariableStorage = iota
	StorageContract
	StorageConstant
)

// Variable is one entry in a function's dense variable array, owned
// exclusively by its Symtable.
type Variable struct {
	ID      int
	Name    string
	Ty      *Type
	Storage VariableStorage
	Slot    int // meaningful when Storage == StorageContract (the var_no) or StorageConstant (the constant_no)
}

type scope struct {
	names map[string]int // name -> Symtable position
}

// DirtyTracker accumulates the set of variable positions assigned since
// a branching/looping region was entered, for phi-set placement without
// dominance analysis.
type DirtyTracker struct {
	lim int
	set map[int]struct{}
}

func newDirtyTracker(lim int) *DirtyTracker {
	return &DirtyTracker{lim: lim, set: make(map[int]struct{})}
}

func (d *DirtyTracker) record(pos int) {
	if pos < d.lim {
		d.set[pos] = struct{}{}
	}
}

// Positions returns the recorded set as a sorted slice, so phi sets are
// deterministic across runs.
func (d *DirtyTracker) Positions() []int {
	out := make([]int, 0, len(d.set))
	for p := range d.set {
		out = append(out, p)
	}
	sortInts(out)
	return out
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Symtable is the function-local symbol table: a stack of scopes over a
// dense variable array, plus the active dirty trackers for phi placement.
type Symtable struct {
	ns      *Namespace
	vars    []*Variable
	scopes  []*scope
	trackers []*DirtyTracker

	contractNo int // the contract this function belongs to, or -1

	tempSuffix int
}

func NewSymtable(ns *Namespace, contractNo int) *Symtable {
	st := &Symtable{ns: ns, contractNo: contractNo}
	st.PushScope()
	return st
}

func (st *Symtable) Vars() []*Variable { return st.vars }

func (st *Symtable) PushScope() {
	st.scopes = append(st.scopes, &scope{names: make(map[string]int)})
}

// PopScope removes the innermost scope. The positions declared in it
// stay allocated; only their names go out of scope.
func (st *Symtable) PopScope() {
	if len(st.scopes) == 0 {
		return
	}
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// EnterDirtyRegion pushes a new DirtyTracker limited to variables that
// already existed at entry.
func (st *Symtable) EnterDirtyRegion() {
	st.trackers = append(st.trackers, newDirtyTracker(len(st.vars)))
}

// ExitDirtyRegion pops and returns the innermost tracker's recorded
// positions, to be attached as a join block's phi set.
func (st *Symtable) ExitDirtyRegion() []int {
	if len(st.trackers) == 0 {
		return nil
	}
	t := st.trackers[len(st.trackers)-1]
	st.trackers = st.trackers[:len(st.trackers)-1]
	return t.Positions()
}

// MarkAssigned records that pos was the target of a Set instruction, for
// every currently-active dirty tracker (called by the CFG builder).
func (st *Symtable) MarkAssigned(pos int) {
	for _, t := range st.trackers {
		t.record(pos)
	}
}

// Add declares a new local in the innermost scope. Shadowing an outer
// local, a state variable, or a namespace symbol is a warning, never an
// error.
func (st *Symtable) Add(ns *Namespace, contractNo int, id pt.Identifier, ty *Type) int {
	if prevPos, ok := st.findLocal(id.Name); ok {
		prev := st.vars[prevPos]
		ns.Diagnostics.Warnf(id.Loc, "declaration of %q shadows a previous local variable", id.Name)
		_ = prev
	} else if contractNo >= 0 {
		if _, ok := ns.findStateVariable(contractNo, id.Name); ok {
			ns.Diagnostics.Warnf(id.Loc, "declaration of %q shadows state variable", id.Name)
		} else if sym, ok := ns.lookupSymbol(contractNo, id.Name); ok {
			switch sym.(type) {
			case enumSymbol:
				ns.Diagnostics.Warnf(id.Loc, "declaration of %q shadows an enum", id.Name)
			case functionSymbol:
				ns.Diagnostics.Warnf(id.Loc, "declaration of %q shadows a function", id.Name)
			}
		}
	}

	v := &Variable{ID: ns.NextID(), Name: id.Name, Ty: ty, Storage: StorageLocal}
	pos := len(st.vars)
	st.vars = append(st.vars, v)
	st.scopes[len(st.scopes)-1].names[id.Name] = pos
	return pos
}

// Temp creates an anonymous position for an IR-lowering intermediate.
// Temp names are unique by numeric suffix so printed IR never collides.
func (st *Symtable) Temp(hint string, ty *Type) int {
	st.tempSuffix++
	v := &Variable{ID: st.ns.NextID(), Name: hint, Ty: ty, Storage: StorageLocal, Slot: st.tempSuffix}
	pos := len(st.vars)
	st.vars = append(st.vars, v)
	return pos
}

func (st *Symtable) findLocal(name string) (int, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if pos, ok := st.scopes[i].names[name]; ok {
			return pos, true
		}
	}
	return 0, false
}

// Find resolves a name: locals (outermost-last), then contract state
// variables, then namespace constants.
func (st *Symtable) Find(ns *Namespace, name string) (*Variable, int, bool) {
	if pos, ok := st.findLocal(name); ok {
		return st.vars[pos], pos, true
	}
	if st.contractNo >= 0 {
		if varNo, ok := ns.findStateVariable(st.contractNo, name); ok {
			v := &Variable{ID: -1, Name: name, Ty: ns.Variables[varNo].Ty, Storage: StorageContract, Slot: varNo}
			return v, -1, true
		}
	}
	for i, c := range ns.Constants {
		if c.Name == name {
			v := &Variable{ID: -1, Name: name, Ty: c.Ty, Storage: StorageConstant, Slot: i}
			return v, -1, true
		}
	}
	return nil, 0, false
}

// ---------------------------------------------------------------------
// Namespace-level symbol table
// ---------------------------------------------------------------------

type symbolKind interface{ isSymbol() }

type enumSymbol struct {
	Loc    pt.Loc
	EnumNo int
}

func (enumSymbol) isSymbol() {}

type structSymbol struct {
	Loc      pt.Loc
	StructNo int
}

func (structSymbol) isSymbol() {}

type eventSymbol struct {
	Loc     pt.Loc
	EventNo int
}

func (eventSymbol) isSymbol() {}

type contractSymbol struct {
	Loc        pt.Loc
	ContractNo int
}

func (contractSymbol) isSymbol() {}

// functionSymbol is a name bound to an *overload set*, not a single
// function: the only kind that accepts multiple entries sharing a name.
type functionSymbol struct {
	Entries []funcSymbolEntry
}

func (functionSymbol) isSymbol() {}

type funcSymbolEntry struct {
	Loc        pt.Loc
	FunctionNo int
}

// namespaceSymbols is the global map from (contract_no, name) to one
// symbol kind; contract_no == -1 denotes file-level scope.
type namespaceSymbols struct {
	m map[[2]interface{}]symbolKind
}

func (ns *Namespace) symbolKey(contractNo int, name string) [2]interface{} {
	return [2]interface{}{contractNo, name}
}

func (ns *Namespace) ensureSymbols() {
	if ns.symbols.m == nil {
		ns.symbols.m = make(map[[2]interface{}]symbolKind)
	}
}

// AddSymbol inserts a symbol, raising a duplicate-declaration error
// (with a note at the previous definition) on conflict. Functions are
// the only kind allowed to accumulate into an existing entry.
func (ns *Namespace) AddSymbol(contractNo int, id pt.Identifier, sym symbolKind) bool {
	ns.ensureSymbols()
	key := ns.symbolKey(contractNo, id.Name)
	if prev, ok := ns.symbols.m[key]; ok {
		if fnPrev, isFn := prev.(functionSymbol); isFn {
			if fnNew, isFnNew := sym.(functionSymbol); isFnNew {
				fnPrev.Entries = append(fnPrev.Entries, fnNew.Entries...)
				ns.symbols.m[key] = fnPrev
				return true
			}
		}
		ns.Diagnostics.ErrorWithNote(id.Loc, id.Name+" is already declared", Note{
			Loc:     prevLoc(prev),
			Message: "location of previous declaration",
		})
		return false
	}
	ns.symbols.m[key] = sym
	return true
}

func prevLoc(sym symbolKind) pt.Loc {
	switch s := sym.(type) {
	case enumSymbol:
		return s.Loc
	case structSymbol:
		return s.Loc
	case eventSymbol:
		return s.Loc
	case contractSymbol:
		return s.Loc
	case functionSymbol:
		if len(s.Entries) > 0 {
			return s.Entries[0].Loc
		}
	}
	return pt.Loc{}
}

func (ns *Namespace) lookupSymbol(contractNo int, name string) (symbolKind, bool) {
	ns.ensureSymbols()
	if sym, ok := ns.symbols.m[ns.symbolKey(contractNo, name)]; ok {
		return sym, true
	}
	if sym, ok := ns.symbols.m[ns.symbolKey(-1, name)]; ok {
		return sym, true
	}
	return nil, false
}

func (ns *Namespace) findStateVariable(contractNo int, name string) (int, bool) {
	c := ns.Contracts[contractNo]
	for _, base := range c.Linearised {
		bc := ns.Contracts[base]
		for _, varNo := range bc.Variables {
			if ns.Variables[varNo].Name == name {
				return varNo, true
			}
		}
	}
	return 0, false
}
