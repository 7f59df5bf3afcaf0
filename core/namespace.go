package core

import (
	"github.com/sirupsen/logrus"

	"solidc/pt"
)

// StructDecl is a resolved struct declaration.
type StructDecl struct {
	Loc  pt.Loc
	Name string
	// ContractNo is -1 for a file-level struct.
	ContractNo int
	Fields     []StructField
}

type StructField struct {
	Loc  pt.Loc
	Name string
	Ty   *Type
}

// EnumDecl is a resolved enum declaration.
type EnumDecl struct {
	Loc        pt.Loc
	Name       string
	ContractNo int
	Values     []string
}

// EventField describes one event parameter.
type EventField struct {
	Loc     pt.Loc
	Name    string
	Ty      *Type
	Indexed bool
}

// EventDecl is a resolved event declaration.
type EventDecl struct {
	Loc        pt.Loc
	Name       string
	ContractNo int
	Fields     []EventField
	Anonymous  bool
}

// ConstantDecl is a file- or contract-level `constant` variable whose
// value is known at compile time.
type ConstantDecl struct {
	Loc   pt.Loc
	Name  string
	Ty    *Type
	Value Expression
}

// StateVariable is a non-constant contract storage variable.
type StateVariable struct {
	Loc        pt.Loc
	Name       string
	Ty         *Type
	Visibility pt.Visibility
	ContractNo int
	Initializer Expression // never set by the elaborator; always the zero Expression
}

// StorageLocation records where one (definingContract, varNo) state
// variable was assigned within the most-derived contract's layout.
type StorageLocation struct {
	Slot   int
	Offset int // byte offset within the slot, for packed sub-word fields
}

// FunctionKind mirrors pt.FunctionTy after resolution.
type FunctionKind = pt.FunctionTy

// MutabilityKind mirrors pt.Mutability after resolution.
type MutabilityKind = pt.Mutability

// Function is a resolved function, constructor, fallback, receive, or
// modifier.
type Function struct {
	Loc        pt.Loc
	Name       string
	Kind       FunctionKind
	ContractNo int // -1 for a free function
	Visibility pt.Visibility
	Mutability MutabilityKind
	Virtual    bool
	Override   *pt.OverrideSpecifier

	Params  []Parameter
	Returns []Parameter

	Modifiers []ModifierCall

	Symtable *Symtable
	Body     []Statement
	HasBody  bool

	CFG *ControlFlowGraph

	// Selector is the 4-byte dispatch selector; populated by
	// ComputeSelectors once the canonical signature is known.
	Selector [4]byte

	// DoesReadState/DoesWriteState are populated by the mutability
	// analyser.
	DoesReadState  bool
	DoesWriteState bool

	// FatalError marks a function whose CFG construction hit a fatal,
	// per-function-only condition.
	FatalError bool
}

type Parameter struct {
	Loc  pt.Loc
	Name string
	Ty   *Type
}

type ModifierCall struct {
	Loc  pt.Loc
	Name string
	Args []Expression
}

// Contract owns everything describes for "Contract".
type Contract struct {
	Loc  pt.Loc
	Name string
	Ty   pt.ContractTy

	// Bases is the declaration-order base list (pre-linearisation).
	BaseNames []pt.InheritanceSpecifier

	// Linearised is the C3 linearisation, most-derived first, ending in
	// the contract itself being index 0 and terminating at a base with
	// no further bases.
	Linearised []int

	Functions []int // indices into Namespace.Functions declared directly on this contract
	Structs   []int
	Enums     []int
	Events    []int
	Constants []int
	Variables []int // indices into Namespace.Variables declared directly on this contract

	// AllFunctions is the post-flattening callable set, keyed by
	// (definingContract, functionNo) -> index into Namespace.Functions.
	AllFunctions map[[2]int]int

	// VirtualFunctions maps a canonical signature to the most-derived
	// override's Namespace.Functions index.
	VirtualFunctions map[string]int

	// Layout maps (definingContract, varNo) -> StorageLocation for this
	// contract's full flattened storage layout.
	Layout map[[2]int]StorageLocation

	// BaseArgs maps a base contract index (within Linearised) to the
	// constructor arguments supplied for it, collected from either
	// inheritance-specifier args or the derived constructor's modifier
	// list.
	BaseArgs map[int][]Expression

	SendsEvents []int // indices into Namespace.Events this contract emits
}

// Address is the core's own fixed-width address representation; the
// widest supported target (Solana) needs 32 bytes, so Address is sized
// for that and narrower targets use a leading-zero-padded prefix.
type Address [32]byte

func (a Address) Bytes() []byte { return a[:] }

// Namespace is the single piece of explicit, mutable state threaded
// through semantic analysis.
type Namespace struct {
	Contracts []*Contract
	Structs   []*StructDecl
	Enums     []*EnumDecl
	Events    []*EventDecl
	Functions []*Function
	Constants []*ConstantDecl
	Variables []*StateVariable
	Files     []string

	Diagnostics Diagnostics

	Target        Target
	AddressLength int
	ValueLength   int

	nextID int

	symbols namespaceSymbols

	log *logrus.Entry
}

// NewNamespace constructs an empty Namespace for one compilation unit
// targeting the given backend.
func NewNamespace(target Target) *Namespace {
	ns := &Namespace{
		Target:        target,
		AddressLength: target.AddressLength(),
		ValueLength:   target.ValueLength(),
		log:           logrus.WithField("component", "core"),
	}
	return ns
}

// NextID allocates the next monotonic IR variable position, owned
// exclusively by the Namespace.
func (ns *Namespace) NextID() int {
	id := ns.nextID
	ns.nextID++
	return id
}

func (ns *Namespace) logf(format string, args ...interface{}) {
	if ns.log != nil {
		ns.log.Debugf(format, args...)
	}
}
