package core

import (
	"fmt"
)

// TypeKind tags the Type union's active representation.
type TypeKind int

const (
	KindUnresolved TypeKind = iota
	KindUnreachable
	KindBool
	KindInt
	KindUint
	KindAddress
	KindBytesN // fixed-size bytes1..bytes32, value-typed
	KindString
	KindDynamicBytes
	KindEnum
	KindStruct
	KindArray
	KindMapping
	KindRef        // memory/stack L-value
	KindStorageRef // storage-slot L-value
	KindContract
	KindFunction // internal or external function value
)

// ArrayDim is either a fixed compile-time size, or dynamic when Dynamic
// is true.
type ArrayDim struct {
	Size    int64
	Dynamic bool
}

// Type is the central tagged union every resolved expression and
// declaration carries. Only the fields relevant to Kind are populated;
// zero value is KindUnresolved.
type Type struct {
	Kind TypeKind

	// KindInt / KindUint
	Bits int

	// KindAddress
	Payable bool

	// KindBytesN
	N int

	// KindEnum / KindStruct / KindContract
	DeclNo int

	// KindArray
	Elem *Type
	Dims []ArrayDim

	// KindMapping
	Key   *Type
	Value *Type

	// KindRef / KindStorageRef
	Inner *Type

	// KindFunction
	FuncInternal bool
	FuncParams   []*Type
	FuncReturns  []*Type
}

func Unresolved() *Type { return &Type{Kind: KindUnresolved} }
func Unreachable() *Type { return &Type{Kind: KindUnreachable} }
func BoolType() *Type    { return &Type{Kind: KindBool} }
func IntType(bits int) *Type  { return &Type{Kind: KindInt, Bits: bits} }
func UintType(bits int) *Type { return &Type{Kind: KindUint, Bits: bits} }
func AddressType(payable bool) *Type { return &Type{Kind: KindAddress, Payable: payable} }
func BytesNType(n int) *Type  { return &Type{Kind: KindBytesN, N: n} }
func StringType() *Type       { return &Type{Kind: KindString} }
func DynamicBytesType() *Type { return &Type{Kind: KindDynamicBytes} }
func EnumType(declNo int) *Type   { return &Type{Kind: KindEnum, DeclNo: declNo} }
func StructType(declNo int) *Type { return &Type{Kind: KindStruct, DeclNo: declNo} }
func ContractType(declNo int) *Type { return &Type{Kind: KindContract, DeclNo: declNo} }
func ArrayOf(elem *Type, dims []ArrayDim) *Type {
	return &Type{Kind: KindArray, Elem: elem, Dims: dims}
}
func MappingOf(key, value *Type) *Type { return &Type{Kind: KindMapping, Key: key, Value: value} }

func RefOf(inner *Type) *Type {
	if inner.Kind == KindRef || inner.Kind == KindStorageRef {
		panic("core: Ref must not nest Ref/StorageRef (invariant in )")
	}
	return &Type{Kind: KindRef, Inner: inner}
}

func StorageRefOf(inner *Type) *Type {
	if inner.Kind == KindRef || inner.Kind == KindStorageRef {
		panic("core: StorageRef must not nest Ref/StorageRef (invariant in )")
	}
	return &Type{Kind: KindStorageRef, Inner: inner}
}

// IsValueType reports whether a value of this type fits in a single
// machine word (<=256 bits) and is copied by value.
func (t *Type) IsValueType() bool {
	switch t.Kind {
	case KindBool, KindInt, KindUint, KindAddress, KindBytesN, KindEnum, KindContract, KindFunction:
		return true
	default:
		return false
	}
}

// Equal reports structural equality, ignoring Ref/StorageRef wrappers'
// irrelevant fields.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindInt, KindUint:
		return t.Bits == o.Bits
	case KindAddress:
		return t.Payable == o.Payable
	case KindBytesN:
		return t.N == o.N
	case KindEnum, KindStruct, KindContract:
		return t.DeclNo == o.DeclNo
	case KindArray:
		if len(t.Dims) != len(o.Dims) {
			return false
		}
		for i := range t.Dims {
			if t.Dims[i] != o.Dims[i] {
				return false
			}
		}
		return t.Elem.Equal(o.Elem)
	case KindMapping:
		return t.Key.Equal(o.Key) && t.Value.Equal(o.Value)
	case KindRef, KindStorageRef:
		return t.Inner.Equal(o.Inner)
	default:
		return true
	}
}

// StorageSlots returns the number of 256-bit storage slots a value of
// this type occupies when laid out as a contract state variable.
// Dynamic arrays and mappings consume exactly one anchor slot; constants
// never reach this function (they are filtered out by the caller).
func (ns *Namespace) StorageSlots(t *Type) int {
	switch t.Kind {
	case KindMapping:
		return 1
	case KindArray:
		for _, d := range t.Dims {
			if d.Dynamic {
				return 1
			}
		}
		n := 1
		elemSlots := ns.StorageSlots(t.Elem)
		for _, d := range t.Dims {
			n *= int(d.Size)
		}
		return n * elemSlots
	case KindStruct:
		sd := ns.Structs[t.DeclNo]
		total := 0
		for _, f := range sd.Fields {
			total += ns.StorageSlots(f.Ty)
		}
		if total == 0 {
			total = 1
		}
		return total
	case KindBytesN, KindBool, KindInt, KindUint, KindAddress, KindEnum, KindContract:
		return 1
	default:
		return 1
	}
}

// AsCanonical renders the canonical type name used in signatures and
// selector computation.
func (t *Type) AsCanonical(ns *Namespace) string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return fmt.Sprintf("int%d", t.Bits)
	case KindUint:
		return fmt.Sprintf("uint%d", t.Bits)
	case KindAddress:
		return "address"
	case KindBytesN:
		return fmt.Sprintf("bytes%d", t.N)
	case KindString:
		return "string"
	case KindDynamicBytes:
		return "bytes"
	case KindEnum:
		// Canonical ABI form of an enum is its underlying integer type.
		ed := ns.Enums[t.DeclNo]
		return UintType(ed.UnderlyingBits()).AsCanonical(ns)
	case KindStruct:
		sd := ns.Structs[t.DeclNo]
		s := "("
		for i, f := range sd.Fields {
			if i > 0 {
				s += ","
			}
			s += f.Ty.AsCanonical(ns)
		}
		return s + ")"
	case KindArray:
		s := t.Elem.AsCanonical(ns)
		for i := len(t.Dims) - 1; i >= 0; i-- {
			if t.Dims[i].Dynamic {
				s += "[]"
			} else {
				s += fmt.Sprintf("[%d]", t.Dims[i].Size)
			}
		}
		return s
	case KindContract:
		return "address"
	default:
		return "()"
	}
}

// HasZeroDefault reports whether the type has a statically-known
// all-zero default; used by the lowerer when elaborating declarations
// without an initializer.
func (t *Type) HasZeroDefault() bool {
	switch t.Kind {
	case KindMapping:
		return true // empty mapping, nothing to initialise
	default:
		return true
	}
}

// UnderlyingBits returns the smallest multiple-of-8 width that holds
// every enum value.
func (e *EnumDecl) UnderlyingBits() int {
	n := len(e.Values)
	bits := 8
	for (1 << uint(bits)) < n {
		bits += 8
	}
	return bits
}
