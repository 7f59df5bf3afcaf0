package core

import "solidc/pt"

// CastOp tags the conversion instruction the expression resolver emits
// for an explicit or implicit cast.
type CastOp int

const (
	CastNone CastOp = iota
	CastZeroExt
	CastSignExt
	CastTrunc
	CastBytesWiden
	CastBytesNarrow
	CastGeneric // reinterpretation with no bit-pattern change (e.g. same-width int<->uint)
)

// CoerceInt computes the common type for a binary arithmetic/bitwise
// operator.2 "Coercion". Returns nil if no common type
// exists (e.g. string vs int).
func CoerceInt(a, b *Type) *Type {
	if a.Equal(b) {
		return a
	}
	switch {
	case a.Kind == KindUint && b.Kind == KindUint:
		return UintType(max(a.Bits, b.Bits))
	case a.Kind == KindInt && b.Kind == KindInt:
		return IntType(max(a.Bits, b.Bits))
	case a.Kind == KindInt && b.Kind == KindUint:
		return signedUnsignedCommon(a, b)
	case a.Kind == KindUint && b.Kind == KindInt:
		return signedUnsignedCommon(b, a)
	case a.Kind == KindBytesN && b.Kind == KindBytesN:
		return BytesNType(max(a.N, b.N))
	default:
		return nil
	}
}

// signedUnsignedCommon promotes a signed/unsigned pair to
// Int(max(signed_width, min(256, unsigned_width+8))), preserving sign.
func signedUnsignedCommon(signed, unsigned *Type) *Type {
	w := unsigned.Bits + 8
	if w > 256 {
		w = 256
	}
	return IntType(max(signed.Bits, w))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CastResult describes how one cast was resolved.
type CastResult struct {
	OK       bool
	Op       CastOp
	Implicit bool
}

// CheckCast decides whether `from` can convert to `to`, per the cast
// matrix in implicit selects whether the narrowing/sign-
// changing rules are enforced (true) or relaxed for an explicit cast
// (false). Diagnostics are left to the caller (expr resolver), which
// knows the source location and surrounding expression text.
func CheckCast(from, to *Type, implicit bool) CastResult {
	if from.Equal(to) {
		return CastResult{OK: true, Op: CastNone, Implicit: true}
	}
	switch {
	case from.Kind == KindUint && to.Kind == KindUint:
		if from.Bits < to.Bits {
			return CastResult{OK: true, Op: CastZeroExt, Implicit: true}
		}
		return CastResult{OK: true, Op: CastTrunc, Implicit: !implicit}

	case from.Kind == KindInt && to.Kind == KindInt:
		if from.Bits < to.Bits {
			return CastResult{OK: true, Op: CastSignExt, Implicit: true}
		}
		return CastResult{OK: true, Op: CastTrunc, Implicit: !implicit}

	case from.Kind == KindInt && to.Kind == KindUint:
		// Sign changes always; additionally narrows if to.Bits < from.Bits.
		return CastResult{OK: true, Op: CastGeneric, Implicit: !implicit}

	case from.Kind == KindUint && to.Kind == KindInt:
		if from.Bits < to.Bits {
			return CastResult{OK: true, Op: CastGeneric, Implicit: true}
		}
		return CastResult{OK: true, Op: CastGeneric, Implicit: !implicit}

	case from.Kind == KindBytesN && to.Kind == KindBytesN:
		if from.N < to.N {
			return CastResult{OK: true, Op: CastBytesWiden, Implicit: !implicit}
		}
		return CastResult{OK: true, Op: CastBytesNarrow, Implicit: !implicit}

	case from.Kind == KindBytesN && (to.Kind == KindUint || to.Kind == KindInt):
		if from.N*8 != to.Bits {
			return CastResult{OK: false}
		}
		return CastResult{OK: true, Op: CastGeneric, Implicit: false}

	case (from.Kind == KindUint || from.Kind == KindInt) && to.Kind == KindBytesN:
		if from.Bits != to.N*8 {
			return CastResult{OK: false}
		}
		return CastResult{OK: true, Op: CastGeneric, Implicit: false}

	case from.Kind == KindBytesN && to.Kind == KindAddress:
		if from.N != 20 {
			return CastResult{OK: false}
		}
		return CastResult{OK: true, Op: CastGeneric, Implicit: false}

	case from.Kind == KindAddress && to.Kind == KindBytesN:
		if to.N != 20 {
			return CastResult{OK: false}
		}
		return CastResult{OK: true, Op: CastGeneric, Implicit: false}

	case from.Kind == KindString && to.Kind == KindBytesN:
		return CastResult{OK: true, Op: CastGeneric, Implicit: false}

	case from.Kind == KindEnum && (to.Kind == KindUint || to.Kind == KindInt):
		return CastResult{OK: true, Op: CastGeneric, Implicit: false}

	case from.Kind == KindContract && to.Kind == KindAddress:
		return CastResult{OK: true, Op: CastGeneric, Implicit: true}

	default:
		return CastResult{OK: false}
	}
}

// ExplainCast renders the diagnostic message for a failed or
// implicit-forbidden cast.
func ExplainCast(ns *Namespace, from, to *Type, implicitOnlyFailure bool) string {
	fromS, toS := from.AsCanonical(ns), to.AsCanonical(ns)
	if implicitOnlyFailure {
		if from.Kind == KindInt && to.Kind == KindUint || from.Kind == KindUint && to.Kind == KindInt {
			return "implicit conversion would change sign from " + fromS + " to " + toS
		}
		return "implicit conversion would truncate from " + fromS + " to " + toS
	}
	return "conversion from " + fromS + " to " + toS + " not possible"
}

// TryImplicitCast attempts an implicit conversion of e to `to`, wrapping
// e in the appropriate conversion node on success or recording a
// diagnostic and returning a Poison node on failure.
func (r *ExprResolver) TryImplicitCast(e *Expression, to *Type) *Expression {
	if e.IsPoison() {
		return e
	}
	if e.Ty.Equal(to) {
		return e
	}
	res := CheckCast(e.Ty, to, true)
	if !res.OK {
		r.ns.Diagnostics.Errorf(e.Loc, "%s", ExplainCast(r.ns, e.Ty, to, false))
		return NewPoison(e.Loc)
	}
	if !res.Implicit {
		r.ns.Diagnostics.Errorf(e.Loc, "%s", ExplainCast(r.ns, e.Ty, to, true))
		return NewPoison(e.Loc)
	}
	return wrapCast(e, to, res.Op)
}

// TryExplicitCast is as TryImplicitCast but permits the wider set of
// casts legal only when written explicitly (`uint8(x)`).
func (r *ExprResolver) TryExplicitCast(e *Expression, to *Type) *Expression {
	if e.IsPoison() {
		return e
	}
	res := CheckCast(e.Ty, to, false)
	if !res.OK {
		r.ns.Diagnostics.Errorf(e.Loc, "%s", ExplainCast(r.ns, e.Ty, to, false))
		return NewPoison(e.Loc)
	}
	return wrapCast(e, to, res.Op)
}

func wrapCast(e *Expression, to *Type, op CastOp) *Expression {
	kind := ECast
	switch op {
	case CastZeroExt:
		kind = EZeroExt
	case CastSignExt:
		kind = ESignExt
	case CastTrunc:
		kind = ETrunc
	case CastBytesWiden, CastBytesNarrow:
		kind = EBytesCast
	case CastNone:
		return e
	}
	return &Expression{Kind: kind, Loc: e.Loc, Ty: to, Left: e}
}

// literalFitsImplicit implements the two literal-typing rows of the cast
// matrix: an integer literal converts implicitly to Uint(b)/Int(b) only
// if it fits.
func literalFitsImplicit(lit *Expression, to *Type) bool {
	if lit.Kind != ENumberLiteral {
		return false
	}
	bi := bytesToBigInt(lit.StringBytes, lit.Signed)
	switch to.Kind {
	case KindUint:
		return bi.Sign() >= 0 && bi.BitLen() <= to.Bits
	case KindInt:
		return fitsSignedBits(bi, to.Bits)
	default:
		return false
	}
}

var _ = pt.Loc{}
