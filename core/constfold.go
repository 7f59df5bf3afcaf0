package core

import (
	"math/big"

	"github.com/holiman/uint256"
)

// minimalUintBits returns the smallest multiple-of-8 width that holds a
// non-negative value.
func minimalUintBits(v *big.Int) int {
	bits := v.BitLen()
	w := 8
	for w < bits {
		w += 8
	}
	if w > 256 {
		w = 256
	}
	if w == 0 {
		w = 8
	}
	return w
}

// minimalIntBits returns the smallest multiple-of-8 width whose signed
// range holds v (which may be negative).
func minimalIntBits(v *big.Int) int {
	w := 8
	for !fitsSignedBits(v, w) && w <= 256 {
		w += 8
	}
	return w
}

func fitsSignedBits(v *big.Int, bits int) bool {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	min := new(big.Int).Neg(max)
	maxInclusive := new(big.Int).Sub(max, big.NewInt(1))
	return v.Cmp(min) >= 0 && v.Cmp(maxInclusive) <= 0
}

// BigIntToExpr folds an arbitrary-precision integer
// literal (already parsed from source text) into a Number literal
// Expression with the minimal Uint(k)/Int(k) type.
//
// Uint(256) max (2^256-1) is accepted; 2^256 is rejected (boundary
// behaviour in ). Int(256) min (-(2^255)) is accepted;
// -(2^255)-1 is rejected.
func BigIntToExpr(ns *Namespace, v *big.Int) (*Expression, bool, string) {
	if v.Sign() >= 0 {
		bits := minimalUintBits(v)
		if bits > 256 {
			return nil, false, "integer literal out of range for uint256"
		}
		if bits <= 256 && v.BitLen() > 256 {
			return nil, false, "integer literal out of range for uint256"
		}
		return &Expression{
			Kind:        ENumberLiteral,
			Ty:          UintType(bits),
			StringBytes: v.Bytes(),
			Signed:      false,
		}, true, ""
	}
	bits := minimalIntBits(v)
	if bits > 256 {
		return nil, false, "integer literal out of range for int256"
	}
	return &Expression{
		Kind:        ENumberLiteral,
		Ty:          IntType(bits),
		StringBytes: twosComplementBytes(v, 256/8),
		Signed:      true,
	}, true, ""
}

func twosComplementBytes(v *big.Int, byteLen int) []byte {
	if v.Sign() >= 0 {
		b := v.Bytes()
		out := make([]byte, byteLen)
		copy(out[byteLen-len(b):], b)
		return out
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(byteLen*8))
	twos := new(big.Int).Add(mod, v)
	b := twos.Bytes()
	out := make([]byte, byteLen)
	copy(out[byteLen-len(b):], b)
	return out
}

func bytesToBigInt(b []byte, signed bool) *big.Int {
	v := new(big.Int).SetBytes(b)
	if signed && len(b) > 0 {
		// Interpret as 256-bit two's complement if the high bit of a
		// full-width representation would be set. Values stored via
		// twosComplementBytes are always 32 bytes for signed literals.
		full := make([]byte, 32)
		copy(full[32-len(b):], b)
		if full[0]&0x80 != 0 {
			mod := new(big.Int).Lsh(big.NewInt(1), 256)
			v = new(big.Int).SetBytes(full)
			v.Sub(v, mod)
		}
	}
	return v
}

// foldUnsigned runs the wrap-at-2^256 arithmetic using uint256.Int (the
// same representation the EVM itself uses for word-sized values), then
// masks down to the narrower declared width. Division/modulo by zero
// reports no fold so the caller leaves the runtime check in the CFG.
func foldUnsigned(op ExprKind, width int, x, y *big.Int) (*big.Int, bool) {
	ux, _ := uint256.FromBig(x)
	uy, _ := uint256.FromBig(y)
	var r uint256.Int
	switch op {
	case EAdd:
		r.Add(ux, uy)
	case ESubtract:
		r.Sub(ux, uy)
	case EMultiply:
		r.Mul(ux, uy)
	case EBitwiseOr:
		r.Or(ux, uy)
	case EBitwiseAnd:
		r.And(ux, uy)
	case EBitwiseXor:
		r.Xor(ux, uy)
	case EDivide:
		if uy.IsZero() {
			return nil, false
		}
		r.Div(ux, uy)
	case EModulo:
		if uy.IsZero() {
			return nil, false
		}
		r.Mod(ux, uy)
	default:
		return nil, false
	}
	out := r.ToBig()
	if width < 256 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
		out.Mod(out, mod)
	}
	return out, true
}

// FoldBinaryInt constant-folds a binary arithmetic/bitwise operator over
// two already-folded Number literals of the same type, used to satisfy
// law L3 (folding a folded expression is a no-op: folding only ever
// consumes ENumberLiteral nodes and produces one).
func FoldBinaryInt(op ExprKind, ty *Type, a, b *Expression) (*Expression, bool) {
	if a.Kind != ENumberLiteral || b.Kind != ENumberLiteral {
		return nil, false
	}
	x := bytesToBigInt(a.StringBytes, ty.Kind == KindInt)
	y := bytesToBigInt(b.StringBytes, ty.Kind == KindInt)

	if ty.Kind == KindUint {
		r, ok := foldUnsigned(op, ty.Bits, x, y)
		if !ok {
			return nil, false
		}
		b := r.Bytes()
		out := make([]byte, 32)
		copy(out[32-len(b):], b)
		return &Expression{Kind: ENumberLiteral, Ty: ty, StringBytes: out}, true
	}

	var r big.Int
	switch op {
	case EAdd:
		r.Add(x, y)
	case ESubtract:
		r.Sub(x, y)
	case EMultiply:
		r.Mul(x, y)
	case EBitwiseOr:
		r.Or(x, y)
	case EBitwiseAnd:
		r.And(x, y)
	case EBitwiseXor:
		r.Xor(x, y)
	case EDivide:
		if y.Sign() == 0 {
			return nil, false
		}
		r.Quo(x, y)
	case EModulo:
		if y.Sign() == 0 {
			return nil, false
		}
		r.Rem(x, y)
	default:
		return nil, false
	}
	return &Expression{Kind: ENumberLiteral, Ty: ty, StringBytes: twosComplementBytes(&r, 32), Signed: true}, true
}
