package core

import (
	"math/big"
	"strconv"
	"strings"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"solidc/pt"
)

// ExprResolver lowers pt.Expression parse-tree nodes into resolved,
// typed core.Expression IR. When CFG is non-nil, short-circuit operators
// lower to branches with a temp + phi; in a constant context (CFG ==
// nil) they lower to a strict And/Or node instead.
type ExprResolver struct {
	ns         *Namespace
	contractNo int
	st         *Symtable
	cfg        *CFGBuilder // nil in constant-expression context
}

func NewExprResolver(ns *Namespace, contractNo int, st *Symtable, cfg *CFGBuilder) *ExprResolver {
	return &ExprResolver{ns: ns, contractNo: contractNo, st: st, cfg: cfg}
}

// Resolve lowers one parse-tree expression, returning a fully-typed IR
// node. On failure it records a diagnostic and returns Poison.
func (r *ExprResolver) Resolve(e pt.Expression) *Expression {
	switch n := e.(type) {
	case *pt.BoolLiteral:
		return &Expression{Kind: EBoolLiteral, Loc: n.Loc, Ty: BoolType(), BoolValue: n.Value}

	case *pt.NumberLiteral:
		return r.resolveNumberLiteral(n)

	case *pt.StringLiteral:
		return &Expression{Kind: EBytesLiteral, Loc: n.Loc, Ty: BytesNTypeForLen(len(n.Value)), StringBytes: []byte(n.Value)}

	case *pt.HexLiteral:
		b, err := hexDecode(n.Value)
		if err != nil {
			r.ns.Diagnostics.Errorf(n.Loc, "invalid hex literal: %v", err)
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: EBytesLiteral, Loc: n.Loc, Ty: BytesNTypeForLen(len(b)), StringBytes: b}

	case *pt.AddressLiteral:
		return r.resolveAddressLiteral(n)

	case *pt.Variable:
		return r.resolveVariable(n)

	case *pt.Type:
		// A bare type used as an expression only makes sense as a cast
		// callee or `type(T)` argument; callers handle this specially.
		r.ns.Diagnostics.Errorf(n.Loc, "type name used in expression context")
		return NewPoison(n.Loc)

	case *pt.BinaryExpr:
		return r.resolveBinary(n)

	case *pt.UnaryExpr:
		return r.resolveUnary(n)

	case *pt.AssignExpr:
		return r.resolveAssign(n)

	case *pt.Ternary:
		return r.resolveTernary(n)

	case *pt.MemberAccess:
		return r.resolveMemberAccess(n)

	case *pt.IndexAccess:
		return r.resolveIndexAccess(n)

	case *pt.FunctionCall:
		return r.resolveCall(n)

	case *pt.TupleExpr:
		return r.resolveTuple(n)

	case *pt.ArrayLiteral:
		return r.resolveArrayLiteral(n)

	case *pt.NewExpr:
		// A bare `new Foo` with no call arguments reaches here directly;
		// `new Foo(args)` is intercepted earlier by resolveCall, whose
		// *pt.NewExpr case builds the actual EConstructorCall.
		r.ns.Diagnostics.Errorf(n.Loc, "'new' must be followed by constructor arguments, e.g. new %s(...)", newExprTypeName(n))
		return NewPoison(n.Loc)

	default:
		r.ns.Diagnostics.Errorf(pt.Loc{}, "internal: unhandled expression node")
		return NewPoison(pt.Loc{})
	}
}

func newExprTypeName(n *pt.NewExpr) string {
	if t, ok := n.Ty.(*pt.Type); ok {
		return t.Name
	}
	return "T"
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, strconvErr("odd length hex literal")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

type strconvErr string

func (e strconvErr) Error() string { return string(e) }

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, strconvErr("invalid hex digit")
	}
}

// BytesNTypeForLen picks DynamicBytes for long literals and BytesN for
// literals that fit the 1..32 value-typed range, matching solidity's own
// rule that short byte-strings fold into a fixed-size bytesN constant.
func BytesNTypeForLen(n int) *Type {
	if n >= 1 && n <= 32 {
		return BytesNType(n)
	}
	return DynamicBytesType()
}

func (r *ExprResolver) resolveNumberLiteral(n *pt.NumberLiteral) *Expression {
	v := new(big.Int)
	base := 10
	if n.Hex {
		base = 16
	}
	if _, ok := v.SetString(n.Value, base); !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "invalid numeric literal %q", n.Value)
		return NewPoison(n.Loc)
	}
	if n.Negative {
		v.Neg(v)
	}
	applyUnit(v, n.Unit)
	expr, ok, msg := BigIntToExpr(r.ns, v)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%s", msg)
		return NewPoison(n.Loc)
	}
	expr.Loc = n.Loc
	return expr
}

func applyUnit(v *big.Int, unit string) {
	mul := map[string]int64{
		"wei": 1, "gwei": 1_000_000_000, "ether": 1,
		"seconds": 1, "minutes": 60, "hours": 3600, "days": 86400, "weeks": 604800,
	}
	if unit == "ether" {
		e, _ := new(big.Int).SetString("1000000000000000000", 10)
		v.Mul(v, e)
		return
	}
	if m, ok := mul[unit]; ok && m != 1 {
		v.Mul(v, big.NewInt(m))
	}
}

func (r *ExprResolver) resolveAddressLiteral(n *pt.AddressLiteral) *Expression {
	hex := strings.TrimPrefix(n.Value, "0x")
	if len(hex) != 40 {
		r.ns.Diagnostics.Errorf(n.Loc, "address literal must be 40 hex digits")
		return NewPoison(n.Loc)
	}
	b, err := hexDecode(hex)
	if err != nil {
		r.ns.Diagnostics.Errorf(n.Loc, "invalid address literal: %v", err)
		return NewPoison(n.Loc)
	}
	want := eip55Checksum(b)
	if want != n.Value {
		r.ns.Diagnostics.Errorf(n.Loc, "address literal has an invalid checksum, did you mean %s", want)
		return NewPoison(n.Loc)
	}
	return &Expression{Kind: EAddressLiteral, Loc: n.Loc, Ty: AddressType(false), StringBytes: b}
}

func (r *ExprResolver) resolveVariable(n *pt.Variable) *Expression {
	v, pos, ok := r.st.Find(r.ns, n.Name)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not declared", n.Name)
		return NewPoison(n.Loc)
	}
	switch v.Storage {
	case StorageLocal:
		if r.cfg != nil {
			r.cfg.EnsureVar(pos)
		}
		return &Expression{Kind: EVariable, Loc: n.Loc, Ty: v.Ty, Position: pos}
	case StorageContract:
		return &Expression{Kind: EStorageVariable, Loc: n.Loc, Ty: StorageRefOf(v.Ty), VarNo: v.Slot}
	case StorageConstant:
		return &Expression{Kind: EConstant, Loc: n.Loc, Ty: v.Ty, ConstantNo: v.Slot}
	default:
		return NewPoison(n.Loc)
	}
}

// load inserts an implicit dereference when an expression of Ref/
// StorageRef type is used where a value is required.
func (r *ExprResolver) load(e *Expression) *Expression {
	if e.IsPoison() {
		return e
	}
	switch e.Ty.Kind {
	case KindStorageRef:
		return &Expression{Kind: EStorageLoad, Loc: e.Loc, Ty: e.Ty.Inner, Left: e}
	case KindRef:
		return &Expression{Kind: ELoad, Loc: e.Loc, Ty: e.Ty.Inner, Left: e}
	default:
		return e
	}
}

func (r *ExprResolver) resolveBinary(n *pt.BinaryExpr) *Expression {
	switch n.Op {
	case pt.OpAnd, pt.OpOr:
		return r.resolveShortCircuit(n)
	}

	left := r.load(r.Resolve(n.Left))
	right := r.load(r.Resolve(n.Right))
	if left.IsPoison() || right.IsPoison() {
		return NewPoison(n.Loc)
	}

	switch n.Op {
	case pt.OpShl, pt.OpShr:
		return r.resolveShift(n, left, right)
	case pt.OpPow:
		return r.resolvePower(n, left, right)
	case pt.OpEq, pt.OpNeq, pt.OpLt, pt.OpLte, pt.OpGt, pt.OpGte:
		return r.resolveComparison(n, left, right)
	}

	common := CoerceInt(left.Ty, right.Ty)
	if common == nil {
		r.ns.Diagnostics.Errorf(n.Loc, "operator %s not applicable to types %s and %s",
			n.Op, left.Ty.AsCanonical(r.ns), right.Ty.AsCanonical(r.ns))
		return NewPoison(n.Loc)
	}
	l := r.TryImplicitCast(left, common)
	rr := r.TryImplicitCast(right, common)
	if l.IsPoison() || rr.IsPoison() {
		return NewPoison(n.Loc)
	}

	kind, ok := arithKind(n.Op)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "unsupported operator %s", n.Op)
		return NewPoison(n.Loc)
	}
	if kind == EDivide || kind == EModulo {
		// Signed vs unsigned dispatch.
	}
	if folded, ok := FoldBinaryInt(kind, common, l, rr); ok {
		return folded
	}
	return &Expression{Kind: kind, Loc: n.Loc, Ty: common, Left: l, Right: rr, Signed: common.Kind == KindInt}
}

func arithKind(op pt.BinOp) (ExprKind, bool) {
	switch op {
	case pt.OpAdd:
		return EAdd, true
	case pt.OpSub:
		return ESubtract, true
	case pt.OpMul:
		return EMultiply, true
	case pt.OpDiv:
		return EDivide, true
	case pt.OpMod:
		return EModulo, true
	case pt.OpBitOr:
		return EBitwiseOr, true
	case pt.OpBitAnd:
		return EBitwiseAnd, true
	case pt.OpBitXor:
		return EBitwiseXor, true
	default:
		return 0, false
	}
}

func (r *ExprResolver) resolvePower(n *pt.BinaryExpr, left, right *Expression) *Expression {
	if left.Ty.Kind == KindInt || right.Ty.Kind == KindInt {
		r.ns.Diagnostics.Errorf(n.Loc, "power operator rejects signed operands")
		return NewPoison(n.Loc)
	}
	return &Expression{Kind: EPower, Loc: n.Loc, Ty: left.Ty, Left: left, Right: right}
}

// resolveShift casts the right operand to the left operand's width using
// ZeroExt/SignExt/Trunc, never interpreting the shift count modulo the
// width.
func (r *ExprResolver) resolveShift(n *pt.BinaryExpr, left, right *Expression) *Expression {
	if left.Ty.Kind != KindUint && left.Ty.Kind != KindInt && left.Ty.Kind != KindBytesN {
		r.ns.Diagnostics.Errorf(n.Loc, "left operand of shift must be an integer or fixed bytes type")
		return NewPoison(n.Loc)
	}
	if right.Ty.Kind != KindUint && right.Ty.Kind != KindInt {
		r.ns.Diagnostics.Errorf(n.Loc, "right operand of shift must be an integer type")
		return NewPoison(n.Loc)
	}
	width := left.Ty.Bits
	if left.Ty.Kind == KindBytesN {
		width = left.Ty.N * 8
	}
	rightCast := r.adjustShiftWidth(right, width)
	kind := EShiftLeft
	signed := false
	if n.Op == pt.OpShr {
		kind = EShiftRight
		signed = left.Ty.Kind == KindInt
	}
	return &Expression{Kind: kind, Loc: n.Loc, Ty: left.Ty, Left: left, Right: rightCast, Signed: signed}
}

func (r *ExprResolver) adjustShiftWidth(right *Expression, width int) *Expression {
	rw := right.Ty.Bits
	switch {
	case rw < width:
		op := EZeroExt
		if right.Ty.Kind == KindInt {
			op = ESignExt
		}
		return &Expression{Kind: op, Loc: right.Loc, Ty: UintType(width), Left: right}
	case rw > width:
		return &Expression{Kind: ETrunc, Loc: right.Loc, Ty: UintType(width), Left: right}
	default:
		return right
	}
}

func (r *ExprResolver) resolveComparison(n *pt.BinaryExpr, left, right *Expression) *Expression {
	common := CoerceInt(left.Ty, right.Ty)
	if common == nil {
		if left.Ty.Equal(right.Ty) {
			common = left.Ty
		} else {
			r.ns.Diagnostics.Errorf(n.Loc, "operator %s not applicable to types %s and %s",
				n.Op, left.Ty.AsCanonical(r.ns), right.Ty.AsCanonical(r.ns))
			return NewPoison(n.Loc)
		}
	}
	l := r.TryImplicitCast(left, common)
	rr := r.TryImplicitCast(right, common)
	if l.IsPoison() || rr.IsPoison() {
		return NewPoison(n.Loc)
	}
	var kind ExprKind
	switch n.Op {
	case pt.OpEq:
		kind = EEqual
	case pt.OpNeq:
		kind = ENotEqual
	case pt.OpLt:
		kind = ELess
	case pt.OpLte:
		kind = ELessEq
	case pt.OpGt:
		kind = EMore
	case pt.OpGte:
		kind = EMoreEq
	}
	return &Expression{Kind: kind, Loc: n.Loc, Ty: BoolType(), Left: l, Right: rr, Signed: common.Kind == KindInt}
}

// resolveShortCircuit lowers && / ||. With a CFG in scope it produces a
// temp + BranchCond + join-block-with-phi; in constant context it
// produces a strict And/Or node.
func (r *ExprResolver) resolveShortCircuit(n *pt.BinaryExpr) *Expression {
	left := r.load(r.Resolve(n.Left))
	if left.IsPoison() {
		return NewPoison(n.Loc)
	}
	left = r.TryImplicitCast(left, BoolType())

	if r.cfg == nil {
		right := r.load(r.Resolve(n.Right))
		right = r.TryImplicitCast(right, BoolType())
		kind := EAnd
		if n.Op == pt.OpOr {
			kind = EOr
		}
		return &Expression{Kind: kind, Loc: n.Loc, Ty: BoolType(), Left: left, Right: right}
	}

	temp := r.st.Temp("shortcircuit", BoolType())
	r.cfg.EnsureVar(temp)

	rhsBB := r.cfg.NewBlock("rhs")
	joinBB := r.cfg.NewBlock("join")

	r.cfg.EnterDirtyRegion()
	if n.Op == pt.OpAnd {
		r.cfg.Set(n.Loc, temp, boolLit(false))
		r.cfg.BranchCond(n.Loc, left, rhsBB, joinBB)
	} else {
		r.cfg.Set(n.Loc, temp, boolLit(true))
		r.cfg.BranchCond(n.Loc, left, joinBB, rhsBB)
	}
	r.cfg.SetCurrent(rhsBB)
	right := r.load(r.Resolve(n.Right))
	right = r.TryImplicitCast(right, BoolType())
	r.cfg.Set(n.Loc, temp, right)
	if !r.cfg.terminated(r.cfg.Current()) {
		r.cfg.Branch(n.Loc, joinBB)
	}
	phis := r.cfg.ExitDirtyRegion()
	r.cfg.SetPhis(joinBB, phis)
	r.cfg.SetCurrent(joinBB)

	return &Expression{Kind: EVariable, Loc: n.Loc, Ty: BoolType(), Position: temp}
}

func boolLit(v bool) *Expression {
	return &Expression{Kind: EBoolLiteral, Ty: BoolType(), BoolValue: v}
}

func (r *ExprResolver) resolveUnary(n *pt.UnaryExpr) *Expression {
	switch n.Op {
	case "-":
		inner := r.load(r.Resolve(n.Expr))
		if inner.IsPoison() {
			return NewPoison(n.Loc)
		}
		if inner.Kind == ENumberLiteral {
			v := bytesToBigInt(inner.StringBytes, inner.Ty.Kind == KindInt)
			v.Neg(v)
			expr, ok, msg := BigIntToExpr(r.ns, v)
			if !ok {
				r.ns.Diagnostics.Errorf(n.Loc, "%s", msg)
				return NewPoison(n.Loc)
			}
			expr.Loc = n.Loc
			return expr
		}
		if inner.Ty.Kind != KindInt {
			r.ns.Diagnostics.Errorf(n.Loc, "unary minus not applicable to type %s", inner.Ty.AsCanonical(r.ns))
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: ENegate, Loc: n.Loc, Ty: inner.Ty, Left: inner}

	case "!":
		inner := r.load(r.Resolve(n.Expr))
		inner = r.TryImplicitCast(inner, BoolType())
		if inner.IsPoison() {
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: ENot, Loc: n.Loc, Ty: BoolType(), Left: inner}

	case "~":
		inner := r.load(r.Resolve(n.Expr))
		if inner.IsPoison() {
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: EComplement, Loc: n.Loc, Ty: inner.Ty, Left: inner}

	case "++", "--":
		return r.resolveIncDec(n)

	default:
		r.ns.Diagnostics.Errorf(n.Loc, "unsupported unary operator %s", n.Op)
		return NewPoison(n.Loc)
	}
}

func (r *ExprResolver) resolveIncDec(n *pt.UnaryExpr) *Expression {
	lv := r.Resolve(n.Expr)
	if lv.IsPoison() {
		return NewPoison(n.Loc)
	}
	kind := EPreIncrement
	if n.Op == "--" {
		kind = EPreDecrement
	}
	if n.Postfix {
		kind += EPostIncrement - EPreIncrement
	}
	ty := lv.Ty
	if ty.Kind == KindStorageRef || ty.Kind == KindRef {
		ty = ty.Inner
	}
	return &Expression{Kind: kind, Loc: n.Loc, Ty: ty, Left: lv}
}

func (r *ExprResolver) resolveAssign(n *pt.AssignExpr) *Expression {
	lv := r.Resolve(n.Left)
	if lv.IsPoison() {
		return NewPoison(n.Loc)
	}
	targetTy := lv.Ty
	if targetTy.Kind == KindStorageRef || targetTy.Kind == KindRef {
		targetTy = targetTy.Inner
	} else {
		r.ns.Diagnostics.Errorf(n.Loc, "left-hand side of assignment is not an lvalue")
		return NewPoison(n.Loc)
	}

	rhs := r.load(r.Resolve(n.Right))
	if rhs.IsPoison() {
		return NewPoison(n.Loc)
	}

	if n.Op != "=" {
		op := strings.TrimSuffix(n.Op, "=")
		current := r.load(lv)
		var combined *Expression
		switch op {
		case "<<", ">>":
			width := targetTy.Bits
			if targetTy.Kind == KindBytesN {
				width = targetTy.N * 8
			}
			rightCast := r.adjustShiftWidth(rhs, width)
			kind := EShiftLeft
			if op == ">>" {
				kind = EShiftRight
			}
			combined = &Expression{Kind: kind, Loc: n.Loc, Ty: targetTy, Left: current, Right: rightCast, Signed: targetTy.Kind == KindInt}
		default:
			kind, ok := arithKind(pt.BinOp(op))
			if !ok {
				r.ns.Diagnostics.Errorf(n.Loc, "unsupported compound-assignment operator %s", n.Op)
				return NewPoison(n.Loc)
			}
			rhsCast := r.TryImplicitCast(rhs, targetTy)
			combined = &Expression{Kind: kind, Loc: n.Loc, Ty: targetTy, Left: current, Right: rhsCast, Signed: targetTy.Kind == KindInt}
		}
		rhs = combined
	} else {
		rhs = r.TryImplicitCast(rhs, targetTy)
	}
	if rhs.IsPoison() {
		return NewPoison(n.Loc)
	}
	return &Expression{Kind: EAssign, Loc: n.Loc, Ty: targetTy, Left: lv, Right: rhs}
}

func (r *ExprResolver) resolveTernary(n *pt.Ternary) *Expression {
	cond := r.load(r.Resolve(n.Cond))
	cond = r.TryImplicitCast(cond, BoolType())
	a := r.load(r.Resolve(n.True))
	b := r.load(r.Resolve(n.False))
	if cond.IsPoison() || a.IsPoison() || b.IsPoison() {
		return NewPoison(n.Loc)
	}
	common := a.Ty
	if !a.Ty.Equal(b.Ty) {
		c := CoerceInt(a.Ty, b.Ty)
		if c == nil {
			r.ns.Diagnostics.Errorf(n.Loc, "true/false branches of ternary have incompatible types")
			return NewPoison(n.Loc)
		}
		common = c
	}
	a = r.TryImplicitCast(a, common)
	b = r.TryImplicitCast(b, common)
	return &Expression{Kind: ETernary, Loc: n.Loc, Ty: common, Cond: cond, Left: a, Right: b}
}

func (r *ExprResolver) resolveTuple(n *pt.TupleExpr) *Expression {
	if len(n.Elems) == 1 {
		return r.Resolve(n.Elems[0])
	}
	r.ns.Diagnostics.Errorf(n.Loc, "multi-value tuple expressions are only supported on the left of destructuring assignment")
	return NewPoison(n.Loc)
}

func (r *ExprResolver) resolveArrayLiteral(n *pt.ArrayLiteral) *Expression {
	elems := make([]*Expression, len(n.Elems))
	var elemTy *Type
	for i, e := range n.Elems {
		elems[i] = r.load(r.Resolve(e))
		if elems[i].IsPoison() {
			return NewPoison(n.Loc)
		}
		if elemTy == nil {
			elemTy = elems[i].Ty
		}
	}
	if elemTy == nil {
		elemTy = Unresolved()
	}
	for i := range elems {
		elems[i] = r.TryImplicitCast(elems[i], elemTy)
	}
	ty := ArrayOf(elemTy, []ArrayDim{{Size: int64(len(elems))}})
	return &Expression{Kind: EArrayLiteral, Loc: n.Loc, Ty: ty, Elems: elems}
}

// pseudoNamespaces are identifiers that only ever appear as the left
// operand of a dotted builtin ("block.number", "msg.sender", ...) and
// never bind to a real variable.
var pseudoNamespaces = map[string]bool{"block": true, "msg": true, "tx": true, "abi": true, "type": true}

func (r *ExprResolver) resolveMemberAccess(n *pt.MemberAccess) *Expression {
	if v, ok := n.Expr.(*pt.Variable); ok && pseudoNamespaces[v.Name] {
		if _, _, found := r.st.Find(r.ns, v.Name); !found {
			dotted := v.Name + "." + n.Member.Name
			if entry, ok := LookupBuiltin(r.ns, n.Loc, dotted); ok {
				return &Expression{Kind: EBuiltinCall, Loc: n.Loc, Ty: entry.Returns(r.ns, nil), Builtin: entry.Kind}
			}
			r.ns.Diagnostics.Errorf(n.Loc, "unknown builtin %q", dotted)
			return NewPoison(n.Loc)
		}
	}

	if v, ok := n.Expr.(*pt.Variable); ok {
		if _, _, found := r.st.Find(r.ns, v.Name); !found {
			if sym, ok := r.ns.lookupSymbol(r.contractNo, v.Name); ok {
				if es, isEnum := sym.(enumSymbol); isEnum {
					ed := r.ns.Enums[es.EnumNo]
					for i, val := range ed.Values {
						if val == n.Member.Name {
							expr, ok, msg := BigIntToExpr(r.ns, big.NewInt(int64(i)))
							if !ok {
								r.ns.Diagnostics.Errorf(n.Loc, "%s", msg)
								return NewPoison(n.Loc)
							}
							expr.Ty = EnumType(es.EnumNo)
							expr.Loc = n.Loc
							return expr
						}
					}
					r.ns.Diagnostics.Errorf(n.Loc, "enum %s has no member %s", ed.Name, n.Member.Name)
					return NewPoison(n.Loc)
				}
			}
		}
	}

	left := r.Resolve(n.Expr)
	if left.IsPoison() {
		return NewPoison(n.Loc)
	}

	storageRef := left.Ty.Kind == KindStorageRef
	base := left.Ty
	if base.Kind == KindStorageRef || base.Kind == KindRef {
		base = base.Inner
	}

	switch {
	case n.Member.Name == "length":
		return r.resolveLengthMember(n, left, base, storageRef)

	case base.Kind == KindStruct:
		sd := r.ns.Structs[base.DeclNo]
		for i, f := range sd.Fields {
			if f.Name == n.Member.Name {
				ty := f.Ty
				if storageRef {
					ty = StorageRefOf(f.Ty)
				} else {
					ty = RefOf(f.Ty)
				}
				return &Expression{Kind: EStructMember, Loc: n.Loc, Ty: ty, Left: left, FieldNo: i}
			}
		}
		r.ns.Diagnostics.Errorf(n.Loc, "struct %s has no field %s", sd.Name, n.Member.Name)
		return NewPoison(n.Loc)

	case (base.Kind == KindAddress || base.Kind == KindContract) && n.Member.Name == "balance":
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not supported in this subset", "address.balance")
		return NewPoison(n.Loc)

	default:
		r.ns.Diagnostics.Errorf(n.Loc, "%s has no member %s", base.AsCanonical(r.ns), n.Member.Name)
		return NewPoison(n.Loc)
	}
}

func (r *ExprResolver) resolveLengthMember(n *pt.MemberAccess, left *Expression, base *Type, storageRef bool) *Expression {
	switch base.Kind {
	case KindBytesN:
		expr, _, _ := BigIntToExpr(r.ns, big.NewInt(int64(base.N)))
		expr.Loc = n.Loc
		return expr

	case KindDynamicBytes, KindString:
		if !storageRef {
			r.ns.Diagnostics.Errorf(n.Loc, "length of a non-storage %s is not supported in this subset", base.AsCanonical(r.ns))
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: EStorageBytesLength, Loc: n.Loc, Ty: UintType(256), Left: left}

	case KindArray:
		last := base.Dims[len(base.Dims)-1]
		if !last.Dynamic {
			expr, _, _ := BigIntToExpr(r.ns, big.NewInt(last.Size))
			expr.Loc = n.Loc
			return expr
		}
		if !storageRef {
			r.ns.Diagnostics.Errorf(n.Loc, "length of a non-storage dynamic array is not supported in this subset")
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: EStorageLoad, Loc: n.Loc, Ty: UintType(256), Left: left}

	default:
		r.ns.Diagnostics.Errorf(n.Loc, "%s has no member length", base.AsCanonical(r.ns))
		return NewPoison(n.Loc)
	}
}

func (r *ExprResolver) resolveIndexAccess(n *pt.IndexAccess) *Expression {
	left := r.Resolve(n.Expr)
	if left.IsPoison() {
		return NewPoison(n.Loc)
	}
	if n.Index == nil {
		r.ns.Diagnostics.Errorf(n.Loc, "index expression required here")
		return NewPoison(n.Loc)
	}

	storageRef := left.Ty.Kind == KindStorageRef
	base := left.Ty
	if base.Kind == KindStorageRef || base.Kind == KindRef {
		base = base.Inner
	}

	switch base.Kind {
	case KindArray:
		idx := r.TryImplicitCast(r.load(r.Resolve(n.Index)), UintType(256))
		if idx.IsPoison() {
			return NewPoison(n.Loc)
		}
		ty := base.Elem
		if storageRef {
			ty = StorageRefOf(base.Elem)
		} else {
			ty = RefOf(base.Elem)
		}
		kind := EArraySubscript
		if base.Dims[len(base.Dims)-1].Dynamic {
			kind = EDynamicArraySubscript
		}
		return &Expression{Kind: kind, Loc: n.Loc, Ty: ty, Left: left, Index: idx}

	case KindMapping:
		if !storageRef {
			r.ns.Diagnostics.Errorf(n.Loc, "mappings only exist in storage")
			return NewPoison(n.Loc)
		}
		key := r.TryImplicitCast(r.load(r.Resolve(n.Index)), base.Key)
		if key.IsPoison() {
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: EDynamicArraySubscript, Loc: n.Loc, Ty: StorageRefOf(base.Value), Left: left, Index: key}

	case KindBytesN, KindDynamicBytes:
		if !storageRef {
			r.ns.Diagnostics.Errorf(n.Loc, "indexing a non-storage %s is not supported in this subset", base.AsCanonical(r.ns))
			return NewPoison(n.Loc)
		}
		idx := r.TryImplicitCast(r.load(r.Resolve(n.Index)), UintType(256))
		if idx.IsPoison() {
			return NewPoison(n.Loc)
		}
		return &Expression{Kind: EStorageBytesSubscript, Loc: n.Loc, Ty: StorageRefOf(BytesNType(1)), Left: left, Index: idx}

	default:
		r.ns.Diagnostics.Errorf(n.Loc, "%s is not indexable", base.AsCanonical(r.ns))
		return NewPoison(n.Loc)
	}
}

// elementaryType resolves the subset of pt.Type names that name a
// built-in type rather than a user declaration; user-defined type names
// are resolved by the contract elaborator, which has the namespace-wide
// symbol table populated.
func elementaryType(t *pt.Type) (*Type, bool) {
	var base *Type
	switch {
	case t.Name == "bool":
		base = BoolType()
	case t.Name == "address":
		base = AddressType(false)
	case t.Name == "address payable":
		base = AddressType(true)
	case t.Name == "string":
		base = StringType()
	case t.Name == "bytes":
		base = DynamicBytesType()
	case strings.HasPrefix(t.Name, "uint"):
		bits, err := strconv.Atoi(strings.TrimPrefix(t.Name, "uint"))
		if err != nil {
			return nil, false
		}
		base = UintType(bits)
	case strings.HasPrefix(t.Name, "int"):
		bits, err := strconv.Atoi(strings.TrimPrefix(t.Name, "int"))
		if err != nil {
			return nil, false
		}
		base = IntType(bits)
	case strings.HasPrefix(t.Name, "bytes"):
		n, err := strconv.Atoi(strings.TrimPrefix(t.Name, "bytes"))
		if err != nil {
			return nil, false
		}
		base = BytesNType(n)
	default:
		return nil, false
	}
	if len(t.Dims) == 0 {
		return base, true
	}
	dims := make([]ArrayDim, len(t.Dims))
	for i, d := range t.Dims {
		if d < 0 {
			dims[i] = ArrayDim{Dynamic: true}
		} else {
			dims[i] = ArrayDim{Size: int64(d)}
		}
	}
	return ArrayOf(base, dims), true
}

func (r *ExprResolver) resolveCall(n *pt.FunctionCall) *Expression {
	switch callee := n.Callee.(type) {
	case *pt.Type:
		return r.resolveCast(n, callee)

	case *pt.Variable:
		if _, _, found := r.st.Find(r.ns, callee.Name); !found {
			if entry, ok := builtinsByName[callee.Name]; ok {
				return r.resolveBuiltinCall(n, entry)
			}
			if sym, ok := r.ns.lookupSymbol(r.contractNo, callee.Name); ok {
				if cs, isContract := sym.(contractSymbol); isContract {
					return r.resolveContractCast(n, cs.ContractNo)
				}
				if ss, isStruct := sym.(structSymbol); isStruct {
					return r.resolveStructLiteral(n, ss.StructNo)
				}
			}
		}
		return r.resolveInternalCall(n, callee)

	case *pt.MemberAccess:
		return r.resolveMemberCall(n, callee)

	case *pt.NewExpr:
		return r.resolveConstructorCall(n, callee)

	default:
		r.ns.Diagnostics.Errorf(n.Loc, "expression is not callable")
		return NewPoison(n.Loc)
	}
}

// resolveStructLiteral handles `Point(1, 2)` and `Point({x: 1, y: 2})`,
// the only two struct-construction shapes this grammar produces (both
// already parse as a *pt.FunctionCall with the struct's name as callee -
// CallArgs.Names is populated instead of left empty for the named form).
// Fields are always filled in declaration order; in the named form each
// value is placed at its field's position by name, after checking that
// every field is named exactly once and spelled correctly.
func (r *ExprResolver) resolveStructLiteral(n *pt.FunctionCall, structNo int) *Expression {
	sd := r.ns.Structs[structNo]
	values := make([]*Expression, len(sd.Fields))

	if len(n.Args.Names) > 0 {
		if len(n.Args.Names) != len(sd.Fields) {
			r.ns.Diagnostics.Errorf(n.Loc, "struct %s literal must initialise all %d fields", sd.Name, len(sd.Fields))
			return NewPoison(n.Loc)
		}
		for i, id := range n.Args.Names {
			fieldNo := -1
			for j, f := range sd.Fields {
				if f.Name == id.Name {
					fieldNo = j
					break
				}
			}
			if fieldNo == -1 {
				r.ns.Diagnostics.Errorf(id.Loc, "struct %s has no field %q", sd.Name, id.Name)
				return NewPoison(n.Loc)
			}
			if values[fieldNo] != nil {
				r.ns.Diagnostics.Errorf(id.Loc, "field %q initialised more than once", id.Name)
				return NewPoison(n.Loc)
			}
			v := r.load(r.Resolve(n.Args.Positional[i]))
			if v.IsPoison() {
				return NewPoison(n.Loc)
			}
			values[fieldNo] = r.TryImplicitCast(v, sd.Fields[fieldNo].Ty)
		}
	} else {
		if len(n.Args.Positional) != len(sd.Fields) {
			r.ns.Diagnostics.Errorf(n.Loc, "struct %s literal must initialise all %d fields", sd.Name, len(sd.Fields))
			return NewPoison(n.Loc)
		}
		for i, a := range n.Args.Positional {
			v := r.load(r.Resolve(a))
			if v.IsPoison() {
				return NewPoison(n.Loc)
			}
			values[i] = r.TryImplicitCast(v, sd.Fields[i].Ty)
		}
	}

	return &Expression{Kind: EStructLiteral, Loc: n.Loc, Ty: StructType(structNo), Elems: values}
}

// resolveConstructorCall handles `new Foo(args)`. This subset models a
// single-chain deployment pipeline with no factory/CREATE2 support, so
// only a bare contract-type target is accepted - `new Foo{salt: ...}(...)`
// and `new T[](n)` (dynamic array allocation) are rejected with a
// diagnostic rather than silently mis-lowered.
func (r *ExprResolver) resolveConstructorCall(n *pt.FunctionCall, ne *pt.NewExpr) *Expression {
	tyExpr, ok := ne.Ty.(*pt.Type)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "'new' is only supported for contract deployment in this subset")
		return NewPoison(n.Loc)
	}
	sym, ok := r.ns.lookupSymbol(r.contractNo, tyExpr.Name)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not declared", tyExpr.Name)
		return NewPoison(n.Loc)
	}
	cs, ok := sym.(contractSymbol)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not a contract and cannot be deployed with 'new'", tyExpr.Name)
		return NewPoison(n.Loc)
	}
	target := r.ns.Contracts[cs.ContractNo]
	if target.Ty == pt.AbstractKind || target.Ty == pt.InterfaceKind {
		r.ns.Diagnostics.Errorf(n.Loc, "cannot instantiate abstract contract or interface %s", target.Name)
		return NewPoison(n.Loc)
	}

	ctor := -1
	for _, fnNo := range target.Functions {
		if r.ns.Functions[fnNo].Kind == pt.Constructor {
			ctor = fnNo
			break
		}
	}

	args := n.Args.Positional
	resolved := make([]*Expression, len(args))
	for i, a := range args {
		resolved[i] = r.load(r.Resolve(a))
		if resolved[i].IsPoison() {
			return NewPoison(n.Loc)
		}
		if ctor >= 0 && i < len(r.ns.Functions[ctor].Params) {
			resolved[i] = r.TryImplicitCast(resolved[i], r.ns.Functions[ctor].Params[i].Ty)
		}
	}
	if ctor < 0 && len(resolved) > 0 {
		r.ns.Diagnostics.Errorf(n.Loc, "contract %s has no constructor but 'new' was called with arguments", target.Name)
		return NewPoison(n.Loc)
	}

	return &Expression{Kind: EConstructorCall, Loc: n.Loc, Ty: ContractType(cs.ContractNo), FunctionNo: ctor, Args: resolved}
}

func (r *ExprResolver) resolveCast(n *pt.FunctionCall, tyExpr *pt.Type) *Expression {
	ty, ok := elementaryType(tyExpr)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "user-defined type casts are resolved by the contract elaborator, not here")
		return NewPoison(n.Loc)
	}
	if len(n.Args.Positional) != 1 {
		r.ns.Diagnostics.Errorf(n.Loc, "type conversion requires exactly one argument")
		return NewPoison(n.Loc)
	}
	arg := r.load(r.Resolve(n.Args.Positional[0]))
	if arg.IsPoison() {
		return NewPoison(n.Loc)
	}
	return r.TryExplicitCast(arg, ty)
}

// resolveContractCast implements `Other(addr)`: converting an
// address-typed value into a contract-typed reference so its externally
// visible functions can be reached through member-call syntax
// (resolveExternalCall). The representation is identical to an address -
// this only relabels the static type.
func (r *ExprResolver) resolveContractCast(n *pt.FunctionCall, contractNo int) *Expression {
	if len(n.Args.Positional) != 1 {
		r.ns.Diagnostics.Errorf(n.Loc, "contract type conversion requires exactly one argument")
		return NewPoison(n.Loc)
	}
	addr := r.load(r.Resolve(n.Args.Positional[0]))
	if addr.IsPoison() {
		return NewPoison(n.Loc)
	}
	if addr.Ty.Kind != KindAddress && addr.Ty.Kind != KindContract {
		r.ns.Diagnostics.Errorf(n.Loc, "a contract type conversion requires an address argument")
		return NewPoison(n.Loc)
	}
	return &Expression{Kind: ECast, Loc: n.Loc, Ty: ContractType(contractNo), Left: addr}
}

func (r *ExprResolver) resolveBuiltinCall(n *pt.FunctionCall, entry BuiltinEntry) *Expression {
	if !r.ns.Target.SupportsBuiltin(entry.Name) {
		r.ns.Diagnostics.Errorf(n.Loc, "builtin %q is not available on target %s", entry.Name, r.ns.Target)
		return NewPoison(n.Loc)
	}
	args := n.Args.Positional
	if len(args) < entry.MinArgs || (entry.MaxArgs >= 0 && len(args) > entry.MaxArgs) {
		r.ns.Diagnostics.Errorf(n.Loc, "builtin %q called with the wrong number of arguments", entry.Name)
		return NewPoison(n.Loc)
	}
	resolved := make([]*Expression, len(args))
	argTys := make([]*Type, len(args))
	for i, a := range args {
		resolved[i] = r.load(r.Resolve(a))
		if resolved[i].IsPoison() {
			return NewPoison(n.Loc)
		}
		argTys[i] = resolved[i].Ty
	}
	retTy := entry.Returns(r.ns, argTys)
	if retTy == nil {
		retTy = Unresolved()
	}
	return &Expression{Kind: EBuiltinCall, Loc: n.Loc, Ty: retTy, Builtin: entry.Kind, Args: resolved}
}

func (r *ExprResolver) resolveInternalCall(n *pt.FunctionCall, callee *pt.Variable) *Expression {
	sym, ok := r.ns.lookupSymbol(r.contractNo, callee.Name)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not declared", callee.Name)
		return NewPoison(n.Loc)
	}
	fnSym, ok := sym.(functionSymbol)
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "%q is not a function", callee.Name)
		return NewPoison(n.Loc)
	}

	args := n.Args.Positional
	resolved := make([]*Expression, len(args))
	for i, a := range args {
		resolved[i] = r.load(r.Resolve(a))
		if resolved[i].IsPoison() {
			return NewPoison(n.Loc)
		}
	}

	type candidate struct {
		functionNo int
		castArgs   []*Expression
	}
	var viable []candidate
	var onlyCandidateErr string
	for _, e := range fnSym.Entries {
		fn := r.ns.Functions[e.FunctionNo]
		if len(fn.Params) != len(resolved) {
			if len(fnSym.Entries) == 1 {
				onlyCandidateErr = "wrong number of arguments"
			}
			continue
		}
		ok := true
		cast := make([]*Expression, len(resolved))
		for i, a := range resolved {
			c := r.TryImplicitCast(a, fn.Params[i].Ty)
			if c.IsPoison() {
				ok = false
				if len(fnSym.Entries) == 1 {
					onlyCandidateErr = ExplainCast(r.ns, a.Ty, fn.Params[i].Ty, false)
				}
				break
			}
			cast[i] = c
		}
		if ok {
			viable = append(viable, candidate{functionNo: e.FunctionNo, castArgs: cast})
		}
	}

	switch len(viable) {
	case 0:
		if len(fnSym.Entries) == 1 && onlyCandidateErr != "" {
			r.ns.Diagnostics.Errorf(n.Loc, "%s", onlyCandidateErr)
		} else {
			r.ns.Diagnostics.Errorf(n.Loc, "no overload of %q matches the supplied arguments", callee.Name)
		}
		return NewPoison(n.Loc)
	case 1:
		fn := r.ns.Functions[viable[0].functionNo]
		retTy := Unresolved()
		if len(fn.Returns) == 1 {
			retTy = fn.Returns[0].Ty
		} else if len(fn.Returns) > 1 {
			elemTys := make([]*Type, len(fn.Returns))
			for i, p := range fn.Returns {
				elemTys[i] = p.Ty
			}
			retTy = &Type{Kind: KindFunction, FuncReturns: elemTys}
		}
		return &Expression{Kind: EInternalFunctionCall, Loc: n.Loc, Ty: retTy, FunctionNo: viable[0].functionNo, Args: viable[0].castArgs}
	default:
		r.ns.Diagnostics.Errorf(n.Loc, "call to %q is ambiguous between %d overloads", callee.Name, len(viable))
		return NewPoison(n.Loc)
	}
}

// resolveMemberCall handles the expression-level member-call shapes that
// don't require a CFG-level instruction: `addr.transfer(v)`, `addr.send(v)`,
// and `other.foo(args)` external calls against a contract-typed receiver.
// Any other member call on a non-contract receiver, including storage
// array push/pop, is reported as not supported.
func (r *ExprResolver) resolveMemberCall(n *pt.FunctionCall, callee *pt.MemberAccess) *Expression {
	if v, ok := callee.Expr.(*pt.Variable); ok && pseudoNamespaces[v.Name] {
		if _, _, found := r.st.Find(r.ns, v.Name); !found {
			dotted := v.Name + "." + callee.Member.Name
			if dotted == "abi.decode" {
				return r.resolveAbiDecode(n)
			}
			if entry, ok := builtinsByName[dotted]; ok {
				return r.resolveBuiltinCall(n, entry)
			}
		}
	}

	switch callee.Member.Name {
	case "transfer", "send":
		addr := r.load(r.Resolve(callee.Expr))
		if addr.IsPoison() {
			return NewPoison(n.Loc)
		}
		if addr.Ty.Kind != KindAddress {
			r.ns.Diagnostics.Errorf(n.Loc, "%s is only defined on address types", callee.Member.Name)
			return NewPoison(n.Loc)
		}
		if len(n.Args.Positional) != 1 {
			r.ns.Diagnostics.Errorf(n.Loc, "%s expects exactly one argument", callee.Member.Name)
			return NewPoison(n.Loc)
		}
		value := r.TryImplicitCast(r.load(r.Resolve(n.Args.Positional[0])), UintType(r.ns.ValueLength*8))
		if value.IsPoison() {
			return NewPoison(n.Loc)
		}
		retTy := BoolType()
		// FieldNo disambiguates the two raw-call flavours sharing this
		// expression shape: 1 == send (returns bool), 2 == transfer
		// (reverts on failure, no meaningful return value).
		fieldNo := 1
		if callee.Member.Name == "transfer" {
			fieldNo = 2
			retTy = Unresolved()
		}
		return &Expression{Kind: EExternalFunctionCallRaw, Loc: n.Loc, Ty: retTy, Address: addr, Value: value, FieldNo: fieldNo}

	default:
		target := r.load(r.Resolve(callee.Expr))
		if target.IsPoison() {
			return NewPoison(n.Loc)
		}
		if target.Ty.Kind != KindContract {
			r.ns.Diagnostics.Errorf(n.Loc, "member call %q is not supported in this subset", callee.Member.Name)
			return NewPoison(n.Loc)
		}
		return r.resolveExternalCall(n, target, callee.Member.Name)
	}
}

// resolveExternalCall resolves `other.foo(args)` where other has already
// been resolved to a contract-typed value (typically via a contract-type
// conversion from an address, e.g. `Other(addr).foo()`). The callee is
// looked up among the target contract's flattened, externally-reachable
// functions by name and argument arity/castability. Unlike
// resolveInternalCall, the first matching candidate in map iteration
// order is taken and an ambiguous match is not reported.
func (r *ExprResolver) resolveExternalCall(n *pt.FunctionCall, target *Expression, name string) *Expression {
	contractNo := target.Ty.DeclNo
	c := r.ns.Contracts[contractNo]

	args := n.Args.Positional
	resolved := make([]*Expression, len(args))
	for i, a := range args {
		resolved[i] = r.load(r.Resolve(a))
		if resolved[i].IsPoison() {
			return NewPoison(n.Loc)
		}
	}

	matchNo := -1
	var matchArgs []*Expression
	for _, fnNo := range c.AllFunctions {
		fn := r.ns.Functions[fnNo]
		if fn.Name != name || fn.Kind != pt.FunctionNormal {
			continue
		}
		if fn.Visibility != pt.Public && fn.Visibility != pt.External {
			continue
		}
		if len(fn.Params) != len(resolved) {
			continue
		}
		ok := true
		cast := make([]*Expression, len(resolved))
		for i, a := range resolved {
			casted := r.TryImplicitCast(a, fn.Params[i].Ty)
			if casted.IsPoison() {
				ok = false
				break
			}
			cast[i] = casted
		}
		if ok {
			matchNo = fnNo
			matchArgs = cast
			break
		}
	}
	if matchNo < 0 {
		r.ns.Diagnostics.Errorf(n.Loc, "no external function %q on %s matches the supplied arguments", name, c.Name)
		return NewPoison(n.Loc)
	}

	match := r.ns.Functions[matchNo]
	retTy := Unresolved()
	if len(match.Returns) == 1 {
		retTy = match.Returns[0].Ty
	} else if len(match.Returns) > 1 {
		elemTys := make([]*Type, len(match.Returns))
		for i, p := range match.Returns {
			elemTys[i] = p.Ty
		}
		retTy = &Type{Kind: KindFunction, FuncReturns: elemTys}
	}
	return &Expression{Kind: EExternalFunctionCall, Loc: n.Loc, Ty: retTy, FunctionNo: matchNo, Args: matchArgs, Address: target}
}

// resolveAbiDecode handles `abi.decode(data, T)` and `abi.decode(data, (T, U, ...))`.
// The decode target is a type (or tuple of types), not a value, so it
// can't go through the generic resolveBuiltinCall argument path; only
// elementary types are accepted; a struct/array decode target is out of
// reach of this subset's elementaryType helper.
func (r *ExprResolver) resolveAbiDecode(n *pt.FunctionCall) *Expression {
	if !r.ns.Target.SupportsBuiltin("abi.decode") {
		r.ns.Diagnostics.Errorf(n.Loc, "builtin %q is not available on target %s", "abi.decode", r.ns.Target)
		return NewPoison(n.Loc)
	}
	args := n.Args.Positional
	if len(args) != 2 {
		r.ns.Diagnostics.Errorf(n.Loc, "abi.decode expects exactly two arguments")
		return NewPoison(n.Loc)
	}
	data := r.load(r.Resolve(args[0]))
	if data.IsPoison() {
		return NewPoison(n.Loc)
	}
	tys, ok := r.resolveTypeArg(args[1])
	if !ok {
		r.ns.Diagnostics.Errorf(n.Loc, "abi.decode's second argument must be a type or a tuple of elementary types")
		return NewPoison(n.Loc)
	}

	var retTy *Type
	switch len(tys) {
	case 0:
		retTy = Unresolved()
	case 1:
		retTy = tys[0]
	default:
		retTy = &Type{Kind: KindFunction, FuncReturns: tys}
	}
	return &Expression{Kind: EBuiltinCall, Loc: n.Loc, Ty: retTy, Builtin: BuiltinAbiDecode, Args: []*Expression{data}}
}

// resolveTypeArg reads a type-name expression or a parenthesised tuple of
// them, as used by abi.decode's second argument.
func (r *ExprResolver) resolveTypeArg(e pt.Expression) ([]*Type, bool) {
	switch t := e.(type) {
	case *pt.Type:
		ty, ok := elementaryType(t)
		if !ok {
			return nil, false
		}
		return []*Type{ty}, true
	case *pt.TupleExpr:
		tys := make([]*Type, len(t.Elems))
		for i, el := range t.Elems {
			tyNode, ok := el.(*pt.Type)
			if !ok {
				return nil, false
			}
			ty, ok := elementaryType(tyNode)
			if !ok {
				return nil, false
			}
			tys[i] = ty
		}
		return tys, true
	default:
		return nil, false
	}
}

// eip55Checksum renders a 20-byte address using the mixed-case checksum
// scheme (EIP-55), the same scheme go-ethereum's own address formatter
// implements; address literals are required to be written pre-checksummed.
func eip55Checksum(addr []byte) string {
	const hexDigits = "0123456789abcdef"
	lower := make([]byte, 40)
	for i, b := range addr {
		lower[2*i] = hexDigits[b>>4]
		lower[2*i+1] = hexDigits[b&0xf]
	}
	hash := gethcrypto.Keccak256(lower)

	buf := make([]byte, 0, 42)
	buf = append(buf, '0', 'x')
	for i, c := range lower {
		if c >= 'a' && c <= 'f' {
			nibble := hash[i/2]
			if i%2 == 0 {
				nibble >>= 4
			} else {
				nibble &= 0xf
			}
			if nibble >= 8 {
				c -= 'a' - 'A'
			}
		}
		buf = append(buf, c)
	}
	return string(buf)
}
