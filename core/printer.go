package core

import (
	"fmt"
	"strings"
)

// PrintCFG renders one function's CFG as the `--emit-cfg` textual IR
// form: one block per line group, instructions indented,
// phi sets noted on the block header. The format is intentionally
// close to the in-memory shape rather than a re-derived Solidity-like
// syntax, since its purpose is debugging the lowering pass itself.
func PrintCFG(ns *Namespace, fn *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s", fn.Name)
	if fn.Name == "" {
		fmt.Fprintf(&b, "<%s>", fn.Kind)
	}
	fmt.Fprintf(&b, " selector=%s\n", FormatSelector(fn.Selector))

	if fn.CFG == nil {
		b.WriteString("  <no body>\n")
		return b.String()
	}

	for i, bb := range fn.CFG.Blocks {
		fmt.Fprintf(&b, "block%d: %s", i, bb.Name)
		if len(bb.Phis) > 0 {
			b.WriteString(" phis=[")
			for j, p := range bb.Phis {
				if j > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%%%d", p)
			}
			b.WriteString("]")
		}
		b.WriteString("\n")
		for _, instr := range bb.Instr {
			b.WriteString("    ")
			printInstr(ns, &b, instr)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func printInstr(ns *Namespace, b *strings.Builder, instr Instr) {
	switch instr.Kind {
	case ISet:
		fmt.Fprintf(b, "set %%%d = %s", instr.Res[0], printExpr(ns, instr.Expr))
	case IEval:
		fmt.Fprintf(b, "eval %s", printExpr(ns, instr.Expr))
	case ICall:
		fmt.Fprintf(b, "call")
		if instr.Call.Static {
			fmt.Fprintf(b, " @fn%d", instr.Call.FunctionNo)
		} else {
			fmt.Fprintf(b, " %s", printExpr(ns, instr.Call.Expr))
		}
		for _, r := range instr.Res {
			fmt.Fprintf(b, " -> %%%d", r)
		}
	case IReturn:
		b.WriteString("return")
		for _, a := range instr.Args {
			fmt.Fprintf(b, " %s", printExpr(ns, a))
		}
	case IBranch:
		fmt.Fprintf(b, "branch block%d", instr.BB)
	case IBranchCond:
		fmt.Fprintf(b, "branch_cond %s ? block%d : block%d", printExpr(ns, instr.Cond), instr.TrueBB, instr.FalseBB)
	case IStore:
		fmt.Fprintf(b, "store %s = %s", printExpr(ns, instr.Dest), printExpr(ns, instr.Expr))
	case IClearStorage:
		fmt.Fprintf(b, "clear_storage %s", printExpr(ns, instr.Dest))
	case ISetStorage:
		fmt.Fprintf(b, "set_storage[%s] = %s", printExpr(ns, instr.SlotExpr), printExpr(ns, instr.Expr))
	case ISetStorageBytes:
		fmt.Fprintf(b, "set_storage_bytes[%s] = %s", printExpr(ns, instr.SlotExpr), printExpr(ns, instr.Expr))
	case IPushMemory:
		fmt.Fprintf(b, "push %s <- %s", printExpr(ns, instr.Array), printExpr(ns, instr.Value))
	case IPopMemory:
		fmt.Fprintf(b, "pop %s", printExpr(ns, instr.Array))
	case IAssertFailure:
		b.WriteString("assert_failure")
		if instr.Reason != nil {
			fmt.Fprintf(b, " %s", printExpr(ns, instr.Reason))
		}
	case IPrint:
		fmt.Fprintf(b, "print %s", printExpr(ns, instr.Reason))
	case IConstructor:
		fmt.Fprintf(b, "constructor_call contract%d", instr.ContractNo)
	case IExternalCall:
		fmt.Fprintf(b, "external_call %s", printExpr(ns, instr.AddrExpr))
		if instr.ExceptionBB != nil {
			fmt.Fprintf(b, " catch block%d", *instr.ExceptionBB)
		}
	case IAbiDecode:
		b.WriteString("abi_decode")
	case IAbiEncodeVector:
		b.WriteString("abi_encode")
	case ISelfDestruct:
		fmt.Fprintf(b, "selfdestruct %s", printExpr(ns, instr.AddrExpr))
	case IHash:
		fmt.Fprintf(b, "hash %s", printExpr(ns, instr.Data))
	case IEmitEvent:
		fmt.Fprintf(b, "emit event%d", instr.EventNo)
	case IUnreachable:
		b.WriteString("unreachable")
	default:
		fmt.Fprintf(b, "<instr %d>", instr.Kind)
	}
}

func printExpr(ns *Namespace, e *Expression) string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case EBoolLiteral:
		return fmt.Sprintf("%v", e.BoolValue)
	case ENumberLiteral:
		return fmt.Sprintf("%x", e.StringBytes)
	case EVariable:
		return fmt.Sprintf("%%%d", e.Position)
	case EStorageVariable:
		return fmt.Sprintf("storage[%d]", e.VarNo)
	case EConstant:
		return fmt.Sprintf("const[%d]", e.ConstantNo)
	case EAdd, ESubtract, EMultiply, EDivide, EModulo, EBitwiseOr, EBitwiseAnd, EBitwiseXor,
		ELess, ELessEq, EMore, EMoreEq, EEqual, ENotEqual, EAnd, EOr, EShiftLeft, EShiftRight, EPower:
		return fmt.Sprintf("(%s %s %s)", printExpr(ns, e.Left), exprOpSymbol(e.Kind), printExpr(ns, e.Right))
	case ENot:
		return "!" + printExpr(ns, e.Left)
	case EComplement:
		return "~" + printExpr(ns, e.Left)
	case ENegate:
		return "-" + printExpr(ns, e.Left)
	case ELoad:
		return "*" + printExpr(ns, e.Left)
	case EStorageLoad:
		return "load(" + printExpr(ns, e.Left) + ")"
	case ETernary:
		return fmt.Sprintf("(%s ? %s : %s)", printExpr(ns, e.Cond), printExpr(ns, e.Left), printExpr(ns, e.Right))
	case EStructMember:
		return fmt.Sprintf("%s.%d", printExpr(ns, e.Left), e.FieldNo)
	case EArraySubscript, EDynamicArraySubscript:
		return fmt.Sprintf("%s[%s]", printExpr(ns, e.Left), printExpr(ns, e.Index))
	case EBuiltinCall:
		return fmt.Sprintf("builtin%d(...)", e.Builtin)
	case EInternalFunctionCall:
		return fmt.Sprintf("@fn%d(...)", e.FunctionNo)
	case EPoison:
		return "<poison>"
	default:
		return fmt.Sprintf("<expr %d>", e.Kind)
	}
}

func exprOpSymbol(k ExprKind) string {
	switch k {
	case EAdd:
		return "+"
	case ESubtract:
		return "-"
	case EMultiply:
		return "*"
	case EDivide:
		return "/"
	case EModulo:
		return "%"
	case EBitwiseOr:
		return "|"
	case EBitwiseAnd:
		return "&"
	case EBitwiseXor:
		return "^"
	case EShiftLeft:
		return "<<"
	case EShiftRight:
		return ">>"
	case EPower:
		return "**"
	case ELess:
		return "<"
	case ELessEq:
		return "<="
	case EMore:
		return ">"
	case EMoreEq:
		return ">="
	case EEqual:
		return "=="
	case ENotEqual:
		return "!="
	case EAnd:
		return "&&"
	case EOr:
		return "||"
	default:
		return "?"
	}
}
