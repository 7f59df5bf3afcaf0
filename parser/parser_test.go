package parser

import (
	"testing"

	"solidc/pt"
)

func mustParse(t *testing.T, src string) *pt.SourceUnit {
	t.Helper()
	unit, err := Parse(src, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return unit
}

func TestParseSimpleContract(t *testing.T) {
	unit := mustParse(t, `
		pragma solidity ^0.8.0;

		contract SimpleStorage {
			uint256 public value;

			function setValue(uint256 _value) public {
				value = _value;
			}

			function getValue() public view returns (uint256) {
				return value;
			}
		}
	`)

	if len(unit.Parts) != 1 {
		t.Fatalf("expected 1 top-level part, got %d", len(unit.Parts))
	}
	c, ok := unit.Parts[0].(*pt.ContractDefinition)
	if !ok {
		t.Fatalf("expected *pt.ContractDefinition, got %T", unit.Parts[0])
	}
	if c.Name.Name != "SimpleStorage" {
		t.Errorf("expected contract name SimpleStorage, got %q", c.Name.Name)
	}
	if len(c.Parts) != 3 {
		t.Fatalf("expected 3 contract parts, got %d", len(c.Parts))
	}

	v, ok := c.Parts[0].(*pt.VariableDeclaration)
	if !ok || v.Name.Name != "value" || v.Visibility != pt.Public {
		t.Errorf("unexpected state variable: %+v", c.Parts[0])
	}

	setFn, ok := c.Parts[1].(*pt.FunctionDefinition)
	if !ok || setFn.Name.Name != "setValue" || len(setFn.Params) != 1 {
		t.Errorf("unexpected setValue definition: %+v", c.Parts[1])
	}

	getFn, ok := c.Parts[2].(*pt.FunctionDefinition)
	if !ok || getFn.Mutability != pt.View || len(getFn.Returns) != 1 {
		t.Errorf("unexpected getValue definition: %+v", c.Parts[2])
	}
}

func TestParseInheritanceAndConstructorArgs(t *testing.T) {
	unit := mustParse(t, `
		contract Base {
			uint256 x;
			constructor(uint256 _x) { x = _x; }
		}

		contract Derived is Base {
			constructor(uint256 y) Base(y + 1) {}
		}
	`)

	if len(unit.Parts) != 2 {
		t.Fatalf("expected 2 contracts, got %d", len(unit.Parts))
	}
	derived := unit.Parts[1].(*pt.ContractDefinition)
	if len(derived.Bases) != 1 || derived.Bases[0].Name.Name != "Base" {
		t.Fatalf("expected Derived to inherit Base, got %+v", derived.Bases)
	}

	ctor, ok := derived.Parts[0].(*pt.FunctionDefinition)
	if !ok || ctor.Ty != pt.Constructor {
		t.Fatalf("expected constructor, got %+v", derived.Parts[0])
	}
	if len(ctor.Modifiers) != 1 || ctor.Modifiers[0].Name.Name != "Base" {
		t.Fatalf("expected a Base(...) modifier-style invocation, got %+v", ctor.Modifiers)
	}
	if len(ctor.Modifiers[0].Args) != 1 {
		t.Fatalf("expected one base constructor argument, got %d", len(ctor.Modifiers[0].Args))
	}
}

func TestParseModifierAndUnderscore(t *testing.T) {
	unit := mustParse(t, `
		contract C {
			address owner;

			modifier onlyOwner() {
				require(msg.sender == owner, "not owner");
				_;
			}

			function set(uint256 v) public onlyOwner {
			}
		}
	`)

	c := unit.Parts[0].(*pt.ContractDefinition)
	mod := c.Parts[1].(*pt.FunctionDefinition)
	if mod.Ty != pt.Modifier || mod.Name.Name != "onlyOwner" {
		t.Fatalf("expected modifier onlyOwner, got %+v", mod)
	}
	if len(mod.Body) != 2 {
		t.Fatalf("expected 2 statements in modifier body, got %d", len(mod.Body))
	}
	if _, ok := mod.Body[1].(*pt.Underscore); !ok {
		t.Fatalf("expected second modifier statement to be underscore, got %T", mod.Body[1])
	}

	fn := c.Parts[2].(*pt.FunctionDefinition)
	if len(fn.Modifiers) != 1 || fn.Modifiers[0].Name.Name != "onlyOwner" {
		t.Fatalf("expected function to carry onlyOwner modifier, got %+v", fn.Modifiers)
	}
}

func TestParseControlFlowAndDestructure(t *testing.T) {
	unit := mustParse(t, `
		contract C {
			function f(uint256 n) public pure returns (uint256, uint256) {
				uint256 sum = 0;
				for (uint256 i = 0; i < n; i++) {
					if (i % 2 == 0) {
						sum += i;
					} else {
						continue;
					}
				}
				uint256 a;
				uint256 b;
				(a, b) = (sum, n);
				return (a, b);
			}
		}
	`)

	c := unit.Parts[0].(*pt.ContractDefinition)
	fn := c.Parts[0].(*pt.FunctionDefinition)
	if len(fn.Body) != 6 {
		t.Fatalf("expected 6 top-level statements, got %d", len(fn.Body))
	}
	if _, ok := fn.Body[1].(*pt.For); !ok {
		t.Fatalf("expected a for-statement, got %T", fn.Body[1])
	}
	destructure, ok := fn.Body[4].(*pt.Destructure)
	if !ok {
		t.Fatalf("expected destructuring assignment, got %T", fn.Body[4])
	}
	if len(destructure.Idents) != 2 {
		t.Fatalf("expected 2 destructure slots, got %d", len(destructure.Idents))
	}

	ret := fn.Body[5].(*pt.Return)
	if len(ret.Exprs) != 2 {
		t.Fatalf("expected return to flatten tuple into 2 exprs, got %d", len(ret.Exprs))
	}
}

func TestParseEventStructEnum(t *testing.T) {
	unit := mustParse(t, `
		contract C {
			enum Status { Idle, Running, Done }
			struct Job { uint256 id; address owner; }
			event JobCreated(uint256 indexed id, address owner);

			function make() public {
				emit JobCreated(1, msg.sender);
			}
		}
	`)

	c := unit.Parts[0].(*pt.ContractDefinition)
	en := c.Parts[0].(*pt.EnumDefinition)
	if len(en.Values) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(en.Values))
	}
	st := c.Parts[1].(*pt.StructDefinition)
	if len(st.Fields) != 2 {
		t.Fatalf("expected 2 struct fields, got %d", len(st.Fields))
	}
	ev := c.Parts[2].(*pt.EventDefinition)
	if len(ev.Fields) != 2 || !ev.Fields[0].Indexed {
		t.Fatalf("unexpected event fields: %+v", ev.Fields)
	}

	fn := c.Parts[3].(*pt.FunctionDefinition)
	emitStmt, ok := fn.Body[0].(*pt.Emit)
	if !ok || emitStmt.Name.Name != "JobCreated" || len(emitStmt.Args) != 2 {
		t.Fatalf("unexpected emit statement: %+v", fn.Body[0])
	}
}

func TestParseTryCatchAndUnchecked(t *testing.T) {
	unit := mustParse(t, `
		contract C {
			function call(address target) public {
				try External(target).run() returns (uint256 r) {
					r;
				} catch Error(string memory reason) {
					reason;
				} catch (bytes memory lowLevelData) {
					lowLevelData;
				}
				unchecked {
					uint256 x = 1 - 2;
				}
			}
		}
	`)

	c := unit.Parts[0].(*pt.ContractDefinition)
	fn := c.Parts[0].(*pt.FunctionDefinition)
	tryStmt, ok := fn.Body[0].(*pt.TryCatch)
	if !ok {
		t.Fatalf("expected try/catch statement, got %T", fn.Body[0])
	}
	if tryStmt.ErrorClause == nil || !tryStmt.ErrorClause.Error {
		t.Fatalf("expected an Error(...) catch clause, got %+v", tryStmt.ErrorClause)
	}
	if tryStmt.CatchClause == nil || tryStmt.CatchClause.Error {
		t.Fatalf("expected a bare catch clause, got %+v", tryStmt.CatchClause)
	}

	if _, ok := fn.Body[1].(*pt.Unchecked); !ok {
		t.Fatalf("expected unchecked block, got %T", fn.Body[1])
	}
}

func TestParseArraysMappingsAndCallOptions(t *testing.T) {
	unit := mustParse(t, `
		contract C {
			mapping(address => uint256) balances;
			uint256[] public amounts;

			function pay(address payable to) public payable {
				to.call{value: msg.value, gas: 2300}("");
				uint256[] memory arr = new uint256[](3);
				amounts.push(arr[0]);
			}
		}
	`)

	c := unit.Parts[0].(*pt.ContractDefinition)
	mapDecl := c.Parts[0].(*pt.VariableDeclaration)
	mapTy, ok := mapDecl.Ty.(*pt.Type)
	if !ok || mapTy.Mapping == nil {
		t.Fatalf("expected a mapping type, got %+v", mapDecl.Ty)
	}

	arrDecl := c.Parts[1].(*pt.VariableDeclaration)
	arrTy, ok := arrDecl.Ty.(*pt.Type)
	if !ok || len(arrTy.Dims) != 1 || arrTy.Dims[0] != -1 {
		t.Fatalf("expected a dynamic array type, got %+v", arrDecl.Ty)
	}

	fn := c.Parts[2].(*pt.FunctionDefinition)
	stmt, ok := fn.Body[0].(*pt.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", fn.Body[0])
	}
	call, ok := stmt.Expr.(*pt.FunctionCall)
	if !ok {
		t.Fatalf("expected a function call, got %T", stmt.Expr)
	}
	if _, ok := call.Callee.(*pt.FunctionCallOptions); !ok {
		t.Fatalf("expected call options on callee, got %T", call.Callee)
	}
}

func TestParseErrorOnMalformedInput(t *testing.T) {
	_, err := Parse(`contract C { function f( { } }`, 0)
	if err == nil {
		t.Fatal("expected a parse error for malformed input")
	}
}
