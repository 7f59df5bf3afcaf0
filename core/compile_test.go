package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"solidc/core"
	"solidc/parser"
)

func mustCompile(t *testing.T, src string, target core.Target) *core.CompileResult {
	t.Helper()
	unit, err := parser.Parse(src, 0)
	require.NoError(t, err)
	return core.Compile(unit, core.CompileOptions{Target: target, EmitCFG: true})
}

func TestCompileSimpleContractHasNoDiagnostics(t *testing.T) {
	src := `
		contract Counter {
			uint256 count;
			function increment() public {
				count = count + 1;
			}
			function get() public view returns (uint256) {
				return count;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
	require.Len(t, res.Namespace.Contracts, 1)
	require.NotEmpty(t, res.CFGText)
}

func TestMutabilityMismatchIsReported(t *testing.T) {
	src := `
		contract Bad {
			uint256 count;
			function get() public pure returns (uint256) {
				return count;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.True(t, core.AnyErrors(res.Diagnostics))
	found := false
	for _, d := range res.Diagnostics {
		if d.Level == core.Error {
			found = true
		}
	}
	require.True(t, found, "expected a mutability error diagnostic")
}

func TestViewFunctionWritingStateIsRejected(t *testing.T) {
	src := `
		contract Bad {
			uint256 count;
			function bump() public view {
				count = count + 1;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.True(t, core.AnyErrors(res.Diagnostics))
}

func hasWarningContaining(diags []core.Diagnostic, substr string) bool {
	for _, d := range diags {
		if d.Level == core.Warning && strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func TestNonPayableFunctionThatOnlyReadsCanBeDeclaredView(t *testing.T) {
	src := `
		contract Readable {
			uint256 count;
			function get() public returns (uint256) {
				return count;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
	require.True(t, hasWarningContaining(res.Diagnostics, "can be declared view"), "expected a 'can be declared view' warning, got: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
}

func TestNonPayableFunctionThatTouchesNoStateCanBeDeclaredPure(t *testing.T) {
	src := `
		contract Pureish {
			function add(uint256 a, uint256 b) public returns (uint256) {
				return a + b;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
	require.True(t, hasWarningContaining(res.Diagnostics, "can be declared pure"), "expected a 'can be declared pure' warning, got: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
}

func TestViewFunctionThatTouchesNoStateCanBeDeclaredPure(t *testing.T) {
	src := `
		contract Pureish {
			function add(uint256 a, uint256 b) public view returns (uint256) {
				return a + b;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
	require.True(t, hasWarningContaining(res.Diagnostics, "can be declared pure"), "expected a 'can be declared pure' warning, got: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
}

func TestPayableFunctionIsNeverFlaggedForRestriction(t *testing.T) {
	src := `
		contract Donatable {
			function donate() public payable {}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
	require.False(t, hasWarningContaining(res.Diagnostics, "can be declared"), "payable functions must not be flagged for mutability restriction")
}

func TestInheritanceFlattensBaseMembers(t *testing.T) {
	src := `
		contract Base {
			uint256 x;
			function setX(uint256 v) public {
				x = v;
			}
		}
		contract Derived is Base {
			function getX() public view returns (uint256) {
				return x;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))

	var derived *core.Contract
	for _, c := range res.Namespace.Contracts {
		if c.Name == "Derived" {
			derived = c
		}
	}
	require.NotNil(t, derived)
	require.Len(t, derived.Linearised, 2, "expected Derived and Base in the linearisation")
	require.NotEmpty(t, derived.AllFunctions, "expected flattened base functions")
}

func TestControlFlowLoweringBranches(t *testing.T) {
	src := `
		contract Branchy {
			uint256 count;
			function classify(uint256 n) public returns (uint256) {
				if (n > 10) {
					count = 1;
				} else {
					count = 2;
				}
				for (uint256 i = 0; i < n; i++) {
					count = count + i;
				}
				return count;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))

	var fn *core.Function
	for _, f := range res.Namespace.Functions {
		if f.Name == "classify" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.NotNil(t, fn.CFG)
	require.Greater(t, len(fn.CFG.Blocks), 3, "if/else plus a loop should produce several basic blocks")
}

func TestSelectorMatchesKeccakForEwasmTarget(t *testing.T) {
	sig := "transfer(address,uint256)"
	want := gethcrypto.Keccak256([]byte(sig))[:4]
	got := core.ComputeSelector(core.Ewasm, sig)
	require.Equal(t, want, got[:])
}

func TestSelectorDiffersForNonEwasmTargets(t *testing.T) {
	sig := "transfer(address,uint256)"
	ewasm := core.ComputeSelector(core.Ewasm, sig)
	substrate := core.ComputeSelector(core.Substrate, sig)
	require.NotEqual(t, ewasm, substrate)
}

func TestUndeclaredIdentifierIsDiagnosed(t *testing.T) {
	src := `
		contract Bad {
			function f() public returns (uint256) {
				return doesNotExist;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.True(t, core.AnyErrors(res.Diagnostics))
}

func TestModifierChainWiresUnderscore(t *testing.T) {
	src := `
		contract Guarded {
			uint256 count;
			modifier onlyPositive(uint256 v) {
				require(v > 0);
				_;
			}
			function set(uint256 v) public onlyPositive(v) {
				count = v;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))

	var fn *core.Function
	for _, f := range res.Namespace.Functions {
		if f.Name == "set" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.Len(t, fn.Modifiers, 1)
	require.NotNil(t, fn.CFG, "modifier chaining should still produce one merged CFG")
	require.True(t, fn.DoesWriteState, "the wrapped function body's storage write must be reachable through the modifier's `_` placeholder, not just the modifier's own statements")
	require.Greater(t, len(fn.CFG.Blocks), 1, "splicing the wrapped body in should grow the merged CFG beyond the modifier's own blocks")
}

func TestModifierChainReachesBodyThroughMultipleLevels(t *testing.T) {
	src := `
		contract Guarded {
			uint256 count;
			bool locked;
			modifier onlyPositive(uint256 v) {
				require(v > 0);
				_;
			}
			modifier nonReentrant() {
				require(!locked);
				locked = true;
				_;
				locked = false;
			}
			function set(uint256 v) public nonReentrant onlyPositive(v) {
				count = v;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))

	var fn *core.Function
	for _, f := range res.Namespace.Functions {
		if f.Name == "set" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.Len(t, fn.Modifiers, 2)
	require.NotNil(t, fn.CFG)
	require.True(t, fn.DoesWriteState, "count = v must still be reachable once two modifier levels are chained")
}

func TestExternalCallThroughContractCastResolves(t *testing.T) {
	src := `
		contract Other {
			function foo(uint256 x) public returns (uint256) {
				return x + 1;
			}
		}
		contract Caller {
			uint256 result;
			function callIt(address target, uint256 x) public returns (uint256) {
				return Other(target).foo(x);
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))

	var fn *core.Function
	for _, f := range res.Namespace.Functions {
		if f.Name == "callIt" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.True(t, fn.DoesWriteState, "an external call is conservatively treated as a state write")
}

func TestTryCatchResolvesAnExternalCall(t *testing.T) {
	src := `
		contract Other {
			function foo(uint256 x) public returns (uint256) {
				return x + 1;
			}
		}
		contract Caller {
			uint256 result;
			function callIt(address target, uint256 x) public {
				try Other(target).foo(x) returns (uint256 r) {
					result = r;
				} catch {
					result = 0;
				}
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))

	var fn *core.Function
	for _, f := range res.Namespace.Functions {
		if f.Name == "callIt" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.NotNil(t, fn.CFG)
	require.True(t, fn.DoesWriteState, "both the ok and catch bodies assign to storage")
}

func TestAbiEncodeFamilyResolves(t *testing.T) {
	src := `
		contract Packer {
			function pack(uint256 a, address b) public pure returns (bytes memory) {
				return abi.encode(a, b);
			}
			function packTight(uint256 a, address b) public pure returns (bytes memory) {
				return abi.encodePacked(a, b);
			}
			function packSelector(uint256 a) public pure returns (bytes memory) {
				return abi.encodeWithSelector(bytes4(0x12345678), a);
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
}

func TestAbiDecodeResolvesSingleAndTupleForms(t *testing.T) {
	src := `
		contract Unpacker {
			function single(bytes memory data) public pure returns (uint256) {
				return abi.decode(data, uint256);
			}
			function pair(bytes memory data) public pure returns (uint256, address) {
				return abi.decode(data, (uint256, address));
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
}

func TestExplicitNumericCastResolves(t *testing.T) {
	src := `
		contract Caster {
			function widen(uint128 x) public pure returns (uint256) {
				return uint256(x);
			}
			function toSelector(bytes32 h) public pure returns (bytes4) {
				return bytes4(h);
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
}

func TestStructLiteralResolvesPositionalAndNamedForms(t *testing.T) {
	src := `
		contract Points {
			struct Point {
				uint256 x;
				uint256 y;
			}
			function makePositional() public pure returns (uint256) {
				Point memory p = Point(1, 2);
				return p.x + p.y;
			}
			function makeNamed() public pure returns (uint256) {
				Point memory p = Point({x: 3, y: 4});
				return p.x + p.y;
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))
}

func TestStructLiteralMissingFieldIsDiagnosed(t *testing.T) {
	src := `
		contract Points {
			struct Point {
				uint256 x;
				uint256 y;
			}
			function bad() public pure returns (Point memory) {
				return Point(1);
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.True(t, core.AnyErrors(res.Diagnostics), "struct literal with a missing field must be rejected")
}

func TestNewConstructorCallResolves(t *testing.T) {
	src := `
		contract Counter {
			uint256 start;
			constructor(uint256 s) {
				start = s;
			}
		}
		contract Factory {
			function deploy(uint256 s) public returns (Counter) {
				return new Counter(s);
			}
		}
	`
	res := mustCompile(t, src, core.Ewasm)
	require.False(t, core.AnyErrors(res.Diagnostics), "unexpected diagnostics: %s", core.Summary([]string{"c.sol"}, res.Diagnostics))

	var fn *core.Function
	for _, f := range res.Namespace.Functions {
		if f.Name == "deploy" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.True(t, fn.DoesWriteState, "deploying a new contract is conservatively treated as a state write")
}
