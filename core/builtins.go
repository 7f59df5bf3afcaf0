package core

import "solidc/pt"

// BuiltinKind identifies one entry of the fixed builtin table. Dispatch
// never uses runtime registration: the table below is the single source
// of truth, following the same Register/panic-on-collision approach an
// opcode dispatch table would use, adapted from "opcode" to "builtin".
type BuiltinKind int

const (
	BuiltinNone BuiltinKind = iota
	BuiltinAssert
	BuiltinRequire
	BuiltinRevert
	BuiltinPrint
	BuiltinKeccak256
	BuiltinSha256
	BuiltinRipemd160
	BuiltinBlake2_128
	BuiltinBlake2_256
	BuiltinEcrecover
	BuiltinBlockNumber
	BuiltinBlockTimestamp
	BuiltinBlockCoinbase
	BuiltinBlockDifficulty
	BuiltinBlockHash
	BuiltinBlockGasLimit
	BuiltinMsgSender
	BuiltinMsgValue
	BuiltinMsgData
	BuiltinMsgSig
	BuiltinTxOrigin
	BuiltinTxGasPrice
	BuiltinGasLeft
	BuiltinTombstoneDeposit
	BuiltinMinimumBalance
	BuiltinRandom
	BuiltinTypeMin
	BuiltinTypeMax
	BuiltinTypeName
	BuiltinAbiEncode
	BuiltinAbiEncodePacked
	BuiltinAbiEncodeWithSelector
	BuiltinAbiDecode
	BuiltinSelfDestruct
)

// BuiltinMutability classifies a builtin's effect on state for the
// mutability analyser.
type BuiltinMutability int

const (
	BMPure BuiltinMutability = iota
	BMView
	BMWrites
)

// BuiltinEntry is one row of the fixed builtin table.
type BuiltinEntry struct {
	Name       string
	Kind       BuiltinKind
	Mutability BuiltinMutability
	// MinArgs/MaxArgs bound arity; MaxArgs == -1 means unbounded
	// (abi.encode and friends).
	MinArgs, MaxArgs int
	Returns          func(ns *Namespace, argTys []*Type) *Type
}

var builtinTable = []BuiltinEntry{
	{"assert", BuiltinAssert, BMPure, 1, 1, func(*Namespace, []*Type) *Type { return nil }},
	{"require", BuiltinRequire, BMPure, 1, 2, func(*Namespace, []*Type) *Type { return nil }},
	{"revert", BuiltinRevert, BMPure, 0, 1, func(*Namespace, []*Type) *Type { return nil }},
	{"print", BuiltinPrint, BMPure, 1, 1, func(*Namespace, []*Type) *Type { return nil }},
	{"keccak256", BuiltinKeccak256, BMPure, 1, 1, func(*Namespace, []*Type) *Type { return BytesNType(32) }},
	{"sha256", BuiltinSha256, BMPure, 1, 1, func(*Namespace, []*Type) *Type { return BytesNType(32) }},
	{"ripemd160", BuiltinRipemd160, BMPure, 1, 1, func(*Namespace, []*Type) *Type { return BytesNType(20) }},
	{"blake2_128", BuiltinBlake2_128, BMPure, 1, 1, func(*Namespace, []*Type) *Type { return BytesNType(16) }},
	{"blake2_256", BuiltinBlake2_256, BMPure, 1, 1, func(*Namespace, []*Type) *Type { return BytesNType(32) }},
	{"ecrecover", BuiltinEcrecover, BMPure, 4, 4, func(*Namespace, []*Type) *Type { return AddressType(false) }},
	{"block.number", BuiltinBlockNumber, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(64) }},
	{"block.timestamp", BuiltinBlockTimestamp, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(64) }},
	{"block.coinbase", BuiltinBlockCoinbase, BMView, 0, 0, func(*Namespace, []*Type) *Type { return AddressType(true) }},
	{"block.difficulty", BuiltinBlockDifficulty, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(256) }},
	{"block.gaslimit", BuiltinBlockGasLimit, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(64) }},
	{"blockhash", BuiltinBlockHash, BMView, 1, 1, func(*Namespace, []*Type) *Type { return BytesNType(32) }},
	{"msg.sender", BuiltinMsgSender, BMView, 0, 0, func(*Namespace, []*Type) *Type { return AddressType(true) }},
	{"msg.value", BuiltinMsgValue, BMView, 0, 0, func(ns *Namespace, _ []*Type) *Type { return UintType(ns.ValueLength * 8) }},
	{"msg.data", BuiltinMsgData, BMView, 0, 0, func(*Namespace, []*Type) *Type { return DynamicBytesType() }},
	{"msg.sig", BuiltinMsgSig, BMView, 0, 0, func(*Namespace, []*Type) *Type { return BytesNType(4) }},
	{"tx.origin", BuiltinTxOrigin, BMView, 0, 0, func(*Namespace, []*Type) *Type { return AddressType(true) }},
	{"tx.gasprice", BuiltinTxGasPrice, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(64) }},
	{"gasleft", BuiltinGasLeft, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(64) }},
	{"tombstone_deposit", BuiltinTombstoneDeposit, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(128) }},
	{"minimum_balance", BuiltinMinimumBalance, BMView, 0, 0, func(*Namespace, []*Type) *Type { return UintType(128) }},
	{"random", BuiltinRandom, BMView, 1, 1, func(*Namespace, []*Type) *Type { return BytesNType(32) }},
	{"abi.encode", BuiltinAbiEncode, BMPure, 0, -1, func(*Namespace, []*Type) *Type { return DynamicBytesType() }},
	{"abi.encodePacked", BuiltinAbiEncodePacked, BMPure, 0, -1, func(*Namespace, []*Type) *Type { return DynamicBytesType() }},
	{"abi.encodeWithSelector", BuiltinAbiEncodeWithSelector, BMPure, 1, -1, func(*Namespace, []*Type) *Type { return DynamicBytesType() }},
	{"abi.decode", BuiltinAbiDecode, BMPure, 2, 2, func(*Namespace, []*Type) *Type { return Unresolved() }},
	{"selfdestruct", BuiltinSelfDestruct, BMWrites, 1, 1, func(*Namespace, []*Type) *Type { return nil }},
}

var builtinsByName map[string]BuiltinEntry

func init() {
	builtinsByName = make(map[string]BuiltinEntry, len(builtinTable))
	for _, b := range builtinTable {
		if _, dup := builtinsByName[b.Name]; dup {
			panic("core: duplicate builtin name " + b.Name)
		}
		builtinsByName[b.Name] = b
	}
}

// LookupBuiltin finds a builtin by name, reporting an error if it is
// not available on the namespace's active target.
func LookupBuiltin(ns *Namespace, loc pt.Loc, name string) (BuiltinEntry, bool) {
	b, ok := builtinsByName[name]
	if !ok {
		return BuiltinEntry{}, false
	}
	if !ns.Target.SupportsBuiltin(name) {
		ns.Diagnostics.Errorf(loc, "builtin %q is not available on target %s", name, ns.Target)
		return BuiltinEntry{}, false
	}
	return b, true
}
