package core

// Target names one of the three backends the emitted IR is ultimately
// lowered for. The core never emits code itself but
// several semantic decisions (selector hash, address/value width) are
// target-dependent.
type Target int

const (
	Substrate Target = iota
	Ewasm
	Solana
)

func (t Target) String() string {
	switch t {
	case Substrate:
		return "substrate"
	case Ewasm:
		return "ewasm"
	case Solana:
		return "solana"
	default:
		return "unknown-target"
	}
}

// AddressLength is the width, in bytes, of an address value on this
// target.
func (t Target) AddressLength() int {
	switch t {
	case Solana:
		return 32
	default:
		return 20
	}
}

// ValueLength is the width, in bytes, of a native currency value on this
// target.
func (t Target) ValueLength() int {
	switch t {
	case Ewasm:
		return 32
	case Solana:
		return 8
	default:
		return 16
	}
}

// SupportsBuiltin reports whether a builtin name is available on this
// target; the builtin registry consults this during call resolution.
func (t Target) SupportsBuiltin(name string) bool {
	switch name {
	case "ecrecover", "ripemd160":
		// Not exposed as a host function on Solana's BPF runtime.
		return t != Solana
	case "blake2_128", "blake2_256":
		// Substrate-native hash host functions only.
		return t == Substrate
	default:
		return true
	}
}
