package core

import (
	"crypto/sha256"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// CanonicalSignature renders `name(type1,type2,...)` with canonical type
// names,.
func CanonicalSignature(ns *Namespace, name string, params []Parameter) string {
	s := name + "("
	for i, p := range params {
		if i > 0 {
			s += ","
		}
		s += p.Ty.AsCanonical(ns)
	}
	return s + ")"
}

// ComputeSelector derives the bit-exact 4-byte selector from a canonical
// signature string: the high 4 bytes of keccak256 for the
// EVM-flavoured (Ewasm) target, and a deterministic target-specific hash
// otherwise. No pack library ships a Substrate/Solana selector hash, so
// the non-EVM path truncates sha256 (stdlib) instead; documented as the
// one deliberate stdlib fallback in DESIGN.md.
func ComputeSelector(target Target, signature string) [4]byte {
	var out [4]byte
	switch target {
	case Ewasm:
		h := gethcrypto.Keccak256([]byte(signature))
		copy(out[:], h[:4])
	default:
		h := sha256.Sum256([]byte(signature))
		copy(out[:], h[:4])
	}
	return out
}

// ComputeSelectors assigns the Selector field on every function with a
// name (constructors/fallback/receive are selector-less at the ABI
// level and are skipped).
func ComputeSelectors(ns *Namespace) {
	for _, f := range ns.Functions {
		if f.Name == "" {
			continue
		}
		sig := CanonicalSignature(ns, f.Name, f.Params)
		f.Selector = ComputeSelector(ns.Target, sig)
	}
}

// FormatSelector renders a selector the way diagnostics and --emit-cfg
// output do: `0xdeadbeef`.
func FormatSelector(sel [4]byte) string {
	return fmt.Sprintf("0x%x", sel)
}
