// Package emit defines the boundary between the middle-end and the
// three target backends. Actual code generation is out of scope; the
// one concrete adapter here, WasmValidator, checks WASM module
// structure. The CLI does not call it: its --emit-object flag produces
// and validates nothing.
package emit

import (
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"

	"solidc/core"
)

// Emitter lowers one elaborated contract to target-specific bytes. No
// implementation ships in this repo; backends plug in here.
type Emitter interface {
	Emit(ns *core.Namespace, contractNo int) ([]byte, error)
}

// WasmValidator checks that a byte slice is a structurally valid WASM
// module, using the same wasmer.NewEngine/NewStore/NewModule sequence a
// full VM would use to load contract bytecode, but stopping at parse
// time instead of instantiating and running the module.
type WasmValidator struct {
	engine *wasmer.Engine
}

func NewWasmValidator() *WasmValidator {
	return &WasmValidator{engine: wasmer.NewEngine()}
}

// Validate reports whether code parses as a well-formed WASM module.
func (v *WasmValidator) Validate(code []byte) error {
	store := wasmer.NewStore(v.engine)
	if _, err := wasmer.NewModule(store, code); err != nil {
		return fmt.Errorf("invalid wasm module: %w", err)
	}
	return nil
}
