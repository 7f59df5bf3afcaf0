package emit_test

import (
	"testing"

	"solidc/emit"
)

func TestWasmValidatorAcceptsMinimalModule(t *testing.T) {
	// The empty WASM module: magic number + version, no sections.
	minimal := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	v := emit.NewWasmValidator()
	if err := v.Validate(minimal); err != nil {
		t.Fatalf("expected minimal module to validate, got: %v", err)
	}
}

func TestWasmValidatorRejectsGarbage(t *testing.T) {
	v := emit.NewWasmValidator()
	if err := v.Validate([]byte("not a wasm module")); err == nil {
		t.Fatal("expected garbage bytes to fail validation")
	}
}

func TestWasmValidatorRejectsEmptyInput(t *testing.T) {
	v := emit.NewWasmValidator()
	if err := v.Validate(nil); err == nil {
		t.Fatal("expected empty input to fail validation")
	}
}
