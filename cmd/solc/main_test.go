package main

import (
	"bytes"
	"strings"
	"testing"

	"solidc/internal/testutil"
)

func TestRunCompilesValidContract(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	src := `
		pragma solidity ^0.8.0;
		contract Counter {
			uint256 count;
			function increment() public {
				count = count + 1;
			}
		}
	`
	if err := sb.WriteFile("Counter.sol", []byte(src), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"--target", "ewasm", sb.Path("Counter.sol")}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; stderr=%s", code, stderr.String())
	}
}

func TestRunEmitsCFGWhenRequested(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	src := `
		contract Counter {
			uint256 count;
			function bump() public {
				if (count > 0) {
					count = count - 1;
				} else {
					count = 0;
				}
			}
		}
	`
	if err := sb.WriteFile("Counter.sol", []byte(src), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"--target", "ewasm", "--emit-cfg", sb.Path("Counter.sol")}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; stderr=%s", code, stderr.String())
	}
	if stdout.Len() == 0 {
		t.Fatal("expected --emit-cfg to produce CFG text on stdout")
	}
}

func TestRunFailsOnSyntaxError(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	src := `contract Broken { function f( public { } }`
	if err := sb.WriteFile("Broken.sol", []byte(src), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{sb.Path("Broken.sol")}, &stdout, &stderr)
	if code == 0 {
		t.Fatal("expected a nonzero exit code for a syntax error")
	}
	if stderr.Len() == 0 {
		t.Fatal("expected parse error text on stderr")
	}
}

func TestRunRejectsUnknownTarget(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	src := `contract C { uint256 x; }`
	if err := sb.WriteFile("C.sol", []byte(src), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"--target", "nonsense", sb.Path("C.sol")}, &stdout, &stderr)
	if code == 0 {
		t.Fatal("expected a nonzero exit code for an unknown target")
	}
	if !strings.Contains(stderr.String(), "unknown target") {
		t.Fatalf("expected unknown target message, got: %s", stderr.String())
	}
}

func TestRunMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"/nonexistent/path/Missing.sol"}, &stdout, &stderr)
	if code == 0 {
		t.Fatal("expected a nonzero exit code for a missing file")
	}
}
