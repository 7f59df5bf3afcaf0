package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"solidc/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Target.Name != "ewasm" {
		t.Fatalf("expected default target ewasm, got %q", cfg.Target.Name)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default logging level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromSandboxYAML(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	data := []byte("target:\n  name: substrate\npaths:\n  import_paths:\n    - vendor\nlogging:\n  level: debug\n")
	if err := sb.WriteFile("solc.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Target.Name != "substrate" {
		t.Fatalf("expected target substrate, got %q", cfg.Target.Name)
	}
	if len(cfg.Paths.ImportPaths) != 1 || cfg.Paths.ImportPaths[0] != "vendor" {
		t.Fatalf("unexpected import paths: %+v", cfg.Paths.ImportPaths)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging level debug, got %q", cfg.Logging.Level)
	}
}

func TestParseTargetName(t *testing.T) {
	for _, name := range []string{"substrate", "ewasm", "solana"} {
		if _, err := ParseTargetName(name); err != nil {
			t.Errorf("expected %q to be a valid target, got error: %v", name, err)
		}
	}
	if _, err := ParseTargetName("nonsense"); err == nil {
		t.Error("expected an error for an unknown target name")
	}
}
