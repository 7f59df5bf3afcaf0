// Command solc is the driver: it reads one Solidity source file, runs it
// through parser.Parse and core.Compile, and renders diagnostics plus any
// requested debug output. A single cobra root command with a flat flag
// surface, no subcommands.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solidc/core"
	"solidc/internal/config"
	"solidc/parser"
)

type options struct {
	targetName   string
	emitCFG      bool
	emitLLVM     bool
	emitObject   bool
	standardJSON bool
	verbose      bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options

	rootCmd := newRootCmd(&opts, stdout, stderr)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode is set by compileFile so run() can report failure without the
// handler itself calling os.Exit (which would make it untestable).
var exitCode int

func newRootCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	exitCode = 0
	rootCmd := &cobra.Command{
		Use:   "solc [file]",
		Short: "Solidity middle-end: semantic analysis, IR lowering, CFG construction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = compileFile(args[0], opts, stdout, stderr)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&opts.targetName, "target", "", "compilation target: substrate, ewasm, or solana")
	rootCmd.Flags().BoolVar(&opts.emitCFG, "emit-cfg", false, "print the lowered control-flow graph for every function")
	rootCmd.Flags().BoolVar(&opts.emitLLVM, "emit-llvm", false, "accepted for interface compatibility; codegen is out of scope")
	rootCmd.Flags().BoolVar(&opts.emitObject, "emit-object", false, "accepted for interface compatibility; no object is produced or validated")
	rootCmd.Flags().BoolVar(&opts.standardJSON, "standard-json", false, "accepted for interface compatibility; not yet implemented")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug-level trace logging")
	return rootCmd
}

// compileFile runs the parse+compile pipeline for one file and renders
// diagnostics to stderr and any --emit-cfg text to stdout. It returns the
// process exit code rather than calling os.Exit, so main's cobra wiring
// stays the only place that touches the real process.
func compileFile(file string, opts *options, stdout, stderr io.Writer) int {
	logger := newTraceLogger(opts.verbose)
	defer logger.Sync()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Warn("config load failed, continuing with defaults", zap.Error(err))
		cfg = &config.Config{}
	}
	targetName := opts.targetName
	if targetName == "" {
		targetName = cfg.Target.Name
	}
	name, err := config.ParseTargetName(targetName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(stderr, "reading %s: %v\n", file, err)
		return 1
	}
	logger.Info("parsing source", zap.String("file", file))

	unit, err := parser.Parse(string(src), 0)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger.Info("compiling", zap.String("target", name))
	result := core.Compile(unit, core.CompileOptions{
		Target:  targetOf(name),
		EmitCFG: opts.emitCFG || cfg.Output.EmitCFG,
	})

	if opts.emitLLVM || opts.standardJSON {
		logger.Warn("flag accepted but produces no output: codegen is out of scope")
	}
	if opts.emitObject && !core.AnyErrors(result.Diagnostics) {
		fmt.Fprintln(stderr, "note: --emit-object produces no bytecode and validates nothing; codegen is out of scope")
	}

	if result.CFGText != "" {
		fmt.Fprint(stdout, result.CFGText)
	}
	fmt.Fprint(stderr, core.Summary([]string{file}, result.Diagnostics))

	if core.AnyErrors(result.Diagnostics) {
		return 1
	}
	return 0
}

func newTraceLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

func targetOf(name string) core.Target {
	switch name {
	case "substrate":
		return core.Substrate
	case "solana":
		return core.Solana
	default:
		return core.Ewasm
	}
}
