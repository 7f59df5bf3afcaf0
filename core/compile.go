package core

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"solidc/pt"
)

// CompileOptions configures one Compile invocation.
type CompileOptions struct {
	Target    Target
	EmitCFG   bool
	Log       *logrus.Entry
}

// CompileResult is everything the driver needs to render diagnostics and
// any requested debug output.
type CompileResult struct {
	Namespace   *Namespace
	Diagnostics []Diagnostic
	CFGText     string // populated when EmitCFG is set and no fatal parse error occurred
}

// Compile runs the full middle-end pipeline over an already-parsed
// source unit: elaboration (symbol aggregation, linearisation, CFG
// construction, mutability checking, selector assignment), then
// collects diagnostics and, if requested, the textual CFG dump.
//
// Parsing itself is out of this package's scope; callers
// (the CLI, or tests) supply a *pt.SourceUnit already produced by
// package parser.
func Compile(unit *pt.SourceUnit, opts CompileOptions) *CompileResult {
	ns := NewNamespace(opts.Target)
	if opts.Log != nil {
		ns.log = opts.Log
	}

	ns.logf("elaborating source unit with %d top-level declarations", len(unit.Parts))
	ElaborateSourceUnit(ns, unit)

	res := &CompileResult{Namespace: ns, Diagnostics: ns.Diagnostics.All()}
	if opts.EmitCFG {
		res.CFGText = dumpAllCFGs(ns)
	}
	return res
}

func dumpAllCFGs(ns *Namespace) string {
	out := ""
	for _, fn := range ns.Functions {
		out += PrintCFG(ns, fn)
		out += "\n"
	}
	return out
}

// Summary renders a report of every diagnostic in the order it was
// emitted (not sorted by source position), suitable for stderr.
func Summary(files []string, diags []Diagnostic) string {
	out := ""
	for _, d := range diags {
		file := "<unknown>"
		if d.Loc.File >= 0 && d.Loc.File < len(files) {
			file = files[d.Loc.File]
		}
		out += fmt.Sprintf("%s:%d: %s\n", file, d.Loc.Start, d)
	}
	return out
}
