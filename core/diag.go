package core

import (
	"fmt"
	"strings"

	"solidc/pt"
)

// Level classifies a Diagnostic by severity.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Note is a secondary location attached to a Diagnostic, e.g. pointing
// at the prior declaration in a "already defined" error.
type Note struct {
	Loc     pt.Loc
	Message string
}

// Diagnostic is one compiler-emitted message.
type Diagnostic struct {
	Level   Level
	Loc     pt.Loc
	Message string
	Notes   []Note
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Level, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "\n\tnote: %s", n.Message)
	}
	return b.String()
}

// Diagnostics is an append-only, owned-by-the-Namespace collection.
// Order of insertion is preserved and is the only order ever observed,
// so two runs on identical input produce identical sequences.
type Diagnostics struct {
	items []Diagnostic
}

func (d *Diagnostics) Add(diag Diagnostic) {
	d.items = append(d.items, diag)
}

func (d *Diagnostics) Errorf(loc pt.Loc, format string, args ...interface{}) {
	d.Add(Diagnostic{Level: Error, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnostics) ErrorWithNote(loc pt.Loc, message string, note Note) {
	d.Add(Diagnostic{Level: Error, Loc: loc, Message: message, Notes: []Note{note}})
}

func (d *Diagnostics) Warnf(loc pt.Loc, format string, args ...interface{}) {
	d.Add(Diagnostic{Level: Warning, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnostics) Infof(loc pt.Loc, format string, args ...interface{}) {
	d.Add(Diagnostic{Level: Info, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// All returns the diagnostics collected so far, in emission order.
func (d *Diagnostics) All() []Diagnostic { return append([]Diagnostic(nil), d.items...) }

// AnyErrors gates downstream stages/exit codes.
func AnyErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Level == Error {
			return true
		}
	}
	return false
}
