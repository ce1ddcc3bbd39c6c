// Package diag implements the assembler's structured diagnostic system
// (spec.md component H): a pure, append-only sink that can hold borrowed
// slices of source text without introducing ownership cycles between the
// lexer, parser, and encoder (spec.md 4.9 "Avoiding cyclic references").
package diag

import (
	"fmt"
	"strings"
)

// Kind enumerates the diagnostic categories the assembler can raise.
type Kind int

const (
	Syntax Kind = iota
	UnexpectedToken
	UnexpectedOperand
	ImmediateOutOfRange
	MisalignedImmediate
	InvalidRegister
	InvalidLabelRef
	LabelRedefinition
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "Syntax"
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnexpectedOperand:
		return "UnexpectedOperand"
	case ImmediateOutOfRange:
		return "ImmediateOutOfRange"
	case MisalignedImmediate:
		return "MisalignedImmediate"
	case InvalidRegister:
		return "InvalidRegister"
	case InvalidLabelRef:
		return "InvalidLabelRef"
	case LabelRedefinition:
		return "LabelRedefinition"
	default:
		return "Unknown"
	}
}

// Diagnostic carries a source position plus a human-readable explanation.
// Every diagnostic kind listed in spec.md section 7 is representable here;
// kind-specific context (permitted range, alignment, prior definition line)
// is folded into SubMessage rather than given its own field, since it only
// ever needs to be rendered, never programmatically inspected again.
type Diagnostic struct {
	Kind        Kind
	Filename    string
	Line        int
	Column      int
	SourceLine  string
	MainMessage string
	SubMessage  string
}

// Render formats the diagnostic the way a compiler would: file:line:col,
// the message, the offending source line, and a caret pointer under the
// column.
func (d Diagnostic) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s: %s\n", d.Filename, d.Line, d.Column, d.Kind, d.MainMessage)
	if d.SourceLine != "" {
		fmt.Fprintf(&b, "    %s\n", d.SourceLine)
		col := d.Column
		if col < 1 {
			col = 1
		}
		fmt.Fprintf(&b, "    %s^\n", strings.Repeat(" ", col-1))
	}
	if d.SubMessage != "" {
		fmt.Fprintf(&b, "    %s\n", d.SubMessage)
	}
	return b.String()
}

// Bag collects diagnostics across a full assembler run so that recoverable
// errors (spec.md section 7 policy: skip to next line, keep going) can all
// be reported from one invocation instead of stopping at the first one.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Count returns the number of diagnostics collected so far.
func (b *Bag) Count() int {
	return len(b.items)
}

// Failed reports whether assembly should be considered a failure: spec.md
// section 7 says this is exactly "diagnostic count is non-zero".
func (b *Bag) Failed() bool {
	return len(b.items) > 0
}

// All returns every collected diagnostic in the order it was added.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Render renders every diagnostic in the bag, one after another.
func (b *Bag) Render() string {
	var sb strings.Builder
	for _, d := range b.items {
		sb.WriteString(d.Render())
	}
	return sb.String()
}
