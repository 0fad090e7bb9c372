// Package diagnostics renders located compiler errors in the uniform
// format of spec.md §6: a kind/message line, a "--> file:line:col" (or
// "[L:C-L:C]" for a multi-character span) locator line, and a caret line
// under the offending source excerpt.
//
// Grounded on original_source/src/source.rs's Located/caret rendering,
// translated onto source.File's precomputed line table.
package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/skx/animationled-compiler/source"
	"github.com/skx/animationled-compiler/token"
)

// Located is implemented by every stage's error type (lexer.Error,
// parser.ParseError, resolver.Error): it carries the source span the
// diagnostic should be anchored to.
type Located interface {
	error
	At() token.Span
}

// Printer renders a batch of diagnostics from one compilation stage
// against one source file.
type Printer struct {
	File *source.File
	Out  io.Writer
}

// New returns a Printer writing to w, anchored at file.
func New(file *source.File, w io.Writer) *Printer {
	return &Printer{File: file, Out: w}
}

// Report prints one block per error, tagged with kind ("Lexical error",
// "Syntax error", "Semantic error", ...), then a trailing
// "Build failed with N error(s)." summary line, and returns the count
// (main.go exits with status 1 whatever the count).
func (p *Printer) Report(kind string, errs []error) int {
	for _, err := range errs {
		p.reportOne(kind, err)
	}
	if len(errs) > 0 {
		fmt.Fprintf(p.Out, "Build failed with %d error(s).\n", len(errs))
	}
	return len(errs)
}

func (p *Printer) reportOne(kind string, err error) {
	fmt.Fprintf(p.Out, "%s: %s\n", kind, err.Error())

	loc, ok := err.(Located)
	if !ok {
		fmt.Fprintf(p.Out, "  --> %s\n\n", p.File.Name)
		return
	}
	span := loc.At()

	if span.Start == span.End || (span.Start.Line == span.End.Line && span.End.Col-span.Start.Col <= 1) {
		fmt.Fprintf(p.Out, "  --> %s:%d:%d\n", p.File.Name, span.Start.Line, span.Start.Col)
	} else {
		fmt.Fprintf(p.Out, "  --> %s:[%d:%d-%d:%d]\n", p.File.Name,
			span.Start.Line, span.Start.Col, span.End.Line, span.End.Col)
	}

	line := p.File.Line(span.Start.Line)
	fmt.Fprintf(p.Out, "    %s\n", line)

	width := span.End.Col - span.Start.Col
	if span.End.Line != span.Start.Line || width < 1 {
		width = 1
	}
	fmt.Fprintf(p.Out, "    %s%s\n\n", strings.Repeat(" ", span.Start.Col-1), strings.Repeat("^", width))
}
