// Package diagnostic implements the report sink: structured
// errors/warnings carrying labeled source spans, rendered either with
// ANSI colors for a terminal or plainly for machine consumption.
package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/termfx/nml/internal/source"
)

// Severity classifies a Report.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Span labels one token within a Report, carrying a short message
// explaining why that span is relevant.
type Span struct {
	Token   source.Token
	Message string
}

// Report is one diagnostic: a severity, a headline message, any number
// of labeled spans, and optional note/help text.
type Report struct {
	Severity Severity
	Source   source.Source
	Message  string
	Note     string
	Help     string
	Spans    []Span
}

// NewError starts an Error report against src.
func NewError(src source.Source, message string) *Report {
	return &Report{Severity: Error, Source: src, Message: message}
}

// NewWarning starts a Warning report against src.
func NewWarning(src source.Source, message string) *Report {
	return &Report{Severity: Warning, Source: src, Message: message}
}

// WithSpan appends a labeled span and returns the report, for chaining.
func (r *Report) WithSpan(tok source.Token, message string) *Report {
	r.Spans = append(r.Spans, Span{Token: tok, Message: message})
	return r
}

// WithNote sets the report's note text.
func (r *Report) WithNote(note string) *Report {
	r.Note = note
	return r
}

// WithHelp sets the report's help text.
func (r *Report) WithHelp(help string) *Report {
	r.Help = help
	return r
}

// Colors selects the ANSI color codes used to render reports. Disabled
// colors render every code as the empty string.
type Colors struct {
	enabled bool
}

// WithColors returns a Colors set that renders ANSI escapes.
func WithColors() Colors { return Colors{enabled: true} }

// WithoutColors returns a Colors set that renders plain text.
func WithoutColors() Colors { return Colors{} }

func (c Colors) color(code string) string {
	if !c.enabled {
		return ""
	}
	return code
}

func (c Colors) reset() string { return c.color("\x1b[0m") }

func (c Colors) forSeverity(s Severity) string {
	if s == Warning {
		return c.color("\x1b[33m")
	}
	return c.color("\x1b[31m")
}

// Render formats r as a human-readable diagnostic, resolving every
// span's position back to its originating file via
// source.OriginalPosition so included/virtual content always points at
// real source locations.
func (r *Report) Render(colors Colors) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s%s: %s\n", colors.forSeverity(r.Severity), r.Severity, colors.reset(), r.Message)

	spans := make([]Span, len(r.Spans))
	copy(spans, r.Spans)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Token.Start < spans[j].Token.Start })

	for _, span := range spans {
		file, pos := source.OriginalPosition(span.Token.Source, span.Token.Start)
		name := span.Token.Source.Name()
		if file != nil {
			name = file.Name()
			lc := source.FromPosition(file, source.UTF8, 0, 0)
			lc.MoveTo(pos)
			fmt.Fprintf(&b, "  --> %s:%d:%d\n", name, lc.Line+1, lc.LinePos+1)
		} else {
			fmt.Fprintf(&b, "  --> %s\n", name)
		}
		if span.Message != "" {
			fmt.Fprintf(&b, "      %s\n", span.Message)
		}
	}

	if r.Note != "" {
		fmt.Fprintf(&b, "  note: %s\n", r.Note)
	}
	if r.Help != "" {
		fmt.Fprintf(&b, "  help: %s\n", r.Help)
	}
	return b.String()
}
