package diagnostic

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/termfx/nml/internal/source"
)

// DuplicateReference builds the standard "reference `name` is already
// declared" report, labeling both the new and the previous declaring
// spans. When the two declaring tokens' enclosing lines differ, a
// unified diff between them is attached as a note, so a reader sees at
// a glance what changed between the two declarations instead of just
// two bare line numbers.
func DuplicateReference(src source.Source, name string, newTok, prevTok source.Token) *Report {
	r := NewWarning(src, fmt.Sprintf("reference `%s` is already declared", name)).
		WithSpan(newTok, "redeclared here").
		WithSpan(prevTok, "previously declared here")

	newLine := enclosingLine(newTok)
	prevLine := enclosingLine(prevTok)
	if newLine != prevLine {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(prevLine),
			B:        difflib.SplitLines(newLine),
			FromFile: "previous",
			ToFile:   "new",
			Context:  0,
		}
		text, err := difflib.GetUnifiedDiffString(diff)
		if err == nil && strings.TrimSpace(text) != "" {
			r = r.WithNote(text)
		}
	}
	return r
}

// enclosingLine returns the full source line containing tok's start,
// for use in diagnostic context.
func enclosingLine(tok source.Token) string {
	content := tok.Source.Content()
	start := strings.LastIndexByte(content[:tok.Start], '\n') + 1
	end := strings.IndexByte(content[tok.Start:], '\n')
	if end == -1 {
		return content[start:]
	}
	return content[start : tok.Start+end]
}
