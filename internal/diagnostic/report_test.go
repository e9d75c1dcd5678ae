package diagnostic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/source"
)

func TestRenderIncludesMessageAndSpans(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "line one\nline two\n", nil)
	r := diagnostic.NewError(f, "something went wrong").
		WithSpan(source.NewToken(f, 9, 13), "here").
		WithNote("a note").
		WithHelp("try this")

	out := r.Render(diagnostic.WithoutColors())
	assert.Contains(t, out, "error: something went wrong")
	assert.Contains(t, out, "doc.nml:2:1")
	assert.Contains(t, out, "note: a note")
	assert.Contains(t, out, "help: try this")
}

func TestDuplicateReferenceAddsDiffWhenLinesDiffer(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "%title foo%\n%title bar%\n", nil)
	first := source.NewToken(f, 0, 11)
	second := source.NewToken(f, 12, 23)

	r := diagnostic.DuplicateReference(f, "title", second, first)
	out := r.Render(diagnostic.WithoutColors())
	assert.Contains(t, out, "already declared")
	assert.Contains(t, out, "redeclared here")
	assert.Contains(t, out, "+%title bar%")
}
