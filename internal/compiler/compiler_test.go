package compiler_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

func TestSectionCounterNumbersAndResetsDeeper(t *testing.T) {
	ctx := compiler.NewContext(compiler.HTML, nil)
	assert.Equal(t, []int{1}, ctx.SectionCounter(1))
	assert.Equal(t, []int{1, 1}, ctx.SectionCounter(2))
	assert.Equal(t, []int{2}, ctx.SectionCounter(1))
	assert.Equal(t, []int{2, 1}, ctx.SectionCounter(2))
}

func TestRefnameSlugifies(t *testing.T) {
	ctx := compiler.NewContext(compiler.HTML, nil)
	assert.Equal(t, "hello-world", ctx.Refname("Hello, World!"))
}

func TestSanitizeEscapesHTML(t *testing.T) {
	ctx := compiler.NewContext(compiler.HTML, nil)
	assert.Equal(t, "&lt;b&gt;", ctx.Sanitize("<b>"))
}

type fakeCompilable struct {
	element.Base
	text string
}

func (f *fakeCompilable) Kind() element.Kind { return element.Inline }
func (f *fakeCompilable) Name() string       { return "Fake" }
func (f *fakeCompilable) Compile(ctx *compiler.Context, out *compiler.Output) error {
	out.AddContent(f.text)
	return nil
}

func TestCompileUnitWalksScopeInOrder(t *testing.T) {
	src := source.NewFileWithContent("doc.nml", "ab", nil)
	u := unit.New("doc.nml", src, false)

	u.AddContent(&fakeCompilable{Base: element.Base{Loc: source.NewToken(src, 0, 1)}, text: "a"})
	u.AddContent(&fakeCompilable{Base: element.Base{Loc: source.NewToken(src, 1, 2)}, text: "b"})

	ctx := compiler.NewContext(compiler.HTML, nil)
	out, reports := compiler.CompileUnit(u, ctx)
	assert.Empty(t, reports)
	assert.Equal(t, "ab", out.String())
}

func TestOutputRunDeferredCollectsErrors(t *testing.T) {
	out := &compiler.Output{}
	out.Defer(func() error { return nil })
	out.Defer(func() error { return fmt.Errorf("boom") })

	errs := out.RunDeferred()
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "boom")
}

func TestCompileAllRunsEveryUnit(t *testing.T) {
	src1 := source.NewFileWithContent("a.nml", "x", nil)
	u1 := unit.New("a.nml", src1, false)
	u1.AddContent(&fakeCompilable{Base: element.Base{Loc: source.NewToken(src1, 0, 1)}, text: "A"})

	src2 := source.NewFileWithContent("b.nml", "y", nil)
	u2 := unit.New("b.nml", src2, false)
	u2.AddContent(&fakeCompilable{Base: element.Base{Loc: source.NewToken(src2, 0, 1)}, text: "B"})

	results := compiler.CompileAll([]*unit.Unit{u1, u2}, compiler.HTML, nil, 2)
	require.Len(t, results, 2)
	contents := []string{results[0].Output.String(), results[1].Output.String()}
	assert.ElementsMatch(t, []string{"A", "B"}, contents)
}
