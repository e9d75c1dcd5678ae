package elements_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/nml/internal/cache"
	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/elements"
	"github.com/termfx/nml/internal/kernel"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

func newParsedUnit(t *testing.T, path, content string) *unit.Unit {
	t.Helper()
	f := source.NewFileWithContent(path, content, nil)
	u := unit.New(path, f, false)

	registry := ruleset.NewRegistry()
	elements.Register(registry)

	prevReparse := kernel.Reparse
	kernel.Reparse = func(u *unit.Unit) {
		registry.Parser().Parse(u, ruleset.ParseMode{})
	}
	t.Cleanup(func() { kernel.Reparse = prevReparse })

	parser := registry.Parser()
	parser.Parse(u, ruleset.ParseMode{})
	return u
}

func compileContents(t *testing.T, u *unit.Unit) string {
	t.Helper()
	ctx := compiler.NewContext(compiler.HTML, nil)
	out, reports := compiler.CompileUnit(u, ctx)
	require.Empty(t, reports)
	return out.String()
}

func TestSectionRendersHeadingWithNumbering(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", "# Hello World")
	got := compileContents(t, u)
	assert.Contains(t, got, "<h1")
	assert.Contains(t, got, "Hello World")
	assert.Contains(t, got, "1. ")
}

func TestSectionWithRefnameIsReferenceable(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", "#{intro} Introduction")
	ref, ok := u.GetReference("intro")
	require.True(t, ok)
	assert.Equal(t, "Introduction", ref.Caption())
}

func TestSectionNoNumberSuffixSkipsNumbering(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", "#* Untitled")
	got := compileContents(t, u)
	assert.NotContains(t, got, "1. ")
}

func TestVariableDeclarationAndSubstitution(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", ":set name = World\n%name%")
	got := compileContents(t, u)
	assert.Contains(t, got, "World")
}

func TestVariableSubstitutionUndefinedReportsDiagnostic(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", "%missing%")
	reports := u.DrainReports()
	require.NotEmpty(t, reports)
}

func TestVariableDeclarationBareMissingEqualsReportsDiagnostic(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", ":set name World")
	reports := u.DrainReports()
	require.NotEmpty(t, reports)
}

func TestVariableDeclarationQuotedForms(t *testing.T) {
	cases := []struct {
		name, decl string
	}{
		{"single", ":set a = 'one'"},
		{"double", `:set a = "one"`},
		{"triple-single", ":set a = '''one'''"},
		{"triple-double", `:set a = """one"""`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u := newParsedUnit(t, "doc.nml", c.decl+"\n%a%")
			got := compileContents(t, u)
			assert.Contains(t, got, "one")
		})
	}
}

func TestVariableDeclarationBraceContentIsReparsedOnEachUse(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", ":set greet = {{# Hi}}\n%greet%\n%greet%")
	got := compileContents(t, u)
	assert.Equal(t, 2, strings.Count(got, "<h1"))
}

func TestReferenceResolvesAgainstSection(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", "#{intro} Introduction\n&{intro}")

	c, err := cache.Connect(":memory:", false)
	require.NoError(t, err)
	defer c.Close()

	resolver, err := cache.NewResolver(c, []*unit.Unit{u})
	require.NoError(t, err)

	ctx := compiler.NewContext(compiler.HTML, resolver)
	reports := compiler.ResolveLinks(u, ctx)
	assert.Empty(t, reports)

	out, compileReports := compiler.CompileUnit(u, ctx)
	assert.Empty(t, compileReports)
	assert.Contains(t, out.String(), `class="section-reference"`)
	assert.Contains(t, out.String(), "Introduction")
}

func TestCodeBlockHighlightsGoSource(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", "```go\npackage main\n```")
	got := compileContents(t, u)
	assert.Contains(t, got, `data-language="go"`)
	assert.Contains(t, got, "package")
}

func TestCodeBlockWithoutLanguageStillRenders(t *testing.T) {
	u := newParsedUnit(t, "doc.nml", "```\nplain text\n```")
	got := compileContents(t, u)
	assert.Contains(t, got, "plain text")
	reports := u.DrainReports()
	assert.NotEmpty(t, reports)
}
