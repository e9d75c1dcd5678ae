package unit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

func TestConsumeSeedsBuiltinVariables(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "hello", nil)
	u := unit.New("doc", f, false)

	reports := u.Consume("doc.html", func(u *unit.Unit) {})
	assert.Empty(t, reports)

	require.NotNil(t, u.Output())
	assert.Equal(t, "doc", u.Output().InputFile)
	assert.Equal(t, "doc.html", u.Output().OutputFile)
}

func TestWithChildRestoresScopeAndRunsEndHooks(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "hello", nil)
	u := unit.New("doc", f, false)
	root := u.CurrentScope()

	var seenChild *nmlscope.Scope
	u.WithChild(f, true, func(child *nmlscope.Scope) {
		seenChild = child
		assert.Same(t, child, u.CurrentScope())
	})

	require.NotNil(t, seenChild)
	assert.NotSame(t, root, seenChild)
	assert.Same(t, root, u.CurrentScope())
}

func TestWithData(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "x", nil)
	u := unit.New("doc", f, false)
	type counter struct{ n int }
	u.SetData("counter", &counter{n: 1})

	result, ok := unit.WithData[counter](u, "counter", func(c *counter) int {
		c.n++
		return c.n
	})
	require.True(t, ok)
	assert.Equal(t, 2, result)
}

func TestUpdateSettingsDefaultsWhenDocumentSetsNothing(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "x", nil)
	u := unit.New("doc", f, false)
	u.Consume("doc.html", func(u *unit.Unit) {})

	u.UpdateSettings("en", "icon.png", "style.css")
	require.NotNil(t, u.Output())
	assert.Equal(t, "en", u.Output().Language)
	assert.Equal(t, "icon.png", u.Output().Icon)
	assert.Equal(t, "style.css", u.Output().CSS)
}

func TestUpdateSettingsOverriddenByDocumentVariable(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "x", nil)
	u := unit.New("doc", f, false)
	u.Consume("doc.html", func(u *unit.Unit) {})

	name, err := nmlscope.NewName("html.language")
	require.NoError(t, err)
	u.EntryScope().InsertVariable(&nmlscope.PropertyVariable{
		Name_: name, Kind: nmlscope.PropertyString, StringValue: "fr",
	})

	u.UpdateSettings("en", "", "")
	assert.Equal(t, "fr", u.Output().Language)
}

func TestReport(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "x", nil)
	u := unit.New("doc", f, false)
	u.Report(*diagnostic.NewError(f, "bad"))
	reports := u.DrainReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "bad", reports[0].Message)
}
