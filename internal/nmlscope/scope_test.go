package nmlscope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/source"
)

type fakeElement struct {
	loc source.Token
}

func (f fakeElement) Location() source.Token { return f.loc }

func newTestScope(t *testing.T, content string) (*nmlscope.Scope, *source.File) {
	t.Helper()
	f := source.NewFileWithContent("doc.nml", content, nil)
	return nmlscope.New(nil, f, 0, true), f
}

func TestScopeAddAndGetContent(t *testing.T) {
	s, f := newTestScope(t, "hello world")
	e1 := fakeElement{loc: source.NewToken(f, 0, 5)}
	e2 := fakeElement{loc: source.NewToken(f, 6, 11)}
	s.AddContent(e1)
	s.AddContent(e2)

	assert.Equal(t, 2, s.ContentLen())
	got, ok := s.GetContent(0)
	require.True(t, ok)
	assert.Equal(t, e1, got)

	last, ok := s.ContentLast()
	require.True(t, ok)
	assert.Equal(t, e2, last)

	assert.Equal(t, 11, s.Token().End)
}

func TestScopeAddContentPanicsOnMismatchedSource(t *testing.T) {
	s, _ := newTestScope(t, "abc")
	other := source.NewFileWithContent("other.nml", "xyz", nil)
	assert.Panics(t, func() {
		s.AddContent(fakeElement{loc: source.NewToken(other, 0, 1)})
	})
}

func TestScopeVariableLookupRecursesToParent(t *testing.T) {
	parent, f := newTestScope(t, "")
	name, err := nmlscope.NewName("title")
	require.NoError(t, err)
	v := &nmlscope.PropertyVariable{
		Name_: name,
		Vis:   nmlscope.Exported,
		Loc:   source.EntireSource(f),
		Kind:  nmlscope.PropertyString,
		StringValue: "hello",
	}
	parent.InsertVariable(v)

	child := parent.NewChild(f, true)
	got, declScope, ok := child.GetVariable(name)
	require.True(t, ok)
	assert.Same(t, parent, declScope)
	assert.Equal(t, "hello", got.String())
}

func TestScopeAddImportOnlyCopiesExported(t *testing.T) {
	imported, f := newTestScope(t, "")
	exportedName, _ := nmlscope.NewName("pub")
	internalName, _ := nmlscope.NewName("priv")
	imported.InsertVariable(&nmlscope.PropertyVariable{Name_: exportedName, Vis: nmlscope.Exported, Kind: nmlscope.PropertyInt, IntValue: 1})
	imported.InsertVariable(&nmlscope.PropertyVariable{Name_: internalName, Vis: nmlscope.Internal, Kind: nmlscope.PropertyInt, IntValue: 2})

	dest, _ := newTestScope(t, "")
	dest.AddImport(imported)

	_, _, ok := dest.GetVariable(exportedName)
	assert.True(t, ok)
	_, _, ok = dest.GetVariable(internalName)
	assert.False(t, ok)
}

func TestWithState(t *testing.T) {
	s, _ := newTestScope(t, "")
	type counter struct{ n int }
	s.SetState("counter", &counter{n: 41})

	result, ok := nmlscope.WithState[counter](s, "counter", func(c *counter) int {
		c.n++
		return c.n
	})
	require.True(t, ok)
	assert.Equal(t, 42, result)
	assert.True(t, s.HasState("counter"))
}

func TestWithStateMissingEntry(t *testing.T) {
	s, _ := newTestScope(t, "")
	type counter struct{ n int }
	_, ok := nmlscope.WithState[counter](s, "missing", func(c *counter) int { return c.n })
	assert.False(t, ok)
}

type fakeContainer struct {
	fakeElement
	children []*nmlscope.Scope
}

func (f fakeContainer) Contained() []*nmlscope.Scope { return f.children }

func TestContentIteratorRecursesIntoContainers(t *testing.T) {
	root, f := newTestScope(t, "")
	child := root.NewChild(f, true)
	child.AddContent(fakeElement{loc: source.NewToken(f, 0, 1)})

	container := fakeContainer{
		fakeElement: fakeElement{loc: source.NewToken(f, 0, 1)},
		children:    []*nmlscope.Scope{child},
	}
	root.AddContent(container)

	it := nmlscope.NewIterator(root, true)
	var items []nmlscope.Item
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		items = append(items, item)
	}
	require.Len(t, items, 2)
	assert.Same(t, root, items[0].Scope)
	assert.Same(t, child, items[1].Scope)
}
