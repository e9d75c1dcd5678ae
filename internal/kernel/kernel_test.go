package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/kernel"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

func TestParseEvalKind(t *testing.T) {
	k, err := kernel.ParseEvalKind("")
	require.NoError(t, err)
	assert.Equal(t, kernel.EvalNone, k)

	k, err = kernel.ParseEvalKind("'")
	require.NoError(t, err)
	assert.Equal(t, kernel.EvalString, k)

	k, err = kernel.ParseEvalKind("!")
	require.NoError(t, err)
	assert.Equal(t, kernel.EvalStringParse, k)

	_, err = kernel.ParseEvalKind("?")
	assert.Error(t, err)
}

func TestRunWithContextEvalNone(t *testing.T) {
	k := kernel.New("test")
	_, err := k.RunWithContext(&kernel.Context{}, `1 + 1`, "inline", kernel.EvalNone)
	assert.NoError(t, err)
}

func TestRunWithContextEvalString(t *testing.T) {
	k := kernel.New("test")
	result, err := k.RunWithContext(&kernel.Context{}, `"hello"`, "inline", kernel.EvalString)
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestPostProcessProcessPanicsOnSecondCall(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", `1 + 1`, nil)
	u := unit.New("doc", f, false)
	pp := &kernel.PostProcess{
		Base:       element.Base{Loc: source.EntireSource(f)},
		KernelName: "test",
		EvalKind:   kernel.EvalNone,
		Content:    f,
	}

	pp.Process(u)
	assert.Panics(t, func() { pp.Process(u) })
}

func TestPostProcessStringParseExpandsToReparsedGrandchild(t *testing.T) {
	prev := kernel.Reparse
	defer func() { kernel.Reparse = prev }()

	var reparsedScope *unit.Unit
	kernel.Reparse = func(u *unit.Unit) { reparsedScope = u }

	f := source.NewFileWithContent("doc.nml", `"hello"`, nil)
	u := unit.New("doc", f, false)
	pp := &kernel.PostProcess{
		Base:       element.Base{Loc: source.EntireSource(f)},
		KernelName: "test",
		EvalKind:   kernel.EvalStringParse,
		Content:    f,
	}

	pp.Process(u)

	require.Same(t, u, reparsedScope)
	require.Len(t, pp.Contained(), 1)
	assert.Contains(t, pp.Contained()[0].Source().Name(), ":SCRIPT:")
}
