package ruleset_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// testMarker is a minimal element a test rule emits, so the dispatch
// loop test can check that Text and rule output interleave correctly.
type testMarker struct {
	element.Base
	name string
}

func (m testMarker) Kind() element.Kind { return element.Inline }
func (m testMarker) Name() string       { return m.name }

type greetingRule struct {
	re *regexp.Regexp
}

func newGreetingRule() *greetingRule {
	return &greetingRule{re: regexp.MustCompile(`\[\[(\w+)]]`)}
}

func (g *greetingRule) Name() string              { return "Greeting" }
func (g *greetingRule) Target() ruleset.Target    { return ruleset.Inline }
func (g *greetingRule) Regexes() []*regexp.Regexp { return []*regexp.Regexp{g.re} }
func (g *greetingRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return true
}
func (g *greetingRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	u.AddContent(testMarker{Base: element.Base{Loc: tok}, name: tok.Content()})
}

func TestParserEmitsTextAndRuleMatches(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", "hello [[world]] bye", nil)
	u := unit.New("doc", f, false)

	registry := ruleset.NewRegistry()
	registry.Register(ruleset.Adapt(newGreetingRule()))
	parser := registry.Parser()

	parser.Parse(u, ruleset.ParseMode{})

	var texts []string
	var markers []string
	scope := u.CurrentScope()
	for i := 0; i < scope.ContentLen(); i++ {
		elem, ok := scope.GetContent(i)
		require.True(t, ok)
		switch v := elem.(type) {
		case ruleset.Text:
			texts = append(texts, v.Content)
		case testMarker:
			markers = append(markers, v.name)
		}
	}
	assert.Equal(t, []string{"[[world]]"}, markers)
	require.Len(t, texts, 2)
	assert.Equal(t, "hello ", texts[0])
	assert.Equal(t, " bye", texts[1])
}

func TestEscapedMatchIsBackedOff(t *testing.T) {
	f := source.NewFileWithContent("doc.nml", `a \[[world]] b`, nil)
	u := unit.New("doc", f, false)

	registry := ruleset.NewRegistry()
	registry.Register(ruleset.Adapt(newGreetingRule()))
	parser := registry.Parser()
	parser.Parse(u, ruleset.ParseMode{})

	scope := u.CurrentScope()
	for i := 0; i < scope.ContentLen(); i++ {
		elem, ok := scope.GetContent(i)
		require.True(t, ok)
		_, isMarker := elem.(testMarker)
		assert.False(t, isMarker, "escaped match must not fire the rule")
	}
}
