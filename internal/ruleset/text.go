package ruleset

import (
	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/source"
)

// Text is the element the dispatch loop emits for the content between
// two rule matches, after escape/newline cleanup (see
// source.CleanText). It is the only element type the parser itself
// constructs — every other element comes from a rule's OnRegexMatch.
type Text struct {
	element.Base
	Content string
}

func (t Text) Kind() element.Kind { return element.Inline }
func (t Text) Name() string       { return "Text" }

// Compile emits this text verbatim, sanitized for the compile target.
// Raw source text is never trusted HTML, even when the target is HTML.
func (t Text) Compile(ctx *compiler.Context, out *compiler.Output) error {
	out.AddContent(ctx.Sanitize(t.Content))
	return nil
}

// newText builds a Text element from raw source content between two
// cursors. It reports false, with a zero Text, when the cleaned content
// is empty.
func newText(tok source.Token) (Text, bool) {
	cleaned := source.CleanText(tok.Content())
	if cleaned == "" {
		return Text{}, false
	}
	return Text{Base: element.Base{Loc: tok}, Content: cleaned}, true
}
