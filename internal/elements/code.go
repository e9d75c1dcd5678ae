package elements

import (
	"context"
	"fmt"
	"html"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// languages maps a fenced code block's declared language name to the
// tree-sitter grammar used to highlight it. Unrecognized names fall
// back to unhighlighted, escaped text.
var languages = map[string]func() *sitter.Language{
	"go":         golang.GetLanguage,
	"golang":     golang.GetLanguage,
	"javascript": javascript.GetLanguage,
	"js":         javascript.GetLanguage,
	"python":     python.GetLanguage,
	"py":         python.GetLanguage,
}

// Code is a fenced code block: ```lang\n...\n```. When the compile
// Context carries a Cache, highlighting is stored per distinct
// (language, source) pair and reused; with no Cache it is recomputed on
// every Compile. The cache exists since
// parsing and walking a tree-sitter tree is comparatively expensive
// and the same snippet is often compiled more than once (a changed
// file elsewhere in the unit, an incremental rebuild, an @import of
// shared content).
type Code struct {
	element.Base
	Language string
	Source   string
}

func (c *Code) Kind() element.Kind { return element.Block }
func (c *Code) Name() string       { return "Code" }

func (c *Code) Compile(ctx *compiler.Context, out *compiler.Output) error {
	render := func() (string, error) { return highlight(c.Language, c.Source) }

	var (
		rendered string
		err      error
	)
	if ctx.Cache != nil {
		rendered, err = ctx.Cache.Code(c.Language, c.Source, render)
	} else {
		rendered, err = render()
	}
	if err != nil {
		return err
	}

	out.AddContent(fmt.Sprintf(`<pre class="code-block" data-language="%s"><code>%s</code></pre>`,
		html.EscapeString(c.Language), rendered))
	return nil
}

// highlight renders source as a sequence of `<span class="tok-TYPE">`
// leaves, walking the tree-sitter parse tree depth-first and emitting
// each leaf token's own escaped text; unrecognized languages are
// emitted verbatim, escaped but unhighlighted.
func highlight(language, src string) (string, error) {
	factory, ok := languages[language]
	if !ok {
		return html.EscapeString(src), nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(factory())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil {
		return "", fmt.Errorf("parsing %s source: %w", language, err)
	}

	var b []byte
	pos := 0
	walkLeaves(tree.RootNode(), func(n *sitter.Node) {
		start, end := int(n.StartByte()), int(n.EndByte())
		if start > pos {
			b = append(b, html.EscapeString(src[pos:start])...)
		}
		text := html.EscapeString(src[start:end])
		b = append(b, fmt.Sprintf(`<span class="tok-%s">%s</span>`, n.Type(), text)...)
		pos = end
	})
	if pos < len(src) {
		b = append(b, html.EscapeString(src[pos:])...)
	}
	return string(b), nil
}

// walkLeaves visits every leaf node (no children) of n in document
// order, calling visit on each.
func walkLeaves(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	count := int(n.ChildCount())
	if count == 0 {
		if n.EndByte() > n.StartByte() {
			visit(n)
		}
		return
	}
	for i := 0; i < count; i++ {
		walkLeaves(n.Child(i), visit)
	}
}

var codeBlockRe = regexp.MustCompile("(?s)(?:^|\n)```([a-zA-Z0-9_+-]*)\n(.*?)\n```")

// CodeRule recognizes fenced code blocks.
type CodeRule struct{}

func (CodeRule) Name() string              { return "Code" }
func (CodeRule) Target() ruleset.Target    { return ruleset.Block }
func (CodeRule) Regexes() []*regexp.Regexp { return []*regexp.Regexp{codeBlockRe} }
func (CodeRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return !mode.ParagraphOnly
}

func (CodeRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	lang := group(tok, match, 1)
	body := group(tok, match, 2)
	if lang == "" {
		u.Report(*diagnostic.NewWarning(tok.Source, "code block has no language").
			WithSpan(tok, "highlighting is skipped without a declared language"))
	}
	u.AddContent(&Code{Base: element.Base{Loc: tok}, Language: lang, Source: body})
}
