package elements

import (
	"regexp"
	"strings"

	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/kernel"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

var scriptBlockRe = regexp.MustCompile(`(?s)(?:^|\n)@<([^\n]*)\n?((?:\\.|[^\\])*?)(?:\n?)>@`)

// ScriptRule recognizes `@<name['|!]\n ... >@` blocks: it emits a
// kernel.PostProcess, and the named kernel runs the enclosed source
// after the whole unit has been parsed. The header
// line's trailing sigil selects what happens to the result, per
// kernel.ParseEvalKind: none discards it, `'` emits it as plain text,
// `!` re-parses it as further nml content.
type ScriptRule struct{}

func (ScriptRule) Name() string              { return "Script" }
func (ScriptRule) Target() ruleset.Target    { return ruleset.Command }
func (ScriptRule) Regexes() []*regexp.Regexp { return []*regexp.Regexp{scriptBlockRe} }
func (ScriptRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return !mode.ParagraphOnly
}

func (ScriptRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	header := group(tok, match, 1)
	body := group(tok, match, 2)

	sigil := ""
	switch {
	case strings.HasSuffix(header, "!"):
		sigil = "!"
		header = strings.TrimSuffix(header, "!")
	case strings.HasSuffix(header, "'"):
		sigil = "'"
		header = strings.TrimSuffix(header, "'")
	}
	evalKind, err := kernel.ParseEvalKind(sigil)
	if err != nil {
		u.Report(*diagnostic.NewError(tok.Source, err.Error()).WithSpan(tok, "in this script block"))
		return
	}

	kernelName := strings.TrimSpace(header)
	if kernelName == "" {
		kernelName = "main"
	}
	if strings.ContainsAny(kernelName, " \t") {
		u.Report(*diagnostic.NewError(tok.Source, "invalid kernel name").
			WithSpan(tok, "kernel name cannot contain whitespace"))
		return
	}

	virtual := source.NewVirtual(tok, ":SCRIPT:"+kernelName, body)
	pp := &kernel.PostProcess{
		Base:       element.Base{Loc: tok},
		KernelName: kernelName,
		EvalKind:   evalKind,
		Content:    virtual,
	}
	u.AddContent(pp)
}
