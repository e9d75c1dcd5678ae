// Package elements implements a representative sample of NML's rule
// set: enough distinct rule shapes (section headers, reference
// targets and links, variables, file imports, script evaluation, and
// highlighted code) to exercise every layer below it — the scope
// tree, the element capability interfaces, the kernel bridge, the
// cache resolver, and the compiler — the way the full rule set would.
package elements

import (
	"fmt"
	"regexp"

	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// sectionKind bits, mirroring the original's section_kind constants.
const (
	sectionNone     = 0
	sectionNoTOC    = 1 << 0
	sectionNoNumber = 1 << 1
)

// Section is a heading element: `# Title`, with an optional reference
// name (`#{refname} Title`) and an optional `*`/`+` suffix suppressing
// numbering and/or table-of-contents inclusion.
type Section struct {
	element.Base
	Title     string
	Depth     int
	SectFlags int
	Ref       nmlscope.Refname

	link string
}

func (s *Section) Kind() element.Kind { return element.Block }
func (s *Section) Name() string       { return "Section" }

func (s *Section) Refname() nmlscope.Refname { return s.Ref }
func (s *Section) RefcountKey() string       { return "section" }
func (s *Section) Caption() string           { return s.Title }
func (s *Section) Link() string              { return s.link }
func (s *Section) SetLink(link string)       { s.link = link }

// Compile renders this section as an `<hN>` heading, numbering it
// unless sectionNoNumber is set.
func (s *Section) Compile(ctx *compiler.Context, out *compiler.Output) error {
	id := ctx.Refname(s.Title)
	numbering := ""
	if s.SectFlags&sectionNoNumber == 0 {
		numbering = compiler.FormatNumbering(ctx.SectionCounter(s.Depth))
	}
	out.AddContent(fmt.Sprintf(
		`<h%d id="%s">%s%s</h%d>`,
		s.Depth, id, numbering, ctx.Sanitize(s.Title), s.Depth,
	))
	return nil
}

// CompileReference renders a link to this section for a Reference
// element that resolved to it.
func (s *Section) CompileReference(ctx *compiler.Context, refid int, caption string) (string, error) {
	if caption == "" {
		caption = fmt.Sprintf("(%s)", ctx.Sanitize(s.Title))
	}
	return fmt.Sprintf(`<a class="section-reference" href="#%s">%s</a>`, ctx.Refname(s.Title), caption), nil
}

var sectionRe = regexp.MustCompile(`(?:^|\n)(#{1,6})(?:\{([^}]*)\})?([*+]{0,2})[^\S\r\n]*(.*)`)

// SectionRule recognizes `#`-prefixed headings.
type SectionRule struct{}

func (SectionRule) Name() string               { return "Section" }
func (SectionRule) Target() ruleset.Target      { return ruleset.Block }
func (SectionRule) Regexes() []*regexp.Regexp   { return []*regexp.Regexp{sectionRe} }
func (SectionRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return !mode.ParagraphOnly
}

func (SectionRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	depth := group(tok, match, 1)
	refname := group(tok, match, 2)
	suffix := group(tok, match, 3)
	title := group(tok, match, 4)

	kind := sectionNone
	switch suffix {
	case "*", "+*", "*+":
		kind |= sectionNoNumber
	}
	switch suffix {
	case "+", "+*", "*+":
		kind |= sectionNoTOC
	}

	var refn nmlscope.Refname
	if refname != "" {
		refn = nmlscope.Refname{Kind: nmlscope.RefnameInternal, Name: refname}
		if existing, ok := u.GetReference(refname); ok {
			u.Report(*diagnostic.NewWarning(tok.Source, "duplicate reference name").
				WithSpan(tok, fmt.Sprintf("%q is already defined", refname)).
				WithSpan(existing.Location(), "previously defined here"))
		}
	}

	section := &Section{
		Base:      element.Base{Loc: tok},
		Title:     title,
		Depth:     len(depth),
		SectFlags: kind,
		Ref:       refn,
	}
	u.AddContent(section)
	if refname != "" {
		u.AddReference(section)
	}
}

// group returns the text of submatch i (1-indexed group), or "" if the
// group didn't participate.
func group(tok source.Token, match []int, i int) string {
	lo, hi := match[2*i], match[2*i+1]
	if lo < 0 {
		return ""
	}
	return tok.Source.Content()[lo:hi]
}
