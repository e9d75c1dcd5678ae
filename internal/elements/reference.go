package elements

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// Reference is a link to a Referenceable element elsewhere in this
// unit, or in another unit addressed as `unit#name`, resolved during
// the compiler's link-resolution pass rather than at parse time
// (the target may not exist yet when this element is parsed).
type Reference struct {
	element.Base
	Want    nmlscope.Refname
	Caption string
	Owner   *unit.Unit

	resolved nmlscope.Reference
	link     string
	pending  bool
}

func (r *Reference) Kind() element.Kind { return element.Inline }
func (r *Reference) Name() string       { return "Reference" }

func (r *Reference) WantsRefname() nmlscope.Refname { return r.Want }
func (r *Reference) WantsLink() bool                { return r.pending }

func (r *Reference) SetLink(ref nmlscope.Reference, link string) {
	r.resolved = ref
	r.link = link
	r.pending = false
}

// Compile renders the resolved link. When the target is in the same
// unit and implements ReferenceCompilable, it renders the whole anchor
// itself (so, e.g., a Section can show "(see Introduction)" styling);
// otherwise Reference falls back to a plain link using its own caption
// or the refname.
func (r *Reference) Compile(ctx *compiler.Context, out *compiler.Output) error {
	if r.pending {
		return fmt.Errorf("reference to %q never resolved", r.Want)
	}

	if r.Want.Kind == nmlscope.RefnameInternal && r.Owner != nil {
		if target, ok := r.Owner.GetReference(r.Want.Name); ok {
			if refCompilable, ok := target.(compiler.ReferenceCompilable); ok {
				rendered, err := refCompilable.CompileReference(ctx, ctx.RefID(target.RefcountKey()), r.Caption)
				if err != nil {
					return err
				}
				out.AddContent(rendered)
				return nil
			}
		}
	}

	caption := r.Caption
	if caption == "" {
		caption = ctx.Sanitize(r.Want.String())
	}
	out.AddContent(fmt.Sprintf(`<a class="reference" href="%s">%s</a>`, r.link, caption))
	return nil
}

var referenceRe = regexp.MustCompile(`&\{(.*?)\}(?:\[((?:\\.|[^\\.])*?)\])?`)

// ReferenceRule recognizes `&{name}` and `&{name}[caption]`, and the
// external form `&{unit#name}`.
type ReferenceRule struct{}

func (ReferenceRule) Name() string             { return "Reference" }
func (ReferenceRule) Target() ruleset.Target   { return ruleset.Inline }
func (ReferenceRule) Regexes() []*regexp.Regexp { return []*regexp.Regexp{referenceRe} }
func (ReferenceRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return true
}

func (ReferenceRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	name := group(tok, match, 1)
	caption := group(tok, match, 2)

	want := nmlscope.Refname{Kind: nmlscope.RefnameInternal, Name: name}
	if sep := strings.IndexByte(name, '#'); sep >= 0 {
		want = nmlscope.Refname{Kind: nmlscope.RefnameExternal, Unit: name[:sep], Name: name[sep+1:]}
	}
	if name == "" {
		u.Report(*diagnostic.NewError(tok.Source, "empty reference name").WithSpan(tok, "expected a name between the braces"))
		return
	}

	u.AddContent(&Reference{
		Base:    element.Base{Loc: tok},
		Want:    want,
		Caption: caption,
		Owner:   u,
		pending: true,
	})
}
