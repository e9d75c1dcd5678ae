package kernel

import (
	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// PostProcess is the element a script rule emits during parsing: the
// script itself isn't run until Process is called, after the whole
// unit has been parsed once, so a script can reference content defined
// anywhere in the unit (not just what came before it textually).
type PostProcess struct {
	element.Base
	KernelName string
	EvalKind   EvalKind
	Content    source.Source

	expanded  []*nmlscope.Scope
	processed bool
}

func (p *PostProcess) Kind() element.Kind { return element.Compound }
func (p *PostProcess) Name() string       { return "Script" }

func (p *PostProcess) Contained() []*nmlscope.Scope { return p.expanded }

func (p *PostProcess) NestedKind() element.Kind {
	return element.ComputeNestedKind(p)
}

// Process runs this element's script on its named kernel, in a child
// scope of u's current scope. A String result is emitted as plain
// text; a StringParse result is re-parsed, in its own further child
// scope, as nml content.
func (p *PostProcess) Process(u *unit.Unit) {
	if p.processed {
		panic("kernel: PostProcess.Process called twice for the same script block")
	}
	p.processed = true

	Initialize(u)
	WithKernel(u, p.KernelName, func(u *unit.Unit, k *Kernel) {
		u.WithChild(p.Content, true, func(child *nmlscope.Scope) {
			ctx := &Context{Unit: u, Location: p.Loc, Kernel: k}
			result, err := k.RunWithContext(ctx, p.Content.Content(), p.Content.Name(), p.EvalKind)
			if err != nil {
				u.Report(*diagnostic.NewError(p.Loc.Source, "script evaluation failed").
					WithSpan(p.Loc, err.Error()))
				p.expanded = append(p.expanded, child)
				return
			}

			switch p.EvalKind {
			case EvalString:
				if result != "" {
					u.AddContent(textResult{Base: element.Base{Loc: source.EntireSource(p.Content)}, content: result})
				}
				p.expanded = append(p.expanded, child)
			case EvalStringParse:
				if result != "" {
					virtual := source.NewVirtual(p.Loc, ":SCRIPT:"+p.Content.Name(), result)
					u.WithChild(virtual, true, func(grandchild *nmlscope.Scope) {
						p.reparse(u, grandchild)
						p.expanded = append(p.expanded, grandchild)
					})
				} else {
					p.expanded = append(p.expanded, child)
				}
			default:
				p.expanded = append(p.expanded, child)
			}
		})
	})
}

// Reparse re-runs the full dispatch loop over u's current scope. It is
// installed by cmd/nmlc, which owns the rule registry (ruleset can't be
// imported here without creating an import cycle). Until it's
// installed it does nothing, so a StringParse result's grandchild scope
// stays empty.
var Reparse func(u *unit.Unit) = func(*unit.Unit) {}

func (p *PostProcess) reparse(u *unit.Unit, scope *nmlscope.Scope) {
	Reparse(u)
}

// textResult is the plain-text element produced by an EvalString
// script, equivalent to ruleset.Text but defined locally to avoid
// kernel depending on ruleset.
type textResult struct {
	element.Base
	content string
}

func (t textResult) Kind() element.Kind { return element.Inline }
func (t textResult) Name() string       { return "Text" }

// Compile emits the script's result sanitized for the compile target,
// as ruleset.Text does for source text.
func (t textResult) Compile(ctx *compiler.Context, out *compiler.Output) error {
	out.AddContent(ctx.Sanitize(t.content))
	return nil
}
