package elements

import (
	"path/filepath"
	"regexp"

	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/kernel"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// Import is the element produced by `@import path` (or `@import[as
// name] path`): a child scope holding the imported file's own parsed
// content. Compiling an Import compiles everything the import pulled
// in, in place.
type Import struct {
	element.Base
	Path string
	As   string

	child *nmlscope.Scope
}

func (i *Import) Kind() element.Kind { return element.Compound }
func (i *Import) Name() string       { return "Import" }

func (i *Import) Contained() []*nmlscope.Scope { return []*nmlscope.Scope{i.child} }

func (i *Import) NestedKind() element.Kind {
	return element.ComputeNestedKind(i)
}

func (i *Import) Compile(ctx *compiler.Context, out *compiler.Output) error {
	it := nmlscope.NewIterator(i.child, true)
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		elem, ok := item.Element.(element.Element)
		if !ok {
			continue
		}
		compilable, ok := elem.(compiler.Compilable)
		if !ok {
			continue
		}
		if err := compilable.Compile(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

var importRe = regexp.MustCompile(`(?:^|\n)@import(?:\[(.*?)\])?[^\S\r\n]+(.*)`)

// ImportRule recognizes `@import path` and `@import[as name] path`
// directives. The imported file is read relative to the importing
// unit's own path and parsed into a child scope, so its content appears
// exactly where the directive appears. With `[as name]`, the imported
// file's exported variables are also copied into the importing scope.
type ImportRule struct{}

func (ImportRule) Name() string             { return "Import" }
func (ImportRule) Target() ruleset.Target   { return ruleset.Command }
func (ImportRule) Regexes() []*regexp.Regexp { return []*regexp.Regexp{importRe} }
func (ImportRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return !mode.ParagraphOnly
}

func (ImportRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	as := group(tok, match, 1)
	path := group(tok, match, 2)
	if path == "" {
		u.Report(*diagnostic.NewError(tok.Source, "empty import path").WithSpan(tok, "expected a file path after @import"))
		return
	}

	resolved := path
	if !filepath.IsAbs(path) {
		resolved = filepath.Join(filepath.Dir(u.Path()), path)
	}

	file, err := source.NewFile(resolved, &tok)
	if err != nil {
		u.Report(*diagnostic.NewError(tok.Source, "could not read imported file").WithSpan(tok, err.Error()))
		return
	}

	imp := &Import{Base: element.Base{Loc: tok}, Path: resolved, As: as}
	u.WithChild(file, true, func(child *nmlscope.Scope) {
		imp.child = child
		kernel.Reparse(u)
	})
	if as != "" {
		u.CurrentScope().AddImport(imp.child)
	}
	u.AddContent(imp)
}
