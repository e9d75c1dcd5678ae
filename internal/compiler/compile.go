package compiler

import (
	"fmt"

	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/unit"
)

// ResolveLinks walks u's scope tree resolving every Linkable element's
// wanted refname against ctx.Resolver, installing the resolved link
// text via SetLink. Elements whose reference can't be resolved get a
// diagnostic instead of a link. Must run after parsing finishes and
// before Compile, since a Linkable may target content declared
// anywhere in the unit (or another unit entirely).
func ResolveLinks(u *unit.Unit, ctx *Context) []diagnostic.Report {
	var reports []diagnostic.Report
	if ctx.Resolver == nil {
		return reports
	}

	it := nmlscope.NewIterator(u.EntryScope(), true)
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		elem, ok := item.Element.(element.Element)
		if !ok {
			continue
		}
		linkable, ok := elem.(element.Linkable)
		if !ok || !linkable.WantsLink() {
			continue
		}

		refname := linkable.WantsRefname()
		ref, err := ctx.Resolver.ResolveReference(u, refname)
		if err != nil {
			reports = append(reports, *diagnostic.NewError(elem.Location().Source, "unresolved reference").
				WithSpan(elem.Location(), err.Error()))
			continue
		}

		link := fmt.Sprintf("#%s", ctx.Refname(ref.Refname))
		linkable.SetLink(ref, link)
	}
	return reports
}

// CompileUnit walks u's scope tree in document order, calling Compile
// on every element that implements Compilable, and returns the
// accumulated Output together with any diagnostics raised along the
// way. ResolveLinks must have already run if u contains any Linkable
// elements.
func CompileUnit(u *unit.Unit, ctx *Context) (*Output, []diagnostic.Report) {
	out := &Output{}
	var reports []diagnostic.Report

	it := nmlscope.NewIterator(u.EntryScope(), true)
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		elem, ok := item.Element.(element.Element)
		if !ok {
			continue
		}
		compilable, ok := elem.(Compilable)
		if !ok {
			continue
		}
		if err := compilable.Compile(ctx, out); err != nil {
			reports = append(reports, *diagnostic.NewError(elem.Location().Source, "compile failed").
				WithSpan(elem.Location(), err.Error()))
		}
	}

	return out, reports
}
