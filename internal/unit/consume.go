package unit

import (
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/source"
)

// PostProcessor is implemented by elements synthesized during parsing
// that must run again after the whole unit has been parsed — the
// kernel package's PostProcess element is the only implementation, but
// Consume only needs this narrow view to avoid importing it.
type PostProcessor interface {
	element.Element
	Process(u *Unit)
}

// Consume runs the unit through its full eight-stage pipeline:
//  1. seed builtin variables (nml.input_file, nml.output_file, nml.reference_key)
//  2. notify the language server a new source has started
//  3. parse the entry scope via parse
//  4. run every PostProcessor synthesized during parsing
//  5. end the entry scope, collecting its state-bag end hooks' reports
//  6. notify the language server the source has ended
//  7. snapshot Output (input/output file, read back from the
//     possibly-rule-overridden nml.output_file variable)
//  8. return every diagnostic collected along the way
func (u *Unit) Consume(outputFile string, parse func(u *Unit)) []diagnostic.Report {
	u.seedBuiltinVariables(outputFile)

	if u.lsp != nil {
		u.lsp.OnNewSource(u.entrySource)
	}

	parse(u)

	for _, item := range iterateAll(u.entryScope) {
		pp, ok := item.Element.(PostProcessor)
		if !ok {
			continue
		}
		pp.Process(u)
	}

	u.endEntryScope()

	if u.lsp != nil {
		u.lsp.OnSourceEnd(u.entrySource)
	}

	outputVarName, _ := nmlscope.NewName("nml.output_file")
	resolvedOutput := outputFile
	if v, _, ok := u.entryScope.GetVariable(outputVarName); ok {
		resolvedOutput = v.String()
	}
	u.output = &Output{InputFile: u.path, OutputFile: resolvedOutput}

	return u.DrainReports()
}

func iterateAll(scope *nmlscope.Scope) []nmlscope.Item {
	it := nmlscope.NewIterator(scope, true)
	var items []nmlscope.Item
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		items = append(items, item)
	}
	return items
}

func (u *Unit) seedBuiltinVariables(outputFile string) {
	tok := source.EntireSource(u.entrySource)
	tok.End = tok.Start

	seed := func(name string, vis nmlscope.Visibility, mut nmlscope.Mutability, value string) {
		n, err := nmlscope.NewName(name)
		if err != nil {
			panic(err)
		}
		u.entryScope.InsertVariable(&nmlscope.PropertyVariable{
			Name_:       n,
			Vis:         vis,
			Mut:         mut,
			Loc:         tok,
			ValTok:      tok,
			Kind:        nmlscope.PropertyString,
			StringValue: value,
		})
	}

	seed("nml.input_file", nmlscope.Internal, nmlscope.Immutable, u.entrySource.Name())
	seed("nml.output_file", nmlscope.Internal, nmlscope.Mutable, outputFile)
	seed("nml.reference_key", nmlscope.Internal, nmlscope.Mutable, u.path)
}

func (u *Unit) endEntryScope() {
	u.runScopeEnd(u.entryScope, true)
}
