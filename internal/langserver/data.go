package langserver

import (
	"math"
	"sync"

	"github.com/termfx/nml/internal/source"
)

// InlayHint is an inline label shown after a range (e.g. a resolved
// variable's value, or a reference's numbering).
type InlayHint struct {
	Range source.Token
	Label string
}

// Definition is a go-to-definition target: a use site range pointing
// at a declaration range, possibly in a different source.
type Definition struct {
	Use  source.Token
	Decl source.Token
}

// Conceal is a range whose source text should be hidden in favor of
// Replacement when the editor supports conceal (textDocument/conceal).
type Conceal struct {
	Range       source.Token
	Replacement string
}

// Style is an editor-agnostic visual hint (textDocument/style) for a
// range, e.g. a custom foreground color for a generated link.
type Style struct {
	Range source.Token
	Class string
}

// CodeRange marks a range as a highlighted code block written in
// Language, for textDocument/codeRange.
type CodeRange struct {
	Range    source.Token
	Language string
}

// HoverRange is a range with hover text to show over it.
type HoverRange struct {
	Range source.Token
	Text  string
}

// SourceData is one source's aggregated LSP data.
type SourceData struct {
	Semantics *SemanticTokenSink

	mu           sync.Mutex
	inlayHints   []InlayHint
	definitions  []Definition
	conceals     []Conceal
	styles       []Style
	codeRanges   []CodeRange
	hovers       []HoverRange
	externalRefs []string
}

func newSourceData() *SourceData {
	return &SourceData{Semantics: &SemanticTokenSink{}}
}

// Data is the per-unit aggregation of every source's LSP data, keyed
// by Source. It implements unit.LSPSink so a Unit can notify it
// directly of source lifecycle events.
type Data struct {
	mu      sync.RWMutex
	sources map[source.Source]*SourceData
}

// NewData creates an empty aggregator.
func NewData() *Data {
	return &Data{sources: make(map[source.Source]*SourceData)}
}

// OnNewSource registers src, if it hasn't been seen yet. Implements
// unit.LSPSink.
func (d *Data) OnNewSource(src source.Source) {
	d.sourceData(src)
}

// OnSourceEnd flushes src's semantic-token queue in full, matching the
// "once at end of document" flush the LSP's monotone-order guarantee
// requires. Implements unit.LSPSink.
func (d *Data) OnSourceEnd(src source.Source) {
	d.mu.RLock()
	sd, ok := d.sources[src]
	d.mu.RUnlock()
	if ok {
		sd.Semantics.ProcessQueue(math.MaxInt)
	}
}

func (d *Data) sourceData(src source.Source) *SourceData {
	d.mu.Lock()
	defer d.mu.Unlock()
	sd, ok := d.sources[src]
	if !ok {
		sd = newSourceData()
		d.sources[src] = sd
	}
	return sd
}

// WithSemantics invokes f with src's semantic token sink, creating it
// if this is the first reference to src.
func (d *Data) WithSemantics(src source.Source, f func(*SemanticTokenSink)) {
	f(d.sourceData(src).Semantics)
}

// AddInlayHint records h against src.
func (d *Data) AddInlayHint(src source.Source, h InlayHint) {
	sd := d.sourceData(src)
	sd.mu.Lock()
	sd.inlayHints = append(sd.inlayHints, h)
	sd.mu.Unlock()
}

// AddDefinition records def against src.
func (d *Data) AddDefinition(src source.Source, def Definition) {
	sd := d.sourceData(src)
	sd.mu.Lock()
	sd.definitions = append(sd.definitions, def)
	sd.mu.Unlock()
}

// AddConceal records c against src.
func (d *Data) AddConceal(src source.Source, c Conceal) {
	sd := d.sourceData(src)
	sd.mu.Lock()
	sd.conceals = append(sd.conceals, c)
	sd.mu.Unlock()
}

// AddStyle records s against src.
func (d *Data) AddStyle(src source.Source, s Style) {
	sd := d.sourceData(src)
	sd.mu.Lock()
	sd.styles = append(sd.styles, s)
	sd.mu.Unlock()
}

// AddCodeRange records cr against src.
func (d *Data) AddCodeRange(src source.Source, cr CodeRange) {
	sd := d.sourceData(src)
	sd.mu.Lock()
	sd.codeRanges = append(sd.codeRanges, cr)
	sd.mu.Unlock()
}

// AddHover records h against src.
func (d *Data) AddHover(src source.Source, h HoverRange) {
	sd := d.sourceData(src)
	sd.mu.Lock()
	sd.hovers = append(sd.hovers, h)
	sd.mu.Unlock()
}

// AddExternalRef records that src references the external unit named
// key, for the language server's cross-unit "find references" support.
func (d *Data) AddExternalRef(src source.Source, key string) {
	sd := d.sourceData(src)
	sd.mu.Lock()
	sd.externalRefs = append(sd.externalRefs, key)
	sd.mu.Unlock()
}

// SemanticTokens returns src's semantic tokens emitted so far.
func (d *Data) SemanticTokens(src source.Source) []SemanticToken {
	return d.sourceData(src).Semantics.Tokens()
}

// InlayHints returns src's recorded inlay hints.
func (d *Data) InlayHints(src source.Source) []InlayHint {
	sd := d.sourceData(src)
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return append([]InlayHint(nil), sd.inlayHints...)
}

// Definitions returns src's recorded definitions.
func (d *Data) Definitions(src source.Source) []Definition {
	sd := d.sourceData(src)
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return append([]Definition(nil), sd.definitions...)
}

// Conceals returns src's recorded conceals.
func (d *Data) Conceals(src source.Source) []Conceal {
	sd := d.sourceData(src)
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return append([]Conceal(nil), sd.conceals...)
}

// Styles returns src's recorded styles.
func (d *Data) Styles(src source.Source) []Style {
	sd := d.sourceData(src)
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return append([]Style(nil), sd.styles...)
}

// CodeRanges returns src's recorded code ranges.
func (d *Data) CodeRanges(src source.Source) []CodeRange {
	sd := d.sourceData(src)
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return append([]CodeRange(nil), sd.codeRanges...)
}

// Hovers returns src's recorded hover ranges.
func (d *Data) Hovers(src source.Source) []HoverRange {
	sd := d.sourceData(src)
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return append([]HoverRange(nil), sd.hovers...)
}

// ExternalRefs returns the external unit keys src references.
func (d *Data) ExternalRefs(src source.Source) []string {
	sd := d.sourceData(src)
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return append([]string(nil), sd.externalRefs...)
}
