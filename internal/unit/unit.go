// Package unit implements the TranslationUnit orchestrator: the
// per-source-file object that owns a scope tree, threads parsing state
// through nested scopes, and collects diagnostics and references
// produced along the way.
package unit

import (
	"sync"

	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/source"
)

// Output captures what a unit produced once Consume has run.
type Output struct {
	InputFile  string
	OutputFile string

	// Language, Icon, and CSS carry a document's HTML chrome
	// settings, as resolved by UpdateSettings: a project-wide default
	// overridden by any `html.language`/`html.icon`/`html.css`
	// variable the document itself sets.
	Language string
	Icon     string
	CSS      string
}

// reportEntry pairs a collected report with the scope active when it
// was raised, mirroring the original's (scope, report) bookkeeping —
// kept even though only the report itself is surfaced to callers,
// since a future langserver sink may want to know which scope a
// diagnostic belongs to.
type reportEntry struct {
	scope  *nmlscope.Scope
	report diagnostic.Report
}

// Unit is one translation unit: one entry source, its scope tree, the
// references it declares, and the diagnostics collected while parsing
// it.
type Unit struct {
	path string

	entrySource source.Source
	entryScope  *nmlscope.Scope
	currentMu   sync.Mutex
	current     *nmlscope.Scope

	colors diagnostic.Colors

	customMu sync.RWMutex
	custom   map[string]any

	reportsMu sync.Mutex
	reports   []reportEntry

	referencesMu sync.RWMutex
	references   map[string]element.Referenceable

	output *Output

	lsp LSPSink
}

// LSPSink is the narrow view of the language-server data aggregator
// (internal/langserver.Data) that a unit needs to notify about source
// lifecycle events. Left unset, a unit runs with no LSP integration.
type LSPSink interface {
	OnNewSource(src source.Source)
	OnSourceEnd(src source.Source)
}

// SetLSP attaches sink as this unit's language-server data sink.
func (u *Unit) SetLSP(sink LSPSink) { u.lsp = sink }

// New creates a unit rooted at src, identified by path (the path
// relative to the compilation's project root, used as the reference
// key namespace).
func New(path string, src source.Source, withColors bool) *Unit {
	scope := nmlscope.New(nil, src, 0, true)
	colors := diagnostic.WithoutColors()
	if withColors {
		colors = diagnostic.WithColors()
	}
	return &Unit{
		path:        path,
		entrySource: src,
		entryScope:  scope,
		current:     scope,
		colors:      colors,
		custom:      make(map[string]any),
		references:  make(map[string]element.Referenceable),
	}
}

// Path returns the unit's path relative to the compilation root.
func (u *Unit) Path() string { return u.path }

// Source returns the unit's entry source.
func (u *Unit) Source() source.Source { return u.entrySource }

// Colors returns the report colors configured for this unit.
func (u *Unit) Colors() diagnostic.Colors { return u.colors }

// EntryScope returns the unit's root scope.
func (u *Unit) EntryScope() *nmlscope.Scope { return u.entryScope }

// CurrentScope returns the scope currently being parsed.
func (u *Unit) CurrentScope() *nmlscope.Scope {
	u.currentMu.Lock()
	defer u.currentMu.Unlock()
	return u.current
}

// WithChild installs a new child scope of the current scope as current
// for the duration of f, then restores the previous scope and runs the
// child's on_end hooks — the scoped-cleanup discipline that guarantees
// per-scope state (such as kernels or deferred tasks) always finalizes,
// even if f panics or returns early with an error.
func (u *Unit) WithChild(src source.Source, paragraphing bool, f func(child *nmlscope.Scope)) {
	u.currentMu.Lock()
	prev := u.current
	child := prev.NewChild(src, paragraphing)
	u.current = child
	u.currentMu.Unlock()

	defer func() {
		u.currentMu.Lock()
		u.current = prev
		u.currentMu.Unlock()
		u.runScopeEnd(child, false)
	}()

	f(child)
}

// EndHook is implemented by per-scope state that needs to run cleanup
// logic (and possibly raise diagnostics) when the scope it lives in
// ends — e.g. a kernel's "unused variable" check, or a reference
// counter's final tally.
type EndHook interface {
	OnScopeEnd(u *Unit) []diagnostic.Report
	OnDocumentEnd(u *Unit) []diagnostic.Report
}

// runScopeEnd drains scope's state bag and invokes the EndHook method
// of every entry that implements it, recording the reports produced.
func (u *Unit) runScopeEnd(scope *nmlscope.Scope, document bool) {
	for _, val := range scope.DrainStates() {
		hook, ok := val.(EndHook)
		if !ok {
			continue
		}
		var reps []diagnostic.Report
		if document {
			reps = hook.OnDocumentEnd(u)
		} else {
			reps = hook.OnScopeEnd(u)
		}
		for _, rep := range reps {
			u.pushReport(scope, rep)
		}
	}
}

func (u *Unit) pushReport(scope *nmlscope.Scope, report diagnostic.Report) {
	u.reportsMu.Lock()
	defer u.reportsMu.Unlock()
	u.reports = append(u.reports, reportEntry{scope: scope, report: report})
}

// Report records a diagnostic against the current scope.
func (u *Unit) Report(report diagnostic.Report) {
	u.pushReport(u.CurrentScope(), report)
}

// DrainReports removes and returns every report collected so far.
func (u *Unit) DrainReports() []diagnostic.Report {
	u.reportsMu.Lock()
	defer u.reportsMu.Unlock()
	out := make([]diagnostic.Report, len(u.reports))
	for i, e := range u.reports {
		out[i] = e.report
	}
	u.reports = nil
	return out
}

// AddContent adds elem to the current scope, and indexes it as a
// reference if it implements element.Referenceable.
func (u *Unit) AddContent(elem element.Element) {
	if ref, ok := elem.(element.Referenceable); ok {
		u.AddReference(ref)
	}
	u.CurrentScope().AddContent(elem)
}

// AddReference indexes ref under its refname, independent of AddContent
// — used when a rule constructs a reference target outside the normal
// content flow.
func (u *Unit) AddReference(ref element.Referenceable) {
	u.referencesMu.Lock()
	defer u.referencesMu.Unlock()
	u.references[ref.Refname().String()] = ref
}

// GetReference looks up a reference declared directly in this unit by
// name.
func (u *Unit) GetReference(name string) (element.Referenceable, bool) {
	u.referencesMu.RLock()
	defer u.referencesMu.RUnlock()
	r, ok := u.references[name]
	return r, ok
}

// References returns every reference declared in this unit, keyed by
// refname.
func (u *Unit) References() map[string]element.Referenceable {
	u.referencesMu.RLock()
	defer u.referencesMu.RUnlock()
	out := make(map[string]element.Referenceable, len(u.references))
	for k, v := range u.references {
		out[k] = v
	}
	return out
}

// HasData reports whether custom data named name has been set.
func (u *Unit) HasData(name string) bool {
	u.customMu.RLock()
	defer u.customMu.RUnlock()
	_, ok := u.custom[name]
	return ok
}

// SetData installs val as the unit-scoped custom data named name.
func (u *Unit) SetData(name string, val any) {
	u.customMu.Lock()
	defer u.customMu.Unlock()
	u.custom[name] = val
}

// WithData looks up the custom data named name, type-asserts it to
// *T, and invokes f with it. The second return is false (f is not
// called) if no such entry exists or it holds a different type.
func WithData[T any, R any](u *Unit, name string, f func(*T) R) (R, bool) {
	u.customMu.RLock()
	raw, ok := u.custom[name]
	u.customMu.RUnlock()
	if !ok {
		var zero R
		return zero, false
	}
	typed, ok := raw.(*T)
	if !ok {
		var zero R
		return zero, false
	}
	return f(typed), true
}

// Output returns what Consume produced, or nil if Consume hasn't run.
func (u *Unit) Output() *Output { return u.output }

// UpdateSettings resolves this document's HTML chrome settings: the
// project-wide defaultLanguage/defaultIcon/defaultCSS, overridden by
// whichever of `html.language`, `html.icon`, `html.css` the document
// set anywhere in its entry scope. Must run after Consume, once the
// whole unit (including any imports) has populated its variables;
// Consume itself doesn't call it since the caller is the one who
// knows the project's defaults.
func (u *Unit) UpdateSettings(defaultLanguage, defaultIcon, defaultCSS string) {
	language, icon, css := defaultLanguage, defaultIcon, defaultCSS
	if v, _, ok := u.entryScope.GetVariable(htmlSettingName("html.language")); ok {
		language = v.String()
	}
	if v, _, ok := u.entryScope.GetVariable(htmlSettingName("html.icon")); ok {
		icon = v.String()
	}
	if v, _, ok := u.entryScope.GetVariable(htmlSettingName("html.css")); ok {
		css = v.String()
	}
	u.output.Language = language
	u.output.Icon = icon
	u.output.CSS = css
}

func htmlSettingName(name string) nmlscope.Name {
	n, err := nmlscope.NewName(name)
	if err != nil {
		panic(err)
	}
	return n
}

// ReferenceKey returns this unit's cache reference key, the string by
// which other units' External refnames address it. It defaults to the
// unit's path but may be overridden by a `nml.reference_key` variable
// set during parsing.
func (u *Unit) ReferenceKey() string {
	name, _ := nmlscope.NewName("nml.reference_key")
	if v, _, ok := u.CurrentScope().GetVariable(name); ok {
		return v.String()
	}
	return u.path
}
