package elements

import "github.com/termfx/nml/internal/ruleset"

// Register installs every rule this package implements into registry,
// in the order the dispatch loop should prefer on ties within the same
// Target. Call once per process before building any Parser from the
// registry.
func Register(registry *ruleset.Registry) {
	registry.Register(ruleset.Adapt(ImportRule{}))
	registry.Register(ruleset.Adapt(VariableRule{}))
	registry.Register(ruleset.Adapt(ScriptRule{}))
	registry.Register(ruleset.Adapt(SectionRule{}))
	registry.Register(ruleset.Adapt(CodeRule{}))
	registry.Register(ruleset.Adapt(ReferenceRule{}))
	registry.Register(ruleset.Adapt(VariableSubstitutionRule{}))
}
