// Package ruleset implements the rule registry and the rule dispatch
// loop: the per-rule parallel match table, winner selection, and the
// Text-element emission that fills the gaps between matches.
package ruleset

// Target orders rules for match-priority tie-breaking: when two rules
// match at the same position, the rule with the lower Target wins,
// and within equal Targets, registration order wins.
type Target int

const (
	// Meta rules match structural characters, e.g. escaped newlines.
	Meta Target = iota
	// Command rules match statements such as imports and variable sets.
	Command
	// Block rules match block-level constructs (sections, lists, code).
	Block
	// Inline rules match inline constructs (styles, links, references).
	Inline
)
