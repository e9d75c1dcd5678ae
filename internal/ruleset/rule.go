package ruleset

import (
	"regexp"

	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// ParseMode carries the dispatch loop's current restrictions, read by
// a rule's Enabled check. Different elements set a restrictive mode
// for the scope they open — e.g. a table cell disables the Section
// rule so a bare `#` inside a cell can't split the document.
type ParseMode struct {
	// ParagraphOnly disables rules (such as Section) that only make
	// sense directly inside a paragraphing content scope.
	ParagraphOnly bool
}

// MatchData is the opaque, rule-owned payload next_match produces and
// on_match later consumes. RegexRule uses it to carry the winning
// regex's index; a hand-written Rule may store whatever it needs.
type MatchData any

// Rule is one entry in the dispatch loop: given a cursor, it reports
// where its next match starts (if any), and is later invoked to
// process that match and advance the cursor past it.
type Rule interface {
	// Name identifies the rule in diagnostics and registry listings.
	Name() string

	// Target orders this rule relative to others for winner selection.
	Target() Target

	// NextMatch finds this rule's next match at or after cursor,
	// returning its start position and data to pass to OnMatch. It
	// returns ok=false if the rule has no match ahead of cursor.
	NextMatch(u *unit.Unit, mode ParseMode, cursor source.Cursor) (pos int, data MatchData, ok bool)

	// OnMatch processes the match described by data and returns the
	// cursor after it. Implementations must return a cursor that
	// strictly advances past the one they were given, or the dispatch
	// loop will force progress itself to avoid looping forever.
	OnMatch(u *unit.Unit, cursor source.Cursor, data MatchData) source.Cursor
}

// RegexRule is the common case: a rule that finds its matches with one
// or more precompiled regular expressions. Rule is implemented for any
// RegexRule by regexRuleAdapter (see Adapt).
type RegexRule interface {
	Name() string
	Target() Target

	// Regexes returns this rule's candidate patterns, checked in order.
	Regexes() []*regexp.Regexp

	// Enabled reports whether the regex at index should be considered
	// in the current mode. Rules that are always active can return
	// true unconditionally.
	Enabled(u *unit.Unit, mode ParseMode, index int) bool

	// OnRegexMatch processes the match found by the regex at index.
	OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int)
}

// Adapt wraps a RegexRule as a Rule, implementing the generic
// find-earliest-match and escape-backoff logic once so individual
// rules only ever implement OnRegexMatch.
func Adapt(r RegexRule) Rule {
	return regexRuleAdapter{r}
}

type regexMatchData struct {
	index int
	loc   []int
}

type regexRuleAdapter struct {
	rule RegexRule
}

func (a regexRuleAdapter) Name() string   { return a.rule.Name() }
func (a regexRuleAdapter) Target() Target { return a.rule.Target() }

func (a regexRuleAdapter) NextMatch(u *unit.Unit, mode ParseMode, cursor source.Cursor) (int, MatchData, bool) {
	content := cursor.Source.Content()
	bestPos := -1
	var bestIdx int
	var bestLoc []int

	for idx, re := range a.rule.Regexes() {
		if !a.rule.Enabled(u, mode, idx) {
			continue
		}
		loc := re.FindStringIndex(content[cursor.Pos:])
		if loc == nil {
			continue
		}
		start := cursor.Pos + loc[0]
		if bestPos == -1 || start < bestPos {
			bestPos = start
			bestIdx = idx
			// Recompute full submatch indices relative to the whole
			// content, not just the cursor-relative search window.
			full := re.FindStringSubmatchIndex(content[cursor.Pos:])
			shifted := make([]int, len(full))
			for i, v := range full {
				if v < 0 {
					shifted[i] = v
				} else {
					shifted[i] = v + cursor.Pos
				}
			}
			bestLoc = shifted
		}
	}

	if bestPos == -1 {
		return 0, nil, false
	}
	return bestPos, regexMatchData{index: bestIdx, loc: bestLoc}, true
}

func (a regexRuleAdapter) OnMatch(u *unit.Unit, cursor source.Cursor, data MatchData) source.Cursor {
	rd := data.(regexMatchData)
	tok := source.NewToken(cursor.Source, rd.loc[0], rd.loc[1])
	a.rule.OnRegexMatch(u, rd.index, tok, rd.loc)
	return cursor.At(rd.loc[1])
}
