package ruleset

import (
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// matchSlot is one rule's cached next-match result, reused across
// dispatch-loop iterations until the cursor steps past its position.
type matchSlot struct {
	pos  int
	data MatchData
	has  bool
}

// Parser runs the rule dispatch loop over a unit's current scope: at
// each step it asks every rule for its next match, picks the earliest
// (ties broken by registration order, which Registry sorts by Target
// then declaration order), emits the unmatched gap as Text, and lets
// the winning rule process its match.
type Parser struct {
	rules []Rule
}

// NewParser builds a parser over rules, in the order they should be
// tie-broken (earliest entries win ties).
func NewParser(rules []Rule) *Parser {
	return &Parser{rules: rules}
}

// Rules returns the parser's rule list, in tie-break order.
func (p *Parser) Rules() []Rule { return p.rules }

// Parse runs the dispatch loop over u's current scope until its
// source is exhausted, adding every emitted element (Text and
// rule-produced) to that scope via u.AddContent.
func (p *Parser) Parse(u *unit.Unit, mode ParseMode) {
	src := u.CurrentScope().Source()
	cursor := source.NewCursor(src)
	slots := make([]matchSlot, len(p.rules))

	for {
		winner, winnerCursor, data, ok := p.nextMatch(u, mode, cursor, slots)
		if !ok {
			break
		}

		p.addText(u, cursor, winnerCursor)
		nextCursor := p.rules[winner].OnMatch(u, winnerCursor, data)
		if nextCursor.Pos <= winnerCursor.Pos {
			// A misbehaving rule failed to advance; force progress so
			// the loop can't spin forever on the same match.
			nextCursor = winnerCursor.At(winnerCursor.Pos + 1)
		}
		cursor = nextCursor
		// Invalidate cached slots at or behind the new cursor so rules
		// that claimed a match inside the consumed range recompute.
		for i := range slots {
			if slots[i].has && slots[i].pos < cursor.Pos {
				slots[i] = matchSlot{}
			}
		}
	}

	end := cursor.At(len(src.Content()))
	p.addText(u, cursor, end)
}

// nextMatch recomputes any stale slot (one whose cached position has
// already been passed by cursor), applying escape backoff, then
// returns the earliest live match.
func (p *Parser) nextMatch(u *unit.Unit, mode ParseMode, cursor source.Cursor, slots []matchSlot) (int, source.Cursor, MatchData, bool) {
	content := cursor.Source.Content()

	for i, rule := range p.rules {
		if slots[i].has && slots[i].pos >= cursor.Pos {
			continue
		}

		pos, data, ok := rule.NextMatch(u, mode, cursor)
		for ok && source.EscapeBackoff(content, pos) {
			pos, data, ok = rule.NextMatch(u, mode, cursor.At(pos+1))
		}
		if !ok {
			slots[i] = matchSlot{pos: -1}
			continue
		}
		slots[i] = matchSlot{pos: pos, data: data, has: true}
	}

	winner := -1
	winnerPos := -1
	for i, slot := range slots {
		if !slot.has {
			continue
		}
		if winner == -1 || slot.pos < winnerPos {
			winner = i
			winnerPos = slot.pos
		}
	}
	if winner == -1 {
		return 0, source.Cursor{}, nil, false
	}
	data := slots[winner].data
	slots[winner] = matchSlot{}
	return winner, cursor.At(winnerPos), data, true
}

// addText emits the content strictly between from and to as a Text
// element, if any survives escape/newline cleanup.
func (p *Parser) addText(u *unit.Unit, from, to source.Cursor) {
	if to.Pos <= from.Pos {
		return
	}
	tok := from.Token(to)
	if text, ok := newText(tok); ok {
		u.AddContent(text)
	}
}
