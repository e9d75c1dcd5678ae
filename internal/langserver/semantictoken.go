// Package langserver aggregates, per source, the data a language
// server needs: semantic tokens, inlay hints, definitions, conceals,
// styles, hover ranges, code ranges, and the external-reference index,
// all populated opportunistically by rules as they run and read back
// by the server facade once parsing settles.
package langserver

import (
	"sort"
	"sync"

	"github.com/termfx/nml/internal/source"
)

// SemanticToken is one classified span in a source, in the shape the
// LSP semantic-tokens protocol wants: a range and the token kind name
// it should be highlighted as.
type SemanticToken struct {
	Range source.Token
	Kind  string
}

// SemanticTokenSink collects a source's semantic tokens in file order.
// Rules that know their match's position immediately call Add; rules
// whose matches are only resolved later (script output, nested
// parses) call AddQueued instead, and the sink re-sorts the queue into
// file order as soon as either a direct Add or an explicit
// ProcessQueue call establishes a new floor position. This mirrors the
// "process_queue before every add, and once at end of document"
// discipline the LSP's monotone-token-order requirement demands.
type SemanticTokenSink struct {
	mu     sync.Mutex
	tokens []SemanticToken
	queue  []SemanticToken
}

// Add appends a token at a known position, first flushing any queued
// tokens that sort before it.
func (s *SemanticTokenSink) Add(rng source.Token, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked(rng.Start)
	s.tokens = append(s.tokens, SemanticToken{Range: rng, Kind: kind})
}

// AddQueued stages a token whose final position is known but whose
// emission must wait until ProcessQueue (or a later Add) catches up to
// it, because other tokens between it and the last direct Add haven't
// been produced yet.
func (s *SemanticTokenSink) AddQueued(rng source.Token, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, SemanticToken{Range: rng, Kind: kind})
}

// ProcessQueue flushes every queued token whose start is at or before
// pos into the token list, in file order. Call with the current
// source's length at end-of-document to flush everything remaining.
func (s *SemanticTokenSink) ProcessQueue(pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked(pos)
}

func (s *SemanticTokenSink) flushLocked(pos int) {
	if len(s.queue) == 0 {
		return
	}
	sort.Slice(s.queue, func(i, j int) bool {
		return s.queue[i].Range.Start < s.queue[j].Range.Start
	})
	i := 0
	for i < len(s.queue) && s.queue[i].Range.Start <= pos {
		s.tokens = append(s.tokens, s.queue[i])
		i++
	}
	s.queue = s.queue[i:]
}

// Tokens returns every token emitted so far, in file order. Queued
// tokens not yet flushed are not included.
func (s *SemanticTokenSink) Tokens() []SemanticToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SemanticToken, len(s.tokens))
	copy(out, s.tokens)
	return out
}
