// Package nmlscope implements the lexical-scope tree: a parent-linked
// chain of append-only content lists, each carrying its own variable
// table and a typed per-scope state bag, mirroring how the original
// compiler threads scope across file inclusions and virtual sources.
package nmlscope

import (
	"sync"

	"github.com/termfx/nml/internal/source"
)

// Element is the narrow view of an AST element that a Scope needs: its
// location. The full element contract lives in internal/element;
// anything satisfying it also satisfies this one, so nmlscope never
// imports element and no import cycle exists.
type Element interface {
	Location() source.Token
}

// Container is the narrow view of a container element: one that owns
// child scopes. Elements that open a nested scope (imports, variable
// expansions, post-processed content) implement this so ContentIter can recurse
// into them.
type Container interface {
	Element
	Contained() []*Scope
}

// Scope is one node of the lexical-scope tree. Each scope is tied to a
// single Source; its content list only ever grows, its variable table
// is looked up recursively through parents, and its state bag holds
// arbitrary per-scope data keyed by name (see WithState).
type Scope struct {
	mu sync.RWMutex

	rangeStart int
	rangeEnd   int

	parent  *Scope
	content []Element
	src     source.Source

	variables map[Name]Variable
	states    map[string]any

	// paragraphing is enabled for ordinary content scopes and disabled
	// for scopes whose content must not be auto-wrapped in paragraphs
	// (e.g. the immediate body of a non-paragraphing container).
	paragraphing bool
}

// New creates a root scope over src, starting at byte position start.
func New(parent *Scope, src source.Source, start int, paragraphing bool) *Scope {
	return &Scope{
		rangeStart:   start,
		rangeEnd:     start,
		parent:       parent,
		src:          src,
		variables:    make(map[Name]Variable),
		states:       make(map[string]any),
		paragraphing: paragraphing,
	}
}

// NewChild creates a scope whose parent is s, over src, starting at
// s's current range end.
func (s *Scope) NewChild(src source.Source, paragraphing bool) *Scope {
	s.mu.RLock()
	start := s.rangeEnd
	s.mu.RUnlock()
	return New(s, src, start, paragraphing)
}

func (s *Scope) Name() string { return s.src.Name() }

func (s *Scope) Source() source.Source { return s.src }

func (s *Scope) Parent() *Scope { return s.parent }

func (s *Scope) Paragraphing() bool { return s.paragraphing }

// Token returns the token spanning every byte this scope's content has
// claimed so far.
func (s *Scope) Token() source.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return source.NewToken(s.src, s.rangeStart, s.rangeEnd)
}

// AddContent appends elem to this scope's content and extends the
// scope's range to cover it. elem must be located in this scope's
// source.
func (s *Scope) AddContent(elem Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := elem.Location()
	if loc.Source != s.src {
		panic("nmlscope: element added to scope with mismatched source")
	}
	if loc.End > s.rangeEnd {
		s.rangeEnd = loc.End
	}
	s.content = append(s.content, elem)
}

// GetContent returns the element at index id, if any.
func (s *Scope) GetContent(id int) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.content) {
		return nil, false
	}
	return s.content[id], true
}

// ContentLast returns the most recently added element, if any.
func (s *Scope) ContentLast() (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.content) == 0 {
		return nil, false
	}
	return s.content[len(s.content)-1], true
}

// ContentLen reports how many elements this scope directly holds.
func (s *Scope) ContentLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.content)
}

// GetVariable looks up name in this scope, then recursively in each
// ancestor, returning the variable and the scope that declares it.
func (s *Scope) GetVariable(name Name) (Variable, *Scope, bool) {
	s.mu.RLock()
	v, ok := s.variables[name]
	parent := s.parent
	s.mu.RUnlock()
	if ok {
		return v, s, true
	}
	if parent != nil {
		return parent.GetVariable(name)
	}
	return nil, nil, false
}

// InsertVariable declares var in this scope, returning the variable it
// replaced, if any.
func (s *Scope) InsertVariable(v Variable) (Variable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.variables[v.VariableName()]
	s.variables[v.VariableName()] = v
	return prev, had
}

// AddImport copies every Exported variable from imported into s. Used
// when an @import element pulls in another unit's top-level scope.
func (s *Scope) AddImport(imported *Scope) {
	imported.mu.RLock()
	vars := make([]Variable, 0, len(imported.variables))
	for _, v := range imported.variables {
		if v.Visibility() == Exported {
			vars = append(vars, v)
		}
	}
	imported.mu.RUnlock()
	for _, v := range vars {
		s.InsertVariable(v)
	}
}

// DrainStates removes and returns every entry currently in this
// scope's state bag, leaving it empty. Called once when a scope ends,
// so each state's end-of-scope hook runs exactly once.
func (s *Scope) DrainStates() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.states
	s.states = make(map[string]any)
	return out
}

// HasState reports whether a state entry named name has been set.
func (s *Scope) HasState(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.states[name]
	return ok
}

// SetState installs val as the state entry named name, replacing any
// previous entry under that name.
func (s *Scope) SetState(name string, val any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[name] = val
}

// WithState looks up the state entry named name, type-asserts it to
// *T, and invokes f with it, returning f's result. The second return
// value is false (and f is not called) if no such entry exists or it
// holds a different type — callers that always expect the state to
// have been pre-seeded can ignore it, but a mismatch never panics.
func WithState[T any, R any](s *Scope, name string, f func(*T) R) (R, bool) {
	s.mu.RLock()
	raw, ok := s.states[name]
	s.mu.RUnlock()
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
