package compiler

import (
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/termfx/nml/internal/cache"
)

// Context carries the per-compilation state an element's Compile
// method needs beyond its own fields: the output target, the
// cross-unit reference resolver, and the section numbering counters
// section elements share (numbering is a compile-wide running count,
// not something any single element can own).
type Context struct {
	Target   Target
	Resolver *cache.Resolver
	Cache    *cache.Cache

	mu        sync.Mutex
	counters  []int // counters[i] is the running count at depth i+1
	refcounts map[string]int
}

// NewContext creates a compile context for one unit's compilation.
// resolver may be nil if the unit has no cross-unit references to
// resolve.
func NewContext(target Target, resolver *cache.Resolver) *Context {
	return &Context{Target: target, Resolver: resolver, refcounts: make(map[string]int)}
}

// RefID returns the next running count for refcounting key key (e.g.
// "section", "table"), so distinct kinds of referenceable content
// number independently.
func (c *Context) RefID(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refcounts[key]++
	return c.refcounts[key]
}

// SectionCounter increments the counter at depth and resets every
// deeper counter, then returns the full numbering tuple up to depth
// (e.g. depth 3 after two prior level-1 sections and one level-2
// returns [2, 1, 1]). Mirrors the original compiler's
// `section_counter` running-numbering behavior.
func (c *Context) SectionCounter(depth int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.counters) < depth {
		c.counters = append(c.counters, 0)
	}
	c.counters[depth-1]++
	for i := depth; i < len(c.counters); i++ {
		c.counters[i] = 0
	}

	out := make([]int, depth)
	copy(out, c.counters[:depth])
	return out
}

// Refname turns title into the id/anchor this target uses to link to
// it: lowercased, non-alphanumeric runs collapsed to a single hyphen.
func (c *Context) Refname(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Sanitize escapes s for safe inclusion in this target's output. Only
// HTML is implemented.
func (c *Context) Sanitize(s string) string {
	switch c.Target {
	case HTML:
		return html.EscapeString(s)
	default:
		return s
	}
}

// FormatNumbering renders a section numbering tuple as "1.2.3. ".
func FormatNumbering(numbering []int) string {
	var b strings.Builder
	for _, n := range numbering {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte('.')
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	return b.String()
}
