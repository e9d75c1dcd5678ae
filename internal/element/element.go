// Package element defines the AST node contract: a small set of
// capability interfaces layered on a base Element, mirroring the
// original compiler's downcast-free capability model (Referenceable,
// Linkable, Container) adapted to Go's structural interfaces instead
// of runtime downcasting.
package element

import (
	"fmt"

	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/source"
)

// Kind determines how an element affects paragraphing and how its
// nested content is treated.
type Kind int

const (
	// Invisible elements (comments) never affect paragraphing.
	Invisible Kind = iota
	// Compound elements are made of smaller elements whose own kinds
	// must be inspected to determine the compound's effective kind.
	Compound
	// Inline elements don't break paragraphing.
	Inline
	// Block elements always sit outside of paragraphs.
	Block
)

func (k Kind) String() string {
	switch k {
	case Invisible:
		return "invisible"
	case Compound:
		return "compound"
	case Inline:
		return "inline"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// ParseKind parses the nml.toml / rule-declared spelling of a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "invisible":
		return Invisible, nil
	case "compound":
		return Compound, nil
	case "inline":
		return Inline, nil
	case "block":
		return Block, nil
	default:
		return 0, fmt.Errorf("unknown element kind: %q", s)
	}
}

// Element is the base contract every syntax-tree node satisfies.
type Element interface {
	// Location returns this element's token in the scope it was parsed
	// in — which may itself be a virtual source.
	Location() source.Token

	// OriginalLocation walks the location's virtual-source chain back
	// to the real file and byte range that produced it.
	OriginalLocation() source.Token

	// Kind reports this element's paragraphing behavior.
	Kind() Kind

	// Name is the human-readable element name used in diagnostics and
	// semantic-token classification (e.g. "Section", "Reference").
	Name() string
}

// Base is an embeddable default implementation of Element; concrete
// elements embed it and override Kind/Name.
type Base struct {
	Loc source.Token
}

func (b Base) Location() source.Token { return b.Loc }

func (b Base) OriginalLocation() source.Token {
	return source.OriginalRange(b.Loc.Source, b.Loc.Start, b.Loc.End)
}

// Referenceable is an element that can be the target of a reference:
// it carries an internal reference name and a refcounting key so
// distinct kinds of referenceable content (sections, tables, media)
// get independent counters.
type Referenceable interface {
	Element

	// Refname is the name other elements link to this one by.
	Refname() nmlscope.Refname

	// RefcountKey names this element's refcounting bucket.
	RefcountKey() string

	// Caption is the optional human-readable text shown in a
	// generated link to this element, if the link doesn't override it.
	Caption() string

	// Link returns the resolved, target-specific link text for this
	// element, or "" if it hasn't been resolved yet.
	Link() string

	// SetLink installs the resolved link text. Called at most once,
	// during the link-resolution pass.
	SetLink(link string)
}

// Linkable is an element that links to a reference elsewhere, resolved
// during the unit's link-resolution pass.
type Linkable interface {
	Element

	// WantsRefname is the refname this element intends to resolve.
	WantsRefname() nmlscope.Refname

	// WantsLink reports whether resolution is still pending.
	WantsLink() bool

	// SetLink installs the resolved reference and its rendered link
	// text. Called at most once.
	SetLink(ref nmlscope.Reference, link string)
}

// Container is an element that owns one or more child scopes.
type Container interface {
	Element

	// Contained returns this element's child scopes.
	Contained() []*nmlscope.Scope

	// NestedKind determines the effective kind of a Compound container
	// by inspecting its contained elements: any Block content makes the
	// whole container Block, otherwise it's Inline.
	NestedKind() Kind
}

// NestedKind returns elem.Kind(), unless elem is a Container, in which
// case it returns the container's computed NestedKind.
func NestedKind(elem Element) Kind {
	c, ok := elem.(Container)
	if !ok {
		return elem.Kind()
	}
	return c.NestedKind()
}

// ComputeNestedKind implements the NestedKind rule shared by every
// Container: descend into every contained scope (recursively, through
// nested containers) and report Block as soon as any nested element is
// Block or a Compound container whose own nested kind is Block.
func ComputeNestedKind(c Container) Kind {
	if c.Kind() != Compound {
		return c.Kind()
	}
	for _, scope := range c.Contained() {
		it := nmlscope.NewIterator(scope, true)
		for {
			item, ok := it.Next()
			if !ok {
				break
			}
			elem, ok := item.Element.(Element)
			if !ok {
				continue
			}
			switch elem.Kind() {
			case Block:
				return Block
			case Compound:
				if nested, ok := elem.(Container); ok {
					if nested.NestedKind() == Block {
						return Block
					}
				}
			}
		}
	}
	return Inline
}
