package nmlscope

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/termfx/nml/internal/source"
)

// Visibility controls whether a variable is copied into an importing
// scope (Exported) or stays confined to the scope it was defined in
// (Internal).
type Visibility int

const (
	Internal Visibility = iota
	Exported
)

func (v Visibility) String() string {
	if v == Exported {
		return "exported"
	}
	return "internal"
}

// Mutability controls whether a variable may be redefined in the same
// scope.
type Mutability int

const (
	Mutable Mutability = iota
	Immutable
)

func (m Mutability) String() string {
	if m == Immutable {
		return "immutable"
	}
	return "mutable"
}

// Name is a validated variable identifier: no punctuation except `.`
// and `_`, no whitespace, no control characters.
type Name string

// NewName validates value and returns it as a Name, or an error
// describing the first offending codepoint.
func NewName(value string) (Name, error) {
	for _, c := range value {
		if unicode.IsPunct(c) && c != '.' && c != '_' {
			return "", fmt.Errorf("variable name %q cannot contain punctuation codepoint: %q", value, c)
		}
		if unicode.IsSpace(c) {
			return "", fmt.Errorf("variable name %q cannot contain whitespace: %q", value, c)
		}
		if unicode.IsControl(c) {
			return "", fmt.Errorf("variable name %q cannot contain control codepoint: %q", value, c)
		}
	}
	return Name(value), nil
}

// Variable is either a Property (an integer or string scalar with a
// defining token) or Content (a Source to be re-parsed every time it
// is referenced).
type Variable interface {
	VariableName() Name
	Visibility() Visibility
	Mutability() Mutability
	Location() source.Token
	ValueToken() source.Token
	// String renders the variable's value for `%name%`-style textual
	// substitution (Property variables only produce meaningful text
	// this way; Content variables are meant to be re-parsed instead).
	String() string
}

// PropertyKind distinguishes the two scalar payloads a PropertyVariable
// may hold.
type PropertyKind int

const (
	PropertyInt PropertyKind = iota
	PropertyString
)

// PropertyVariable holds an integer or string scalar.
type PropertyVariable struct {
	Name_       Name
	Vis         Visibility
	Mut         Mutability
	Loc         source.Token
	ValTok      source.Token
	Kind        PropertyKind
	StringValue string
	IntValue    int64
}

func (p *PropertyVariable) VariableName() Name          { return p.Name_ }
func (p *PropertyVariable) Visibility() Visibility       { return p.Vis }
func (p *PropertyVariable) Mutability() Mutability       { return p.Mut }
func (p *PropertyVariable) Location() source.Token       { return p.Loc }
func (p *PropertyVariable) ValueToken() source.Token     { return p.ValTok }

func (p *PropertyVariable) String() string {
	if p.Kind == PropertyInt {
		return fmt.Sprintf("%d", p.IntValue)
	}
	return p.StringValue
}

// ContentVariable holds a Source to be re-parsed on every reference.
// Each reference parses an independent copy of Content, so two uses of
// `%x%` never share mutable parse state.
type ContentVariable struct {
	Name_   Name
	Vis     Visibility
	Mut     Mutability
	Loc     source.Token
	ValTok  source.Token
	Content source.Source
}

func (c *ContentVariable) VariableName() Name      { return c.Name_ }
func (c *ContentVariable) Visibility() Visibility   { return c.Vis }
func (c *ContentVariable) Mutability() Mutability   { return c.Mut }
func (c *ContentVariable) Location() source.Token   { return c.Loc }
func (c *ContentVariable) ValueToken() source.Token { return c.ValTok }
func (c *ContentVariable) String() string           { return strings.TrimSpace(c.Content.Content()) }
