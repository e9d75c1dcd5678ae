package elements

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/kernel"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// VariableDefinition is the element emitted for a `:set name = value`
// or `:export name = value` declaration. It never renders anything
// itself; it only exists so diagnostics and hovers have a location to
// point at.
type VariableDefinition struct {
	element.Base
	Variable nmlscope.Variable
}

func (v *VariableDefinition) Kind() element.Kind { return element.Compound }
func (v *VariableDefinition) Name() string        { return "Variable Definition" }
func (v *VariableDefinition) Compile(ctx *compiler.Context, out *compiler.Output) error {
	return nil
}

// The five delimited content forms are each matched whole, body and
// all, by their own pattern — Go's RE2 engine has no backreferences, so
// there's no way to say "whatever closed the opening delimiter" in one
// pattern. Order matters: regexRuleAdapter.NextMatch picks the first
// Regexes() entry that matches a given start position, so the longer,
// more specific delimiters must be tried before the bare fallback.
const (
	braceIdx = iota
	tripleSQIdx
	tripleDQIdx
	sqIdx
	dqIdx
	bareIdx
)

var (
	variableDeclBraceRe    = regexp.MustCompile(`(?s)(?:\n|^):(export|set)[^\S\r\n]+([^=\s]+)[^\S\r\n]*=[^\S\r\n]*\{\{((?:\\.|[^\\])*?)\}\}`)
	variableDeclTripleSQRe = regexp.MustCompile(`(?s)(?:\n|^):(export|set)[^\S\r\n]+([^=\s]+)[^\S\r\n]*=[^\S\r\n]*'''((?:\\.|[^\\])*?)'''`)
	variableDeclTripleDQRe = regexp.MustCompile(`(?s)(?:\n|^):(export|set)[^\S\r\n]+([^=\s]+)[^\S\r\n]*=[^\S\r\n]*"""((?:\\.|[^\\])*?)"""`)
	variableDeclSQRe       = regexp.MustCompile(`(?:\n|^):(export|set)[^\S\r\n]+([^=\s]+)[^\S\r\n]*=[^\S\r\n]*'((?:\\.|[^\\\n])*?)'`)
	variableDeclDQRe       = regexp.MustCompile(`(?:\n|^):(export|set)[^\S\r\n]+([^=\s]+)[^\S\r\n]*=[^\S\r\n]*"((?:\\.|[^\\\n])*?)"`)
	variableDeclRe         = regexp.MustCompile(`(?:\n|^):(export|set)[^\S\r\n]+([^=\s]+)[^\S\r\n]*(=?)[^\S\r\n]*(.*)`)
)

// VariableRule recognizes variable declarations and, separately,
// `%name%` substitutions.
type VariableRule struct{}

func (VariableRule) Name() string           { return "Variable" }
func (VariableRule) Target() ruleset.Target { return ruleset.Command }
func (VariableRule) Regexes() []*regexp.Regexp {
	return []*regexp.Regexp{
		variableDeclBraceRe,
		variableDeclTripleSQRe,
		variableDeclTripleDQRe,
		variableDeclSQRe,
		variableDeclDQRe,
		variableDeclRe,
	}
}

func (VariableRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return true
}

func (VariableRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	kw := group(tok, match, 1)
	rawName := group(tok, match, 2)

	name, err := nmlscope.NewName(rawName)
	if err != nil {
		u.Report(*diagnostic.NewError(tok.Source, "invalid variable name").WithSpan(tok, err.Error()))
		return
	}

	vis := nmlscope.Internal
	if kw == "export" {
		vis = nmlscope.Exported
	}

	var v nmlscope.Variable
	switch index {
	case braceIdx:
		content := groupToken(tok, match, 3)
		unescaped := source.EscapeProcess(content, ":VAR:"+string(name))
		v = &nmlscope.ContentVariable{Name_: name, Vis: vis, Loc: tok, ValTok: tok, Content: unescaped}

	case tripleSQIdx, tripleDQIdx, sqIdx, dqIdx:
		content := groupToken(tok, match, 3)
		unescaped := source.EscapeProcess(content, ":VAR:"+string(name))
		v = &nmlscope.PropertyVariable{
			Name_: name, Vis: vis, Loc: tok, ValTok: tok,
			Kind: nmlscope.PropertyString, StringValue: unescaped.Content(),
		}

	default: // bareIdx
		hasValue := group(tok, match, 3) == "="
		if !hasValue {
			u.Report(*diagnostic.NewError(tok.Source, "missing '=' in variable declaration").
				WithSpan(tok, fmt.Sprintf("expected %q = value", name)))
			return
		}
		value := group(tok, match, 4)
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			v = &nmlscope.PropertyVariable{Name_: name, Vis: vis, Loc: tok, ValTok: tok, Kind: nmlscope.PropertyInt, IntValue: n}
		} else {
			v = &nmlscope.PropertyVariable{Name_: name, Vis: vis, Loc: tok, ValTok: tok, Kind: nmlscope.PropertyString, StringValue: value}
		}
	}

	if prev, declScope, ok := u.CurrentScope().GetVariable(name); ok && declScope == u.CurrentScope() && prev.Mutability() == nmlscope.Immutable {
		u.Report(*diagnostic.NewError(tok.Source, "cannot redefine immutable variable").
			WithSpan(tok, fmt.Sprintf("%q cannot be redefined in this scope", name)))
		return
	}

	if _, had := u.CurrentScope().InsertVariable(v); had {
		u.Report(*diagnostic.NewWarning(tok.Source, "redefined variable").
			WithSpan(tok, fmt.Sprintf("%q was already defined in this scope", name)))
	}

	u.AddContent(&VariableDefinition{Base: element.Base{Loc: tok}, Variable: v})
}

// groupToken returns submatch i as a Token over tok's source, for
// callers that need to run it through source.EscapeProcess rather than
// just read its text.
func groupToken(tok source.Token, match []int, i int) source.Token {
	lo, hi := match[2*i], match[2*i+1]
	return source.NewToken(tok.Source, lo, hi)
}

var variableSubstRe = regexp.MustCompile(`%([^\s%]+)%`)

// VariableSubstitutionRule recognizes `%name%` inline references.
type VariableSubstitutionRule struct{}

func (VariableSubstitutionRule) Name() string             { return "Variable Substitution" }
func (VariableSubstitutionRule) Target() ruleset.Target   { return ruleset.Inline }
func (VariableSubstitutionRule) Regexes() []*regexp.Regexp { return []*regexp.Regexp{variableSubstRe} }
func (VariableSubstitutionRule) Enabled(u *unit.Unit, mode ruleset.ParseMode, index int) bool {
	return true
}

func (VariableSubstitutionRule) OnRegexMatch(u *unit.Unit, index int, tok source.Token, match []int) {
	rawName := group(tok, match, 1)
	name, err := nmlscope.NewName(rawName)
	if err != nil {
		u.Report(*diagnostic.NewError(tok.Source, "invalid variable name").WithSpan(tok, err.Error()))
		return
	}

	v, _, ok := u.CurrentScope().GetVariable(name)
	if !ok {
		u.Report(*diagnostic.NewError(tok.Source, "undefined variable").WithSpan(tok, fmt.Sprintf("%q is not defined in this scope", name)))
		return
	}

	// A Content variable is re-parsed on every reference, in its own
	// fresh child scope, so two uses of `%x%` never share parse state.
	// A Property variable has no further structure to parse; its
	// String() rendering is emitted as plain, sanitized text.
	cv, ok := v.(*nmlscope.ContentVariable)
	if !ok {
		u.AddContent(&substitutionResult{Base: element.Base{Loc: tok}, text: v.String()})
		return
	}

	var scopes []*nmlscope.Scope
	u.WithChild(cv.Content, true, func(child *nmlscope.Scope) {
		kernel.Reparse(u)
		scopes = append(scopes, child)
	})
	u.AddContent(&variableExpansion{Base: element.Base{Loc: tok}, scopes: scopes})
}

// variableExpansion is the element emitted for a `%name%` reference to
// a Content variable: a Container with no Compile method of its own,
// since compiler.CompileUnit's recursive iterator walks Contained()
// scopes and compiles whatever they hold directly.
type variableExpansion struct {
	element.Base
	scopes []*nmlscope.Scope
}

func (e *variableExpansion) Kind() element.Kind           { return element.Compound }
func (e *variableExpansion) Name() string                 { return "Variable Substitution" }
func (e *variableExpansion) Contained() []*nmlscope.Scope  { return e.scopes }
func (e *variableExpansion) NestedKind() element.Kind      { return element.ComputeNestedKind(e) }

// substitutionResult is the element compiled for a resolved `%name%`
// reference to a Property variable: its text is captured at resolution
// time so the scope tree doesn't need to carry a live variable
// reference through to the compile pass.
type substitutionResult struct {
	element.Base
	text string
}

func (s *substitutionResult) Kind() element.Kind { return element.Inline }
func (s *substitutionResult) Name() string        { return "Variable Substitution" }
func (s *substitutionResult) Compile(ctx *compiler.Context, out *compiler.Output) error {
	out.AddContent(ctx.Sanitize(s.text))
	return nil
}
