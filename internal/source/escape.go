package source

import "strings"

// OffsetEntry is one row of a Virtual source's offset table, exported
// for callers (such as EscapeProcess) that need to build one.
type OffsetEntry struct {
	Pos   int
	Delta int
}

// EscapeProcess consumes backslash-escapes from token's content and
// produces a Virtual source holding the unescaped text, along with an
// offset table that lets diagnostics against the unescaped text
// recover byte-exact positions in the original token.
//
// A backslash followed by any byte X (`\X`) collapses to `X`, so `\\`
// collapses to a single backslash;
// every removed backslash shifts all subsequent positions in the
// virtual source by one byte relative to the parent, which is recorded
// as a cumulative, non-decreasing delta.
func EscapeProcess(tok Token, name string) *Virtual {
	content := tok.Content()
	var out strings.Builder
	out.Grow(len(content))

	var offsets []OffsetEntry
	delta := 0
	escaped := false
	for i := 0; i < len(content); i++ {
		c := content[i]
		if !escaped && c == '\\' {
			escaped = true
			delta++
			offsets = append(offsets, OffsetEntry{Pos: out.Len(), Delta: delta})
			continue
		}
		escaped = false
		out.WriteByte(c)
	}

	structOffsets := make([]struct {
		Pos   int
		Delta int
	}, len(offsets))
	for i, o := range offsets {
		structOffsets[i] = struct {
			Pos   int
			Delta int
		}{Pos: o.Pos, Delta: o.Delta}
	}
	return NewVirtualWithOffsets(tok, name, out.String(), structOffsets)
}

// CleanText applies the dispatch loop's plain-text cleanup rule to raw
// source bytes between two rule matches: backslash-escapes consume the
// next codepoint literally, and a lone newline collapses to a single
// space. It does not track an offset table — it is used only to build
// the content of emitted Text elements, whose location is the token
// in the original source, not a new Virtual source.
func CleanText(raw string) string {
	var out strings.Builder
	out.Grow(len(raw))
	escaped := false
	for _, r := range raw {
		switch {
		case r == '\\' && !escaped:
			escaped = true
		case escaped:
			out.WriteRune(r)
			escaped = false
		case r == '\n':
			out.WriteByte(' ')
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
