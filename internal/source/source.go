// Package source implements the Source & Position Model: addressable
// content units (files and virtual derivations), byte-range tokens, and
// the position-mapping machinery that lets diagnostics and LSP data
// emitted against a virtual source point back at the file that
// originated it.
package source

import (
	"fmt"
	"os"
	"sort"
)

// Source is an addressable content unit: either a File (a real,
// path-identified file) or a Virtual derivation of one. Every Virtual
// source transitively reaches a File; content is immutable after
// construction and is always UTF-8.
type Source interface {
	// Name returns the path (for File) or synthetic identifier (for
	// Virtual, e.g. ":LUA:42") of this source.
	Name() string
	// Content returns the full byte content of this source.
	Content() string
	// Location returns the token in the parent source that produced
	// this source, or nil if this is a root File.
	Location() *Token
}

// File is a Source backed by a real file on disk.
type File struct {
	path     string
	content  string
	location *Token
}

// NewFile reads path from disk and wraps it as a File source.
func NewFile(path string, location *Token) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read file content: %s: %w", path, err)
	}
	return &File{path: path, content: string(data), location: location}, nil
}

// NewFileWithContent builds a File source from already-loaded content,
// without touching disk. Used for the root document when content is
// supplied programmatically (e.g. by an LSP client).
func NewFileWithContent(path, content string, location *Token) *File {
	return &File{path: path, content: content, location: location}
}

func (f *File) Name() string     { return f.path }
func (f *File) Content() string  { return f.content }
func (f *File) Location() *Token { return f.location }
func (f *File) Path() string     { return f.path }

// offsetEntry is one row of a Virtual source's offset table: at byte
// position Pos (and beyond, until the next entry), Delta must be added
// to recover the corresponding position in the parent source.
type offsetEntry struct {
	Pos   int
	Delta int
}

// Virtual is a Source derived from a range of another source (its
// parent), optionally carrying an offset table that maps its own byte
// positions back to the parent's byte positions. Offset tables are
// produced by escape-processing helpers (see EscapeProcess) whenever
// the virtual content is not a verbatim substring of the parent.
type Virtual struct {
	location *Token
	name     string
	content  string
	offsets  []offsetEntry
}

// NewVirtual creates a Virtual source whose content is a verbatim copy
// of the token that produced it (no offset remapping needed).
func NewVirtual(location Token, name, content string) *Virtual {
	return &Virtual{location: &location, name: name, content: content}
}

// NewVirtualWithOffsets creates a Virtual source carrying an explicit
// offset table. offsets must be sorted by Pos ascending with
// non-decreasing Delta, as produced by EscapeProcess.
func NewVirtualWithOffsets(location Token, name, content string, offsets []struct {
	Pos   int
	Delta int
},
) *Virtual {
	entries := make([]offsetEntry, len(offsets))
	for i, o := range offsets {
		entries[i] = offsetEntry{Pos: o.Pos, Delta: o.Delta}
	}
	return &Virtual{location: &location, name: name, content: content, offsets: entries}
}

func (v *Virtual) Name() string     { return v.name }
func (v *Virtual) Content() string  { return v.content }
func (v *Virtual) Location() *Token { return v.location }

// position resolves a virtual-source-local byte position through this
// source's offset table, returning the corresponding position in its
// immediate parent.
func (v *Virtual) position(pos int) int {
	if len(v.offsets) == 0 {
		return pos
	}
	// Last entry with Pos <= pos.
	idx := sort.Search(len(v.offsets), func(i int) bool { return v.offsets[i].Pos > pos }) - 1
	if idx < 0 {
		return pos
	}
	return pos + v.offsets[idx].Delta
}

// Token is a byte range [Start, End) within a Source.
type Token struct {
	Source Source
	Start  int
	End    int
}

// NewToken builds a token over [start, end) in source.
func NewToken(source Source, start, end int) Token {
	return Token{Source: source, Start: start, End: end}
}

// EntireSource returns a token spanning the whole content of source.
func EntireSource(src Source) Token {
	return Token{Source: src, Start: 0, End: len(src.Content())}
}

// Content returns the substring of the source covered by this token.
func (t Token) Content() string {
	return t.Source.Content()[t.Start:t.End]
}

// ToSource turns this token's content into a new Virtual source
// located at this token, named name.
func (t Token) ToSource(name string) *Virtual {
	return NewVirtual(t, name, t.Content())
}

// OriginalPosition walks the Location() chain of src, applying any
// offset tables along the way, until it reaches a File. It returns
// that File and the byte position within it corresponding to pos in
// src.
func OriginalPosition(src Source, pos int) (*File, int) {
	for {
		if f, ok := src.(*File); ok {
			return f, pos
		}
		v, ok := src.(*Virtual)
		if !ok {
			// Unknown source kind with no parent: treat as terminal.
			return nil, pos
		}
		pos = v.position(pos)
		loc := v.Location()
		if loc == nil {
			return nil, pos
		}
		pos = loc.Start + pos
		src = loc.Source
	}
}

// OriginalRange is the range analogue of OriginalPosition: it maps
// [start, end) in src back to a Token in the root File.
func OriginalRange(src Source, start, end int) Token {
	f, s := OriginalPosition(src, start)
	_, e := OriginalPosition(src, end)
	if f == nil {
		// No File ancestor could be found (shouldn't happen for
		// well-formed sources); fall back to the range as-is.
		return Token{Source: src, Start: start, End: end}
	}
	return Token{Source: f, Start: s, End: e}
}
