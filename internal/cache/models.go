// Package cache implements the cross-unit cache: a GORM-backed store
// recording which units are referenceable (and under what key), the
// references they declare, and content-addressed rule artifacts
// (rendered Tex, Graphviz, and highlighted Code blocks) so a
// compilation doesn't redo expensive external rendering on unchanged
// input.
package cache

import "time"

// ReferenceableUnit records one compiled unit's reference key and the
// input/output file pair it maps to, so an External refname
// (`unit#name`) in one unit can find the unit it points at even
// across separate compiler invocations.
type ReferenceableUnit struct {
	ReferenceKey string `gorm:"primaryKey"`
	InputFile    string `gorm:"not null"`
	OutputFile   string `gorm:"not null"`
	UpdatedAt    time.Time
}

func (ReferenceableUnit) TableName() string { return "referenceable_units" }

// ReferenceRow is one persisted reference: a unit's declared
// referenceable element, keyed by its cross-unit anchor
// (`unit#refname`).
type ReferenceRow struct {
	Anchor       string `gorm:"primaryKey"`
	ReferenceKey string `gorm:"not null;index"`
	Refname      string `gorm:"not null"`
	Refkey       string `gorm:"not null"`
	TokenStart   int
	TokenEnd     int
	UpdatedAt    time.Time
}

func (ReferenceRow) TableName() string { return "references" }

// CachedTex is a content-addressed cache entry for one rendered TeX
// fragment, keyed by the SHA-512 of its source.
type CachedTex struct {
	Hash      string `gorm:"primaryKey"`
	Source    string `gorm:"not null"`
	Rendered  []byte `gorm:"not null"`
	CreatedAt time.Time
}

func (CachedTex) TableName() string { return "cached_tex" }

// CachedGraphviz is a content-addressed cache entry for one rendered
// Graphviz diagram.
type CachedGraphviz struct {
	Hash      string `gorm:"primaryKey"`
	Source    string `gorm:"not null"`
	Rendered  []byte `gorm:"not null"`
	CreatedAt time.Time
}

func (CachedGraphviz) TableName() string { return "cached_graphviz" }

// CachedCode is a content-addressed cache entry for one language's
// highlighted rendering of a code block.
type CachedCode struct {
	Hash      string `gorm:"primaryKey"`
	Language  string `gorm:"not null;index"`
	Source    string `gorm:"not null"`
	Rendered  string `gorm:"not null"`
	CreatedAt time.Time
}

func (CachedCode) TableName() string { return "cached_code" }
