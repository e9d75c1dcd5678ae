package cache

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"
)

// Hash returns the content address used to key every artifact table:
// the hex-encoded SHA-512 of source.
func Hash(source string) string {
	sum := sha512.Sum512([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Tex returns the cached rendering of source if one exists, otherwise
// calls render, stores its result under source's hash, and returns it.
// render is only ever called on a cache miss.
func (c *Cache) Tex(source string, render func() ([]byte, error)) ([]byte, error) {
	return cachedBytes(c, &CachedTex{}, source, render, func(row *CachedTex) []byte { return row.Rendered },
		func(hash, source string, rendered []byte) any {
			return &CachedTex{Hash: hash, Source: source, Rendered: rendered}
		})
}

// Graphviz returns the cached rendering of source if one exists,
// otherwise calls render and stores its result.
func (c *Cache) Graphviz(source string, render func() ([]byte, error)) ([]byte, error) {
	return cachedBytes(c, &CachedGraphviz{}, source, render, func(row *CachedGraphviz) []byte { return row.Rendered },
		func(hash, source string, rendered []byte) any {
			return &CachedGraphviz{Hash: hash, Source: source, Rendered: rendered}
		})
}

// Code returns the cached highlighted rendering of source in language
// if one exists, otherwise calls render and stores its result. The
// hash is computed over language and source together, since the same
// source highlights differently per language.
func (c *Cache) Code(language, source string, render func() (string, error)) (string, error) {
	hash := Hash(language + "\x00" + source)

	var row CachedCode
	err := withRetry(func() error {
		return c.db.Where("hash = ?", hash).First(&row).Error
	})
	if err == nil {
		return row.Rendered, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	rendered, err := render()
	if err != nil {
		return "", err
	}

	entry := &CachedCode{Hash: hash, Language: language, Source: source, Rendered: rendered}
	if err := withRetry(func() error {
		return c.db.Create(entry).Error
	}); err != nil {
		return "", err
	}
	return rendered, nil
}

// cachedBytes implements the read-or-render-and-store pattern shared
// by Tex and Graphviz, which only differ in their row type and the
// []byte field name.
func cachedBytes[T any](
	c *Cache,
	row *T,
	source string,
	render func() ([]byte, error),
	extract func(*T) []byte,
	build func(hash, source string, rendered []byte) any,
) ([]byte, error) {
	hash := Hash(source)

	err := withRetry(func() error {
		return c.db.Where("hash = ?", hash).First(row).Error
	})
	if err == nil {
		return extract(row), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rendered, err := render()
	if err != nil {
		return nil, err
	}

	entry := build(hash, source, rendered)
	if err := withRetry(func() error {
		return c.db.Create(entry).Error
	}); err != nil {
		return nil, err
	}
	return rendered, nil
}
