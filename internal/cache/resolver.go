package cache

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/termfx/nml/internal/element"
	"github.com/termfx/nml/internal/nmlscope"
	"github.com/termfx/nml/internal/unit"
)

// ResolveErrorKind classifies why ResolveReference failed.
type ResolveErrorKind int

const (
	// NotFound means the named reference doesn't exist in its unit.
	NotFound ResolveErrorKind = iota
	// InvalidPath means refname names a unit with no known reference key.
	InvalidPath
)

// ResolveError is returned by Resolver.ResolveReference.
type ResolveError struct {
	Kind   ResolveErrorKind
	Detail string
}

func (e *ResolveError) Error() string {
	switch e.Kind {
	case InvalidPath:
		return fmt.Sprintf("invalid reference path: %s", e.Detail)
	default:
		return fmt.Sprintf("reference not found: %s", e.Detail)
	}
}

// Resolver answers link-time reference lookups across every unit a
// compilation loaded, falling back to the cache database for units
// that were compiled in a previous run and not touched this time.
type Resolver struct {
	cache  *Cache
	loaded map[string]*unit.Unit // keyed by reference key
}

// NewResolver builds a Resolver over the given loaded units. It fails
// if two loaded units (or a loaded unit and one already recorded in
// the cache database under a different input file) claim the same
// reference key. It only reads the database; PersistUnits is what
// records the units' reference keys there.
func NewResolver(c *Cache, units []*unit.Unit) (*Resolver, error) {
	loaded := make(map[string]*unit.Unit, len(units))
	for _, u := range units {
		key := u.ReferenceKey()
		if prev, ok := loaded[key]; ok {
			return nil, fmt.Errorf(
				"duplicate reference key %q: unit %q and unit %q",
				key, u.Path(), prev.Path())
		}
		loaded[key] = u

		var row ReferenceableUnit
		err := withRetry(func() error {
			return c.db.Where("reference_key = ?", key).First(&row).Error
		})
		switch {
		case err == nil && row.InputFile != u.Path():
			return nil, fmt.Errorf(
				"duplicate reference key %q: unit %q and cached unit %q",
				key, u.Path(), row.InputFile)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("cache: lookup reference key %q: %w", key, err)
		}
	}
	return &Resolver{cache: c, loaded: loaded}, nil
}

// PersistUnits upserts every loaded unit's reference key and
// input/output file mapping, and every reference it declares, into the
// cache database. Call once a unit has finished compiling.
func (r *Resolver) PersistUnits() error {
	for key, u := range r.loaded {
		out := u.Output()
		outputFile := ""
		if out != nil {
			outputFile = out.OutputFile
		}
		row := ReferenceableUnit{ReferenceKey: key, InputFile: u.Path(), OutputFile: outputFile}
		if err := withRetry(func() error {
			return r.cache.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
		}); err != nil {
			return fmt.Errorf("cache: persist unit %q: %w", u.Path(), err)
		}

		for name, ref := range u.References() {
			loc := ref.Location()
			row := ReferenceRow{
				Anchor:       fmt.Sprintf("%s#%s", key, name),
				ReferenceKey: key,
				Refname:      name,
				Refkey:       ref.RefcountKey(),
				TokenStart:   loc.Start,
				TokenEnd:     loc.End,
			}
			if err := withRetry(func() error {
				return r.cache.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
			}); err != nil {
				return fmt.Errorf("cache: persist reference %q: %w", row.Anchor, err)
			}
		}
	}
	return nil
}

// ResolveReference resolves refname as seen from u into a link-time
// Reference, searching u itself for an Internal refname, the matching
// loaded or cached unit for an External refname, and reporting
// Bibliography refnames as unsupported (no bibliography store exists
// yet in this package).
func (r *Resolver) ResolveReference(u *unit.Unit, refname nmlscope.Refname) (nmlscope.Reference, error) {
	switch refname.Kind {
	case nmlscope.RefnameInternal:
		ref, ok := u.GetReference(refname.Name)
		if !ok {
			return nmlscope.Reference{}, &ResolveError{Kind: NotFound, Detail: refname.Name}
		}
		return toReference(u.ReferenceKey(), ref), nil

	case nmlscope.RefnameExternal:
		if target, ok := r.loaded[refname.Unit]; ok {
			ref, ok := target.GetReference(refname.Name)
			if !ok {
				return nmlscope.Reference{}, &ResolveError{
					Kind:   NotFound,
					Detail: fmt.Sprintf("%s in unit %s", refname.Name, refname.Unit),
				}
			}
			return toReference(refname.Unit, ref), nil
		}
		return r.resolveFromDatabase(refname)

	case nmlscope.RefnameBibliography:
		return nmlscope.Reference{}, &ResolveError{
			Kind:   InvalidPath,
			Detail: "bibliography resolution is not implemented",
		}

	default:
		return nmlscope.Reference{}, &ResolveError{Kind: InvalidPath, Detail: refname.String()}
	}
}

func (r *Resolver) resolveFromDatabase(refname nmlscope.Refname) (nmlscope.Reference, error) {
	var unitRow ReferenceableUnit
	err := withRetry(func() error {
		return r.cache.db.Where("reference_key = ?", refname.Unit).First(&unitRow).Error
	})
	if err != nil {
		return nmlscope.Reference{}, &ResolveError{
			Kind:   InvalidPath,
			Detail: fmt.Sprintf("no unit with reference key %q", refname.Unit),
		}
	}

	var refRow ReferenceRow
	anchor := fmt.Sprintf("%s#%s", refname.Unit, refname.Name)
	err = withRetry(func() error {
		return r.cache.db.Where("anchor = ?", anchor).First(&refRow).Error
	})
	if err != nil {
		return nmlscope.Reference{}, &ResolveError{
			Kind:   NotFound,
			Detail: fmt.Sprintf("%s in unit %s", refname.Name, refname.Unit),
		}
	}

	return nmlscope.Reference{
		Refname:    refRow.Refname,
		Refkey:     refRow.Refkey,
		SourceUnit: refname.Unit,
		Start:      refRow.TokenStart,
		End:        refRow.TokenEnd,
	}, nil
}

func toReference(sourceUnit string, ref element.Referenceable) nmlscope.Reference {
	loc := ref.Location()
	return nmlscope.Reference{
		Refname:    ref.Refname().String(),
		Refkey:     ref.RefcountKey(),
		SourceUnit: sourceUnit,
		Start:      loc.Start,
		End:        loc.End,
	}
}
