package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// discoverUnits expands targets (file or directory paths) into the
// list of .nml files to build, walking directories recursively and
// skipping anything doublestar's "**/*.nml" pattern wouldn't match.
func discoverUnits(targets []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("accessing %s: %w", target, err)
		}

		if !info.IsDir() {
			if !seen[target] {
				seen[target] = true
				paths = append(paths, target)
			}
			continue
		}

		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(target, path)
			if err != nil {
				rel = path
			}
			matched, err := doublestar.Match("**/*.nml", filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			if matched && !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", target, err)
		}
	}

	return paths, nil
}
