// Package source finds the Nix files uptix scans for declarations.
package source

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/uptix/pkg/errors"
)

// Extension is the suffix of files Discover returns.
const Extension = ".nix"

// Discover walks root and returns every *.nix file below it in sorted
// order. Hidden directories and files (name starting with ".") are skipped,
// except root itself. exclude holds filepath.Match patterns tested against
// both the slash-separated path relative to root and the base name; a
// matching directory is not descended into.
func Discover(root string, exclude []string) ([]string, error) {
	for _, pattern := range exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUsage, err, "bad exclude pattern %q", pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || excluded(root, path, exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == Extension {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "scan %s", root)
	}
	sort.Strings(files)
	return files, nil
}

func excluded(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}
