// Package fs provides the filesystem adapter used for source discovery and
// staleness checks.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker enumerates files below a directory.
type Walker struct {
	ignores []string
}

// NewWalker creates a Walker that skips VCS metadata and anything whose base
// name matches one of ignores.
func NewWalker(ignores ...string) *Walker {
	return &Walker{ignores: ignores}
}

// WalkFiles yields every regular file below root in lexical order. A walk
// error is yielded once and ends the iteration.
func (w *Walker) WalkFiles(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path != root && w.skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() || w.ignored(d.Name()) {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}

func (w *Walker) skipDir(name string) bool {
	switch name {
	case ".git", ".jj", ".hg":
		return true
	}
	return w.ignored(name)
}

func (w *Walker) ignored(name string) bool {
	for _, pattern := range w.ignores {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
