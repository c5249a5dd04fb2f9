package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// FileSystem implements ports.FileSystem on the local disk.
type FileSystem struct {
	walker *Walker
}

// NewFileSystem creates a FileSystem that enumerates files with walker.
func NewFileSystem(walker *Walker) *FileSystem {
	return &FileSystem{walker: walker}
}

// Stat returns file info for path.
func (f *FileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the whole file at path.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) //nolint:gosec // paths come from the build catalog
}

// Glob returns the files below root whose extension is in exts, sorted.
// An empty exts matches every file. Extensions match case-sensitively so
// ".S" (preprocessed assembly) and ".s" stay distinct.
func (f *FileSystem) Glob(root string, exts []string) ([]string, error) {
	var matches []string
	for path, err := range f.walker.WalkFiles(root) {
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceDiscoveryFailed.Error()), "dir", root)
		}
		if len(exts) == 0 || slices.Contains(exts, filepath.Ext(path)) {
			matches = append(matches, path)
		}
	}
	slices.Sort(matches)
	return matches, nil
}

// MkdirAll creates path and any missing parents.
func (f *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o750)
}
