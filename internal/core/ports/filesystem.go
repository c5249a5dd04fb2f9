package ports

import "io/fs"

// FileSystem is the filesystem surface the engine depends on.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Stat returns file info for the given path.
	Stat(path string) (fs.FileInfo, error)

	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)

	// Glob returns the files below root whose extension is one of exts, sorted.
	Glob(root string, exts []string) ([]string, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error
}
