// Package fsys implements the filesystem primitives used by scaffolding on
// top of go-billy, so the same code runs against the OS or an in-memory tree.
package fsys

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS adapts a billy.Filesystem.
type FS struct {
	fs billy.Filesystem
}

// New wraps an existing billy filesystem.
func New(fs billy.Filesystem) *FS {
	return &FS{fs: fs}
}

// NewOS returns a filesystem rooted at "/" so absolute paths map to the host.
func NewOS() *FS {
	return New(osfs.New("/"))
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *FS {
	return New(memfs.New())
}

// MkdirAll creates path and its parents. Existing directories are not an error.
func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("billy: mkdirall %q: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("billy: stat %q: %w", path, err)
	}
}

// ReadFile returns the content of path.
func (b *FS) ReadFile(path string) ([]byte, error) {
	bts, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("billy: readfile %q: %w", path, err)
	}
	return bts, nil
}

// WriteFile creates or truncates path with data.
func (b *FS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, path, data, perm); err != nil {
		return fmt.Errorf("billy: writefile %q: %w", path, err)
	}
	return nil
}
