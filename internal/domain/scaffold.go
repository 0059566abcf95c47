package domain

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// DirPerm is the mode of every scaffolded directory.
const DirPerm os.FileMode = 0o775

// FilePerm is the mode of every seeded file.
const FilePerm os.FileMode = 0o644

//go:embed templates/*.yaml
var templates embed.FS

// FileSystem is the narrow set of filesystem primitives scaffolding and
// config loading rely on.
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
}

// EnsureDirectoriesExisting creates the service's six directories.
// Existing directories are left untouched.
func (s *Service) EnsureDirectoriesExisting() error {
	for _, dir := range s.Directories() {
		if err := s.fs.MkdirAll(dir, DirPerm); err != nil {
			return fmt.Errorf("service %s: ensure directory %s: %w", s.name, dir, err)
		}
	}
	return nil
}

// EnsureFilesExisting seeds the routes file and the service config file
// from their templates. A file that already exists is never rewritten.
func (s *Service) EnsureFilesExisting() error {
	if err := s.ensureFileExists(s.RoutesFile(), "templates/routes.yaml"); err != nil {
		return err
	}
	return s.ensureFileExists(s.ServiceConfigFile(), "templates/service.yaml")
}

func (s *Service) ensureFileExists(file, template string) error {
	exists, err := s.fs.Exists(file)
	if err != nil {
		return fmt.Errorf("service %s: stat %s: %w", s.name, file, err)
	}
	if exists {
		return nil
	}

	content, err := templates.ReadFile(template)
	if err != nil {
		return fmt.Errorf("service %s: read template %s: %w", s.name, template, err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(file), DirPerm); err != nil {
		return fmt.Errorf("service %s: ensure directory for %s: %w", s.name, file, err)
	}
	if err := s.fs.WriteFile(file, content, FilePerm); err != nil {
		return fmt.Errorf("service %s: write %s: %w", s.name, file, err)
	}
	return nil
}
