package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage provides methods for persisting files of the generated website.
type Storage interface {
	Store(ctx context.Context, name string, content io.Reader) error
}

// FileStorage persists to a local file system.
// Files are written to a temporary file first and renamed into place,
// readers never observe a partially written output.
type FileStorage struct {
	baseDir  string
	fileMode os.FileMode
}

// NewFileStorage returns an initialized FileStorage.
func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{baseDir: baseDir, fileMode: 0644}
}

var ErrEmptyName = fmt.Errorf("name must not be empty")

// Path returns the destination of name below the base directory.
func (s *FileStorage) Path(name string) string {
	// Making the name absolute first drops parent directory references.
	return filepath.Join(s.baseDir, filepath.Clean("/"+filepath.FromSlash(name)))
}

// Store implements Storage.
func (s *FileStorage) Store(ctx context.Context, name string, content io.Reader) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	err := ctx.Err()
	if err != nil {
		return err
	}

	destPath := s.Path(name)
	err = os.MkdirAll(filepath.Dir(destPath), 0755)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, content)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s failed: %w", name, err)
	}
	err = tmp.Chmod(s.fileMode)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), destPath)
}
