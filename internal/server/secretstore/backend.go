package secretstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/studentvault/internal/filex"
)

// Backend persists the raw secret file. Write must replace the previous
// content atomically: a reader sees either the old file or the new one.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Describe names the location for logs. It never contains secrets.
	Describe() string
}

// FileBackend keeps the secret file on the local filesystem.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, nil
}

// Write creates the parent directory when needed and replaces the file via
// temp file and rename. The file is readable by the owner only.
func (b *FileBackend) Write(ctx context.Context, data []byte) error {
	if err := filex.EnsureDir(filepath.Dir(b.path)); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(b.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", b.path, err)
	}
	return nil
}

func (b *FileBackend) Describe() string {
	return "file:" + b.path
}
