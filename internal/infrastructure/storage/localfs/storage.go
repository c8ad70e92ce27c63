package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage keeps uploaded source documents on the local filesystem. Keys are
// flat file names; the ingest layer guarantees they are already sanitized.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/documents"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create document storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	f, err := os.Create(filepath.Join(s.basePath, key))
	if err != nil {
		return fmt.Errorf("create document file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write document file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, key))
	if err != nil {
		return nil, fmt.Errorf("open document file: %w", err)
	}
	return f, nil
}

// Path resolves a key to an absolute-ish on-disk path. The PDF and DOCX
// extractors operate on file paths rather than readers, so this is part of
// the storage contract.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.basePath, key)
}
