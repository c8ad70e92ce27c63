package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// Store persists batch results as JSON on disk. The file is the resume
// contract: a later run loads it, skips the files it lists as processed and
// merges its own results back in.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Load reads a previous batch result. A missing file is not an error: it
// means a fresh run.
func (s *Store) Load(path string) (*domain.BatchResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewBatchResult(), nil
		}
		return nil, fmt.Errorf("read batch state: %w", err)
	}

	result := domain.NewBatchResult()
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("parse batch state %s: %w", path, err)
	}
	if result.ExtractedVariables == nil {
		result.ExtractedVariables = map[string]domain.DocumentMetadata{}
	}
	return result, nil
}

// Save writes the result atomically: full write to a temp file in the same
// directory, then rename. A crash mid-save never truncates the resume state.
func (s *Store) Save(path string, result *domain.BatchResult) error {
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".batch-state-*.json")
	if err != nil {
		return fmt.Errorf("create temp batch state: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write batch state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close batch state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace batch state: %w", err)
	}
	return nil
}
