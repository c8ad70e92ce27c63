package plaintext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractUTF8(t *testing.T) {
	path := writeFile(t, "depo.txt", []byte("  Q. State your name.\nA. Dr. Smith.\n"))

	got, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Q. State your name.\nA. Dr. Smith." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as a standalone UTF-8 byte.
	path := writeFile(t, "expose.txt", []byte{'e', 'x', 'p', 'o', 's', 0xE9})

	got, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "exposé" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestExtractEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.txt", nil)

	got, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
