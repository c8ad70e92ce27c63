package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

func TestLoadMissingFileIsFreshRun(t *testing.T) {
	store := NewStore()
	result, err := store.Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Summary.TotalFiles != 0 || len(result.ProcessedFiles) != 0 {
		t.Fatalf("result = %+v, want empty", result)
	}
	if result.ExtractedVariables == nil {
		t.Fatal("maps must be initialized")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore()
	path := filepath.Join(t.TempDir(), "batch_results.json")

	original := domain.NewBatchResult()
	original.ProcessedFiles = []string{"/corpus/a.pdf", "/corpus/b.txt"}
	original.VectorIDs = []string{"a_chunk_0", "a_chunk_1", "b_chunk_0"}
	original.ExtractedVariables["a.pdf"] = domain.DocumentMetadata{
		ExpertName:   "Dr. Smith",
		DocumentType: domain.DocTypeReport,
		KeyFindings:  []string{"mild TBI"},
	}
	original.Errors = append(original.Errors, domain.FileError{File: "/corpus/bad.pdf", Error: "corrupt"})
	original.Summary = domain.BatchSummary{TotalFiles: 3, SuccessfullyProcessed: 2, Failed: 1, TotalVectorsCreated: 3}

	if err := store.Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.ProcessedFiles) != 2 || loaded.ProcessedFiles[0] != "/corpus/a.pdf" {
		t.Fatalf("processed = %v", loaded.ProcessedFiles)
	}
	if loaded.Summary != original.Summary {
		t.Fatalf("summary = %+v, want %+v", loaded.Summary, original.Summary)
	}
	if meta := loaded.ExtractedVariables["a.pdf"]; meta.ExpertName != "Dr. Smith" {
		t.Fatalf("metadata = %+v", meta)
	}

	set := loaded.ProcessedSet()
	if _, ok := set["/corpus/a.pdf"]; !ok {
		t.Fatal("ProcessedSet missing entry")
	}
}

func TestSavedFileUsesContractKeys(t *testing.T) {
	store := NewStore()
	path := filepath.Join(t.TempDir(), "batch_results.json")
	if err := store.Save(path, domain.NewBatchResult()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"processed_files", "extracted_variables", "vector_ids", "errors", "summary"} {
		if _, ok := generic[key]; !ok {
			t.Fatalf("saved state missing contract key %q (has %v)", key, keys(generic))
		}
	}
}

func TestLoadRejectsCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch_results.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore().Load(path); err == nil {
		t.Fatal("corrupt state must fail loudly, not silently reprocess everything")
	}
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
