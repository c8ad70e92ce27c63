package anthropic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

type stubGenerator struct {
	response string
	err      error
}

func (s *stubGenerator) Generate(context.Context, string, ports.GenerateOptions) (string, error) {
	return s.response, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractMetadataParsesCleanJSON(t *testing.T) {
	gen := &stubGenerator{response: `{
		"expert_name": "Dr. Jane Smith",
		"document_type": "Deposition",
		"document_date": "2023-04-12",
		"case_name": "Doe v. Acme",
		"key_findings": ["mild TBI", "memory deficits"],
		"expert_credentials": ["MD", "PhD"]
	}`}

	meta, err := NewMetadataExtractor(gen, discardLogger()).ExtractMetadata(context.Background(), "sample", "depo.pdf")
	if err != nil {
		t.Fatalf("ExtractMetadata: %v", err)
	}
	if meta.ExpertName != "Dr. Jane Smith" {
		t.Fatalf("expert = %q", meta.ExpertName)
	}
	if meta.DocumentType != domain.DocTypeDeposition {
		t.Fatalf("type = %q, want normalized deposition", meta.DocumentType)
	}
	if len(meta.KeyFindings) != 2 || len(meta.ExpertCredentials) != 2 {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestExtractMetadataStripsCodeFences(t *testing.T) {
	gen := &stubGenerator{response: "```json\n{\"expert_name\": \"Dr. Smith\", \"document_type\": \"report\"}\n```"}

	meta, err := NewMetadataExtractor(gen, discardLogger()).ExtractMetadata(context.Background(), "sample", "r.pdf")
	if err != nil {
		t.Fatalf("ExtractMetadata: %v", err)
	}
	if meta.ExpertName != "Dr. Smith" || meta.DocumentType != domain.DocTypeReport {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestExtractMetadataToleratesSurroundingProse(t *testing.T) {
	gen := &stubGenerator{response: "Here is the metadata you asked for:\n{\"expert_name\": \"Dr. Smith\"}\nLet me know if you need more."}

	meta, err := NewMetadataExtractor(gen, discardLogger()).ExtractMetadata(context.Background(), "sample", "r.pdf")
	if err != nil {
		t.Fatalf("ExtractMetadata: %v", err)
	}
	if meta.ExpertName != "Dr. Smith" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestExtractMetadataDegradesToSentinel(t *testing.T) {
	cases := map[string]*stubGenerator{
		"vendor error":  {err: errors.New("model overloaded")},
		"non-json text": {response: "I cannot analyze this document."},
	}
	for name, gen := range cases {
		meta, err := NewMetadataExtractor(gen, discardLogger()).ExtractMetadata(context.Background(), "sample", "x.pdf")
		if err != nil {
			t.Fatalf("%s: ExtractMetadata: %v", name, err)
		}
		if !meta.Failed() {
			t.Fatalf("%s: meta = %+v, want sentinel", name, meta)
		}
		if meta.KeyFindings == nil || meta.ExpertCredentials == nil {
			t.Fatalf("%s: sentinel lists must be empty, not nil", name)
		}
	}
}

func TestExtractMetadataPropagatesCancellation(t *testing.T) {
	gen := &stubGenerator{err: context.Canceled}

	_, err := NewMetadataExtractor(gen, discardLogger()).ExtractMetadata(context.Background(), "sample", "x.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestExtractMetadataNormalizesUnknownType(t *testing.T) {
	gen := &stubGenerator{response: `{"expert_name": "Dr. Smith", "document_type": "expert disclosure"}`}

	meta, err := NewMetadataExtractor(gen, discardLogger()).ExtractMetadata(context.Background(), "sample", "x.pdf")
	if err != nil {
		t.Fatalf("ExtractMetadata: %v", err)
	}
	if meta.DocumentType != domain.DocTypeOther {
		t.Fatalf("type = %q, want other", meta.DocumentType)
	}
}
