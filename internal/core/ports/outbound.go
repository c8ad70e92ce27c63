package ports

import (
	"context"
	"io"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// DocumentRepository persists and reads source-document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveMetadata(ctx context.Context, id string, meta domain.DocumentMetadata) error
}

// BriefRepository persists finished case briefs.
type BriefRepository interface {
	SaveBrief(ctx context.Context, brief *domain.CaseBrief) error
	GetBriefByID(ctx context.Context, id string) (*domain.CaseBrief, error)
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a file on disk. It returns a typed
// extraction error (domain.ErrExtraction) when the whole file cannot be read;
// partial failures inside a file are logged and skipped.
type TextExtractor interface {
	Extract(ctx context.Context, path string, mediaType domain.MediaType) (string, error)
}

// MetadataExtractor derives structured metadata from a document head sample.
// It degrades to the sentinel failure record on malformed responses or
// service errors and only returns an error for context cancellation.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, textSample, fileName string) (domain.DocumentMetadata, error)
}

// Chunker splits extracted text into overlapping, boundary-respecting chunks.
type Chunker interface {
	Split(text string) []domain.Chunk
}

// VectorStore indexes chunk records and performs semantic search. Add is
// atomic per document batch; Search tolerates a missing collection by
// returning an empty result set.
type VectorStore interface {
	Add(ctx context.Context, records []domain.VectorRecord) error
	Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)
}

// GenerateOptions bound a single text-generation call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// TextGenerator is the language-generation service contract. Implementations
// must tolerate non-JSON responses when JSON was requested upstream.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// ResearchRequest carries the inputs of one research sub-call.
type ResearchRequest struct {
	ExpertName    string
	Methodologies []string
	KeyFindings   []string
	Strategy      domain.Strategy
	CaseSummary   string
}

// LegalResearcher searches legal databases for precedent.
type LegalResearcher interface {
	LegalResearch(ctx context.Context, req ResearchRequest) (domain.ResearchFindings, error)
}

// ScientificResearcher searches scientific literature databases.
type ScientificResearcher interface {
	ScientificResearch(ctx context.Context, req ResearchRequest) (domain.ResearchFindings, error)
}

// BatchStateStore reads and writes the batch result JSON used for
// resumable corpus runs.
type BatchStateStore interface {
	Load(path string) (*domain.BatchResult, error)
	Save(path string, result *domain.BatchResult) error
}
