package ports

import (
	"context"
	"io"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous single-document
// processing behind the ingest queue.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// BatchProcessor drives a whole corpus through extraction, metadata,
// chunking and indexing with per-file error isolation.
type BatchProcessor interface {
	Process(ctx context.Context, paths []string) (*domain.BatchResult, error)
}

// DocumentSearcher is the inbound contract for corpus search.
type DocumentSearcher interface {
	Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)
}

// CaseResearcher runs the staged motion-drafting pipeline.
type CaseResearcher interface {
	ProcessCase(ctx context.Context, req domain.CaseRequest) (*domain.CaseBrief, error)
}
