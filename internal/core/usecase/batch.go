package usecase

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

// ProcessBatchUseCase drives a corpus of files through extraction, metadata
// enrichment, chunking and vector indexing. Files are processed one at a
// time: a single failure stays attributable to its file and the metadata
// service's rate limits are respected.
type ProcessBatchUseCase struct {
	extractor ports.TextExtractor
	metadata  ports.MetadataExtractor
	chunker   ports.Chunker
	vectorDB  ports.VectorStore
	logger    *slog.Logger

	exclude map[string]struct{}
}

type BatchOption func(*ProcessBatchUseCase)

// WithExcludedPaths skips paths already processed by an earlier run. The
// bookkeeping of "already processed" is the caller's (the batch result JSON),
// not internal state.
func WithExcludedPaths(paths map[string]struct{}) BatchOption {
	return func(uc *ProcessBatchUseCase) {
		uc.exclude = paths
	}
}

func NewProcessBatchUseCase(
	extractor ports.TextExtractor,
	metadata ports.MetadataExtractor,
	chunker ports.Chunker,
	vectorDB ports.VectorStore,
	logger *slog.Logger,
	opts ...BatchOption,
) *ProcessBatchUseCase {
	uc := &ProcessBatchUseCase{
		extractor: extractor,
		metadata:  metadata,
		chunker:   chunker,
		vectorDB:  vectorDB,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Process runs the batch. Any failure inside one file is recorded against
// that file and the loop continues: a bad file never aborts the batch. The
// returned summary always satisfies processed + failed == total.
func (uc *ProcessBatchUseCase) Process(ctx context.Context, paths []string) (*domain.BatchResult, error) {
	result := domain.NewBatchResult()

	for _, path := range paths {
		if _, skip := uc.exclude[path]; skip {
			uc.logger.Info("skipping already processed file", "file", path)
			continue
		}
		// A cancelled run still returns the partial result so the caller
		// can persist it and resume later.
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Summary.TotalFiles++
		ids, meta, err := uc.processFile(ctx, path)
		if err != nil {
			uc.logger.Error("file processing failed", "file", path, "error", err)
			result.Errors = append(result.Errors, domain.FileError{File: path, Error: err.Error()})
			result.Summary.Failed++
			continue
		}

		result.ProcessedFiles = append(result.ProcessedFiles, path)
		result.ExtractedVariables[filepath.Base(path)] = meta
		result.VectorIDs = append(result.VectorIDs, ids...)
		result.Summary.SuccessfullyProcessed++
		result.Summary.TotalVectorsCreated += len(ids)
	}

	uc.logger.Info("batch processing complete",
		"total", result.Summary.TotalFiles,
		"processed", result.Summary.SuccessfullyProcessed,
		"failed", result.Summary.Failed,
		"vectors", result.Summary.TotalVectorsCreated,
	)
	return result, nil
}

func (uc *ProcessBatchUseCase) processFile(ctx context.Context, path string) ([]string, domain.DocumentMetadata, error) {
	fileName := filepath.Base(path)

	text, err := uc.extractor.Extract(ctx, path, domain.MediaTypeForFile(path))
	if err != nil {
		return nil, domain.DocumentMetadata{}, err
	}

	meta, err := uc.metadata.ExtractMetadata(ctx, headSample(text), fileName)
	if err != nil {
		return nil, domain.DocumentMetadata{}, err
	}

	// An empty document still counts as processed; it just contributes no
	// vectors.
	if strings.TrimSpace(text) == "" {
		uc.logger.Warn("no content to embed", "file", fileName)
		return nil, meta, nil
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		uc.logger.Warn("no content to embed", "file", fileName)
		return nil, meta, nil
	}

	records := buildVectorRecords(fileName, meta, chunks)
	if err := uc.vectorDB.Add(ctx, records); err != nil {
		return nil, domain.DocumentMetadata{}, domain.WrapError(domain.ErrVectorStore, "add chunk records", err)
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	uc.logger.Info("file processed", "file", fileName, "chunks", len(ids), "expert", meta.ExpertName)
	return ids, meta, nil
}
