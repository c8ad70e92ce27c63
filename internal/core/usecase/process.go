package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

// metadataSampleLimit bounds the document head sent to the metadata
// extractor, keeping prompt size and spend predictable.
const metadataSampleLimit = 8000

// ProcessDocumentUseCase processes one uploaded document behind the ingest
// queue: extract, metadata, chunk, index, with status transitions.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	metadata  ports.MetadataExtractor
	chunker   ports.Chunker
	vectorDB  ports.VectorStore
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	metadata ports.MetadataExtractor,
	chunker ports.Chunker,
	vectorDB ports.VectorStore,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		metadata:  metadata,
		chunker:   chunker,
		vectorDB:  vectorDB,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	meta, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveMetadata(ctx, documentID, meta); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (domain.DocumentMetadata, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.DocumentMetadata{}, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, uc.storage.Path(doc.StoragePath), doc.MediaType)
	if err != nil {
		return domain.DocumentMetadata{}, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.DocumentMetadata{}, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	meta, err := uc.metadata.ExtractMetadata(ctx, headSample(text), doc.Filename)
	if err != nil {
		return domain.DocumentMetadata{}, fmt.Errorf("extract metadata: %w", err)
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return domain.DocumentMetadata{}, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	records := buildVectorRecords(doc.Filename, meta, chunks)
	if err := uc.vectorDB.Add(ctx, records); err != nil {
		return domain.DocumentMetadata{}, fmt.Errorf("index chunks in vector db: %w", err)
	}
	return meta, nil
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}

// buildVectorRecords flattens metadata onto every chunk under the stable
// `{stem}_chunk_{index}` identifier scheme.
func buildVectorRecords(fileName string, meta domain.DocumentMetadata, chunks []domain.Chunk) []domain.VectorRecord {
	stem := domain.FileStem(fileName)
	records := make([]domain.VectorRecord, 0, len(chunks))
	for _, chunk := range chunks {
		records = append(records, domain.VectorRecord{
			ID:       domain.RecordID(stem, chunk.Index),
			Text:     chunk.Text,
			Metadata: domain.FlattenMetadata(meta, fileName, chunk.Index, len(chunks)),
		})
	}
	return records
}

// headSample bounds a document to the metadata sample window without
// splitting a multibyte rune.
func headSample(text string) string {
	runes := []rune(text)
	if len(runes) <= metadataSampleLimit {
		return text
	}
	return string(runes[:metadataSampleLimit])
}
