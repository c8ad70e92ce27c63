package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

type SearchDocumentsUseCase struct {
	vectorDB ports.VectorStore
}

func NewSearchDocumentsUseCase(vectorDB ports.VectorStore) *SearchDocumentsUseCase {
	return &SearchDocumentsUseCase{vectorDB: vectorDB}
}

func (uc *SearchDocumentsUseCase) Search(
	ctx context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search documents", fmt.Errorf("query is required"))
	}
	if topK <= 0 {
		topK = 5
	}

	results, err := uc.vectorDB.Search(ctx, query, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}
	return results, nil
}
