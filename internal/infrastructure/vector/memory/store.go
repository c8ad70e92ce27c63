package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// Store is an in-process vector store substitute for development and tests.
// Scoring is term overlap rather than embedding distance, which is enough to
// exercise retrieval, filtering and the pipeline without a Chroma server.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
}

func NewStore() *Store {
	return &Store{records: make(map[string]domain.VectorRecord)}
}

func (s *Store) Add(_ context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *Store) Search(_ context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	terms := tokenize(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(s.records))
	for _, rec := range s.records {
		if !matchesFilter(rec.Metadata, filter) {
			continue
		}
		score := overlapScore(terms, rec.Text)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:       rec.ID,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Score:    score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matchesFilter(metadata map[string]string, filter domain.SearchFilter) bool {
	for key, want := range filter.Equals {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

func overlapScore(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:\"'()")
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
