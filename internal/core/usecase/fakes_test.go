package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	mu       sync.Mutex
	docs     map[string]*domain.Document
	statuses []domain.DocumentStatus
	saved    map[string]domain.DocumentMetadata

	createErr error
	statusErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:  map[string]*domain.Document{},
		saved: map[string]domain.DocumentMetadata{},
	}
}

func (r *fakeRepo) Create(_ context.Context, doc *domain.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, _ string) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	if doc, ok := r.docs[id]; ok {
		doc.Status = status
	}
	return nil
}

func (r *fakeRepo) SaveMetadata(_ context.Context, id string, meta domain.DocumentMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[id] = meta
	return nil
}

type fakeStorage struct {
	saved   map[string][]byte
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: map[string][]byte{}}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.saved[key] = b
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeStorage) Path(key string) string { return "/data/" + key }

type fakeQueue struct {
	published  []string
	publishErr error
}

func (q *fakeQueue) PublishDocumentIngested(_ context.Context, documentID string) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (e *fakeExtractor) Extract(_ context.Context, path string, _ domain.MediaType) (string, error) {
	if err := e.errs[path]; err != nil {
		return "", err
	}
	return e.texts[path], nil
}

type fakeMetadata struct {
	meta domain.DocumentMetadata
	err  error
}

func (m *fakeMetadata) ExtractMetadata(_ context.Context, _, _ string) (domain.DocumentMetadata, error) {
	if m.err != nil {
		return domain.DocumentMetadata{}, m.err
	}
	return m.meta, nil
}

// fakeChunker splits on the literal "|" so tests control chunk counts exactly.
type fakeChunker struct{}

func (fakeChunker) Split(text string) []domain.Chunk {
	if text == "" {
		return nil
	}
	var chunks []domain.Chunk
	start := 0
	index := 0
	for _, part := range splitPipe(text) {
		if part == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Index: index,
			Text:  part,
			Start: start,
			End:   start + len(part),
		})
		start += len(part) + 1
		index++
	}
	return chunks
}

func splitPipe(text string) []string {
	var parts []string
	cur := ""
	for _, r := range text {
		if r == '|' {
			parts = append(parts, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	return append(parts, cur)
}

type fakeVectorStore struct {
	mu      sync.Mutex
	added   []domain.VectorRecord
	results []domain.SearchResult
	queries []string

	addErr    error
	searchErr error
}

func (v *fakeVectorStore) Add(_ context.Context, records []domain.VectorRecord) error {
	if v.addErr != nil {
		return v.addErr
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.added = append(v.added, records...)
	return nil
}

func (v *fakeVectorStore) Search(_ context.Context, query string, _ int, _ domain.SearchFilter) ([]domain.SearchResult, error) {
	v.mu.Lock()
	v.queries = append(v.queries, query)
	v.mu.Unlock()
	if v.searchErr != nil {
		return nil, v.searchErr
	}
	return v.results, nil
}

// fakeGenerator records every prompt it sees and replies from a queue, so
// tests can assert both call order and prompt content.
type fakeGenerator struct {
	mu        sync.Mutex
	prompts   []string
	responses []string
	err       error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ ports.GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "generated text", nil
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeLegalResearcher struct {
	findings domain.ResearchFindings
	err      error
	called   bool
}

func (r *fakeLegalResearcher) LegalResearch(_ context.Context, _ ports.ResearchRequest) (domain.ResearchFindings, error) {
	r.called = true
	if r.err != nil {
		return domain.ResearchFindings{}, r.err
	}
	return r.findings, nil
}

type fakeScientificResearcher struct {
	findings domain.ResearchFindings
	err      error
	called   bool
}

func (r *fakeScientificResearcher) ScientificResearch(_ context.Context, _ ports.ResearchRequest) (domain.ResearchFindings, error) {
	r.called = true
	if r.err != nil {
		return domain.ResearchFindings{}, r.err
	}
	return r.findings, nil
}

type fakeBriefRepo struct {
	saved []*domain.CaseBrief
	err   error
}

func (r *fakeBriefRepo) SaveBrief(_ context.Context, brief *domain.CaseBrief) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, brief)
	return nil
}

func (r *fakeBriefRepo) GetBriefByID(_ context.Context, id string) (*domain.CaseBrief, error) {
	for _, b := range r.saved {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}
