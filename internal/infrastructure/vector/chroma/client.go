package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// Client talks to a Chroma server over its REST API. Embedding happens
// server side: the client ships raw chunk text and query text, never vectors.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu     sync.Mutex
	collectionID string
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Add(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	collectionID, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(records))
	documents := make([]string, 0, len(records))
	metadatas := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		documents = append(documents, rec.Text)
		metadatas = append(metadatas, rec.Metadata)
	}

	// Upsert keeps re-ingestion idempotent: record ids are deterministic per
	// source file and chunk index, so a reprocessed document overwrites its
	// old rows.
	reqBody := map[string]any{
		"ids":       ids,
		"documents": documents,
		"metadatas": metadatas,
	}
	path := fmt.Sprintf("/api/v1/collections/%s/upsert", collectionID)
	if err := c.postJSON(ctx, path, reqBody, nil, "upsert"); err != nil {
		return domain.WrapError(domain.ErrVectorStore, "chroma upsert", err)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	collectionID, err := c.ensureCollection(ctx)
	if err != nil {
		// A store that has never been written to has nothing to find.
		if isNotFound(err) {
			return []domain.SearchResult{}, nil
		}
		return nil, err
	}

	reqBody := map[string]any{
		"query_texts": []string{query},
		"n_results":   topK,
		"include":     []string{"documents", "metadatas", "distances"},
	}
	if !filter.Empty() {
		where := make(map[string]any, len(filter.Equals))
		for key, value := range filter.Equals {
			where[key] = value
		}
		reqBody["where"] = where
	}

	var response struct {
		IDs       [][]string            `json:"ids"`
		Documents [][]string            `json:"documents"`
		Metadatas [][]map[string]string `json:"metadatas"`
		Distances [][]float64           `json:"distances"`
	}
	path := fmt.Sprintf("/api/v1/collections/%s/query", collectionID)
	if err := c.postJSON(ctx, path, reqBody, &response, "query"); err != nil {
		if isNotFound(err) {
			return []domain.SearchResult{}, nil
		}
		return nil, domain.WrapError(domain.ErrVectorStore, "chroma query", err)
	}

	if len(response.IDs) == 0 {
		return []domain.SearchResult{}, nil
	}

	ids := response.IDs[0]
	out := make([]domain.SearchResult, 0, len(ids))
	for i := range ids {
		result := domain.SearchResult{ID: ids[i], Metadata: map[string]string{}}
		if len(response.Documents) > 0 && i < len(response.Documents[0]) {
			result.Text = response.Documents[0][i]
		}
		if len(response.Metadatas) > 0 && i < len(response.Metadatas[0]) && response.Metadatas[0][i] != nil {
			result.Metadata = response.Metadatas[0][i]
		}
		if len(response.Distances) > 0 && i < len(response.Distances[0]) {
			// Chroma reports cosine distance; callers reason in similarity.
			result.Score = 1 - response.Distances[0][i]
		}
		out = append(out, result)
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context) (string, error) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()

	if c.collectionID != "" {
		return c.collectionID, nil
	}

	reqBody := map[string]any{
		"name":          c.collection,
		"get_or_create": true,
		"metadata":      map[string]string{"hnsw:space": "cosine"},
	}
	var response struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/v1/collections", reqBody, &response, "ensure collection"); err != nil {
		return "", domain.WrapError(domain.ErrVectorStore, "chroma ensure collection", err)
	}
	if response.ID == "" {
		return "", domain.WrapError(domain.ErrVectorStore, "chroma ensure collection", fmt.Errorf("empty collection id"))
	}
	c.collectionID = response.ID
	return c.collectionID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("chroma %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("chroma %s status: %s", operation, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

var errNotFound = errors.New("chroma resource not found")

func isNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
