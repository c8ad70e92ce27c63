package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov"

// Client searches PubMed through the NCBI E-utilities for literature bearing
// on the expert's methodologies. NCBI allows 3 req/s without an API key; the
// limiter stays under that.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	maxResultsPerQuery int
}

func New(baseURL, apiKey string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:            strings.TrimRight(baseURL, "/"),
		apiKey:             apiKey,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		limiter:            rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
		maxResultsPerQuery: 3,
	}
}

func (c *Client) ScientificResearch(ctx context.Context, req ports.ResearchRequest) (domain.ResearchFindings, error) {
	queries := buildQueries(req)

	var b strings.Builder
	total := 0
	for _, query := range queries {
		ids, err := c.searchIDs(ctx, query)
		if err != nil {
			return domain.ResearchFindings{}, err
		}
		if len(ids) == 0 {
			continue
		}

		summaries, err := c.fetchSummaries(ctx, ids)
		if err != nil {
			return domain.ResearchFindings{}, err
		}
		for _, s := range summaries {
			total++
			fmt.Fprintf(&b, "%s (%s, %s)\n", s.Title, s.Source, s.PubDate)
		}
	}

	findings := strings.TrimSpace(b.String())
	if findings == "" {
		findings = "No directly relevant literature found in PubMed."
	} else {
		findings = fmt.Sprintf("Found %d relevant publications:\n%s", total, findings)
	}

	return domain.ResearchFindings{
		Findings:          findings,
		SearchQueries:     queries,
		DatabasesSearched: []string{"PubMed"},
		Simulated:         false,
	}, nil
}

func (c *Client) searchIDs(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("retmax", fmt.Sprintf("%d", c.maxResultsPerQuery))
	params.Set("sort", "relevance")

	var response struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := c.getJSON(ctx, "/entrez/eutils/esearch.fcgi", params, &response, "esearch"); err != nil {
		return nil, err
	}
	return response.ESearchResult.IDList, nil
}

type articleSummary struct {
	Title   string
	Source  string
	PubDate string
}

func (c *Client) fetchSummaries(ctx context.Context, ids []string) ([]articleSummary, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")

	var response struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.getJSON(ctx, "/entrez/eutils/esummary.fcgi", params, &response, "esummary"); err != nil {
		return nil, err
	}

	out := make([]articleSummary, 0, len(ids))
	for _, id := range ids {
		raw, ok := response.Result[id]
		if !ok {
			continue
		}
		var entry struct {
			Title   string `json:"title"`
			Source  string `json:"source"`
			PubDate string `json:"pubdate"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Title == "" {
			continue
		}
		out = append(out, articleSummary{Title: entry.Title, Source: entry.Source, PubDate: entry.PubDate})
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any, operation string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pubmed %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("pubmed %s status: %s: %s", operation, resp.Status, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// buildQueries targets reliability literature for a challenge and validation
// literature for a support posture.
func buildQueries(req ports.ResearchRequest) []string {
	angle := "reliability validity"
	if req.Strategy == domain.StrategyChallenge {
		angle = "limitations false positive error rate"
	}

	var queries []string
	for i, method := range req.Methodologies {
		if i >= 3 {
			break
		}
		queries = append(queries, fmt.Sprintf("%s %s", method, angle))
	}
	if len(queries) == 0 {
		queries = append(queries, "traumatic brain injury diagnosis "+angle)
	}
	return queries
}
