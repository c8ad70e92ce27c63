package courtlistener

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

const defaultBaseURL = "https://www.courtlistener.com"

// Client searches CourtListener's opinion database for precedent on the
// expert and their methodologies. Calls are rate limited client side; the
// public API throttles aggressively.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter

	maxResultsPerQuery int
}

func New(baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:            strings.TrimRight(baseURL, "/"),
		token:              token,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		limiter:            rate.NewLimiter(rate.Every(time.Second), 1),
		maxResultsPerQuery: 3,
	}
}

type opinionResult struct {
	CaseName     string `json:"caseName"`
	Court        string `json:"court"`
	DateFiled    string `json:"dateFiled"`
	Snippet      string `json:"snippet"`
	AbsoluteURL  string `json:"absolute_url"`
	CitationText string `json:"citation_string"`
}

type searchResponse struct {
	Count   int             `json:"count"`
	Results []opinionResult `json:"results"`
}

func (c *Client) LegalResearch(ctx context.Context, req ports.ResearchRequest) (domain.ResearchFindings, error) {
	queries := buildQueries(req)

	var b strings.Builder
	total := 0
	for _, query := range queries {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.ResearchFindings{}, err
		}

		resp, err := c.search(ctx, query)
		if err != nil {
			return domain.ResearchFindings{}, err
		}

		limit := len(resp.Results)
		if limit > c.maxResultsPerQuery {
			limit = c.maxResultsPerQuery
		}
		for _, opinion := range resp.Results[:limit] {
			total++
			fmt.Fprintf(&b, "%s (%s, %s)\n", opinion.CaseName, opinion.Court, opinion.DateFiled)
			if snippet := strings.TrimSpace(stripTags(opinion.Snippet)); snippet != "" {
				fmt.Fprintf(&b, "  %s\n", snippet)
			}
		}
	}

	findings := strings.TrimSpace(b.String())
	if findings == "" {
		findings = "No directly relevant opinions found in CourtListener."
	} else {
		findings = fmt.Sprintf("Found %d relevant opinions:\n%s", total, findings)
	}

	return domain.ResearchFindings{
		Findings:          findings,
		SearchQueries:     queries,
		DatabasesSearched: []string{"CourtListener"},
		Simulated:         false,
	}, nil
}

func (c *Client) search(ctx context.Context, query string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "o")
	params.Set("order_by", "score desc")

	endpoint := fmt.Sprintf("%s/api/rest/v4/search/?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("courtlistener search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("courtlistener search status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &result, nil
}

// buildQueries derives the precedent searches from the case posture. A
// challenge hunts for exclusions; a support posture hunts for admissions.
func buildQueries(req ports.ResearchRequest) []string {
	queries := []string{
		fmt.Sprintf("%q expert testimony", req.ExpertName),
	}
	if req.Strategy == domain.StrategyChallenge {
		queries = append(queries, "Daubert motion exclude expert testimony traumatic brain injury")
	} else {
		queries = append(queries, "Daubert motion denied expert testimony admissible")
	}
	for i, method := range req.Methodologies {
		if i >= 2 {
			break
		}
		queries = append(queries, fmt.Sprintf("%s expert admissibility", method))
	}
	return queries
}

// stripTags removes the <mark> highlighting CourtListener embeds in snippets.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
