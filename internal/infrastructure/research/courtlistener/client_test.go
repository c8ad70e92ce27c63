package courtlistener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

func fastClient(baseURL string) *Client {
	c := New(baseURL, "tok")
	c.limiter.SetLimit(1000)
	return c
}

func TestLegalResearchFormatsOpinions(t *testing.T) {
	var gotQueries []string
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQueries = append(gotQueries, r.URL.Query().Get("q"))
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(searchResponse{
			Count: 1,
			Results: []opinionResult{{
				CaseName:  "Doe v. Acme Corp",
				Court:     "E.D. Pa.",
				DateFiled: "2019-03-14",
				Snippet:   "The court <mark>excluded</mark> the expert's DTI testimony.",
			}},
		})
	}))
	defer server.Close()

	findings, err := fastClient(server.URL).LegalResearch(context.Background(), ports.ResearchRequest{
		ExpertName:    "Dr. Smith",
		Methodologies: []string{"DTI imaging"},
		Strategy:      domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("LegalResearch: %v", err)
	}

	if gotAuth != "Token tok" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if findings.Simulated {
		t.Fatal("live results must not be marked simulated")
	}
	if !strings.Contains(findings.Findings, "Doe v. Acme Corp") {
		t.Fatalf("findings = %q", findings.Findings)
	}
	if strings.Contains(findings.Findings, "<mark>") {
		t.Fatal("snippet markup must be stripped")
	}
	if len(findings.DatabasesSearched) != 1 || findings.DatabasesSearched[0] != "CourtListener" {
		t.Fatalf("databases = %v", findings.DatabasesSearched)
	}
	if len(gotQueries) != len(findings.SearchQueries) {
		t.Fatalf("server saw %d queries, findings report %d", len(gotQueries), len(findings.SearchQueries))
	}
}

func TestLegalResearchQueriesVaryByStrategy(t *testing.T) {
	challenge := buildQueries(ports.ResearchRequest{ExpertName: "Dr. Smith", Strategy: domain.StrategyChallenge})
	support := buildQueries(ports.ResearchRequest{ExpertName: "Dr. Smith", Strategy: domain.StrategySupport})

	if !containsSubstring(challenge, "exclude") {
		t.Fatalf("challenge queries = %v", challenge)
	}
	if !containsSubstring(support, "admissible") {
		t.Fatalf("support queries = %v", support)
	}
}

func TestLegalResearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer server.Close()

	findings, err := fastClient(server.URL).LegalResearch(context.Background(), ports.ResearchRequest{
		ExpertName: "Dr. Smith",
		Strategy:   domain.StrategySupport,
	})
	if err != nil {
		t.Fatalf("LegalResearch: %v", err)
	}
	if !strings.Contains(findings.Findings, "No directly relevant opinions") {
		t.Fatalf("findings = %q", findings.Findings)
	}
}

func TestLegalResearchServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := fastClient(server.URL).LegalResearch(context.Background(), ports.ResearchRequest{
		ExpertName: "Dr. Smith",
		Strategy:   domain.StrategyChallenge,
	}); err == nil {
		t.Fatal("expected error so the pipeline can degrade")
	}
}

func containsSubstring(values []string, sub string) bool {
	for _, v := range values {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}
