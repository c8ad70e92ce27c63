package pubmed

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
	c := New(baseURL, "")
	c.limiter.SetLimit(1000)
	return c
}

func TestScientificResearchSearchesAndSummarizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/entrez/eutils/esearch.fcgi":
			if r.URL.Query().Get("db") != "pubmed" {
				t.Errorf("db = %q", r.URL.Query().Get("db"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"esearchresult": map[string]any{"idlist": []string{"111", "222"}},
			})
		case "/entrez/eutils/esummary.fcgi":
			if got := r.URL.Query().Get("id"); got != "111,222" {
				t.Errorf("id = %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"111": map[string]string{"title": "DTI reliability in mild TBI", "source": "J Neurotrauma", "pubdate": "2021"},
					"222": map[string]string{"title": "Error rates of diffusion imaging", "source": "Brain Imaging Behav", "pubdate": "2020"},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	findings, err := fastClient(server.URL).ScientificResearch(context.Background(), ports.ResearchRequest{
		ExpertName:    "Dr. Smith",
		Methodologies: []string{"DTI imaging"},
		Strategy:      domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("ScientificResearch: %v", err)
	}

	if !strings.Contains(findings.Findings, "DTI reliability in mild TBI") {
		t.Fatalf("findings = %q", findings.Findings)
	}
	if findings.Simulated {
		t.Fatal("live results must not be marked simulated")
	}
	if len(findings.DatabasesSearched) != 1 || findings.DatabasesSearched[0] != "PubMed" {
		t.Fatalf("databases = %v", findings.DatabasesSearched)
	}
}

func TestScientificResearchNoMethodologiesFallsBack(t *testing.T) {
	queries := buildQueries(ports.ResearchRequest{Strategy: domain.StrategySupport})
	if len(queries) != 1 || !strings.Contains(queries[0], "traumatic brain injury") {
		t.Fatalf("queries = %v", queries)
	}
}

func TestScientificResearchQueriesVaryByStrategy(t *testing.T) {
	req := ports.ResearchRequest{Methodologies: []string{"DTI imaging"}}

	req.Strategy = domain.StrategyChallenge
	challenge := buildQueries(req)
	if !strings.Contains(challenge[0], "error rate") {
		t.Fatalf("challenge queries = %v", challenge)
	}

	req.Strategy = domain.StrategySupport
	support := buildQueries(req)
	if !strings.Contains(support[0], "reliability validity") {
		t.Fatalf("support queries = %v", support)
	}
}

func TestScientificResearchEmptyIDList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/entrez/eutils/esummary.fcgi" {
			t.Error("esummary must not be called without ids")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"esearchresult": map[string]any{"idlist": []string{}},
		})
	}))
	defer server.Close()

	findings, err := fastClient(server.URL).ScientificResearch(context.Background(), ports.ResearchRequest{
		Methodologies: []string{"DTI imaging"},
		Strategy:      domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("ScientificResearch: %v", err)
	}
	if !strings.Contains(findings.Findings, "No directly relevant literature") {
		t.Fatalf("findings = %q", findings.Findings)
	}
}
