package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

// Generator is the no-key fallback text generator. It produces deterministic,
// clearly labeled placeholder output so the full pipeline can run end to end
// in development and in tests without any vendor credentials.
type Generator struct {
	role string
}

func NewGenerator(role string) *Generator {
	return &Generator{role: role}
}

func (g *Generator) Generate(_ context.Context, prompt string, _ ports.GenerateOptions) (string, error) {
	// The strategy stage splits its response on the CASE SUMMARY header, so
	// the offline output has to carry one when the prompt asks for it.
	if strings.Contains(prompt, "CASE SUMMARY") && strings.Contains(prompt, "strategist") {
		return "[SIMULATED " + strings.ToUpper(g.role) + " OUTPUT]\n" +
			"The analysis would challenge the expert's methodology under each Daubert factor.\n\n" +
			"CASE SUMMARY:\n" +
			"Simulated case summary generated without vendor credentials.", nil
	}
	return fmt.Sprintf("[SIMULATED %s OUTPUT]\nGenerated offline from a %d-character prompt.",
		strings.ToUpper(g.role), len(prompt)), nil
}

// Researcher serves both research tracks when their vendors are not
// configured. Findings are marked simulated so downstream consumers never
// mistake them for real citations.
type Researcher struct{}

func NewResearcher() *Researcher {
	return &Researcher{}
}

func (r *Researcher) LegalResearch(_ context.Context, req ports.ResearchRequest) (domain.ResearchFindings, error) {
	return domain.ResearchFindings{
		Findings: fmt.Sprintf(
			"[SIMULATED LEGAL RESEARCH]\nPrecedent review for expert %s would cover Daubert v. Merrell Dow, Kumho Tire v. Carmichael and Fed. R. Evid. 702.",
			req.ExpertName),
		SearchQueries:     []string{fmt.Sprintf("%q Daubert motion", req.ExpertName)},
		DatabasesSearched: []string{},
		Simulated:         true,
	}, nil
}

func (r *Researcher) ScientificResearch(_ context.Context, req ports.ResearchRequest) (domain.ResearchFindings, error) {
	topics := "the identified methodologies"
	if len(req.Methodologies) > 0 {
		topics = strings.Join(req.Methodologies, ", ")
	}
	return domain.ResearchFindings{
		Findings: fmt.Sprintf(
			"[SIMULATED SCIENTIFIC RESEARCH]\nLiterature review would assess peer-reviewed support and known error rates for %s.",
			topics),
		SearchQueries:     []string{topics + " reliability"},
		DatabasesSearched: []string{},
		Simulated:         true,
	}, nil
}
