package domain

import (
	"fmt"
	"strings"
	"time"
)

// Strategy is the framing the pipeline takes toward an expert witness.
type Strategy string

const (
	StrategyChallenge Strategy = "challenge"
	StrategySupport   Strategy = "support"
)

// ParseStrategy validates the strategy flag before any external call is made.
func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyChallenge:
		return StrategyChallenge, nil
	case StrategySupport:
		return StrategySupport, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse strategy",
			fmt.Errorf("strategy must be %q or %q, got %q", StrategyChallenge, StrategySupport, raw))
	}
}

// CaseRequest is the validated input of a pipeline run.
type CaseRequest struct {
	TargetExpert string
	Strategy     Strategy
	MotionType   string
}

// Excerpt is a short passage kept from the most relevant search hits.
type Excerpt struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ExpertProfile aggregates everything the corpus knows about an expert.
// Zero documents found is a valid profile; downstream stages degrade to
// generic analysis.
type ExpertProfile struct {
	ExpertName       string    `json:"expert_name"`
	DocumentsFound   int       `json:"documents_found"`
	DocumentTypes    []string  `json:"document_types"`
	KeyFindings      []string  `json:"key_findings"`
	Methodologies    []string  `json:"methodologies"`
	Credentials      []string  `json:"credentials"`
	RelevantExcerpts []Excerpt `json:"relevant_excerpts"`
}

// CaseAnalysis is the STRATEGY stage output: the strategy narrative plus a
// case summary for the research agents. Ephemeral unless the caller saves it.
type CaseAnalysis struct {
	Narrative   string        `json:"narrative"`
	CaseSummary string        `json:"case_summary"`
	Profile     ExpertProfile `json:"profile"`
	Strategy    Strategy      `json:"strategy"`
	MotionType  string        `json:"motion_type"`
}

// ResearchFindings is the output of one research sub-call. Simulated marks
// results produced by the offline provider or a degraded sub-call.
type ResearchFindings struct {
	Findings          string   `json:"findings"`
	SearchQueries     []string `json:"search_queries"`
	DatabasesSearched []string `json:"databases_searched"`
	Simulated         bool     `json:"simulated"`
}

// ResearchBundle holds both research tracks; consumed by the draft stage.
type ResearchBundle struct {
	Legal      ResearchFindings `json:"legal"`
	Scientific ResearchFindings `json:"scientific"`
}

// CaseBrief is the terminal pipeline artifact. Immutable once returned;
// persistence is the caller's concern.
type CaseBrief struct {
	ID              string         `json:"id"`
	TargetExpert    string         `json:"target_expert"`
	Strategy        Strategy       `json:"strategy"`
	MotionType      string         `json:"motion_type"`
	FinalBrief      string         `json:"final_brief"`
	Analysis        CaseAnalysis   `json:"analysis"`
	Research        ResearchBundle `json:"research"`
	Recommendations string         `json:"recommendations,omitempty"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
