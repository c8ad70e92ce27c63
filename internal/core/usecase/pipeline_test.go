package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

func newPipelineFixture() (*CaseResearchUseCase, *fakeVectorStore, *fakeGenerator, *fakeGenerator, *fakeGenerator, *fakeLegalResearcher, *fakeScientificResearcher, *fakeBriefRepo) {
	vector := &fakeVectorStore{
		results: []domain.SearchResult{
			{
				ID:   "smith_report_chunk_0",
				Text: "Dr. Smith relied on diffusion tensor imaging and neuropsychological testing.",
				Metadata: map[string]string{
					"document_type":      "report",
					"key_findings":       "mild TBI diagnosis, abnormal DTI scan",
					"expert_credentials": "MD, Board Certified Neurologist",
					"source_file":        "smith_report.pdf",
				},
				Score: 0.92,
			},
		},
	}
	strategist := &fakeGenerator{responses: []string{
		"Attack the DTI methodology.\n\nCASE SUMMARY: TBI case, plaintiff expert relies on DTI.",
		"revised brief text",
		"recommendation text",
	}}
	writer := &fakeGenerator{responses: []string{"draft brief text"}}
	checker := &fakeGenerator{responses: []string{"final brief text"}}
	legal := &fakeLegalResearcher{findings: domain.ResearchFindings{Findings: "Daubert precedent", DatabasesSearched: []string{"CourtListener"}}}
	scientific := &fakeScientificResearcher{findings: domain.ResearchFindings{Findings: "DTI reliability studies", DatabasesSearched: []string{"PubMed"}}}
	briefs := &fakeBriefRepo{}

	uc := NewCaseResearchUseCase(vector, strategist, writer, checker, legal, scientific, briefs, PipelineLimits{}, testLogger())
	return uc, vector, strategist, writer, checker, legal, scientific, briefs
}

func TestProcessCaseHappyPath(t *testing.T) {
	uc, vector, strategist, writer, checker, legal, scientific, briefs := newPipelineFixture()

	brief, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("ProcessCase: %v", err)
	}

	if brief.FinalBrief != "final brief text" {
		t.Fatalf("final brief = %q, want fact-checked output", brief.FinalBrief)
	}
	if brief.MotionType != "Daubert Motion" {
		t.Fatalf("motion type = %q, want default Daubert Motion", brief.MotionType)
	}
	if brief.ID == "" || brief.GeneratedAt.IsZero() {
		t.Fatal("brief must carry an id and a timestamp")
	}
	if brief.Analysis.CaseSummary == "" || !strings.Contains(brief.Analysis.CaseSummary, "TBI case") {
		t.Fatalf("case summary not split from strategy response: %q", brief.Analysis.CaseSummary)
	}
	if brief.Analysis.Narrative != "Attack the DTI methodology." {
		t.Fatalf("narrative = %q", brief.Analysis.Narrative)
	}
	if brief.Research.Legal.Findings != "Daubert precedent" || brief.Research.Scientific.Findings != "DTI reliability studies" {
		t.Fatalf("research bundle not carried through: %+v", brief.Research)
	}

	if len(vector.queries) != 1 || !strings.Contains(vector.queries[0], "Dr. Smith") {
		t.Fatalf("search queries = %v", vector.queries)
	}
	if !legal.called || !scientific.called {
		t.Fatal("both research tracks must be invoked")
	}
	// strategist: strategy + revise; writer: draft; checker: factcheck
	if strategist.calls() != 2 || writer.calls() != 1 || checker.calls() != 1 {
		t.Fatalf("generator calls = strategist:%d writer:%d checker:%d", strategist.calls(), writer.calls(), checker.calls())
	}
	if len(briefs.saved) != 1 {
		t.Fatalf("saved briefs = %d, want 1", len(briefs.saved))
	}
}

func TestProcessCaseStageOrder(t *testing.T) {
	uc, _, _, _, _, _, _, _ := newPipelineFixture()

	var order []string
	uc.SetStageObserver(stageRecorder{order: &order})

	if _, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategySupport,
	}); err != nil {
		t.Fatalf("ProcessCase: %v", err)
	}

	want := []string{StageSearch, StageStrategy, StageResearch, StageDraft, StageRevise, StageFactCheck}
	if len(order) != len(want) {
		t.Fatalf("stage order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("stage[%d] = %q, want %q (full order %v)", i, order[i], want[i], order)
		}
	}
}

type stageRecorder struct{ order *[]string }

func (r stageRecorder) ObserveStage(stage string, _ time.Duration, _ error) {
	*r.order = append(*r.order, stage)
}

func TestProcessCaseInvalidStrategyFailsBeforeAnyCall(t *testing.T) {
	uc, vector, strategist, writer, checker, legal, scientific, _ := newPipelineFixture()

	_, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     "demolish",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	if len(vector.queries) != 0 || strategist.calls() != 0 || writer.calls() != 0 || checker.calls() != 0 {
		t.Fatal("no external call may happen for an invalid strategy")
	}
	if legal.called || scientific.called {
		t.Fatal("research must not run for an invalid strategy")
	}
}

func TestProcessCaseEmptyExpertRejected(t *testing.T) {
	uc, vector, _, _, _, _, _, _ := newPipelineFixture()

	_, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "   ",
		Strategy:     domain.StrategyChallenge,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if len(vector.queries) != 0 {
		t.Fatal("search must not run without an expert name")
	}
}

func TestProcessCaseSearchFailureIsFatal(t *testing.T) {
	uc, vector, strategist, _, _, _, _, _ := newPipelineFixture()
	vector.searchErr = errors.New("collection unavailable")

	_, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})

	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageSearch {
		t.Fatalf("err = %v, want StageError(search)", err)
	}
	if strategist.calls() != 0 {
		t.Fatal("strategy must not run after a fatal search failure")
	}
}

func TestProcessCaseStrategyFailureIsFatal(t *testing.T) {
	uc, _, strategist, writer, _, legal, _, _ := newPipelineFixture()
	strategist.err = errors.New("model overloaded")

	_, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})

	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageStrategy {
		t.Fatalf("err = %v, want StageError(strategy)", err)
	}
	if writer.calls() != 0 || legal.called {
		t.Fatal("later stages must not run after a fatal strategy failure")
	}
}

func TestProcessCaseDraftFailureIsFatal(t *testing.T) {
	uc, _, _, writer, checker, _, _, _ := newPipelineFixture()
	writer.err = errors.New("model overloaded")

	_, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})

	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageDraft {
		t.Fatalf("err = %v, want StageError(draft)", err)
	}
	if checker.calls() != 0 {
		t.Fatal("fact check must not run after a fatal draft failure")
	}
}

func TestProcessCaseResearchFailuresDegrade(t *testing.T) {
	uc, _, _, _, _, legal, scientific, _ := newPipelineFixture()
	legal.err = errors.New("courtlistener timeout")
	scientific.err = errors.New("pubmed unavailable")

	brief, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("research failures must not abort the run: %v", err)
	}
	if !brief.Research.Legal.Simulated || !brief.Research.Scientific.Simulated {
		t.Fatalf("degraded research must be marked simulated: %+v", brief.Research)
	}
	if brief.FinalBrief == "" {
		t.Fatal("brief must still be produced")
	}
}

func TestProcessCaseOneResearchTrackDegrades(t *testing.T) {
	uc, _, _, _, _, _, scientific, _ := newPipelineFixture()
	scientific.err = errors.New("pubmed unavailable")

	brief, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("ProcessCase: %v", err)
	}
	if brief.Research.Legal.Simulated {
		t.Fatal("healthy legal track must keep its real findings")
	}
	if brief.Research.Legal.Findings != "Daubert precedent" {
		t.Fatalf("legal findings = %q", brief.Research.Legal.Findings)
	}
	if !brief.Research.Scientific.Simulated {
		t.Fatal("failed scientific track must degrade to simulated")
	}
}

func TestProcessCaseReviseFailureKeepsDraft(t *testing.T) {
	strategist := &failAfterN{
		inner:    &fakeGenerator{responses: []string{"narrative only"}},
		failFrom: 2,
	}
	writer := &fakeGenerator{responses: []string{"draft brief text"}}
	checker := &fakeGenerator{err: errors.New("gemini unavailable")}
	uc := NewCaseResearchUseCase(
		&fakeVectorStore{}, strategist, writer, checker,
		&fakeLegalResearcher{}, &fakeScientificResearcher{}, nil,
		PipelineLimits{}, testLogger(),
	)

	brief, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("ProcessCase: %v", err)
	}
	if brief.FinalBrief != "draft brief text" {
		t.Fatalf("final brief = %q, want draft passthrough when revise and fact check both fail", brief.FinalBrief)
	}
}

func TestProcessCaseFactCheckFailureKeepsRevised(t *testing.T) {
	uc, _, _, _, checker, _, _, _ := newPipelineFixture()
	checker.err = errors.New("gemini unavailable")

	brief, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("ProcessCase: %v", err)
	}
	if brief.FinalBrief != "revised brief text" {
		t.Fatalf("final brief = %q, want revised passthrough", brief.FinalBrief)
	}
}

func TestProcessCaseRecommendationsOptIn(t *testing.T) {
	vector := &fakeVectorStore{}
	strategist := &fakeGenerator{responses: []string{"narrative", "revised", "do X then Y"}}
	writer := &fakeGenerator{responses: []string{"draft"}}
	checker := &fakeGenerator{responses: []string{"final"}}
	uc := NewCaseResearchUseCase(
		vector, strategist, writer, checker,
		&fakeLegalResearcher{}, &fakeScientificResearcher{}, nil,
		PipelineLimits{Recommendations: true}, testLogger(),
	)

	brief, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategySupport,
	})
	if err != nil {
		t.Fatalf("ProcessCase: %v", err)
	}
	if brief.Recommendations != "do X then Y" {
		t.Fatalf("recommendations = %q", brief.Recommendations)
	}
}

func TestProcessCaseBriefSaveFailureIsNotFatal(t *testing.T) {
	uc, _, _, _, _, _, _, briefs := newPipelineFixture()
	briefs.err = errors.New("postgres down")

	brief, err := uc.ProcessCase(context.Background(), domain.CaseRequest{
		TargetExpert: "Dr. Smith",
		Strategy:     domain.StrategyChallenge,
	})
	if err != nil {
		t.Fatalf("brief persistence failure must not abort the run: %v", err)
	}
	if brief == nil || brief.FinalBrief == "" {
		t.Fatal("brief must still be returned")
	}
}

// failAfterN wraps a generator and fails from the Nth call onward.
type failAfterN struct {
	inner    *fakeGenerator
	failFrom int
	calls    int
}

func (f *failAfterN) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	f.calls++
	if f.calls >= f.failFrom {
		return "", errors.New("generator exhausted")
	}
	return f.inner.Generate(ctx, prompt, opts)
}
