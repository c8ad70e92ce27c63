package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

// Pipeline stage names, used in stage errors, logs and metrics.
const (
	StageSearch          = "search"
	StageStrategy        = "strategy"
	StageResearch        = "research"
	StageDraft           = "draft"
	StageRevise          = "revise"
	StageFactCheck       = "factcheck"
	StageRecommendations = "recommendations"
)

// PipelineLimits bound the pipeline's external calls. Zero values fall back
// to defaults at construction.
type PipelineLimits struct {
	SearchTopK      int
	StageTimeout    time.Duration
	ResearchTimeout time.Duration
	Recommendations bool
}

// StageObserver receives stage completion events (metrics hook).
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveStage(string, time.Duration, error) {}

// CaseResearchUseCase runs the strictly ordered drafting pipeline:
//
//	SEARCH -> STRATEGY -> RESEARCH(legal ∥ scientific) -> DRAFT -> REVISE -> FACTCHECK
//
// SEARCH, STRATEGY and DRAFT failures are fatal. A failed research sub-call
// degrades to an empty, simulated result; a failed REVISE keeps the draft;
// a failed FACTCHECK keeps the revised brief.
type CaseResearchUseCase struct {
	vectorDB    ports.VectorStore
	strategist  ports.TextGenerator
	writer      ports.TextGenerator
	factChecker ports.TextGenerator
	legal       ports.LegalResearcher
	scientific  ports.ScientificResearcher
	briefs      ports.BriefRepository
	limits      PipelineLimits
	observer    StageObserver
	logger      *slog.Logger
}

func NewCaseResearchUseCase(
	vectorDB ports.VectorStore,
	strategist ports.TextGenerator,
	writer ports.TextGenerator,
	factChecker ports.TextGenerator,
	legal ports.LegalResearcher,
	scientific ports.ScientificResearcher,
	briefs ports.BriefRepository,
	limits PipelineLimits,
	logger *slog.Logger,
) *CaseResearchUseCase {
	if limits.SearchTopK <= 0 {
		limits.SearchTopK = 20
	}
	if limits.StageTimeout <= 0 {
		limits.StageTimeout = 120 * time.Second
	}
	if limits.ResearchTimeout <= 0 {
		limits.ResearchTimeout = 90 * time.Second
	}
	return &CaseResearchUseCase{
		vectorDB:    vectorDB,
		strategist:  strategist,
		writer:      writer,
		factChecker: factChecker,
		legal:       legal,
		scientific:  scientific,
		briefs:      briefs,
		limits:      limits,
		observer:    noopObserver{},
		logger:      logger,
	}
}

// SetStageObserver installs a metrics hook. Must be called before the first
// run; not safe for concurrent mutation.
func (uc *CaseResearchUseCase) SetStageObserver(observer StageObserver) {
	if observer != nil {
		uc.observer = observer
	}
}

func (uc *CaseResearchUseCase) ProcessCase(ctx context.Context, req domain.CaseRequest) (*domain.CaseBrief, error) {
	// Fail fast on bad input: no external call is made for an invalid
	// strategy or a missing expert name.
	if _, err := domain.ParseStrategy(string(req.Strategy)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TargetExpert) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process case", fmt.Errorf("target expert is required"))
	}
	if strings.TrimSpace(req.MotionType) == "" {
		req.MotionType = "Daubert Motion"
	}

	uc.logger.Info("pipeline started",
		"expert", req.TargetExpert, "strategy", req.Strategy, "motion_type", req.MotionType)

	profile, err := uc.searchStage(ctx, req.TargetExpert)
	if err != nil {
		return nil, domain.NewStageError(StageSearch, err)
	}

	analysis, err := uc.strategyStage(ctx, profile, req)
	if err != nil {
		return nil, domain.NewStageError(StageStrategy, err)
	}

	research := uc.researchStage(ctx, analysis)

	draft, err := uc.draftStage(ctx, analysis, research)
	if err != nil {
		return nil, domain.NewStageError(StageDraft, err)
	}

	revised := uc.reviseStage(ctx, draft, research, req.Strategy)
	finalBrief := uc.factCheckStage(ctx, revised, profile)

	brief := &domain.CaseBrief{
		ID:           uuid.NewString(),
		TargetExpert: req.TargetExpert,
		Strategy:     req.Strategy,
		MotionType:   req.MotionType,
		FinalBrief:   finalBrief,
		Analysis:     analysis,
		Research:     research,
		GeneratedAt:  time.Now().UTC(),
	}

	if uc.limits.Recommendations {
		brief.Recommendations = uc.recommendationsStage(ctx, analysis, research, finalBrief)
	}

	if uc.briefs != nil {
		if err := uc.briefs.SaveBrief(ctx, brief); err != nil {
			// Persistence is a convenience for the caller; the brief itself
			// already exists and is returned regardless.
			uc.logger.Error("save brief failed", "brief_id", brief.ID, "error", err)
		}
	}

	uc.logger.Info("pipeline complete", "brief_id", brief.ID, "brief_chars", len(finalBrief))
	return brief, nil
}

func (uc *CaseResearchUseCase) searchStage(ctx context.Context, expert string) (domain.ExpertProfile, error) {
	start := time.Now()
	query := fmt.Sprintf("%s expert testimony deposition report", expert)
	hits, err := uc.vectorDB.Search(ctx, query, uc.limits.SearchTopK, domain.SearchFilter{})
	uc.observer.ObserveStage(StageSearch, time.Since(start), err)
	if err != nil {
		return domain.ExpertProfile{}, err
	}

	profile := buildExpertProfile(expert, hits)
	uc.logger.Info("expert search complete",
		"expert", expert,
		"documents_found", profile.DocumentsFound,
		"methodologies", len(profile.Methodologies),
	)
	return profile, nil
}

func (uc *CaseResearchUseCase) strategyStage(ctx context.Context, profile domain.ExpertProfile, req domain.CaseRequest) (domain.CaseAnalysis, error) {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, uc.limits.StageTimeout)
	defer cancel()

	response, err := uc.strategist.Generate(stageCtx, buildStrategyPrompt(profile, req.Strategy, req.MotionType), ports.GenerateOptions{
		MaxTokens:   3000,
		Temperature: 0.3,
	})
	uc.observer.ObserveStage(StageStrategy, time.Since(start), err)
	if err != nil {
		return domain.CaseAnalysis{}, err
	}

	narrative, caseSummary := splitStrategyResponse(response)
	return domain.CaseAnalysis{
		Narrative:   narrative,
		CaseSummary: caseSummary,
		Profile:     profile,
		Strategy:    req.Strategy,
		MotionType:  req.MotionType,
	}, nil
}

// researchStage issues the legal and scientific research calls together so
// total latency is max(legal, scientific). A failed sub-call degrades to an
// empty simulated result and never aborts the run.
func (uc *CaseResearchUseCase) researchStage(ctx context.Context, analysis domain.CaseAnalysis) domain.ResearchBundle {
	req := ports.ResearchRequest{
		ExpertName:    analysis.Profile.ExpertName,
		Methodologies: analysis.Profile.Methodologies,
		KeyFindings:   clampList(analysis.Profile.KeyFindings, 5),
		Strategy:      analysis.Strategy,
		CaseSummary:   analysis.CaseSummary,
	}

	start := time.Now()
	researchCtx, cancel := context.WithTimeout(ctx, uc.limits.ResearchTimeout)
	defer cancel()

	var bundle domain.ResearchBundle
	g, gctx := errgroup.WithContext(researchCtx)
	g.Go(func() error {
		findings, err := uc.legal.LegalResearch(gctx, req)
		if err != nil {
			uc.logger.Warn("legal research degraded", "error", err)
			findings = degradedFindings()
		}
		bundle.Legal = findings
		return nil
	})
	g.Go(func() error {
		findings, err := uc.scientific.ScientificResearch(gctx, req)
		if err != nil {
			uc.logger.Warn("scientific research degraded", "error", err)
			findings = degradedFindings()
		}
		bundle.Scientific = findings
		return nil
	})
	_ = g.Wait() // goroutines always return nil; failures degrade in place

	uc.observer.ObserveStage(StageResearch, time.Since(start), nil)
	return bundle
}

func (uc *CaseResearchUseCase) draftStage(ctx context.Context, analysis domain.CaseAnalysis, research domain.ResearchBundle) (string, error) {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, uc.limits.StageTimeout)
	defer cancel()

	draft, err := uc.writer.Generate(stageCtx, buildDraftPrompt(analysis, research), ports.GenerateOptions{
		MaxTokens:   8000,
		Temperature: 0.4,
	})
	uc.observer.ObserveStage(StageDraft, time.Since(start), err)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(draft) == "" {
		err := fmt.Errorf("writer returned empty draft")
		return "", err
	}
	return draft, nil
}

func (uc *CaseResearchUseCase) reviseStage(ctx context.Context, draft string, research domain.ResearchBundle, strategy domain.Strategy) string {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, uc.limits.StageTimeout)
	defer cancel()

	revised, err := uc.strategist.Generate(stageCtx, buildRevisePrompt(draft, research, strategy), ports.GenerateOptions{
		MaxTokens:   8000,
		Temperature: 0.4,
	})
	uc.observer.ObserveStage(StageRevise, time.Since(start), err)
	if err != nil || strings.TrimSpace(revised) == "" {
		uc.logger.Warn("revise degraded to draft", "error", err)
		return draft
	}
	return revised
}

// factCheckStage is an enhancement, not a hard dependency: on any failure
// the revised brief passes through unchanged.
func (uc *CaseResearchUseCase) factCheckStage(ctx context.Context, revised string, profile domain.ExpertProfile) string {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, uc.limits.StageTimeout)
	defer cancel()

	checked, err := uc.factChecker.Generate(stageCtx, buildFactCheckPrompt(revised, profile), ports.GenerateOptions{
		MaxTokens:   8000,
		Temperature: 0.1,
	})
	uc.observer.ObserveStage(StageFactCheck, time.Since(start), err)
	if err != nil || strings.TrimSpace(checked) == "" {
		uc.logger.Warn("fact check degraded to passthrough", "error", err)
		return revised
	}
	return checked
}

func (uc *CaseResearchUseCase) recommendationsStage(ctx context.Context, analysis domain.CaseAnalysis, research domain.ResearchBundle, finalBrief string) string {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, uc.limits.StageTimeout)
	defer cancel()

	recommendations, err := uc.strategist.Generate(stageCtx, buildRecommendationsPrompt(analysis, research, finalBrief), ports.GenerateOptions{
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	uc.observer.ObserveStage(StageRecommendations, time.Since(start), err)
	if err != nil {
		uc.logger.Warn("recommendations degraded to empty", "error", err)
		return ""
	}
	return strings.TrimSpace(recommendations)
}

func degradedFindings() domain.ResearchFindings {
	return domain.ResearchFindings{
		Findings:          "",
		SearchQueries:     []string{},
		DatabasesSearched: []string{},
		Simulated:         true,
	}
}
