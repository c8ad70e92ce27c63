package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexicon-legal/lexicon/internal/config"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
	"github.com/lexicon-legal/lexicon/internal/core/usecase"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/chunking"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/extractor"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/llm/anthropic"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/llm/gemini"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/llm/offline"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/llm/openai"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/queue/nats"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/repository/postgres"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/research/courtlistener"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/research/pubmed"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/resilience"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/storage/localfs"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/vector/chroma"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/vector/memory"
	"github.com/lexicon-legal/lexicon/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository
	Briefs    ports.BriefRepository

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	SearchUC  ports.DocumentSearcher
	CaseUC    *usecase.CaseResearchUseCase

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	app := &App{Config: cfg, Logger: logger}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closeFns = append(app.closeFns, func() { _ = db.Close() })

	documents := postgres.NewDocumentRepository(db)
	if err := documents.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	briefs := postgres.NewBriefRepository(db)
	if err := briefs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure briefs schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Executor: executor,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	app.closeFns = append(app.closeFns, queue.Close)

	providers, err := buildProviders(ctx, cfg, executor, logger, app)
	if err != nil {
		return nil, err
	}

	textExtractor := extractor.NewDispatcher(logger)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	app.Queue = queue
	app.Documents = documents
	app.Briefs = briefs

	app.IngestUC = usecase.NewIngestDocumentUseCase(documents, storage, queue)
	app.ProcessUC = usecase.NewProcessDocumentUseCase(
		documents, storage, textExtractor, providers.metadata, chunker, providers.vectorDB)
	app.SearchUC = usecase.NewSearchDocumentsUseCase(providers.vectorDB)
	app.CaseUC = usecase.NewCaseResearchUseCase(
		providers.vectorDB,
		providers.strategist,
		providers.writer,
		providers.factChecker,
		providers.legal,
		providers.scientific,
		briefs,
		usecase.PipelineLimits{
			SearchTopK:      cfg.SearchTopK,
			StageTimeout:    time.Duration(cfg.StageTimeoutSeconds) * time.Second,
			ResearchTimeout: time.Duration(cfg.ResearchTimeoutSeconds) * time.Second,
			Recommendations: cfg.Recommendations,
		},
		logger,
	)

	return app, nil
}

type providerSet struct {
	vectorDB    ports.VectorStore
	metadata    ports.MetadataExtractor
	strategist  ports.TextGenerator
	writer      ports.TextGenerator
	factChecker ports.TextGenerator
	legal       ports.LegalResearcher
	scientific  ports.ScientificResearcher
}

// buildProviders selects the external stack. Without any LLM credential the
// whole pipeline runs on simulated providers and an in-process vector store,
// which keeps local development and CI hermetic.
func buildProviders(
	ctx context.Context,
	cfg config.Config,
	executor *resilience.Executor,
	logger *slog.Logger,
	app *App,
) (providerSet, error) {
	if cfg.Offline() {
		logger.Warn("no LLM credentials configured, running with simulated providers")
		researcher := offline.NewResearcher()
		return providerSet{
			vectorDB:    memory.NewStore(),
			metadata:    anthropic.NewMetadataExtractor(offline.NewGenerator("metadata"), logger),
			strategist:  offline.NewGenerator("strategist"),
			writer:      offline.NewGenerator("writer"),
			factChecker: offline.NewGenerator("fact checker"),
			legal:       researcher,
			scientific:  researcher,
		}, nil
	}

	var primary ports.TextGenerator
	switch {
	case cfg.AnthropicAPIKey != "":
		primary = anthropic.New(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.AnthropicModel, executor)
	case cfg.OpenAIAPIKey != "":
		primary = openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, executor)
	default:
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return providerSet{}, fmt.Errorf("init gemini: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = client.Close() })
		primary = client
	}

	// The fact check benefits from a second model family when one is
	// configured; otherwise the primary double-checks its own work.
	factChecker := primary
	if cfg.GeminiAPIKey != "" && (cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != "") {
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return providerSet{}, fmt.Errorf("init gemini fact checker: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = client.Close() })
		factChecker = client
	}

	return providerSet{
		vectorDB:    chroma.New(cfg.ChromaURL, cfg.ChromaCollection),
		metadata:    anthropic.NewMetadataExtractor(primary, logger),
		strategist:  primary,
		writer:      primary,
		factChecker: factChecker,
		legal:       courtlistener.New(cfg.CourtListenerBaseURL, cfg.CourtListenerAPIKey),
		scientific:  pubmed.New(cfg.PubMedBaseURL, ""),
	}, nil
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
}
