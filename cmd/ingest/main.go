package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/lexicon-legal/lexicon/internal/config"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
	"github.com/lexicon-legal/lexicon/internal/core/usecase"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/chunking"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/extractor"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/llm/anthropic"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/llm/offline"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/report"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/resilience"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/state"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/vector/chroma"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/vector/memory"
	"github.com/lexicon-legal/lexicon/internal/observability/logging"
)

var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".wpd":  {},
	".txt":  {},
	".md":   {},
	".log":  {},
}

// ingest walks a corpus directory and indexes every supported file, resuming
// from the batch state JSON so interrupted runs pick up where they stopped.
func main() {
	var (
		dir        = flag.String("dir", "", "corpus directory to ingest (required)")
		statePath  = flag.String("state", "", "batch state JSON path (default from config)")
		reportPath = flag.String("report", "", "optional XLSX report output path")
	)
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if *statePath == "" {
		*statePath = cfg.StatePath
	}

	logger := logging.NewJSONLogger("ingest", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := collectCorpus(*dir)
	if err != nil {
		log.Fatalf("scan corpus: %v", err)
	}
	logger.Info("corpus scanned", "dir", *dir, "files", len(paths))

	var vectorDB ports.VectorStore
	var generator ports.TextGenerator
	if cfg.Offline() {
		logger.Warn("no LLM credentials configured, metadata extraction and search will be simulated")
		vectorDB = memory.NewStore()
		generator = offline.NewGenerator("metadata")
	} else {
		executor := resilience.NewExecutor(resilience.DefaultPolicy())
		vectorDB = chroma.New(cfg.ChromaURL, cfg.ChromaCollection)
		generator = anthropic.New(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.AnthropicModel, executor)
	}

	stateStore := state.NewStore()
	previous, err := stateStore.Load(*statePath)
	if err != nil {
		log.Fatalf("load batch state: %v", err)
	}
	if len(previous.ProcessedFiles) > 0 {
		logger.Info("resuming batch", "already_processed", len(previous.ProcessedFiles))
	}

	batch := usecase.NewProcessBatchUseCase(
		extractor.NewDispatcher(logger),
		anthropic.NewMetadataExtractor(generator, logger),
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		vectorDB,
		logger,
		usecase.WithExcludedPaths(previous.ProcessedSet()),
	)

	result, err := batch.Process(ctx, paths)
	if err != nil {
		// The state of everything processed so far is still merged and
		// saved, so a cancelled run resumes cleanly.
		logger.Error("batch interrupted", "error", err)
	}
	if result != nil {
		previous.Merge(result)
	}

	if err := stateStore.Save(*statePath, previous); err != nil {
		log.Fatalf("save batch state: %v", err)
	}

	if *reportPath != "" {
		if err := report.WriteBatchReport(*reportPath, previous); err != nil {
			log.Fatalf("write report: %v", err)
		}
		logger.Info("report written", "path", *reportPath)
	}

	fmt.Printf("processed %d, failed %d, vectors %d (state: %s)\n",
		previous.Summary.SuccessfullyProcessed,
		previous.Summary.Failed,
		previous.Summary.TotalVectorsCreated,
		*statePath,
	)
}

func collectCorpus(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
