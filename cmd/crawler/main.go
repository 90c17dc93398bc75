// Package main provides the entry point for the scheduled crawler.
// It runs the crawl pipeline on a cron schedule against the configured
// default categories, covering the lookback window since the last run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/citegraph/citation-graph-service/internal/citations"
	"github.com/citegraph/citation-graph-service/internal/config"
	"github.com/citegraph/citation-graph-service/internal/crawler"
	"github.com/citegraph/citation-graph-service/internal/database"
	"github.com/citegraph/citation-graph-service/internal/embedding"
	"github.com/citegraph/citation-graph-service/internal/events"
	"github.com/citegraph/citation-graph-service/internal/ingest"
	"github.com/citegraph/citation-graph-service/internal/observability"
	"github.com/citegraph/citation-graph-service/internal/repository"
	"github.com/citegraph/citation-graph-service/internal/sources"
	"github.com/citegraph/citation-graph-service/internal/sources/arxiv"
	"github.com/citegraph/citation-graph-service/internal/sources/arxivrss"
	"github.com/citegraph/citation-graph-service/internal/sources/biorxiv"
	"github.com/citegraph/citation-graph-service/internal/sources/doaj"
	"github.com/citegraph/citation-graph-service/internal/sources/plos"
	"github.com/citegraph/citation-graph-service/internal/sources/pmc"
	"github.com/citegraph/citation-graph-service/internal/sources/semanticscholar"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "crawler").Logger()
	logger.Info().Msg("citation-graph-service crawler starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	metrics := observability.NewMetrics("citegraph")

	runRepo := repository.NewPgCrawlRunRepository(db)

	registry, s2 := buildRegistry(&cfg.Sources)

	var resolver crawler.Resolver
	if cfg.Resolver.Enabled {
		resolver = citations.NewResolver(s2, logger, metrics)
	}

	embedder := embedding.NewClient(cfg.Embedding, logger, metrics)
	gateway := ingest.NewGateway(db, logger, metrics)

	publisher := events.NewPublisher(cfg.Kafka, logger)
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	orchestrator := crawler.NewOrchestrator(registry, cfg.Crawler.MaxPages, logger, metrics)
	crawlService := crawler.NewService(orchestrator, resolver, embedder, gateway, runRepo, publisher, logger, metrics)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Crawler.Schedule, func() {
		crawlScheduled(ctx, crawlService, &cfg.Crawler, logger)
	})
	if err != nil {
		return fmt.Errorf("invalid crawl schedule %q: %w", cfg.Crawler.Schedule, err)
	}

	scheduler.Start()
	logger.Info().
		Str("schedule", cfg.Crawler.Schedule).
		Strs("categories", cfg.Crawler.Categories).
		Int("lookback_days", cfg.Crawler.LookbackDays).
		Msg("crawl schedule registered")

	<-ctx.Done()
	logger.Info().Msg("received shutdown signal")

	// Let an in-flight crawl finish before exiting.
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Minute):
		logger.Warn().Msg("timed out waiting for running crawl jobs")
	}

	logger.Info().Msg("citation-graph-service crawler shutdown complete")
	return nil
}

// crawlScheduled runs one crawl per configured category over the lookback window.
func crawlScheduled(ctx context.Context, svc *crawler.Service, cfg *config.CrawlerConfig, logger zerolog.Logger) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -cfg.LookbackDays)

	for _, category := range cfg.Categories {
		report, err := svc.CrawlAndSave(ctx, category, nil, cfg.MaxResults, &from, &to)
		if err != nil {
			logger.Error().Err(err).Str("query", category).Msg("scheduled crawl failed")
			continue
		}
		logger.Info().
			Str("query", category).
			Str("run_id", report.Run.ID.String()).
			Str("status", string(report.Run.Status)).
			Int("papers_found", report.Run.PapersFound).
			Int("papers_saved", report.Run.PapersSaved).
			Int("papers_updated", report.Run.PapersUpdated).
			Int("citations_added", report.Run.CitationsAdded).
			Msg("scheduled crawl finished")
	}
}

// buildRegistry creates platform clients from configuration and registers them.
func buildRegistry(cfg *config.SourcesConfig) (*sources.Registry, *semanticscholar.Client) {
	registry := sources.NewRegistry()

	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:         cfg.ArXiv.BaseURL,
		Timeout:         cfg.ArXiv.Timeout,
		RequestInterval: cfg.ArXiv.RequestInterval,
		MaxResults:      cfg.ArXiv.MaxResults,
		Enabled:         cfg.ArXiv.Enabled,
	}))

	registry.Register(arxivrss.New(arxivrss.Config{
		BaseURL:         cfg.ArXivRSS.BaseURL,
		Category:        cfg.ArXivRSS.Category,
		Timeout:         cfg.ArXivRSS.Timeout,
		RequestInterval: cfg.ArXivRSS.RequestInterval,
		Enabled:         cfg.ArXivRSS.Enabled,
	}))

	registry.Register(biorxiv.New(biorxiv.Config{
		BaseURL:    cfg.BioRxiv.BaseURL,
		Server:     "biorxiv",
		Timeout:    cfg.BioRxiv.Timeout,
		RateLimit:  cfg.BioRxiv.RateLimit,
		BurstSize:  cfg.BioRxiv.BurstSize,
		WindowDays: cfg.BioRxiv.WindowDays,
		Enabled:    cfg.BioRxiv.Enabled,
	}))

	registry.Register(biorxiv.New(biorxiv.Config{
		BaseURL:    cfg.MedRxiv.BaseURL,
		Server:     "medrxiv",
		Timeout:    cfg.MedRxiv.Timeout,
		RateLimit:  cfg.MedRxiv.RateLimit,
		BurstSize:  cfg.MedRxiv.BurstSize,
		WindowDays: cfg.MedRxiv.WindowDays,
		Enabled:    cfg.MedRxiv.Enabled,
	}))

	registry.Register(pmc.New(pmc.Config{
		BaseURL:    cfg.PMC.BaseURL,
		Tool:       cfg.PMC.Tool,
		Email:      cfg.PMC.Email,
		APIKey:     cfg.PMC.APIKey,
		Timeout:    cfg.PMC.Timeout,
		RateLimit:  cfg.PMC.RateLimit,
		BurstSize:  cfg.PMC.BurstSize,
		MaxResults: cfg.PMC.MaxResults,
		Enabled:    cfg.PMC.Enabled,
	}))

	registry.Register(plos.New(plos.Config{
		BaseURL:    cfg.PLOS.BaseURL,
		Timeout:    cfg.PLOS.Timeout,
		RateLimit:  cfg.PLOS.RateLimit,
		BurstSize:  cfg.PLOS.BurstSize,
		MaxResults: cfg.PLOS.MaxResults,
		Enabled:    cfg.PLOS.Enabled,
	}))

	registry.Register(doaj.New(doaj.Config{
		BaseURL:   cfg.DOAJ.BaseURL,
		Timeout:   cfg.DOAJ.Timeout,
		RateLimit: cfg.DOAJ.RateLimit,
		BurstSize: cfg.DOAJ.BurstSize,
		PageSize:  cfg.DOAJ.PageSize,
		Enabled:   cfg.DOAJ.Enabled,
	}))

	s2 := semanticscholar.New(semanticscholar.Config{
		BaseURL:    cfg.SemanticScholar.BaseURL,
		APIKey:     cfg.SemanticScholar.APIKey,
		Timeout:    cfg.SemanticScholar.Timeout,
		RateLimit:  cfg.SemanticScholar.RateLimit,
		BurstSize:  cfg.SemanticScholar.BurstSize,
		MaxResults: cfg.SemanticScholar.MaxResults,
		Enabled:    cfg.SemanticScholar.Enabled,
	}, nil)
	registry.Register(s2)

	return registry, s2
}
