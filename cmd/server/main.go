// Package main provides the entry point for the citation graph service API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citegraph/citation-graph-service/internal/citations"
	"github.com/citegraph/citation-graph-service/internal/config"
	"github.com/citegraph/citation-graph-service/internal/crawler"
	"github.com/citegraph/citation-graph-service/internal/database"
	"github.com/citegraph/citation-graph-service/internal/embedding"
	"github.com/citegraph/citation-graph-service/internal/events"
	"github.com/citegraph/citation-graph-service/internal/graph"
	"github.com/citegraph/citation-graph-service/internal/ingest"
	"github.com/citegraph/citation-graph-service/internal/observability"
	"github.com/citegraph/citation-graph-service/internal/repository"
	"github.com/citegraph/citation-graph-service/internal/server"
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
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("citation-graph-service server starting")

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

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	metrics := observability.NewMetrics("citegraph")

	// Create repositories.
	paperRepo := repository.NewPgPaperRepository(db)
	citationRepo := repository.NewPgCitationRepository(db)
	runRepo := repository.NewPgCrawlRunRepository(db)

	// Register platform clients.
	registry, s2 := buildRegistry(&cfg.Sources)

	// Citation resolution via the Semantic Scholar graph, when enabled.
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
	graphBuilder := graph.NewBuilder(paperRepo, citationRepo, crawlService, cfg.Graph, logger, metrics)

	httpCfg := server.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    5 * time.Minute, // Crawl requests are synchronous and slow.
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	httpSrv := server.NewServer(
		httpCfg,
		crawlService,
		graphBuilder,
		paperRepo,
		runRepo,
		db,
		logger,
	)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("citation-graph-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down citation-graph-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("citation-graph-service shutdown complete")
	return nil
}

// buildRegistry creates platform clients from configuration and registers them.
// The Semantic Scholar client is returned separately because the citation
// resolver uses its lookup methods directly.
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
