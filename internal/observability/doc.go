// Package observability provides logging and metrics support for the
// citation graph service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for crawls, searches, citations, and graph queries
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("crawl_run_id", runID).Msg("crawl started")
//
// Add crawl context to a logger:
//
//	logger = observability.WithCrawlContext(logger, runID, query)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("citation_graph")
//
// Record metrics:
//
//	metrics.RecordCrawlStarted()
//	metrics.SearchesStarted.WithLabelValues("arxiv").Inc()
//	metrics.PapersDiscovered.Add(42)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithCrawlRun(ctx, runID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	runID := observability.CrawlRunFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - crawl_run_id: Crawl run identifier
//   - query: Search query text
//   - source: Paper source (arxiv, biorxiv, pmc, ...)
//   - category: Source category or collection
//   - paper_id: Canonical paper identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
