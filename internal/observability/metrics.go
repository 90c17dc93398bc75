package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the citation graph service.
// Metrics are organized by subsystem: crawls, searches, papers, citations,
// sources, and graph queries. All counters and histograms are registered via
// promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// CrawlsStarted counts the total number of crawl runs initiated.
	CrawlsStarted prometheus.Counter

	// CrawlsCompleted counts the total number of crawl runs that finished successfully.
	CrawlsCompleted prometheus.Counter

	// CrawlsFailed counts the total number of crawl runs that ended in failure.
	CrawlsFailed prometheus.Counter

	// CrawlDuration observes the end-to-end duration of crawl runs in seconds.
	CrawlDuration prometheus.Histogram

	// SearchesStarted counts searches initiated, labeled by paper source.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful searches, labeled by paper source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed searches, labeled by paper source.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes search duration in seconds, labeled by paper source.
	SearchDuration *prometheus.HistogramVec

	// PapersPerSearch observes the distribution of papers returned per search, labeled by source.
	PapersPerSearch *prometheus.HistogramVec

	// PapersDiscovered counts the total number of papers returned by source searches.
	PapersDiscovered prometheus.Counter

	// PapersBySource counts papers discovered, labeled by paper source.
	PapersBySource *prometheus.CounterVec

	// PapersSaved counts papers inserted into the database.
	PapersSaved prometheus.Counter

	// PapersUpdated counts papers updated in place during persistence.
	PapersUpdated prometheus.Counter

	// CitationEdgesInserted counts new citation edges written to the database.
	CitationEdgesInserted prometheus.Counter

	// ResolutionsMatched counts papers successfully matched to a citation index entry.
	ResolutionsMatched prometheus.Counter

	// ResolutionsUnmatched counts papers that could not be matched by any strategy.
	ResolutionsUnmatched prometheus.Counter

	// ResolutionsByStrategy counts successful matches, labeled by the strategy that hit
	// (doi, native_id, title).
	ResolutionsByStrategy *prometheus.CounterVec

	// ResolutionDuration observes per-paper citation resolution duration in seconds.
	ResolutionDuration prometheus.Histogram

	// SourceRequestsTotal counts HTTP requests to paper source APIs, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed HTTP requests to paper source APIs, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to paper source APIs in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from paper source APIs, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// GraphQueriesTotal counts citation graph queries served.
	GraphQueriesTotal prometheus.Counter

	// GraphQueryDuration observes graph query duration in seconds.
	GraphQueryDuration prometheus.Histogram

	// GraphNodesReturned observes the number of nodes per graph response.
	GraphNodesReturned prometheus.Histogram

	// EmbeddingRequestsTotal counts embedding service calls.
	EmbeddingRequestsTotal prometheus.Counter

	// EmbeddingRequestsFailed counts failed embedding service calls.
	EmbeddingRequestsFailed prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Crawls
		CrawlsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawls_started_total",
			Help:      "Total number of crawl runs started",
		}),
		CrawlsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawls_completed_total",
			Help:      "Total number of crawl runs completed successfully",
		}),
		CrawlsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawls_failed_total",
			Help:      "Total number of crawl runs that failed",
		}),
		CrawlDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawl_duration_seconds",
			Help:      "Duration of crawl runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),

		// Searches
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of paper searches started by source",
		}, []string{"source"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of paper searches completed by source",
		}, []string{"source"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of paper searches that failed by source",
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of paper searches in seconds by source",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		PapersPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per search by source",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		}, []string{"source"}),

		// Papers
		PapersDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_discovered_total",
			Help:      "Total number of papers discovered",
		}),
		PapersBySource: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_by_source_total",
			Help:      "Total number of papers discovered by source",
		}, []string{"source"}),
		PapersSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_saved_total",
			Help:      "Total number of papers inserted into the database",
		}),
		PapersUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_updated_total",
			Help:      "Total number of papers updated during persistence",
		}),

		// Citations
		CitationEdgesInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citation_edges_inserted_total",
			Help:      "Total number of citation edges inserted",
		}),
		ResolutionsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_matched_total",
			Help:      "Total number of papers matched in the citation index",
		}),
		ResolutionsUnmatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_unmatched_total",
			Help:      "Total number of papers no resolution strategy could match",
		}),
		ResolutionsByStrategy: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_by_strategy_total",
			Help:      "Total number of citation matches by strategy",
		}, []string{"strategy"}),
		ResolutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Duration of per-paper citation resolution in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to paper sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to paper sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to paper sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from paper sources",
		}, []string{"source"}),

		// Graph queries
		GraphQueriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_queries_total",
			Help:      "Total number of citation graph queries served",
		}),
		GraphQueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_query_duration_seconds",
			Help:      "Duration of citation graph queries in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GraphNodesReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes_returned",
			Help:      "Number of nodes returned per citation graph query",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),

		// Embeddings
		EmbeddingRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding service requests",
		}),
		EmbeddingRequestsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_failed_total",
			Help:      "Total number of failed embedding service requests",
		}),
	}
}

// RecordCrawlStarted records that a crawl run has started.
func (m *Metrics) RecordCrawlStarted() {
	m.CrawlsStarted.Inc()
}

// RecordCrawlCompleted records that a crawl run has completed.
func (m *Metrics) RecordCrawlCompleted(durationSeconds float64) {
	m.CrawlsCompleted.Inc()
	m.CrawlDuration.Observe(durationSeconds)
}

// RecordCrawlFailed records that a crawl run has failed.
func (m *Metrics) RecordCrawlFailed(durationSeconds float64) {
	m.CrawlsFailed.Inc()
	m.CrawlDuration.Observe(durationSeconds)
}

// RecordSearchStarted records that a search has started.
func (m *Metrics) RecordSearchStarted(source string) {
	m.SearchesStarted.WithLabelValues(source).Inc()
}

// RecordSearchCompleted records that a search has completed.
func (m *Metrics) RecordSearchCompleted(source string, paperCount int, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.PapersPerSearch.WithLabelValues(source).Observe(float64(paperCount))
}

// RecordSearchFailed records that a search has failed.
func (m *Metrics) RecordSearchFailed(source string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordPapersDiscovered records papers discovered from a source.
func (m *Metrics) RecordPapersDiscovered(source string, count int) {
	m.PapersDiscovered.Add(float64(count))
	m.PapersBySource.WithLabelValues(source).Add(float64(count))
}

// RecordPapersPersisted records the outcome of a persistence batch.
func (m *Metrics) RecordPapersPersisted(saved, updated, edges int) {
	m.PapersSaved.Add(float64(saved))
	m.PapersUpdated.Add(float64(updated))
	m.CitationEdgesInserted.Add(float64(edges))
}

// RecordResolutionMatched records a successful citation match.
func (m *Metrics) RecordResolutionMatched(strategy string, durationSeconds float64) {
	m.ResolutionsMatched.Inc()
	m.ResolutionsByStrategy.WithLabelValues(strategy).Inc()
	m.ResolutionDuration.Observe(durationSeconds)
}

// RecordResolutionUnmatched records a paper no strategy could match.
func (m *Metrics) RecordResolutionUnmatched(durationSeconds float64) {
	m.ResolutionsUnmatched.Inc()
	m.ResolutionDuration.Observe(durationSeconds)
}

// RecordSourceRequest records a request to a paper source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to a paper source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordGraphQuery records a served citation graph query.
func (m *Metrics) RecordGraphQuery(nodeCount int, durationSeconds float64) {
	m.GraphQueriesTotal.Inc()
	m.GraphQueryDuration.Observe(durationSeconds)
	m.GraphNodesReturned.Observe(float64(nodeCount))
}

// RecordEmbeddingRequest records an embedding service call.
func (m *Metrics) RecordEmbeddingRequest() {
	m.EmbeddingRequestsTotal.Inc()
}

// RecordEmbeddingRequestFailed records a failed embedding service call.
func (m *Metrics) RecordEmbeddingRequestFailed() {
	m.EmbeddingRequestsFailed.Inc()
}
