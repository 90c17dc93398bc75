package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_citation_graph_new")

	assert.NotNil(t, m.CrawlsStarted)
	assert.NotNil(t, m.CrawlsCompleted)
	assert.NotNil(t, m.CrawlsFailed)
	assert.NotNil(t, m.CrawlDuration)
	assert.NotNil(t, m.SearchesStarted)
	assert.NotNil(t, m.SearchesCompleted)
	assert.NotNil(t, m.SearchesFailed)
	assert.NotNil(t, m.PapersDiscovered)
	assert.NotNil(t, m.PapersBySource)
	assert.NotNil(t, m.PapersSaved)
	assert.NotNil(t, m.CitationEdgesInserted)
	assert.NotNil(t, m.ResolutionsMatched)
	assert.NotNil(t, m.ResolutionsByStrategy)
	assert.NotNil(t, m.SourceRequestsTotal)
	assert.NotNil(t, m.SourceRequestsFailed)
	assert.NotNil(t, m.GraphQueriesTotal)
	assert.NotNil(t, m.EmbeddingRequestsTotal)
}

func TestRecordCrawlStarted(t *testing.T) {
	m := NewMetrics("test_crawl_started")

	initial := testutil.ToFloat64(m.CrawlsStarted)
	m.RecordCrawlStarted()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.CrawlsStarted))
}

func TestRecordCrawlCompleted(t *testing.T) {
	m := NewMetrics("test_crawl_completed")

	initial := testutil.ToFloat64(m.CrawlsCompleted)
	m.RecordCrawlCompleted(5.5)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.CrawlsCompleted))

	// Check histogram
	histCount, err := getHistogramSampleCount(m.CrawlDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordCrawlFailed(t *testing.T) {
	m := NewMetrics("test_crawl_failed")

	initial := testutil.ToFloat64(m.CrawlsFailed)
	m.RecordCrawlFailed(3.0)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.CrawlsFailed))
}

func TestRecordSearchStarted(t *testing.T) {
	m := NewMetrics("test_search_started")

	m.RecordSearchStarted("arxiv")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesStarted.WithLabelValues("arxiv")))
}

func TestRecordSearchCompleted(t *testing.T) {
	m := NewMetrics("test_search_completed")

	m.RecordSearchCompleted("biorxiv", 42, 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesCompleted.WithLabelValues("biorxiv")))
}

func TestRecordSearchFailed(t *testing.T) {
	m := NewMetrics("test_search_failed")

	m.RecordSearchFailed("pmc", 1.0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesFailed.WithLabelValues("pmc")))
}

func TestRecordPapersDiscovered(t *testing.T) {
	m := NewMetrics("test_papers_discovered")

	initial := testutil.ToFloat64(m.PapersDiscovered)
	m.RecordPapersDiscovered("arxiv", 25)
	assert.Equal(t, initial+25, testutil.ToFloat64(m.PapersDiscovered))
	assert.Equal(t, float64(25), testutil.ToFloat64(m.PapersBySource.WithLabelValues("arxiv")))
}

func TestRecordPapersPersisted(t *testing.T) {
	m := NewMetrics("test_papers_persisted")

	m.RecordPapersPersisted(10, 3, 57)
	assert.Equal(t, float64(10), testutil.ToFloat64(m.PapersSaved))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.PapersUpdated))
	assert.Equal(t, float64(57), testutil.ToFloat64(m.CitationEdgesInserted))
}

func TestRecordResolutionMatched(t *testing.T) {
	m := NewMetrics("test_resolution_matched")

	m.RecordResolutionMatched("doi", 0.8)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResolutionsMatched))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResolutionsByStrategy.WithLabelValues("doi")))

	histCount, err := getHistogramSampleCount(m.ResolutionDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordResolutionUnmatched(t *testing.T) {
	m := NewMetrics("test_resolution_unmatched")

	m.RecordResolutionUnmatched(1.2)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResolutionsUnmatched))
}

func TestRecordSourceRequest(t *testing.T) {
	m := NewMetrics("test_source_request")

	m.RecordSourceRequest("semantic_scholar", "search", 0.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRequestsTotal.WithLabelValues("semantic_scholar", "search")))
}

func TestRecordSourceRequestFailed(t *testing.T) {
	m := NewMetrics("test_source_request_failed")

	m.RecordSourceRequestFailed("doaj", "search", "timeout")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRequestsFailed.WithLabelValues("doaj", "search", "timeout")))
}

func TestRecordSourceRateLimited(t *testing.T) {
	m := NewMetrics("test_source_rate_limited")

	m.RecordSourceRateLimited("pmc")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRateLimited.WithLabelValues("pmc")))
}

func TestRecordGraphQuery(t *testing.T) {
	m := NewMetrics("test_graph_query")

	m.RecordGraphQuery(37, 0.4)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GraphQueriesTotal))

	histCount, err := getHistogramSampleCount(m.GraphNodesReturned)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordEmbeddingRequests(t *testing.T) {
	m := NewMetrics("test_embedding_requests")

	m.RecordEmbeddingRequest()
	m.RecordEmbeddingRequestFailed()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EmbeddingRequestsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EmbeddingRequestsFailed))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
