package biorxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/sources"
)

// Sample JSON responses for testing.
const detailsResponseJSON = `{
	"messages": [{"status": "ok", "total": 250, "count": 2, "cursor": "0"}],
	"collection": [
		{
			"doi": "10.1101/2024.01.01.573999",
			"title": "A Study of Protein Folding",
			"authors": "Smith, J.; Doe, A.",
			"date": "2024-01-15",
			"version": "2",
			"category": "biophysics",
			"abstract": "We study protein folding.",
			"published": "NA",
			"server": "biorxiv",
			"type": "new results"
		},
		{
			"doi": "10.1101/2024.02.02.575111",
			"title": "Second Preprint",
			"authors": "Solo, H.",
			"date": "2024-02-10",
			"version": "1",
			"category": "neuroscience",
			"abstract": "Second abstract.",
			"published": "10.1038/s41586-024-00001-1",
			"server": "biorxiv",
			"type": "new results"
		}
	]
}`

const detailsMissingDOIJSON = `{
	"messages": [{"status": "ok", "total": 2, "count": 2, "cursor": 0}],
	"collection": [
		{"doi": "", "title": "No DOI"},
		{"doi": "10.1101/2024.03.03.580000", "title": "Has DOI", "date": "2024-03-03", "server": "biorxiv"}
	]
}`

const detailsEmptyJSON = `{
	"messages": [{"status": "no posts found", "total": 0, "count": 0}],
	"collection": []
}`

func newTestClient(t *testing.T, server string, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return NewWithHTTPClient(Config{
		BaseURL: ts.URL,
		Server:  server,
		Enabled: true,
	}, sources.NewHTTPClient(sources.HTTPClientConfig{
		RateLimit:  1000,
		BurstSize:  100,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}))
}

func TestClient_Search(t *testing.T) {
	t.Run("parses papers from details response", func(t *testing.T) {
		var gotPath string
		client := newTestClient(t, ServerBioRxiv, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(detailsResponseJSON))
		})

		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		result, err := client.Search(context.Background(), sources.SearchParams{
			DateFrom: &from,
			DateTo:   &to,
		})

		require.NoError(t, err)
		assert.Equal(t, "/details/biorxiv/2024-01-01/2024-03-01/0", gotPath)
		assert.Equal(t, 250, result.TotalResults)
		assert.True(t, result.HasMore)
		assert.Equal(t, 2, result.NextOffset)
		assert.Equal(t, domain.SourceTypeBioRxiv, result.Source)

		require.Len(t, result.Papers, 2)
		p := result.Papers[0]
		assert.Equal(t, "biorxiv_10.1101_2024.01.01.573999", p.PaperID)
		assert.Equal(t, "10.1101/2024.01.01.573999", p.ExternalID)
		assert.Equal(t, domain.SourceTypeBioRxiv, p.Platform)
		assert.Equal(t, "A Study of Protein Folding", p.Title)
		assert.Equal(t, []string{"Smith, J.", "Doe, A."}, p.Authors)
		assert.Equal(t, []string{"biophysics"}, p.Categories)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), p.PublishedDate)
		assert.Equal(t, 2024, p.Year)
		assert.Equal(t, "https://www.biorxiv.org/content/10.1101/2024.01.01.573999v2.full.pdf", p.PDFURL)
	})

	t.Run("passes category and cursor", func(t *testing.T) {
		var gotPath, gotCategory string
		client := newTestClient(t, ServerBioRxiv, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotCategory = r.URL.Query().Get("category")
			w.Write([]byte(detailsEmptyJSON))
		})

		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		_, err := client.Search(context.Background(), sources.SearchParams{
			Category: "cell_biology",
			DateFrom: &from,
			DateTo:   &to,
			Offset:   100,
		})

		require.NoError(t, err)
		assert.Equal(t, "/details/biorxiv/2024-01-01/2024-01-31/100", gotPath)
		assert.Equal(t, "cell_biology", gotCategory)
	})

	t.Run("medrxiv server namespaces paper IDs", func(t *testing.T) {
		client := newTestClient(t, ServerMedRxiv, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"messages": [{"status": "ok", "total": 1, "count": 1}],
				"collection": [{"doi": "10.1101/2024.05.05.24305555", "title": "Clinical", "date": "2024-05-05", "server": "medrxiv"}]
			}`))
		})

		result, err := client.Search(context.Background(), sources.SearchParams{})

		require.NoError(t, err)
		require.Len(t, result.Papers, 1)
		assert.Equal(t, "medrxiv_10.1101_2024.05.05.24305555", result.Papers[0].PaperID)
		assert.Equal(t, domain.SourceTypeMedRxiv, result.Papers[0].Platform)
		assert.Equal(t, domain.SourceTypeMedRxiv, result.Source)
	})

	t.Run("skips records without DOI", func(t *testing.T) {
		client := newTestClient(t, ServerBioRxiv, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(detailsMissingDOIJSON))
		})

		result, err := client.Search(context.Background(), sources.SearchParams{})

		require.NoError(t, err)
		require.Len(t, result.Papers, 1)
		assert.Equal(t, "biorxiv_10.1101_2024.03.03.580000", result.Papers[0].PaperID)
	})

	t.Run("empty collection yields no papers", func(t *testing.T) {
		client := newTestClient(t, ServerBioRxiv, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(detailsEmptyJSON))
		})

		result, err := client.Search(context.Background(), sources.SearchParams{})

		require.NoError(t, err)
		assert.Empty(t, result.Papers)
		assert.False(t, result.HasMore)
	})

	t.Run("wraps non-200 responses", func(t *testing.T) {
		client := newTestClient(t, ServerBioRxiv, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadRequest)
		})

		_, err := client.Search(context.Background(), sources.SearchParams{})

		require.Error(t, err)
		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestClient_GetByID(t *testing.T) {
	t.Run("fetches by DOI and uses newest version", func(t *testing.T) {
		var gotPath string
		client := newTestClient(t, ServerBioRxiv, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{
				"messages": [{"status": "ok", "total": 2, "count": 2}],
				"collection": [
					{"doi": "10.1101/2024.01.01.573999", "title": "v1 title", "date": "2024-01-10", "version": "1", "server": "biorxiv"},
					{"doi": "10.1101/2024.01.01.573999", "title": "v2 title", "date": "2024-01-15", "version": "2", "server": "biorxiv"}
				]
			}`))
		})

		paper, err := client.GetByID(context.Background(), "10.1101/2024.01.01.573999")

		require.NoError(t, err)
		assert.Equal(t, "/details/biorxiv/10.1101/2024.01.01.573999", gotPath)
		assert.Equal(t, "v2 title", paper.Title)
		assert.Equal(t, "biorxiv_10.1101_2024.01.01.573999", paper.PaperID)
	})

	t.Run("returns not found for empty collection", func(t *testing.T) {
		client := newTestClient(t, ServerBioRxiv, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(detailsEmptyJSON))
		})

		_, err := client.GetByID(context.Background(), "10.1101/0000")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestClient_Metadata(t *testing.T) {
	biorxivClient := New(Config{Server: ServerBioRxiv, Enabled: true})
	assert.Equal(t, domain.SourceTypeBioRxiv, biorxivClient.SourceType())
	assert.Equal(t, "bioRxiv", biorxivClient.Name())
	assert.True(t, biorxivClient.IsEnabled())

	medrxivClient := New(Config{Server: ServerMedRxiv})
	assert.Equal(t, domain.SourceTypeMedRxiv, medrxivClient.SourceType())
	assert.Equal(t, "medRxiv", medrxivClient.Name())
	assert.False(t, medrxivClient.IsEnabled())
}
