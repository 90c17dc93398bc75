package arxiv

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

// Sample Atom responses for testing.
const searchResponseAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title>ArXiv Query: search_query=all:attention</title>
  <opensearch:totalResults>2417</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <updated>2023-08-02T00:41:18Z</updated>
    <title>Attention Is All You Need</title>
    <summary>  The dominant sequence transduction models are based on complex recurrent or
convolutional neural networks.
</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf"/>
    <primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00001v2</id>
    <published>2023-01-01T00:00:00Z</published>
    <updated>2023-01-05T00:00:00Z</updated>
    <title>Another Paper
  With Newlines In The Title</title>
    <summary>Second abstract.</summary>
    <author><name>Jane Doe</name></author>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const titlelessEntryAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>2</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/2105.11111v1</id>
    <published>2021-05-20T00:00:00Z</published>
    <title>   </title>
    <summary>Abstract without a title.</summary>
    <author><name>B Author</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2105.12345v1</id>
    <published>2021-05-25T00:00:00Z</published>
    <title>Valid Entry</title>
    <summary>Fine.</summary>
    <author><name>A Author</name></author>
  </entry>
</feed>`

const malformedEntryAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>2</opensearch:totalResults>
  <entry>
    <id>http://example.org/not-an-arxiv-url</id>
    <title>Broken Entry</title>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2105.12345v1</id>
    <published>2021-05-25T00:00:00Z</published>
    <title>Valid Entry</title>
    <summary>Fine.</summary>
    <author><name>A Author</name></author>
  </entry>
</feed>`

const emptyFeedAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>0</opensearch:totalResults>
</feed>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewWithHTTPClient(Config{
		BaseURL: server.URL,
		Enabled: true,
	}, sources.NewHTTPClient(sources.HTTPClientConfig{
		RateLimit:  1000,
		BurstSize:  100,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}))
	return client, server
}

func TestClient_Search(t *testing.T) {
	t.Run("parses papers from atom feed", func(t *testing.T) {
		var gotQuery string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("search_query")
			w.Write([]byte(searchResponseAtom))
		})

		result, err := client.Search(context.Background(), sources.SearchParams{
			Query:      "attention",
			MaxResults: 2,
		})

		require.NoError(t, err)
		assert.Equal(t, "all:attention", gotQuery)
		assert.Equal(t, 2417, result.TotalResults)
		assert.True(t, result.HasMore)
		assert.Equal(t, 2, result.NextOffset)
		assert.Equal(t, domain.SourceTypeArXiv, result.Source)

		require.Len(t, result.Papers, 2)
		p := result.Papers[0]
		assert.Equal(t, "1706.03762", p.PaperID)
		assert.Equal(t, "1706.03762v7", p.ExternalID)
		assert.Equal(t, domain.SourceTypeArXiv, p.Platform)
		assert.Equal(t, "Attention Is All You Need", p.Title)
		assert.Contains(t, p.Abstract, "sequence transduction")
		assert.NotContains(t, p.Abstract, "\n")
		assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, p.Authors)
		assert.Equal(t, []string{"cs.CL", "cs.LG"}, p.Categories)
		assert.Equal(t, "http://arxiv.org/pdf/1706.03762v7", p.PDFURL)
		assert.Equal(t, 2017, p.Year)
		assert.Equal(t, time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC), p.PublishedDate)

		assert.Equal(t, "Another Paper With Newlines In The Title", result.Papers[1].Title)
		assert.Equal(t, "http://arxiv.org/pdf/2301.00001v2", result.Papers[1].PDFURL)
	})

	t.Run("builds category query", func(t *testing.T) {
		var gotQuery string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("search_query")
			w.Write([]byte(emptyFeedAtom))
		})

		_, err := client.Search(context.Background(), sources.SearchParams{Category: "cs.AI"})
		require.NoError(t, err)
		assert.Equal(t, "cat:cs.AI", gotQuery)
	})

	t.Run("builds date filter", func(t *testing.T) {
		var gotQuery string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("search_query")
			w.Write([]byte(emptyFeedAtom))
		})

		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := client.Search(context.Background(), sources.SearchParams{
			Query:    "llm",
			DateFrom: &from,
		})

		require.NoError(t, err)
		assert.Contains(t, gotQuery, "submittedDate:[202401010000 TO *]")
	})

	t.Run("caps page size at configured max", func(t *testing.T) {
		var gotMax string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotMax = r.URL.Query().Get("max_results")
			w.Write([]byte(emptyFeedAtom))
		})

		_, err := client.Search(context.Background(), sources.SearchParams{
			Query:      "x",
			MaxResults: 500,
		})

		require.NoError(t, err)
		assert.Equal(t, "50", gotMax)
	})

	t.Run("skips malformed entries", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(malformedEntryAtom))
		})

		result, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})

		require.NoError(t, err)
		require.Len(t, result.Papers, 1)
		assert.Equal(t, "2105.12345", result.Papers[0].PaperID)
	})

	t.Run("skips entries without a title", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(titlelessEntryAtom))
		})

		result, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})

		require.NoError(t, err)
		require.Len(t, result.Papers, 1)
		assert.Equal(t, "2105.12345", result.Papers[0].PaperID)
		assert.Equal(t, "Valid Entry", result.Papers[0].Title)
	})

	t.Run("empty feed yields no papers and no more pages", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(emptyFeedAtom))
		})

		result, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})

		require.NoError(t, err)
		assert.Empty(t, result.Papers)
		assert.False(t, result.HasMore)
	})

	t.Run("wraps non-200 responses", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		})

		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})

		require.Error(t, err)
		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestClient_GetByID(t *testing.T) {
	t.Run("fetches by id_list", func(t *testing.T) {
		var gotIDList string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotIDList = r.URL.Query().Get("id_list")
			w.Write([]byte(searchResponseAtom))
		})

		paper, err := client.GetByID(context.Background(), "1706.03762")

		require.NoError(t, err)
		assert.Equal(t, "1706.03762", gotIDList)
		assert.Equal(t, "1706.03762", paper.PaperID)
	})

	t.Run("returns not found for empty feed", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(emptyFeedAtom))
		})

		_, err := client.GetByID(context.Background(), "9999.99999")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestClient_Metadata(t *testing.T) {
	client := New(Config{Enabled: true})

	assert.Equal(t, domain.SourceTypeArXiv, client.SourceType())
	assert.Equal(t, "arXiv", client.Name())
	assert.True(t, client.IsEnabled())
	assert.False(t, New(Config{}).IsEnabled())
}
