// Package plos provides a client for the PLOS Solr search API.
package plos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/sources"
)

const (
	// DefaultBaseURL is the default PLOS search API URL.
	DefaultBaseURL = "http://api.plos.org/search"

	// DefaultRateLimit is the default rate limit. PLOS asks API users to
	// stay under 10 requests per minute; one every 10 seconds keeps a
	// comfortable margin.
	DefaultRateLimit = 0.1

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	// resultFields is the Solr field list fetched for every document.
	resultFields = "id,title_display,abstract,author_display,subject,journal,publication_date,article_type"

	// sourceName is the human-readable name for this source.
	sourceName = "PLOS"
)

// Config holds configuration for the PLOS client.
type Config struct {
	// BaseURL is the PLOS search API URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum results to return per search request.
	MaxResults int

	// Enabled indicates whether this source is enabled for crawling.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the sources.Source interface for PLOS.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new PLOS client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new PLOS client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries PLOS for one page of papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	q := fmt.Sprintf("everything:%q", params.Query)
	if params.Query == "" {
		q = "*:*"
	}

	searchResp, err := c.query(ctx, q, params)
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(searchResp.Response.Docs))
	for i := range searchResp.Response.Docs {
		paper := docToPaper(&searchResp.Response.Docs[i])
		if paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := params.Offset + len(searchResp.Response.Docs)
	hasMore := len(searchResp.Response.Docs) > 0 && nextOffset < searchResp.Response.NumFound

	return &sources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Response.NumFound,
		HasMore:        hasMore,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypePLOS,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a specific paper by its DOI.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	doi := strings.TrimPrefix(strings.TrimSpace(id), "doi:")

	searchResp, err := c.query(ctx, fmt.Sprintf("id:%q", doi), sources.SearchParams{MaxResults: 1})
	if err != nil {
		return nil, err
	}

	if len(searchResp.Response.Docs) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}

	paper := docToPaper(&searchResp.Response.Docs[0])
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}

	return paper, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePLOS
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// query executes a Solr query and decodes the response.
func (c *Client) query(ctx context.Context, q string, params sources.SearchParams) (*SearchResponse, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	values := url.Values{}
	values.Set("q", q)
	values.Set("fl", resultFields)
	values.Set("wt", "json")
	values.Set("sort", "publication_date desc")

	// Restrict to full articles; PLOS also indexes issue images and such.
	fq := `doc_type:full AND article_type:"Research Article"`
	if params.DateFrom != nil || params.DateTo != nil {
		fq += " AND " + buildDateFilter(params.DateFrom, params.DateTo)
	}
	values.Set("fq", fq)

	maxResults := params.MaxResults
	if maxResults == 0 || maxResults > c.config.MaxResults {
		maxResults = c.config.MaxResults
	}
	values.Set("rows", strconv.Itoa(maxResults))
	if params.Offset > 0 {
		values.Set("start", strconv.Itoa(params.Offset))
	}

	u.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &searchResp, nil
}

// buildDateFilter constructs the Solr publication_date range filter.
func buildDateFilter(from, to *time.Time) string {
	fromStr := "*"
	if from != nil {
		fromStr = from.UTC().Format("2006-01-02T15:04:05Z")
	}

	toStr := "*"
	if to != nil {
		toStr = to.UTC().Format("2006-01-02T15:04:05Z")
	}

	return fmt.Sprintf("publication_date:[%s TO %s]", fromStr, toStr)
}

// docToPaper converts a Solr document to a domain Paper.
// Documents without a DOI or a title are skipped.
func docToPaper(doc *Doc) *domain.Paper {
	if doc == nil {
		return nil
	}

	doi := strings.TrimSpace(doc.ID)
	if doi == "" {
		return nil
	}

	title := strings.TrimSpace(doc.TitleDisplay)
	if title == "" {
		return nil
	}

	paper := &domain.Paper{
		PaperID:    domain.PLOSPaperID(doi),
		ExternalID: doi,
		Platform:   domain.SourceTypePLOS,
		Title:      title,
		PDFURL:     "https://journals.plos.org/plosone/article/file?id=" + doi + "&type=printable",
	}

	if len(doc.Abstract) > 0 {
		paper.Abstract = strings.TrimSpace(strings.Join(doc.Abstract, " "))
	}

	for _, a := range doc.AuthorDisplay {
		if name := strings.TrimSpace(a); name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}

	for _, s := range doc.Subject {
		if subject := strings.TrimSpace(s); subject != "" {
			paper.Categories = append(paper.Categories, subject)
		}
	}

	if doc.PublicationDate != "" {
		if t, err := time.Parse(time.RFC3339, doc.PublicationDate); err == nil {
			paper.PublishedDate = t
		}
	}

	paper.DeriveYear()
	return paper
}
