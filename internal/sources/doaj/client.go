// Package doaj provides a client for the Directory of Open Access Journals
// article search API.
package doaj

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
	// DefaultBaseURL is the default DOAJ API base URL.
	DefaultBaseURL = "https://doaj.org/api/v2"

	// DefaultRateLimit is the default rate limit (2 requests per second,
	// the documented cap for anonymous API access).
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the default page size. The API caps pageSize at 100.
	DefaultPageSize = 100

	// sourceName is the human-readable name for this source.
	sourceName = "DOAJ"
)

// Config holds configuration for the DOAJ client.
type Config struct {
	// BaseURL is the DOAJ API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// PageSize is the page size for search requests.
	PageSize int

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
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
}

// Client implements the sources.Source interface for DOAJ.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new DOAJ client with the given configuration.
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

// NewWithHTTPClient creates a new DOAJ client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries DOAJ for one page of articles matching the given parameters.
// The API is page-based; the offset is translated to a page number, so
// callers should advance the offset in whole pages (NextOffset does).
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	pageSize := params.MaxResults
	if pageSize == 0 || pageSize > c.config.PageSize {
		pageSize = c.config.PageSize
	}
	page := params.Offset/pageSize + 1

	searchQuery := params.Query
	if strings.TrimSpace(searchQuery) == "" {
		searchQuery = "*"
	}
	if params.DateFrom != nil || params.DateTo != nil {
		searchQuery = fmt.Sprintf("%s AND %s", searchQuery, buildDateFilter(params.DateFrom, params.DateTo))
	}

	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/search/articles/" + url.PathEscape(searchQuery)

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("sort", "created_date:desc")
	u.RawQuery = q.Encode()

	searchResp, err := c.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		paper := resultToPaper(&searchResp.Results[i])
		if paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := page * pageSize
	hasMore := len(searchResp.Results) > 0 && nextOffset < searchResp.Total

	return &sources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Total,
		HasMore:        hasMore,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeDOAJ,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a specific article by its DOAJ article ID.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/articles/" + url.PathEscape(strings.TrimSpace(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError("paper", id)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	paper := resultToPaper(&result)
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return paper, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeDOAJ
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// fetch executes a GET request and decodes the search response.
func (c *Client) fetch(ctx context.Context, rawURL string) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
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

// buildDateFilter constructs the Elasticsearch-style created_date range filter.
func buildDateFilter(from, to *time.Time) string {
	fromStr := "*"
	if from != nil {
		fromStr = from.UTC().Format("2006-01-02")
	}

	toStr := "*"
	if to != nil {
		toStr = to.UTC().Format("2006-01-02")
	}

	return fmt.Sprintf("created_date:[%s TO %s]", fromStr, toStr)
}

// resultToPaper converts a DOAJ article record to a domain Paper.
// Records without an article ID or a title are skipped.
func resultToPaper(result *Result) *domain.Paper {
	if result == nil {
		return nil
	}

	articleID := strings.TrimSpace(result.ID)
	if articleID == "" {
		return nil
	}

	bib := &result.BibJSON
	title := strings.TrimSpace(bib.Title)
	if title == "" {
		return nil
	}

	paper := &domain.Paper{
		PaperID:    domain.DOAJPaperID(articleID),
		ExternalID: articleID,
		Platform:   domain.SourceTypeDOAJ,
		Title:      title,
		Abstract:   strings.TrimSpace(bib.Abstract),
	}

	for _, a := range bib.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}

	for _, s := range bib.Subjects {
		if term := strings.TrimSpace(s.Term); term != "" {
			paper.Categories = append(paper.Categories, term)
		}
	}
	for _, k := range bib.Keywords {
		if kw := strings.TrimSpace(k); kw != "" {
			paper.Categories = append(paper.Categories, kw)
		}
	}

	for _, link := range bib.Links {
		if link.Type == "fulltext" && link.URL != "" {
			paper.PDFURL = link.URL
			break
		}
	}

	if result.CreatedDate != "" {
		if t, err := time.Parse(time.RFC3339, result.CreatedDate); err == nil {
			paper.PublishedDate = t
		}
	}
	if year, err := strconv.Atoi(bib.Year); err == nil {
		paper.Year = year
		if paper.PublishedDate.IsZero() {
			month := time.January
			if m, err := strconv.Atoi(bib.Month); err == nil && m >= 1 && m <= 12 {
				month = time.Month(m)
			}
			paper.PublishedDate = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		}
	}

	paper.DeriveYear()
	return paper
}
