// Package biorxiv provides a client for the bioRxiv/medRxiv details API.
//
// The same API serves both preprint servers; the server name in the URL path
// selects between them. One Client instance handles one server, so a
// deployment crawling both registers two clients.
package biorxiv

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
	// DefaultBaseURL is the default bioRxiv API base URL.
	DefaultBaseURL = "https://api.biorxiv.org"

	// ServerBioRxiv and ServerMedRxiv are the server names accepted by the
	// details endpoint.
	ServerBioRxiv = "biorxiv"
	ServerMedRxiv = "medrxiv"

	// DefaultRateLimit is the default rate limit (1 request per second).
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultWindowDays is how far back the default crawl interval reaches
	// when no date bounds are given.
	DefaultWindowDays = 30

	// pageSize is the fixed page size of the details endpoint.
	pageSize = 100
)

// Config holds configuration for the bioRxiv/medRxiv client.
type Config struct {
	// BaseURL is the bioRxiv API base URL.
	BaseURL string

	// Server is the preprint server name ("biorxiv" or "medrxiv").
	Server string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// WindowDays is the lookback window when no date bounds are given.
	WindowDays int

	// Enabled indicates whether this source is enabled for crawling.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Server == "" {
		c.Server = ServerBioRxiv
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
	if c.WindowDays == 0 {
		c.WindowDays = DefaultWindowDays
	}
}

// Client implements the sources.Source interface for one bioRxiv server.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new bioRxiv/medRxiv client with the given configuration.
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

// NewWithHTTPClient creates a new client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search fetches one page of preprints from the details endpoint. The details
// API has no query-string search; the interval (derived from the date bounds)
// and optional category are the only filters. The Query parameter is ignored.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	detailsURL, err := c.buildDetailsURL(params)
	if err != nil {
		return nil, fmt.Errorf("building details URL: %w", err)
	}

	details, err := c.fetchDetails(ctx, detailsURL)
	if err != nil {
		return nil, err
	}

	total := 0
	if len(details.Messages) > 0 {
		total = details.Messages[0].Total
	}

	papers := make([]*domain.Paper, 0, len(details.Collection))
	for i := range details.Collection {
		paper := c.recordToPaper(&details.Collection[i])
		if paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := params.Offset + len(details.Collection)
	hasMore := len(details.Collection) > 0 && nextOffset < total

	return &sources.SearchResult{
		Papers:         papers,
		TotalResults:   total,
		HasMore:        hasMore,
		NextOffset:     nextOffset,
		Source:         c.sourceType(),
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a specific preprint by DOI.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	doi := strings.TrimPrefix(strings.TrimSpace(id), "doi:")

	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/details/" + c.config.Server + "/" + doi

	details, err := c.fetchDetails(ctx, u.String())
	if err != nil {
		return nil, err
	}

	if len(details.Collection) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}

	// The API returns one record per version; the last one is the newest.
	paper := c.recordToPaper(&details.Collection[len(details.Collection)-1])
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}

	return paper, nil
}

// SourceType returns the source type identifier for the configured server.
func (c *Client) SourceType() domain.SourceType {
	return c.sourceType()
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	if c.config.Server == ServerMedRxiv {
		return "medRxiv"
	}
	return "bioRxiv"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) sourceType() domain.SourceType {
	if c.config.Server == ServerMedRxiv {
		return domain.SourceTypeMedRxiv
	}
	return domain.SourceTypeBioRxiv
}

// fetchDetails executes a GET request and decodes the details response.
func (c *Client) fetchDetails(ctx context.Context, rawURL string) (*DetailsResponse, error) {
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
		return nil, domain.NewExternalAPIError(c.Name(), resp.StatusCode, string(body), nil)
	}

	var details DetailsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&details); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &details, nil
}

// buildDetailsURL constructs the details endpoint URL:
// {base}/details/{server}/{from}/{to}/{cursor}[?category=...]
func (c *Client) buildDetailsURL(params sources.SearchParams) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	to := time.Now().UTC()
	if params.DateTo != nil {
		to = *params.DateTo
	}
	from := to.AddDate(0, 0, -c.config.WindowDays)
	if params.DateFrom != nil {
		from = *params.DateFrom
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/details/" + c.config.Server +
		"/" + from.Format("2006-01-02") + "/" + to.Format("2006-01-02") +
		"/" + strconv.Itoa(params.Offset)

	if params.Category != "" {
		query := url.Values{}
		query.Set("category", params.Category)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

// recordToPaper converts a details record to a domain Paper.
// Records without a DOI or a title are skipped.
func (c *Client) recordToPaper(rec *Record) *domain.Paper {
	if rec == nil {
		return nil
	}

	doi := strings.TrimSpace(rec.DOI)
	if doi == "" {
		return nil
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return nil
	}

	server := rec.Server
	if server == "" {
		server = c.config.Server
	}
	server = strings.ToLower(server)

	paper := &domain.Paper{
		PaperID:    domain.BioRxivPaperID(server, doi),
		ExternalID: doi,
		Platform:   c.sourceType(),
		Title:      title,
		Abstract:   strings.TrimSpace(rec.Abstract),
		Authors:    splitAuthors(rec.Authors),
	}

	if rec.Category != "" {
		paper.Categories = []string{rec.Category}
	}

	if rec.Date != "" {
		if t, err := time.Parse("2006-01-02", rec.Date); err == nil {
			paper.PublishedDate = t
		}
	}

	version := rec.Version
	if version == "" {
		version = "1"
	}
	paper.PDFURL = fmt.Sprintf("https://www.%s.org/content/%sv%s.full.pdf", server, doi, version)

	paper.DeriveYear()
	return paper
}

// splitAuthors splits the semicolon-separated author string.
func splitAuthors(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
