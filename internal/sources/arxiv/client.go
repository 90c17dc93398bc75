// Package arxiv provides a client for the arXiv Atom query API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/sources"
)

const (
	// DefaultBaseURL is the default arXiv query API URL.
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	// DefaultRequestInterval is the minimum spacing between requests.
	// The arXiv API terms of use ask for no more than one request every
	// three seconds.
	DefaultRequestInterval = 3 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the maximum results per page accepted by the API
	// without degrading into partial feeds.
	DefaultMaxResults = 50

	// DefaultLimit is the page size used when the caller does not specify one.
	DefaultLimit = 20

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from the entry URL.
// Matches "http://arxiv.org/abs/2301.12345v1" and "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+)$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv query API URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration

	// MaxResults is the cap on results per page.
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
	if c.RequestInterval == 0 {
		c.RequestInterval = DefaultRequestInterval
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the sources.Source interface for arXiv.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: 1.0 / cfg.RequestInterval.Seconds(),
		BurstSize: 1,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv for one page of papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	feed, err := c.fetchFeed(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		paper := c.entryToPaper(&feed.Entries[i])
		if paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := params.Offset + len(feed.Entries)
	hasMore := len(feed.Entries) > 0 && nextOffset < feed.TotalResults

	return &sources.SearchResult{
		Papers:         papers,
		TotalResults:   feed.TotalResults,
		HasMore:        hasMore,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypeArXiv,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a specific paper by its arXiv ID, with or without a
// version suffix.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	query := url.Values{}
	query.Set("id_list", id)
	u.RawQuery = query.Encode()

	feed, err := c.fetchFeed(ctx, u.String())
	if err != nil {
		return nil, err
	}

	if len(feed.Entries) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}

	paper := c.entryToPaper(&feed.Entries[0])
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}

	return paper, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// fetchFeed executes a GET request and decodes the Atom feed.
func (c *Client) fetchFeed(ctx context.Context, rawURL string) (*Feed, error) {
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

	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &feed, nil
}

// buildSearchURL constructs the arXiv search API URL.
func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchQuery := "all:" + params.Query
	if params.Category != "" {
		searchQuery = "cat:" + params.Category
		if params.Query != "" {
			searchQuery += " AND all:" + params.Query
		}
	}

	if params.DateFrom != nil || params.DateTo != nil {
		if dateFilter := buildDateFilter(params.DateFrom, params.DateTo); dateFilter != "" {
			searchQuery += " AND " + dateFilter
		}
	}

	query := url.Values{}
	query.Set("search_query", searchQuery)

	maxResults := params.MaxResults
	if maxResults == 0 {
		maxResults = DefaultLimit
	}
	if maxResults > c.config.MaxResults {
		maxResults = c.config.MaxResults
	}
	query.Set("max_results", strconv.Itoa(maxResults))

	if params.Offset > 0 {
		query.Set("start", strconv.Itoa(params.Offset))
	}

	// Newest submissions first.
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// buildDateFilter constructs the arXiv submittedDate range filter.
func buildDateFilter(from, to *time.Time) string {
	fromStr := "*"
	if from != nil {
		fromStr = from.Format("20060102") + "0000"
	}

	toStr := "*"
	if to != nil {
		toStr = to.Format("20060102") + "2359"
	}

	return fmt.Sprintf("submittedDate:[%s TO %s]", fromStr, toStr)
}

// entryToPaper converts an arXiv Atom entry to a domain Paper.
// Entries without a recognizable arXiv ID or a title are skipped.
func (c *Client) entryToPaper(entry *Entry) *domain.Paper {
	if entry == nil {
		return nil
	}

	arxivID := extractArXivID(entry.ID)
	if arxivID == "" {
		return nil
	}

	title := normalizeWhitespace(entry.Title)
	if title == "" {
		return nil
	}

	paper := &domain.Paper{
		PaperID:    domain.ArXivPaperID(arxivID),
		ExternalID: arxivID,
		Platform:   domain.SourceTypeArXiv,
		Title:      title,
		Abstract:   normalizeWhitespace(entry.Summary),
	}

	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			paper.PublishedDate = t
		}
	}
	if entry.Updated != "" {
		if t, err := time.Parse(time.RFC3339, entry.Updated); err == nil {
			paper.UpdatedDate = t
		}
	}

	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}

	for _, cat := range entry.Categories {
		if cat.Term != "" {
			paper.Categories = append(paper.Categories, cat.Term)
		}
	}

	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			paper.PDFURL = link.Href
			break
		}
	}
	if paper.PDFURL == "" {
		paper.PDFURL = "http://arxiv.org/pdf/" + arxivID
	}

	paper.DeriveYear()
	return paper
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345v1"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses whitespace runs, including the
// newlines arXiv embeds in titles and abstracts.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
