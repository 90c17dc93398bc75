// Package arxivrss provides a client for the arXiv daily announcement RSS
// feeds. Unlike the query API, the feeds carry only the papers announced for
// the current day, one feed per category, which makes them a cheap way to
// pick up new submissions without paging through search results.
package arxivrss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/sources"
)

const (
	// DefaultBaseURL is the default arXiv RSS base URL. The category name is
	// appended as the path.
	DefaultBaseURL = "https://export.arxiv.org/rss"

	// DefaultCategory is the feed crawled when none is configured.
	DefaultCategory = "cs.AI"

	// DefaultRequestInterval matches the query API spacing of one request
	// every three seconds.
	DefaultRequestInterval = 3 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv RSS"
)

// linkIDRegex extracts the arXiv ID from an item link or GUID.
var linkIDRegex = regexp.MustCompile(`(?:arxiv\.org/abs/|oai:arXiv\.org:)([^\s]+)$`)

// abstractMarker splits the RSS description into preamble and abstract.
const abstractMarker = "Abstract:"

// Config holds configuration for the arXiv RSS client.
type Config struct {
	// BaseURL is the arXiv RSS base URL.
	BaseURL string

	// Category is the default feed category.
	Category string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration

	// Enabled indicates whether this source is enabled for crawling.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Category == "" {
		c.Category = DefaultCategory
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RequestInterval == 0 {
		c.RequestInterval = DefaultRequestInterval
	}
}

// Client implements the sources.Source interface for the arXiv RSS feeds.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new arXiv RSS client with the given configuration.
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

// NewWithHTTPClient creates a new arXiv RSS client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search fetches the current feed for the requested category. The feed is a
// single page, so HasMore is always false and the Query, MaxResults and
// Offset parameters are ignored.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	category := params.Category
	if category == "" {
		category = c.config.Category
	}

	feed, err := c.fetchFeed(ctx, category)
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(feed.Channel.Items))
	for i := range feed.Channel.Items {
		paper := itemToPaper(&feed.Channel.Items[i])
		if paper == nil {
			continue
		}
		if paper.InDateWindow(params.DateFrom, params.DateTo) {
			papers = append(papers, paper)
		}
	}

	return &sources.SearchResult{
		Papers:         papers,
		TotalResults:   len(papers),
		HasMore:        false,
		NextOffset:     params.Offset + len(papers),
		Source:         domain.SourceTypeArXivRSS,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID scans the configured feed for the given arXiv ID. Papers that have
// scrolled out of the daily feed return domain.ErrNotFound; the query API
// client is the right tool for arbitrary lookups.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	feed, err := c.fetchFeed(ctx, c.config.Category)
	if err != nil {
		return nil, err
	}

	wanted := domain.ArXivPaperID(id)
	for i := range feed.Channel.Items {
		paper := itemToPaper(&feed.Channel.Items[i])
		if paper != nil && paper.PaperID == wanted {
			return paper, nil
		}
	}

	return nil, domain.NewNotFoundError("paper", id)
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXivRSS
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// fetchFeed downloads and decodes the RSS feed for a category.
func (c *Client) fetchFeed(ctx context.Context, category string) (*RSS, error) {
	feedURL := strings.TrimRight(c.config.BaseURL, "/") + "/" + category

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
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

	var feed RSS
	decoder := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20))
	decoder.Strict = false
	if err := decoder.Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	return &feed, nil
}

// itemToPaper converts an RSS item to a domain Paper.
// Items without a recognizable arXiv ID or a title are skipped.
func itemToPaper(item *Item) *domain.Paper {
	if item == nil {
		return nil
	}

	arxivID := extractID(item)
	if arxivID == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	paper := &domain.Paper{
		PaperID:    domain.ArXivPaperID(arxivID),
		ExternalID: arxivID,
		Platform:   domain.SourceTypeArXivRSS,
		Title:      title,
		Abstract:   extractAbstract(item.Description),
		Authors:    splitAuthors(item.Creator),
		PDFURL:     "http://arxiv.org/pdf/" + arxivID,
	}

	for _, cat := range item.Categories {
		if c := strings.TrimSpace(cat); c != "" {
			paper.Categories = append(paper.Categories, c)
		}
	}

	if item.PubDate != "" {
		for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
			if t, err := time.Parse(layout, item.PubDate); err == nil {
				paper.PublishedDate = t.UTC()
				break
			}
		}
	}

	paper.DeriveYear()
	return paper
}

// extractID pulls the arXiv ID from the item link, falling back to the GUID.
func extractID(item *Item) string {
	for _, candidate := range []string{strings.TrimSpace(item.Link), strings.TrimSpace(item.GUID)} {
		if candidate == "" {
			continue
		}
		if matches := linkIDRegex.FindStringSubmatch(candidate); len(matches) == 2 {
			return matches[1]
		}
	}
	return ""
}

// extractAbstract strips the announcement preamble from the description.
// Feed descriptions look like:
//
//	arXiv:2408.12345v1 Announce Type: new
//	Abstract: The actual abstract text ...
func extractAbstract(description string) string {
	text := description
	if idx := strings.Index(description, abstractMarker); idx >= 0 {
		text = description[idx+len(abstractMarker):]
	}
	return strings.Join(strings.Fields(text), " ")
}

// splitAuthors splits the comma-separated dc:creator value.
func splitAuthors(creator string) []string {
	if strings.TrimSpace(creator) == "" {
		return nil
	}
	parts := strings.Split(creator, ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
