// Package pmc provides a client for PubMed Central via the NCBI E-utilities.
//
// Searching is a two-step process:
//  1. esearch.fcgi retrieves PMC IDs matching the query
//  2. efetch.fcgi retrieves the JATS metadata for those IDs
package pmc

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the default E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the default rate limit. NCBI allows 3 requests
	// per second without an API key.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	// DefaultTool identifies this client to NCBI, as the E-utilities
	// usage policy requests.
	DefaultTool = "citation-graph-service"

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed Central"
)

// Config holds configuration for the PMC client.
type Config struct {
	// BaseURL is the E-utilities base URL.
	BaseURL string

	// Tool is the tool name sent with every request.
	Tool string

	// Email is the contact address sent with every request.
	Email string

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string

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
	if c.Tool == "" {
		c.Tool = DefaultTool
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

// Client implements the sources.Source interface for PubMed Central.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new PMC client with the given configuration.
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

// NewWithHTTPClient creates a new PMC client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries PMC for one page of papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	startTime := time.Now()

	searchResult, err := c.esearch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	if len(searchResult.IDList) == 0 {
		return &sources.SearchResult{
			Papers:         []*domain.Paper{},
			TotalResults:   searchResult.Count,
			HasMore:        false,
			NextOffset:     params.Offset,
			Source:         domain.SourceTypePMC,
			SearchDuration: time.Since(startTime),
		}, nil
	}

	articles, err := c.efetch(ctx, searchResult.IDList)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	papers := make([]*domain.Paper, 0, len(articles.Articles))
	for i := range articles.Articles {
		paper := c.articleToPaper(&articles.Articles[i])
		if paper != nil {
			papers = append(papers, paper)
		}
	}

	nextOffset := params.Offset + len(searchResult.IDList)
	hasMore := nextOffset < searchResult.Count

	return &sources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResult.Count,
		HasMore:        hasMore,
		NextOffset:     nextOffset,
		Source:         domain.SourceTypePMC,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a specific paper by its PMC ID, with or without
// the "PMC" prefix.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	numericID := strings.TrimPrefix(strings.TrimSpace(id), "PMC")

	articles, err := c.efetch(ctx, []string{numericID})
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	if len(articles.Articles) == 0 {
		return nil, domain.NewNotFoundError("paper", id)
	}

	paper := c.articleToPaper(&articles.Articles[0])
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}

	return paper, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePMC
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// esearch performs a search query and returns matching PMC IDs.
func (c *Client) esearch(ctx context.Context, params sources.SearchParams) (*ESearchResult, error) {
	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	term := params.Query
	if params.DateFrom != nil || params.DateTo != nil {
		term += " AND " + buildDateFilter(params.DateFrom, params.DateTo)
	}

	q := url.Values{}
	q.Set("db", "pmc")
	q.Set("term", term)
	q.Set("retmode", "xml")
	q.Set("sort", "pub_date")

	maxResults := params.MaxResults
	if maxResults == 0 || maxResults > c.config.MaxResults {
		maxResults = c.config.MaxResults
	}
	q.Set("retmax", strconv.Itoa(maxResults))
	if params.Offset > 0 {
		q.Set("retstart", strconv.Itoa(params.Offset))
	}

	c.setIdentity(q)
	u.RawQuery = q.Encode()

	var result ESearchResult
	if err := c.fetchXML(ctx, u.String(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// efetch retrieves JATS metadata for the given PMC IDs.
func (c *Client) efetch(ctx context.Context, ids []string) (*ArticleSet, error) {
	u, err := url.Parse(c.config.BaseURL + "/efetch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	q := url.Values{}
	q.Set("db", "pmc")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	c.setIdentity(q)
	u.RawQuery = q.Encode()

	var set ArticleSet
	if err := c.fetchXML(ctx, u.String(), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// setIdentity adds the tool/email/api_key parameters NCBI asks for.
func (c *Client) setIdentity(q url.Values) {
	q.Set("tool", c.config.Tool)
	if c.config.Email != "" {
		q.Set("email", c.config.Email)
	}
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
}

// fetchXML executes a GET request and decodes the XML response into dst.
func (c *Client) fetchXML(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	decoder := xml.NewDecoder(io.LimitReader(resp.Body, 50<<20))
	decoder.Strict = false
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// buildDateFilter constructs the E-utilities publication date range filter.
func buildDateFilter(from, to *time.Time) string {
	fromStr := "1900/01/01"
	if from != nil {
		fromStr = from.Format("2006/01/02")
	}

	toStr := "3000/12/31"
	if to != nil {
		toStr = to.Format("2006/01/02")
	}

	return fmt.Sprintf(`("%s"[Publication Date] : "%s"[Publication Date])`, fromStr, toStr)
}

// articleToPaper converts a JATS article to a domain Paper.
// Articles without a PMC ID or a title are skipped.
func (c *Client) articleToPaper(article *Article) *domain.Paper {
	if article == nil {
		return nil
	}
	meta := &article.Front.ArticleMeta

	pmcID := ""
	for _, id := range meta.ArticleIDs {
		if id.Type == "pmc" || id.Type == "pmcid" {
			pmcID = strings.TrimSpace(id.Value)
			break
		}
	}
	if pmcID == "" {
		return nil
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		return nil
	}

	paper := &domain.Paper{
		PaperID:    domain.PMCPaperID(pmcID),
		ExternalID: pmcID,
		Platform:   domain.SourceTypePMC,
		Title:      title,
		Abstract:   extractAbstract(&meta.Abstract),
	}

	for _, contrib := range meta.Contribs {
		if contrib.Type != "" && contrib.Type != "author" {
			continue
		}
		name := strings.TrimSpace(strings.TrimSpace(contrib.Given) + " " + strings.TrimSpace(contrib.Surname))
		if name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}

	for _, subject := range meta.Subjects {
		if s := strings.TrimSpace(subject); s != "" {
			paper.Categories = append(paper.Categories, s)
		}
	}

	if t := extractPubDate(meta.PubDates); !t.IsZero() {
		paper.PublishedDate = t
	}

	paper.PDFURL = "https://www.ncbi.nlm.nih.gov/pmc/articles/" + paper.PaperID + "/pdf/"

	paper.DeriveYear()
	return paper
}

// extractPubDate picks the electronic publication date when present,
// otherwise the first date carried by the article.
func extractPubDate(dates []PubDate) time.Time {
	pick := func(d PubDate) time.Time {
		if d.Year == 0 {
			return time.Time{}
		}
		month := d.Month
		if month == 0 {
			month = 1
		}
		day := d.Day
		if day == 0 {
			day = 1
		}
		return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}

	for _, d := range dates {
		if d.Type == "epub" {
			if t := pick(d); !t.IsZero() {
				return t
			}
		}
	}
	for _, d := range dates {
		if t := pick(d); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// extractAbstract flattens a JATS abstract into a single string.
func extractAbstract(abstract *Abstract) string {
	var parts []string
	for _, p := range abstract.Paragraphs {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	for _, sec := range abstract.Sections {
		for _, p := range sec.Paragraphs {
			s := strings.TrimSpace(p)
			if s == "" {
				continue
			}
			if title := strings.TrimSpace(sec.Title); title != "" {
				s = title + ": " + s
			}
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
