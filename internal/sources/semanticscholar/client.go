package semanticscholar

import (
	"context"
	"encoding/json"
	"errors"
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
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit. Unauthenticated access is
	// shared across all anonymous users, so the default is deliberately
	// conservative; an API key allows raising it.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum number of results per search.
	DefaultMaxResults = 100

	// titleSearchLimit is how many bulk-search candidates the resolver
	// considers when matching by title.
	titleSearchLimit = 5

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the field list requested for full paper records.
	paperFields = "paperId,externalIds,title,abstract,year,publicationDate,venue,authors,fieldsOfStudy,citationCount,referenceCount,openAccessPdf"

	// citationFields is the field list requested when only the citation
	// graph neighborhood is needed.
	citationFields = "references.paperId,citations.paperId"

	// sourceName is the human-readable name for this source.
	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum number of results to return per search.
	MaxResults int

	// Enabled indicates whether this source is enabled.
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

// Client implements the sources.Source interface for Semantic Scholar and
// provides the lookup methods used by the citation resolver.
type Client struct {
	httpClient *sources.HTTPClient
	config     Config
}

var _ sources.Source = (*Client)(nil)

// New creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, one is created from the configuration settings.
func New(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries Semantic Scholar for papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) (*sources.SearchResult, error) {
	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var searchResp SearchResponse
	if err := c.getJSON(ctx, searchURL, &searchResp); err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(searchResp.Data))
	for i := range searchResp.Data {
		paper := resultToPaper(&searchResp.Data[i])
		if paper == nil {
			continue
		}
		if paper.InDateWindow(params.DateFrom, params.DateTo) {
			papers = append(papers, paper)
		}
	}

	return &sources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Total,
		HasMore:        searchResp.Next > 0,
		NextOffset:     searchResp.Next,
		Source:         domain.SourceTypeSemanticScholar,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID retrieves a specific paper. The id may be a Semantic Scholar paper
// ID or any prefixed external reference the API accepts ("DOI:...",
// "ARXIV:...", "PMID:...").
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	paperURL := fmt.Sprintf("%s/paper/%s?fields=%s", c.config.BaseURL, url.PathEscape(id), paperFields)

	var result PaperResult
	if err := c.getJSON(ctx, paperURL, &result); err != nil {
		return nil, notFoundOr(err, id)
	}

	paper := resultToPaper(&result)
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return paper, nil
}

// LookupPaperID resolves an external reference ("DOI:10.x/y", "ARXIV:1706.03762")
// to a Semantic Scholar paper ID. Returns domain.ErrNotFound when the
// reference is unknown to the index.
func (c *Client) LookupPaperID(ctx context.Context, externalRef string) (string, error) {
	lookupURL := fmt.Sprintf("%s/paper/%s?fields=paperId", c.config.BaseURL, url.PathEscape(externalRef))

	var result PaperResult
	if err := c.getJSON(ctx, lookupURL, &result); err != nil {
		return "", notFoundOr(err, externalRef)
	}

	if result.PaperID == "" {
		return "", domain.NewNotFoundError("paper", externalRef)
	}
	return result.PaperID, nil
}

// SearchByTitle runs a bulk title search and returns the paper whose title
// matches exactly, ignoring case. Returns domain.ErrNotFound when no
// candidate matches.
func (c *Client) SearchByTitle(ctx context.Context, title string) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	searchURL := u.JoinPath("paper", "search", "bulk")

	q := searchURL.Query()
	q.Set("query", strconv.Quote(title))
	q.Set("fields", "paperId,title")
	q.Set("limit", strconv.Itoa(titleSearchLimit))
	searchURL.RawQuery = q.Encode()

	var resp BulkSearchResponse
	if err := c.getJSON(ctx, searchURL.String(), &resp); err != nil {
		return "", notFoundOr(err, title)
	}

	wanted := strings.ToLower(strings.TrimSpace(title))
	for _, candidate := range resp.Data {
		if strings.ToLower(strings.TrimSpace(candidate.Title)) == wanted && candidate.PaperID != "" {
			return candidate.PaperID, nil
		}
	}

	return "", domain.NewNotFoundError("paper", title)
}

// GetCitations fetches the reference and citation neighborhoods of a paper,
// returned as Semantic Scholar paper IDs.
func (c *Client) GetCitations(ctx context.Context, s2ID string) (references, citations []string, err error) {
	citURL := fmt.Sprintf("%s/paper/%s?fields=%s", c.config.BaseURL, url.PathEscape(s2ID), citationFields)

	var result PaperResult
	if err := c.getJSON(ctx, citURL, &result); err != nil {
		return nil, nil, notFoundOr(err, s2ID)
	}

	for _, ref := range result.References {
		if ref.PaperID != "" {
			references = append(references, ref.PaperID)
		}
	}
	for _, cit := range result.Citations {
		if cit.PaperID != "" {
			citations = append(citations, cit.PaperID)
		}
	}
	return references, citations, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the relevance search URL with query parameters.
func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("paper", "search")

	q := searchURL.Query()
	q.Set("query", params.Query)
	q.Set("fields", paperFields)

	limit := params.MaxResults
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}
	q.Set("limit", strconv.Itoa(limit))

	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	// The API filters by year only; day-level bounds are applied client-side.
	if params.DateFrom != nil && params.DateTo != nil {
		q.Set("year", fmt.Sprintf("%d-%d", params.DateFrom.Year(), params.DateTo.Year()))
	} else if params.DateFrom != nil {
		q.Set("year", fmt.Sprintf("%d-", params.DateFrom.Year()))
	} else if params.DateTo != nil {
		q.Set("year", fmt.Sprintf("-%d", params.DateTo.Year()))
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// getJSON executes a GET request and decodes the JSON response into dst.
func (c *Client) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorFromResponse builds a typed error from a non-2xx API response.
func (c *Client) errorFromResponse(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	message := string(body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			message = errResp.Error
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	}

	return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
}

// notFoundOr maps a 404 API error to a NotFoundError and passes everything
// else through unchanged.
func notFoundOr(err error, id string) error {
	var apiErr *domain.ExternalAPIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError("paper", id)
	}
	return err
}

// resultToPaper converts an API paper result to a domain Paper.
// Results without a paper ID or a title are skipped.
func resultToPaper(result *PaperResult) *domain.Paper {
	if result == nil || result.PaperID == "" {
		return nil
	}

	title := strings.TrimSpace(result.Title)
	if title == "" {
		return nil
	}

	paper := &domain.Paper{
		PaperID:    domain.SemanticScholarPaperID(result.PaperID),
		ExternalID: result.PaperID,
		Platform:   domain.SourceTypeSemanticScholar,
		Title:      title,
		Abstract:   strings.TrimSpace(result.Abstract),
		Year:       result.Year,
	}

	if result.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", result.PublicationDate); err == nil {
			paper.PublishedDate = t
		}
	}

	for _, a := range result.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}

	for _, f := range result.FieldsOfStudy {
		if field := strings.TrimSpace(f); field != "" {
			paper.Categories = append(paper.Categories, field)
		}
	}

	if result.OpenAccessPDF != nil {
		paper.PDFURL = result.OpenAccessPDF.URL
	}

	for _, ref := range result.References {
		if ref.PaperID != "" {
			paper.ReferenceIDs = append(paper.ReferenceIDs, domain.SemanticScholarPaperID(ref.PaperID))
		}
	}
	for _, cit := range result.Citations {
		if cit.PaperID != "" {
			paper.CitedByIDs = append(paper.CitedByIDs, domain.SemanticScholarPaperID(cit.PaperID))
		}
	}

	paper.DeriveYear()
	return paper
}
