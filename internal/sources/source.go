// Package sources provides clients for crawling academic paper platforms.
//
// Each platform (arXiv, bioRxiv, PubMed Central, PLOS, DOAJ, the arXiv RSS
// feeds, Semantic Scholar) implements the Source interface, so the crawl
// orchestrator can drive any subset of platforms with a unified API.
//
// Example usage:
//
//	src := arxiv.New(cfg, httpClient)
//	params := sources.SearchParams{
//		Query:      "transformer architectures",
//		MaxResults: 50,
//	}
//	result, err := src.Search(ctx, params)
package sources

import (
	"context"
	"time"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// SearchParams defines the parameters for one page of a platform search.
type SearchParams struct {
	// Query is the search query string. The format varies by platform; some
	// support field-specific syntax, others treat it as free text. Feed-style
	// sources ignore it.
	Query string

	// Category restricts the search to a platform category where the platform
	// supports one (arXiv subject classes, bioRxiv collections). Empty means
	// the platform default.
	Category string

	// DateFrom filters papers published on or after this date.
	// If nil, no lower date bound is applied.
	DateFrom *time.Time

	// DateTo filters papers published on or before this date.
	// If nil, no upper date bound is applied.
	DateTo *time.Time

	// MaxResults limits the number of papers returned in a single page.
	// Platforms may cap this value. A value of 0 uses the platform default.
	MaxResults int

	// Offset specifies the starting position for paginated results.
	Offset int
}

// SearchResult contains one page of results from a platform search.
type SearchResult struct {
	// Papers contains the papers returned by the search.
	// May be empty if no papers match the search criteria.
	Papers []*domain.Paper

	// TotalResults is the total number of papers matching the query,
	// regardless of pagination limits. Provided by the platform API and
	// may be an estimate for large result sets.
	TotalResults int

	// HasMore indicates whether additional results are available
	// beyond the current page.
	HasMore bool

	// NextOffset is the offset value to use for fetching the next page.
	// Only meaningful when HasMore is true.
	NextOffset int

	// Source identifies which platform provided these results.
	Source domain.SourceType

	// SearchDuration is the time taken to execute the search,
	// including network latency and response parsing.
	SearchDuration time.Duration
}

// Source defines the interface that all platform clients must implement.
type Source interface {
	// Search queries the platform for one page of papers matching the given
	// parameters. The context should be used for cancellation and deadline
	// propagation.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply per-platform rate limiting
	//   - Transform platform responses to domain.Paper with canonical IDs
	//   - Wrap failures with platform context
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a specific paper by its platform-native identifier
	// (arXiv ID, DOI, PMC ID). Returns domain.ErrNotFound if the paper does
	// not exist on the platform.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// SourceType returns the type identifier for this platform.
	// Used for attribution, deduplication, and routing.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this platform.
	// Used for logging, metrics, and display purposes.
	Name() string

	// IsEnabled returns whether this platform is currently enabled and
	// available for crawling. A platform may be disabled by configuration
	// or a missing API key.
	IsEnabled() bool
}
