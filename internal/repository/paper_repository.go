package repository

import (
	"context"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// PaperRepository handles academic paper persistence and deduplication.
// Papers are keyed by their canonical paper_id, so re-crawling the same
// external record updates the stored row instead of creating a duplicate.
type PaperRepository interface {
	// Upsert inserts a new paper or updates an existing one based on paper_id.
	// Returns the stored paper and whether a new row was created.
	// Returns a domain.ValidationError if the paper has no paper_id.
	Upsert(ctx context.Context, paper *domain.Paper) (*domain.Paper, bool, error)

	// GetByPaperID retrieves a paper by its canonical identifier.
	// Returns a domain.NotFoundError if no matching paper exists.
	GetByPaperID(ctx context.Context, paperID string) (*domain.Paper, error)

	// GetByPaperIDs retrieves multiple papers by their canonical identifiers.
	// Returns only the papers that were found; missing IDs are silently skipped.
	// Returns nil, nil if the input slice is empty.
	GetByPaperIDs(ctx context.Context, paperIDs []string) ([]*domain.Paper, error)

	// List retrieves papers matching the filter criteria, newest first.
	// Returns the matching papers and total count for pagination.
	// The total count reflects all matching records regardless of limit/offset.
	List(ctx context.Context, filter PaperFilter) ([]*domain.Paper, int64, error)

	// LatestCrawled returns the most recently crawled papers, up to limit.
	LatestCrawled(ctx context.Context, limit int) ([]*domain.Paper, error)

	// Count returns the total number of stored papers.
	Count(ctx context.Context) (int64, error)
}

// PaperFilter contains filter criteria for listing papers.
type PaperFilter struct {
	// Platform filters by the source the paper was crawled from.
	Platform *domain.SourceType

	// Year filters by publication year.
	Year *int

	// Category filters papers carrying the given subject category.
	Category *string

	// Limit is the maximum number of results (default 100, max 1000).
	Limit int

	// Offset is the number of results to skip for pagination.
	Offset int
}
