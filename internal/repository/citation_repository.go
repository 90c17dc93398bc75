package repository

import (
	"context"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// CitationRepository handles directed citation edges between papers.
// Edges are insert-only facts; either endpoint may name a paper that has not
// been crawled yet, so no foreign keys are enforced.
type CitationRepository interface {
	// InsertIfAbsent stores the given edges, skipping any that already exist.
	// Self-loops and edges with an empty endpoint are rejected with a
	// domain.ValidationError. Returns the number of edges actually inserted.
	InsertIfAbsent(ctx context.Context, citations []domain.Citation) (int64, error)

	// ListCiting returns the paper IDs the given paper cites.
	ListCiting(ctx context.Context, paperID string) ([]string, error)

	// ListCitedBy returns the paper IDs that cite the given paper.
	ListCitedBy(ctx context.Context, paperID string) ([]string, error)

	// Count returns the total number of stored citation edges.
	Count(ctx context.Context) (int64, error)
}
