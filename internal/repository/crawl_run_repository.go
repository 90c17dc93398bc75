package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// CrawlRunRepository records crawl executions and their outcomes.
type CrawlRunRepository interface {
	// Create stores a new crawl run.
	// Returns a domain.AlreadyExistsError if the run ID is already taken.
	Create(ctx context.Context, run *domain.CrawlRun) error

	// Update persists a run's current status and counters.
	// Returns a domain.NotFoundError if the run does not exist.
	Update(ctx context.Context, run *domain.CrawlRun) error

	// GetByID retrieves a crawl run by its ID.
	// Returns a domain.NotFoundError if no matching run exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CrawlRun, error)

	// ListRecent returns the most recently started runs, up to limit.
	ListRecent(ctx context.Context, limit int) ([]*domain.CrawlRun, error)
}
