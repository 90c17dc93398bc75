package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// PgCrawlRunRepository is the PostgreSQL implementation of CrawlRunRepository.
type PgCrawlRunRepository struct {
	db DBTX
}

// NewPgCrawlRunRepository creates a new PostgreSQL crawl run repository.
func NewPgCrawlRunRepository(db DBTX) *PgCrawlRunRepository {
	return &PgCrawlRunRepository{db: db}
}

// Compile-time interface check.
var _ CrawlRunRepository = (*PgCrawlRunRepository)(nil)

const crawlRunColumns = `id, query, sources, status, papers_found, papers_saved,
		papers_updated, citations_added, error, started_at, finished_at`

// Create stores a new crawl run.
func (r *PgCrawlRunRepository) Create(ctx context.Context, run *domain.CrawlRun) error {
	if run == nil {
		return domain.NewValidationError("run", "run cannot be nil")
	}
	if run.ID == uuid.Nil {
		return domain.NewValidationError("id", "run ID is required")
	}

	sourcesJSON, err := json.Marshal(run.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	query := `
		INSERT INTO crawl_runs (
			id, query, sources, status, papers_found, papers_saved,
			papers_updated, citations_added, error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		run.ID,
		run.Query,
		sourcesJSON,
		run.Status,
		run.PapersFound,
		run.PapersSaved,
		run.PapersUpdated,
		run.CitationsAdded,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.NewAlreadyExistsError("crawl run", run.ID.String())
		}
		return fmt.Errorf("failed to create crawl run: %w", err)
	}

	return nil
}

// Update persists a run's current status and counters.
func (r *PgCrawlRunRepository) Update(ctx context.Context, run *domain.CrawlRun) error {
	if run == nil {
		return domain.NewValidationError("run", "run cannot be nil")
	}

	query := `
		UPDATE crawl_runs SET
			status = $2,
			papers_found = $3,
			papers_saved = $4,
			papers_updated = $5,
			citations_added = $6,
			error = $7,
			finished_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		run.ID,
		run.Status,
		run.PapersFound,
		run.PapersSaved,
		run.PapersUpdated,
		run.CitationsAdded,
		run.Error,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update crawl run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("crawl run", run.ID.String())
	}

	return nil
}

// GetByID retrieves a crawl run by its ID.
func (r *PgCrawlRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CrawlRun, error) {
	query := `SELECT ` + crawlRunColumns + ` FROM crawl_runs WHERE id = $1`

	run, err := scanCrawlRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("crawl run", id.String())
		}
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	return run, nil
}

// ListRecent returns the most recently started runs, up to limit.
func (r *PgCrawlRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.CrawlRun, error) {
	if limit <= 0 {
		limit = defaultFilterLimit
	}
	if limit > maxFilterLimit {
		limit = maxFilterLimit
	}

	query := `SELECT ` + crawlRunColumns + ` FROM crawl_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.CrawlRun, 0, limit)
	for rows.Next() {
		var dest crawlRunScanDest
		if err := rows.Scan(dest.destinations()...); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}
		run, err := dest.finalize()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crawl runs: %w", err)
	}

	return runs, nil
}

// crawlRunScanDest holds the destination pointers for scanning a CrawlRun row.
type crawlRunScanDest struct {
	run         domain.CrawlRun
	sourcesJSON []byte
}

func (d *crawlRunScanDest) destinations() []interface{} {
	return []interface{}{
		&d.run.ID, &d.run.Query, &d.sourcesJSON, &d.run.Status,
		&d.run.PapersFound, &d.run.PapersSaved, &d.run.PapersUpdated,
		&d.run.CitationsAdded, &d.run.Error, &d.run.StartedAt, &d.run.FinishedAt,
	}
}

func (d *crawlRunScanDest) finalize() (*domain.CrawlRun, error) {
	if len(d.sourcesJSON) > 0 {
		if err := json.Unmarshal(d.sourcesJSON, &d.run.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
	}
	return &d.run, nil
}

func scanCrawlRun(row pgx.Row) (*domain.CrawlRun, error) {
	var dest crawlRunScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
