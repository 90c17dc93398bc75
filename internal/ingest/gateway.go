// Package ingest persists crawled papers and their citation edges.
package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/observability"
	"github.com/citegraph/citation-graph-service/internal/repository"
)

// TxBeginner runs a function inside a database transaction.
// *database.DB satisfies this interface.
type TxBeginner interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// Result summarizes what one batch changed in the store.
type Result struct {
	Saved          int `json:"saved"`
	Updated        int `json:"updated"`
	CitationsAdded int `json:"citations_added"`
}

// Gateway writes crawled papers to the database. Each batch runs in a single
// transaction: either every paper and edge lands, or none do.
type Gateway struct {
	db      TxBeginner
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewGateway creates a persistence gateway. metrics may be nil.
func NewGateway(db TxBeginner, logger zerolog.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		db:      db,
		logger:  logger.With().Str("component", "ingest").Logger(),
		metrics: metrics,
	}
}

// SavePapers upserts the batch and inserts the citation edges each paper
// declares. New papers count as Saved, re-crawled ones as Updated; edges that
// already exist or point back at their own origin are silently skipped.
func (g *Gateway) SavePapers(ctx context.Context, papers []*domain.Paper) (*Result, error) {
	result := &Result{}
	if len(papers) == 0 {
		return result, nil
	}

	err := g.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		paperRepo := repository.NewPgPaperRepository(tx)
		citationRepo := repository.NewPgCitationRepository(tx)

		for _, paper := range papers {
			if paper == nil || paper.PaperID == "" {
				g.logger.Warn().Msg("skipping paper without paper_id")
				continue
			}

			_, created, err := paperRepo.Upsert(ctx, paper)
			if err != nil {
				return fmt.Errorf("failed to persist paper %s: %w", paper.PaperID, err)
			}
			if created {
				result.Saved++
			} else {
				result.Updated++
			}

			edges := domain.CitationsFromPaper(paper)
			if len(edges) == 0 {
				continue
			}
			inserted, err := citationRepo.InsertIfAbsent(ctx, edges)
			if err != nil {
				return fmt.Errorf("failed to persist citations for %s: %w", paper.PaperID, err)
			}
			result.CitationsAdded += int(inserted)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.RecordPapersPersisted(result.Saved, result.Updated, result.CitationsAdded)
	}
	g.logger.Info().
		Int("saved", result.Saved).
		Int("updated", result.Updated).
		Int("citations_added", result.CitationsAdded).
		Msg("persisted paper batch")

	return result, nil
}
