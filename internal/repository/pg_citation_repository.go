package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// PgCitationRepository is the PostgreSQL implementation of CitationRepository.
type PgCitationRepository struct {
	db DBTX
}

// NewPgCitationRepository creates a new PostgreSQL citation repository.
func NewPgCitationRepository(db DBTX) *PgCitationRepository {
	return &PgCitationRepository{db: db}
}

// Compile-time interface check.
var _ CitationRepository = (*PgCitationRepository)(nil)

// InsertIfAbsent stores the given edges, skipping any that already exist.
func (r *PgCitationRepository) InsertIfAbsent(ctx context.Context, citations []domain.Citation) (int64, error) {
	if len(citations) == 0 {
		return 0, nil
	}
	for _, c := range citations {
		if !c.Valid() {
			return 0, domain.NewValidationError("citation",
				fmt.Sprintf("invalid edge %q -> %q", c.CitingPaperID, c.CitedPaperID))
		}
	}

	// One multi-row INSERT keeps the edge batch atomic without a round trip
	// per edge.
	valueClauses := make([]string, 0, len(citations))
	args := make([]interface{}, 0, len(citations)*2)
	for i, c := range citations {
		valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		args = append(args, c.CitingPaperID, c.CitedPaperID)
	}

	query := `INSERT INTO citations (citing_paper_id, cited_paper_id) VALUES ` +
		strings.Join(valueClauses, ", ") +
		` ON CONFLICT (citing_paper_id, cited_paper_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert citations: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListCiting returns the paper IDs the given paper cites.
func (r *PgCitationRepository) ListCiting(ctx context.Context, paperID string) ([]string, error) {
	if paperID == "" {
		return nil, domain.NewValidationError("paper_id", "paper_id is required")
	}

	query := `SELECT cited_paper_id FROM citations WHERE citing_paper_id = $1 ORDER BY cited_paper_id`
	return r.listEdgeEndpoints(ctx, query, paperID)
}

// ListCitedBy returns the paper IDs that cite the given paper.
func (r *PgCitationRepository) ListCitedBy(ctx context.Context, paperID string) ([]string, error) {
	if paperID == "" {
		return nil, domain.NewValidationError("paper_id", "paper_id is required")
	}

	query := `SELECT citing_paper_id FROM citations WHERE cited_paper_id = $1 ORDER BY citing_paper_id`
	return r.listEdgeEndpoints(ctx, query, paperID)
}

// Count returns the total number of stored citation edges.
func (r *PgCitationRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM citations`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count citations: %w", err)
	}
	return total, nil
}

func (r *PgCitationRepository) listEdgeEndpoints(ctx context.Context, query, paperID string) ([]string, error) {
	rows, err := r.db.Query(ctx, query, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to query citations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate citations: %w", err)
	}

	return ids, nil
}
