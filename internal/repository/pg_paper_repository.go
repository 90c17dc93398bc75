package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// PgPaperRepository is the PostgreSQL implementation of PaperRepository.
type PgPaperRepository struct {
	db DBTX
}

// NewPgPaperRepository creates a new PostgreSQL paper repository.
func NewPgPaperRepository(db DBTX) *PgPaperRepository {
	return &PgPaperRepository{db: db}
}

// Compile-time interface check.
var _ PaperRepository = (*PgPaperRepository)(nil)

const paperColumns = `paper_id, external_id, platform, title, abstract, authors, categories,
		pdf_url, published_date, updated_date, crawled_date, year, embedding,
		references_ids, cited_by_ids, created_at, updated_at`

// Upsert inserts a new paper or updates an existing one based on paper_id.
// On conflict only mutable fields are updated; paper_id, external_id and
// platform keep their stored values.
func (r *PgPaperRepository) Upsert(ctx context.Context, paper *domain.Paper) (*domain.Paper, bool, error) {
	if paper == nil {
		return nil, false, domain.NewValidationError("paper", "paper cannot be nil")
	}
	if paper.PaperID == "" {
		return nil, false, domain.NewValidationError("paper_id", "paper_id is required")
	}

	authorsJSON, categoriesJSON, embeddingJSON, referencesJSON, citedByJSON, err := marshalPaperJSON(paper)
	if err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO papers (
			paper_id, external_id, platform, title, abstract, authors, categories,
			pdf_url, published_date, updated_date, crawled_date, year, embedding,
			references_ids, cited_by_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		ON CONFLICT (paper_id) DO UPDATE SET
			title = EXCLUDED.title,
			abstract = EXCLUDED.abstract,
			authors = EXCLUDED.authors,
			categories = EXCLUDED.categories,
			pdf_url = EXCLUDED.pdf_url,
			published_date = EXCLUDED.published_date,
			updated_date = EXCLUDED.updated_date,
			crawled_date = EXCLUDED.crawled_date,
			year = EXCLUDED.year,
			embedding = COALESCE(EXCLUDED.embedding, papers.embedding),
			references_ids = EXCLUDED.references_ids,
			cited_by_ids = EXCLUDED.cited_by_ids,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at, (xmax = 0) AS inserted`

	now := time.Now().UTC()
	var inserted bool
	err = r.db.QueryRow(ctx, query,
		paper.PaperID,
		paper.ExternalID,
		paper.Platform,
		paper.Title,
		paper.Abstract,
		authorsJSON,
		categoriesJSON,
		paper.PDFURL,
		nullableTime(paper.PublishedDate),
		nullableTime(paper.UpdatedDate),
		paper.CrawledDate,
		paper.Year,
		embeddingJSON,
		referencesJSON,
		citedByJSON,
		now,
	).Scan(&paper.CreatedAt, &paper.UpdatedAt, &inserted)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return nil, false, domain.NewValidationError("paper", pgErr.Message)
		}
		return nil, false, fmt.Errorf("failed to upsert paper: %w", err)
	}

	return paper, inserted, nil
}

// GetByPaperID retrieves a paper by its canonical identifier.
func (r *PgPaperRepository) GetByPaperID(ctx context.Context, paperID string) (*domain.Paper, error) {
	if paperID == "" {
		return nil, domain.NewValidationError("paper_id", "paper_id is required")
	}

	query := `SELECT ` + paperColumns + ` FROM papers WHERE paper_id = $1`

	paper, err := scanPaper(r.db.QueryRow(ctx, query, paperID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", paperID)
		}
		return nil, fmt.Errorf("failed to get paper by paper_id: %w", err)
	}

	return paper, nil
}

// GetByPaperIDs retrieves multiple papers by their canonical identifiers.
func (r *PgPaperRepository) GetByPaperIDs(ctx context.Context, paperIDs []string) ([]*domain.Paper, error) {
	if len(paperIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + paperColumns + ` FROM papers WHERE paper_id = ANY($1)`

	rows, err := r.db.Query(ctx, query, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query papers by paper_ids: %w", err)
	}
	defer rows.Close()

	papers := make([]*domain.Paper, 0, len(paperIDs))
	for rows.Next() {
		paper, err := scanPaperFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate papers: %w", err)
	}

	return papers, nil
}

// List retrieves papers matching the filter criteria, newest first.
func (r *PgPaperRepository) List(ctx context.Context, filter PaperFilter) ([]*domain.Paper, int64, error) {
	applyPaginationDefaults(&filter.Limit, &filter.Offset)

	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Platform != nil {
		conditions = append(conditions, fmt.Sprintf("platform = $%d", argIndex))
		args = append(args, *filter.Platform)
		argIndex++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", argIndex))
		args = append(args, *filter.Year)
		argIndex++
	}
	if filter.Category != nil {
		categoryJSON, err := json.Marshal([]string{*filter.Category})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal category filter: %w", err)
		}
		conditions = append(conditions, fmt.Sprintf("categories @> $%d", argIndex))
		args = append(args, categoryJSON)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM papers` + whereClause
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count papers: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+paperColumns+` FROM papers%s
		ORDER BY published_date DESC NULLS LAST, paper_id
		LIMIT $%d OFFSET $%d`, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list papers: %w", err)
	}
	defer rows.Close()

	papers := make([]*domain.Paper, 0, filter.Limit)
	for rows.Next() {
		paper, err := scanPaperFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate papers: %w", err)
	}

	return papers, total, nil
}

// LatestCrawled returns the most recently crawled papers, up to limit.
func (r *PgPaperRepository) LatestCrawled(ctx context.Context, limit int) ([]*domain.Paper, error) {
	if limit <= 0 {
		limit = defaultFilterLimit
	}
	if limit > maxFilterLimit {
		limit = maxFilterLimit
	}

	query := `SELECT ` + paperColumns + ` FROM papers
		WHERE crawled_date IS NOT NULL
		ORDER BY crawled_date DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest crawled papers: %w", err)
	}
	defer rows.Close()

	papers := make([]*domain.Paper, 0, limit)
	for rows.Next() {
		paper, err := scanPaperFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate papers: %w", err)
	}

	return papers, nil
}

// Count returns the total number of stored papers.
func (r *PgPaperRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM papers`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count papers: %w", err)
	}
	return total, nil
}

// marshalPaperJSON encodes the paper's JSONB columns. A paper without an
// embedding stores NULL so an upsert never clears one already present.
func marshalPaperJSON(paper *domain.Paper) (authors, categories, embedding, references, citedBy []byte, err error) {
	if authors, err = json.Marshal(emptyIfNil(paper.Authors)); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal authors: %w", err)
	}
	if categories, err = json.Marshal(emptyIfNil(paper.Categories)); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal categories: %w", err)
	}
	if len(paper.Embedding) > 0 {
		if embedding, err = json.Marshal(paper.Embedding); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal embedding: %w", err)
		}
	}
	if references, err = json.Marshal(emptyIfNil(paper.ReferenceIDs)); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal references_ids: %w", err)
	}
	if citedBy, err = json.Marshal(emptyIfNil(paper.CitedByIDs)); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal cited_by_ids: %w", err)
	}
	return authors, categories, embedding, references, citedBy, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// paperScanDest holds the destination pointers for scanning a Paper row.
type paperScanDest struct {
	paper          domain.Paper
	publishedDate  *time.Time
	updatedDate    *time.Time
	year           *int
	authorsJSON    []byte
	categoriesJSON []byte
	embeddingJSON  []byte
	referencesJSON []byte
	citedByJSON    []byte
}

// destinations returns the slice of pointers for Scan operations.
func (d *paperScanDest) destinations() []interface{} {
	return []interface{}{
		&d.paper.PaperID, &d.paper.ExternalID, &d.paper.Platform, &d.paper.Title, &d.paper.Abstract,
		&d.authorsJSON, &d.categoriesJSON, &d.paper.PDFURL, &d.publishedDate, &d.updatedDate,
		&d.paper.CrawledDate, &d.year, &d.embeddingJSON, &d.referencesJSON, &d.citedByJSON,
		&d.paper.CreatedAt, &d.paper.UpdatedAt,
	}
}

// finalize performs post-scan processing: unmarshals JSON fields and
// dereferences nullable columns.
func (d *paperScanDest) finalize() (*domain.Paper, error) {
	if d.publishedDate != nil {
		d.paper.PublishedDate = *d.publishedDate
	}
	if d.updatedDate != nil {
		d.paper.UpdatedDate = *d.updatedDate
	}
	if d.year != nil {
		d.paper.Year = *d.year
	}

	if len(d.authorsJSON) > 0 {
		if err := json.Unmarshal(d.authorsJSON, &d.paper.Authors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal authors: %w", err)
		}
	}
	if len(d.categoriesJSON) > 0 {
		if err := json.Unmarshal(d.categoriesJSON, &d.paper.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}
	if len(d.embeddingJSON) > 0 {
		if err := json.Unmarshal(d.embeddingJSON, &d.paper.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}
	}
	if len(d.referencesJSON) > 0 {
		if err := json.Unmarshal(d.referencesJSON, &d.paper.ReferenceIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal references_ids: %w", err)
		}
	}
	if len(d.citedByJSON) > 0 {
		if err := json.Unmarshal(d.citedByJSON, &d.paper.CitedByIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cited_by_ids: %w", err)
		}
	}

	return &d.paper, nil
}

// scanPaper scans a single row into a Paper.
func scanPaper(row pgx.Row) (*domain.Paper, error) {
	var dest paperScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanPaperFromRows scans the current row from pgx.Rows into a Paper.
func scanPaperFromRows(rows pgx.Rows) (*domain.Paper, error) {
	var dest paperScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
