package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// Helper to create a valid paper for testing.
func newTestPaper() *domain.Paper {
	now := time.Now().UTC()
	return &domain.Paper{
		PaperID:       "1706.03762",
		ExternalID:    "1706.03762v7",
		Platform:      domain.SourceTypeArXiv,
		Title:         "Attention Is All You Need",
		Abstract:      "The dominant sequence transduction models are based on complex recurrent networks.",
		Authors:       []string{"Ashish Vaswani", "Noam Shazeer"},
		Categories:    []string{"cs.CL", "cs.LG"},
		PDFURL:        "https://arxiv.org/pdf/1706.03762",
		PublishedDate: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
		UpdatedDate:   time.Date(2023, 8, 2, 0, 0, 0, 0, time.UTC),
		Year:          2017,
		ReferenceIDs:  []string{"1409.0473", "1508.04025"},
		CitedByIDs:    []string{"1810.04805"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// paperRow builds the mock row for a full paper SELECT.
func paperRow(t *testing.T, paper *domain.Paper) *pgxmock.Rows {
	t.Helper()

	mustMarshal := func(v interface{}) []byte {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return data
	}

	var embeddingJSON []byte
	if len(paper.Embedding) > 0 {
		embeddingJSON = mustMarshal(paper.Embedding)
	}

	published := paper.PublishedDate
	updated := paper.UpdatedDate
	year := paper.Year

	return pgxmock.NewRows([]string{
		"paper_id", "external_id", "platform", "title", "abstract", "authors", "categories",
		"pdf_url", "published_date", "updated_date", "crawled_date", "year", "embedding",
		"references_ids", "cited_by_ids", "created_at", "updated_at",
	}).AddRow(
		paper.PaperID, paper.ExternalID, paper.Platform, paper.Title, paper.Abstract,
		mustMarshal(paper.Authors), mustMarshal(paper.Categories),
		paper.PDFURL, &published, &updated, paper.CrawledDate, &year, embeddingJSON,
		mustMarshal(paper.ReferenceIDs), mustMarshal(paper.CitedByIDs),
		paper.CreatedAt, paper.UpdatedAt,
	)
}

// emptyPaperRows builds a mock result with the paper columns and no rows.
func emptyPaperRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"paper_id", "external_id", "platform", "title", "abstract", "authors", "categories",
		"pdf_url", "published_date", "updated_date", "crawled_date", "year", "embedding",
		"references_ids", "cited_by_ids", "created_at", "updated_at",
	})
}

func TestNewPgPaperRepository(t *testing.T) {
	t.Run("creates repository with nil db", func(t *testing.T) {
		repo := NewPgPaperRepository(nil)
		assert.NotNil(t, repo)
		assert.Nil(t, repo.db)
	})

	t.Run("creates repository with mock db", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestPgPaperRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts new paper", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		now := time.Now().UTC()

		mock.ExpectQuery("INSERT INTO papers").
			WithArgs(
				paper.PaperID, paper.ExternalID, paper.Platform, paper.Title, paper.Abstract,
				pgxmock.AnyArg(), pgxmock.AnyArg(), paper.PDFURL, pgxmock.AnyArg(), pgxmock.AnyArg(),
				paper.CrawledDate, paper.Year, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at", "inserted"}).
				AddRow(now, now, true))

		result, created, err := repo.Upsert(ctx, paper)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, paper.PaperID, result.PaperID)
		assert.Equal(t, now, result.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports update for existing paper", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		created := time.Now().UTC().Add(-24 * time.Hour)
		updated := time.Now().UTC()

		mock.ExpectQuery("INSERT INTO papers").
			WithArgs(
				paper.PaperID, paper.ExternalID, paper.Platform, paper.Title, paper.Abstract,
				pgxmock.AnyArg(), pgxmock.AnyArg(), paper.PDFURL, pgxmock.AnyArg(), pgxmock.AnyArg(),
				paper.CrawledDate, paper.Year, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at", "inserted"}).
				AddRow(created, updated, false))

		result, wasInserted, err := repo.Upsert(ctx, paper)
		require.NoError(t, err)
		assert.False(t, wasInserted)
		assert.Equal(t, created, result.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict update does not touch platform or external_id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		// Same canonical paper_id as an earlier arXiv API crawl, now seen
		// through the RSS feed. The conflict branch must start updating at
		// title so the stored platform and external_id survive.
		paper := newTestPaper()
		paper.Platform = domain.SourceTypeArXivRSS
		paper.ExternalID = "oai:arXiv.org:1706.03762v7"
		created := time.Now().UTC().Add(-24 * time.Hour)
		updated := time.Now().UTC()

		mock.ExpectQuery(`ON CONFLICT \(paper_id\) DO UPDATE SET\s+title = EXCLUDED\.title`).
			WithArgs(
				paper.PaperID, paper.ExternalID, paper.Platform, paper.Title, paper.Abstract,
				pgxmock.AnyArg(), pgxmock.AnyArg(), paper.PDFURL, pgxmock.AnyArg(), pgxmock.AnyArg(),
				paper.CrawledDate, paper.Year, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at", "inserted"}).
				AddRow(created, updated, false))

		_, wasInserted, err := repo.Upsert(ctx, paper)
		require.NoError(t, err)
		assert.False(t, wasInserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns validation error for nil paper", func(t *testing.T) {
		repo := NewPgPaperRepository(nil)

		result, _, err := repo.Upsert(ctx, nil)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "paper", validationErr.Field)
	})

	t.Run("returns validation error for missing paper_id", func(t *testing.T) {
		repo := NewPgPaperRepository(nil)
		paper := newTestPaper()
		paper.PaperID = ""

		result, _, err := repo.Upsert(ctx, paper)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "paper_id", validationErr.Field)
	})

	t.Run("wraps database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("INSERT INTO papers").
			WithArgs(
				paper.PaperID, paper.ExternalID, paper.Platform, paper.Title, paper.Abstract,
				pgxmock.AnyArg(), pgxmock.AnyArg(), paper.PDFURL, pgxmock.AnyArg(), pgxmock.AnyArg(),
				paper.CrawledDate, paper.Year, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(),
			).
			WillReturnError(errors.New("connection refused"))

		_, _, err = repo.Upsert(ctx, paper)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upsert paper")
	})
}

func TestPgPaperRepository_GetByPaperID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns paper when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("SELECT (.+) FROM papers WHERE paper_id").
			WithArgs(paper.PaperID).
			WillReturnRows(paperRow(t, paper))

		result, err := repo.GetByPaperID(ctx, paper.PaperID)
		require.NoError(t, err)
		assert.Equal(t, paper.PaperID, result.PaperID)
		assert.Equal(t, paper.Title, result.Title)
		assert.Equal(t, paper.Authors, result.Authors)
		assert.Equal(t, paper.Categories, result.Categories)
		assert.Equal(t, paper.ReferenceIDs, result.ReferenceIDs)
		assert.Equal(t, paper.CitedByIDs, result.CitedByIDs)
		assert.Equal(t, paper.Year, result.Year)
		assert.True(t, paper.PublishedDate.Equal(result.PublishedDate))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found error when missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		mock.ExpectQuery("SELECT (.+) FROM papers WHERE paper_id").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.GetByPaperID(ctx, "missing")
		assert.Nil(t, result)
		var notFoundErr *domain.NotFoundError
		assert.True(t, errors.As(err, &notFoundErr))
	})

	t.Run("returns validation error for empty paper_id", func(t *testing.T) {
		repo := NewPgPaperRepository(nil)

		result, err := repo.GetByPaperID(ctx, "")
		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestPgPaperRepository_GetByPaperIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("returns found papers and skips missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("SELECT (.+) FROM papers WHERE paper_id = ANY").
			WithArgs([]string{paper.PaperID, "missing"}).
			WillReturnRows(paperRow(t, paper))

		results, err := repo.GetByPaperIDs(ctx, []string{paper.PaperID, "missing"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, paper.PaperID, results[0].PaperID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for empty input", func(t *testing.T) {
		repo := NewPgPaperRepository(nil)

		results, err := repo.GetByPaperIDs(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, results)
	})
}

func TestPgPaperRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists papers with platform filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		platform := domain.SourceTypeArXiv

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM papers WHERE platform").
			WithArgs(platform).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT (.+) FROM papers WHERE platform").
			WithArgs(platform, 50, 0).
			WillReturnRows(paperRow(t, paper))

		results, total, err := repo.List(ctx, PaperFilter{Platform: &platform, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, results, 1)
		assert.Equal(t, paper.PaperID, results[0].PaperID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lists papers with year and category filters", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		year := 2017
		category := "cs.CL"

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM papers WHERE year").
			WithArgs(year, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT (.+) FROM papers WHERE year").
			WithArgs(year, pgxmock.AnyArg(), 100, 0).
			WillReturnRows(paperRow(t, paper))

		results, total, err := repo.List(ctx, PaperFilter{Year: &year, Category: &category})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, results, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies pagination defaults", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM papers").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery("SELECT (.+) FROM papers").
			WithArgs(defaultFilterLimit, 0).
			WillReturnRows(emptyPaperRows())

		_, _, err = repo.List(ctx, PaperFilter{Limit: -5, Offset: -1})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_LatestCrawled(t *testing.T) {
	ctx := context.Background()

	t.Run("returns crawled papers", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		crawled := time.Now().UTC()
		paper.CrawledDate = &crawled

		mock.ExpectQuery("SELECT (.+) FROM papers").
			WithArgs(10).
			WillReturnRows(paperRow(t, paper))

		results, err := repo.LatestCrawled(ctx, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0].CrawledDate)
		assert.True(t, crawled.Equal(*results[0].CrawledDate))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults non-positive limit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		mock.ExpectQuery("SELECT (.+) FROM papers").
			WithArgs(defaultFilterLimit).
			WillReturnRows(emptyPaperRows())

		_, err = repo.LatestCrawled(ctx, 0)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_Count(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperRepository(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM papers").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
