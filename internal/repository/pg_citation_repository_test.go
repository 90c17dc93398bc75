package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

func TestPgCitationRepository_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts new edges", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCitationRepository(mock)
		citations := []domain.Citation{
			{CitingPaperID: "1706.03762", CitedPaperID: "1409.0473"},
			{CitingPaperID: "1706.03762", CitedPaperID: "1508.04025"},
		}

		mock.ExpectExec("INSERT INTO citations").
			WithArgs("1706.03762", "1409.0473", "1706.03762", "1508.04025").
			WillReturnResult(pgxmock.NewResult("INSERT", 2))

		inserted, err := repo.InsertIfAbsent(ctx, citations)
		require.NoError(t, err)
		assert.Equal(t, int64(2), inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports zero when all edges already exist", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCitationRepository(mock)
		citations := []domain.Citation{
			{CitingPaperID: "a", CitedPaperID: "b"},
		}

		mock.ExpectExec("INSERT INTO citations").
			WithArgs("a", "b").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		inserted, err := repo.InsertIfAbsent(ctx, citations)
		require.NoError(t, err)
		assert.Equal(t, int64(0), inserted)
	})

	t.Run("returns zero for empty input", func(t *testing.T) {
		repo := NewPgCitationRepository(nil)

		inserted, err := repo.InsertIfAbsent(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), inserted)
	})

	t.Run("rejects self-loop", func(t *testing.T) {
		repo := NewPgCitationRepository(nil)

		_, err := repo.InsertIfAbsent(ctx, []domain.Citation{
			{CitingPaperID: "a", CitedPaperID: "a"},
		})

		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	t.Run("rejects empty endpoint", func(t *testing.T) {
		repo := NewPgCitationRepository(nil)

		_, err := repo.InsertIfAbsent(ctx, []domain.Citation{
			{CitingPaperID: "", CitedPaperID: "b"},
		})

		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	t.Run("wraps database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCitationRepository(mock)

		mock.ExpectExec("INSERT INTO citations").
			WithArgs("a", "b").
			WillReturnError(errors.New("connection refused"))

		_, err = repo.InsertIfAbsent(ctx, []domain.Citation{
			{CitingPaperID: "a", CitedPaperID: "b"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert citations")
	})
}

func TestPgCitationRepository_ListCiting(t *testing.T) {
	ctx := context.Background()

	t.Run("returns cited paper IDs", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCitationRepository(mock)

		mock.ExpectQuery("SELECT cited_paper_id FROM citations").
			WithArgs("1706.03762").
			WillReturnRows(pgxmock.NewRows([]string{"cited_paper_id"}).
				AddRow("1409.0473").
				AddRow("1508.04025"))

		ids, err := repo.ListCiting(ctx, "1706.03762")
		require.NoError(t, err)
		assert.Equal(t, []string{"1409.0473", "1508.04025"}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when paper cites nothing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCitationRepository(mock)

		mock.ExpectQuery("SELECT cited_paper_id FROM citations").
			WithArgs("leaf").
			WillReturnRows(pgxmock.NewRows([]string{"cited_paper_id"}))

		ids, err := repo.ListCiting(ctx, "leaf")
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.NotNil(t, ids)
	})

	t.Run("returns validation error for empty paper_id", func(t *testing.T) {
		repo := NewPgCitationRepository(nil)

		_, err := repo.ListCiting(ctx, "")
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestPgCitationRepository_ListCitedBy(t *testing.T) {
	ctx := context.Background()

	t.Run("returns citing paper IDs", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCitationRepository(mock)

		mock.ExpectQuery("SELECT citing_paper_id FROM citations").
			WithArgs("1409.0473").
			WillReturnRows(pgxmock.NewRows([]string{"citing_paper_id"}).
				AddRow("1706.03762"))

		ids, err := repo.ListCitedBy(ctx, "1409.0473")
		require.NoError(t, err)
		assert.Equal(t, []string{"1706.03762"}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns validation error for empty paper_id", func(t *testing.T) {
		repo := NewPgCitationRepository(nil)

		_, err := repo.ListCitedBy(ctx, "")
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestPgCitationRepository_Count(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgCitationRepository(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM citations").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
