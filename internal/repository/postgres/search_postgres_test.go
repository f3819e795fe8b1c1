package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/repository"
)

func TestDocumentPostgres_SearchByTags(t *testing.T) {
	ctx := context.Background()
	pq := repository.PageQuery{Limit: 10, Offset: 0}

	t.Run("any mode", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectQuery("SELECT COUNT\\(DISTINCT dt.document_id\\)").
			WithArgs(int64(1), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT DISTINCT d.id, d.title").
			WithArgs(int64(1), int64(2), 10, 0).
			WillReturnRows(sqlmock.NewRows(docColumns()).AddRow(1, "Report", "", time.Now()))

		expectSummaryQueries(mock, 1)

		res, err := repo.SearchByTags(ctx, []int64{1, 2}, false, pq)

		assert.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all mode requires full coverage", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectQuery("HAVING COUNT\\(DISTINCT dt.tag_id\\)").
			WithArgs(int64(1), int64(2), 2).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("HAVING COUNT\\(DISTINCT dt.tag_id\\)").
			WithArgs(int64(1), int64(2), 2, 10, 0).
			WillReturnRows(sqlmock.NewRows(docColumns()))

		res, err := repo.SearchByTags(ctx, []int64{1, 2}, true, pq)

		assert.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no tag ids yields empty result without queries", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		res, err := repo.SearchByTags(ctx, nil, false, pq)

		assert.NoError(t, err)
		require.NotNil(t, res)
		assert.Empty(t, res.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_Search(t *testing.T) {
	ctx := context.Background()
	pq := repository.PageQuery{Limit: 10, Offset: 0}

	t.Run("text filter alone", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d WHERE").
			WithArgs("%budget%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT d.id, d.title, d.description, d.created_at FROM documents d WHERE").
			WithArgs("%budget%", 10, 0).
			WillReturnRows(sqlmock.NewRows(docColumns()).AddRow(1, "Budget 2026", "", time.Now()))

		expectSummaryQueries(mock, 1)

		res, err := repo.Search(ctx, repository.SearchFilter{Query: "budget"}, pq)

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "Budget 2026", res.Items[0].Title)
	})

	t.Run("all filters combine with AND", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		// text, two tag ids, match-all count, file type
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d WHERE").
			WithArgs("%budget%", int64(1), int64(2), 2, "pdf").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT d.id, d.title, d.description, d.created_at FROM documents d WHERE").
			WithArgs("%budget%", int64(1), int64(2), 2, "pdf", 10, 0).
			WillReturnRows(sqlmock.NewRows(docColumns()))

		res, err := repo.Search(ctx, repository.SearchFilter{
			Query:    "budget",
			TagIDs:   []int64{1, 2},
			MatchAll: true,
			FileType: "pdf",
		}, pq)

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filters lists everything", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents d").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT d.id, d.title, d.description, d.created_at FROM documents d ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows(docColumns()).AddRow(1, "Report", "", time.Now()))

		expectSummaryQueries(mock, 1)

		res, err := repo.Search(ctx, repository.SearchFilter{}, pq)

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})
}
