package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentPostgres_GetOrCreateTag(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	ctx := context.Background()

	// The upsert returns the surviving row whether this call created it or a
	// concurrent caller got there first.
	mock.ExpectQuery("INSERT INTO tags").
		WithArgs("finance").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(4, "finance"))

	tag, err := repo.GetOrCreateTag(ctx, "finance")

	assert.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, int64(4), tag.ID)
	assert.Equal(t, "finance", tag.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindTagsByNames(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	ctx := context.Background()

	t.Run("unknown names are absent", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM tags").
			WithArgs("finance", "nope").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(4, "finance"))

		tags, err := repo.FindTagsByNames(ctx, []string{"finance", "nope"})

		assert.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "finance", tags[0].Name)
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		tags, err := repo.FindTagsByNames(ctx, nil)

		assert.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestDocumentPostgres_ReplaceDocumentTags(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	ctx := context.Background()

	t.Run("replace set", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM document_tags").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO document_tags").
			WithArgs(int64(7), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO document_tags").
			WithArgs(int64(7), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ReplaceDocumentTags(ctx, 7, []int64{1, 2})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty set clears associations", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM document_tags").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.ReplaceDocumentTags(ctx, 7, nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
