package postgres

import (
	"context"

	"docvault/internal/model"
)

// GetOrCreateTag resolves a normalized tag name to its row, creating it on
// first use. The upsert makes concurrent creators of the same name converge on
// one row: the no-op DO UPDATE lets RETURNING yield the winning row either way.
func (r *DocumentPostgres) GetOrCreateTag(ctx context.Context, name string) (*model.Tag, error) {
	const q = `
		INSERT INTO tags (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`
	var t model.Tag
	if err := r.q.QueryRowContext(ctx, q, name).Scan(&t.ID, &t.Name); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTagsByNames resolves normalized names to existing tag rows. Unknown
// names are absent from the result; an empty input yields an empty result.
func (r *DocumentPostgres) FindTagsByNames(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return []model.Tag{}, nil
	}
	q := `SELECT id, name FROM tags WHERE name IN (` + placeholders(len(names), 1) + `) ORDER BY id ASC`
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]model.Tag, 0, len(names))
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ReplaceDocumentTags clears the document's association rows and installs the
// given set. Old associations are fully removed before the new ones go in; an
// empty set just clears. Tag rows are never touched.
func (r *DocumentPostgres) ReplaceDocumentTags(ctx context.Context, documentID int64, tagIDs []int64) error {
	const qClear = `DELETE FROM document_tags WHERE document_id = $1`
	if _, err := r.q.ExecContext(ctx, qClear, documentID); err != nil {
		return err
	}

	const qInsert = `
		INSERT INTO document_tags (document_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, tagID := range tagIDs {
		if _, err := r.q.ExecContext(ctx, qInsert, documentID, tagID); err != nil {
			return err
		}
	}
	return nil
}
