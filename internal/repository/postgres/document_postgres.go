package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same repository code runs inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB // nil when the instance is bound to a transaction
	q  querier
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db, q: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// WithinTx runs fn against a repository bound to one transaction. A nested
// call reuses the already-open transaction instead of opening another.
func (r *DocumentPostgres) WithinTx(ctx context.Context, fn func(repository.DocumentRepository) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&DocumentPostgres{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CreateDocument inserts a new document row and returns the stored record.
func (r *DocumentPostgres) CreateDocument(ctx context.Context, title, description string) (*model.Document, error) {
	const q = `
		INSERT INTO documents (title, description)
		VALUES ($1, $2)
		RETURNING id, title, description, created_at
	`
	var d model.Document
	if err := r.q.QueryRowContext(ctx, q, title, description).Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDocumentByID fetches a single document by its ID.
func (r *DocumentPostgres) FindDocumentByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `
		SELECT id, title, description, created_at
		FROM documents
		WHERE id = $1
	`
	var d model.Document
	if err := r.q.QueryRowContext(ctx, q, id).Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDocument overwrites title and/or description; nil pointers keep the
// stored value (COALESCE against NULL parameters).
func (r *DocumentPostgres) UpdateDocument(ctx context.Context, id int64, title, description *string) error {
	const q = `
		UPDATE documents
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description)
		WHERE id = $1
	`
	_, err := r.q.ExecContext(ctx, q, id, title, description)
	return err
}

// DeleteDocument removes a document row. Versions and tag associations are
// removed by the schema's ON DELETE CASCADE; tag rows themselves stay.
func (r *DocumentPostgres) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDocuments returns summaries in insertion order (ascending ID) with a
// total count.
func (r *DocumentPostgres) ListDocuments(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.q.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, title, description, created_at
		FROM documents
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`
	docs, err := r.queryDocuments(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}

	items, err := r.loadSummaries(ctx, docs)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.DocumentSummary]{Items: items, Total: total}, nil
}

// MaxVersionNumber returns the highest version number for a document, 0 if none.
func (r *DocumentPostgres) MaxVersionNumber(ctx context.Context, documentID int64) (int, error) {
	const q = `SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = $1`
	var max int
	if err := r.q.QueryRowContext(ctx, q, documentID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// CreateVersion inserts a version row. A unique-constraint conflict on
// (document_id, version_number) maps to repository.ErrDuplicateVersion.
func (r *DocumentPostgres) CreateVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error) {
	const q = `
		INSERT INTO document_versions (document_id, version_number, storage_path, file_size, file_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, document_id, version_number, storage_path, file_size, file_type, uploaded_at
	`
	var out model.DocumentVersion
	err := r.q.QueryRowContext(ctx, q,
		v.DocumentID,
		v.VersionNumber,
		v.StoragePath,
		v.FileSize,
		v.FileType,
	).Scan(
		&out.ID,
		&out.DocumentID,
		&out.VersionNumber,
		&out.StoragePath,
		&out.FileSize,
		&out.FileType,
		&out.UploadedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateVersion
		}
		return nil, err
	}
	return &out, nil
}

// ListVersions returns all versions for a document, ascending by version number.
func (r *DocumentPostgres) ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	const q = `
		SELECT id, document_id, version_number, storage_path, file_size, file_type, uploaded_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number ASC
	`
	rows, err := r.q.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]model.DocumentVersion, 0)
	for rows.Next() {
		var v model.DocumentVersion
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.VersionNumber,
			&v.StoragePath,
			&v.FileSize,
			&v.FileType,
			&v.UploadedAt,
		); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// queryDocuments runs a documents query and scans the plain rows.
func (r *DocumentPostgres) queryDocuments(ctx context.Context, query string, args ...any) ([]model.Document, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// placeholders renders "$start, $start+1, ..." for n expanded IN-list arguments.
func placeholders(n, start int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(parts, ", ")
}
