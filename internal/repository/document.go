package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

// ErrDuplicateVersion is returned by CreateVersion when another writer already
// claimed the same (document, version number) pair. Callers recompute the next
// number and retry.
var ErrDuplicateVersion = errors.New("version number already exists for document")

// SearchFilter holds the combined search criteria. All supplied filters
// compose conjunctively. TagIDs are already-resolved tag identities; unknown
// tag names are dropped before reaching the repository.
type SearchFilter struct {
	TagIDs   []int64
	MatchAll bool
	Query    string
	FileType string
}

// DocumentRepository defines the metadata store: relational persistence for
// documents, versions, tags and their associations, using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// CreateDocument inserts a new document identity and returns the stored
	// row including its assigned ID and creation timestamp.
	CreateDocument(ctx context.Context, title, description string) (*model.Document, error)

	// FindDocumentByID returns a document by ID; sql.ErrNoRows when absent.
	FindDocumentByID(ctx context.Context, id int64) (*model.Document, error)

	// UpdateDocument overwrites title and/or description. Nil pointers leave
	// the current value untouched; an empty-string description is a real value.
	UpdateDocument(ctx context.Context, id int64, title, description *string) error

	// DeleteDocument removes a document; versions and tag associations go with
	// it via FK cascade. Reports whether a row was actually deleted.
	DeleteDocument(ctx context.Context, id int64) (bool, error)

	// ListDocuments returns a stable insertion-ordered page of summaries with
	// a total row count.
	ListDocuments(ctx context.Context, pq PageQuery) (*PageResult[model.DocumentSummary], error)

	// MaxVersionNumber returns the highest version number for a document,
	// 0 when it has none.
	MaxVersionNumber(ctx context.Context, documentID int64) (int, error)

	// CreateVersion inserts a version record. Returns ErrDuplicateVersion when
	// the (document_id, version_number) uniqueness constraint fires.
	CreateVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error)

	// ListVersions returns all versions of a document ascending by version number.
	ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error)

	// GetOrCreateTag resolves a normalized tag name to its row, creating it on
	// first use. Concurrent creators converge on the same row.
	GetOrCreateTag(ctx context.Context, name string) (*model.Tag, error)

	// FindTagsByNames resolves normalized names to existing tags; unknown
	// names are simply absent from the result.
	FindTagsByNames(ctx context.Context, names []string) ([]model.Tag, error)

	// ReplaceDocumentTags clears the document's association set and installs
	// the given tag IDs. An empty set just clears.
	ReplaceDocumentTags(ctx context.Context, documentID int64, tagIDs []int64) error

	// SearchByTags filters documents whose tag set intersects (ANY) or covers
	// (ALL) the given tags, ordered by creation time descending.
	SearchByTags(ctx context.Context, tagIDs []int64, matchAll bool, pq PageQuery) (*PageResult[model.DocumentSummary], error)

	// Search applies the combined conjunctive filters, ordered by creation
	// time descending.
	Search(ctx context.Context, f SearchFilter, pq PageQuery) (*PageResult[model.DocumentSummary], error)

	// WithinTx runs fn with a repository bound to a single database
	// transaction, committing on nil and rolling back on error.
	WithinTx(ctx context.Context, fn func(DocumentRepository) error) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
