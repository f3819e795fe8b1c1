package blob

import (
	"context"
	"errors"
	"io"
)

// Package blob persists raw file bytes for document versions. A store keeps one
// namespace per document identity and names every object with a sortable
// version prefix plus a randomized suffix, so client-supplied filenames never
// reach storage. Implementations must avoid buffering whole files in memory.

var (
	// ErrNotFound means no blob exists for the requested document/version.
	ErrNotFound = errors.New("blob not found")
	// ErrExtensionNotAllowed means the upload's file extension is not in the allow-list.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrContentTypeNotAllowed means a declared content type is outside the allowed MIME table.
	ErrContentTypeNotAllowed = errors.New("content type not allowed")
	// ErrFileTooLarge means the measured upload size exceeded the store's limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// PutOptions carries upload metadata for Put.
// Filename is the original client filename; it is used only to derive the
// extension and never becomes part of the stored name. ContentType is the
// declared type and may be empty.
type PutOptions struct {
	Filename    string
	ContentType string
}

// Object identifies one stored blob.
type Object struct {
	DocumentID int64
	Version    int
	// Location is the backend-specific path or key, suitable for persisting
	// in version records and passing back to Open.
	Location string
	// Ext is the lowercase file extension including the leading dot.
	Ext  string
	Size int64
}

// Store is the blob store contract. Version 0 passed to Locate resolves the
// latest version (highest version number); explicit versions resolve exactly.
// Writes are atomic-or-absent: a failed or rejected Put leaves no visible
// artifact behind.
// Remove deletes a single stored object. It exists so a failed orchestration
// can take back a blob it just wrote: an orphaned blob with a high version
// prefix would otherwise win latest-version resolution.
type Store interface {
	Put(ctx context.Context, documentID int64, version int, r io.Reader, opt PutOptions) (Object, error)
	Locate(ctx context.Context, documentID int64, version int) (Object, error)
	Open(ctx context.Context, obj Object) (io.ReadCloser, error)
	Remove(ctx context.Context, obj Object) error
	DeleteAll(ctx context.Context, documentID int64) error
}
