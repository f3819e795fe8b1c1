package model

import "time"

// Document is the logical identity shared by all versions of an uploaded file.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentVersion is one immutable upload belonging to a document.
// Version numbers start at 1 and increase by one per upload; the blob a version
// references is never rewritten after creation.
type DocumentVersion struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"document_id"`
	VersionNumber int       `json:"version_number"`
	StoragePath   string    `json:"storage_path"`
	FileSize      int64     `json:"file_size"`
	FileType      string    `json:"file_type"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Tag is a normalized label shared across documents. Names are lowercase,
// trimmed and globally unique; tags are created lazily and never deleted.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DocumentSummary is the list/search view of a document: the document itself,
// its latest version (highest version number), its tag set and a version count.
type DocumentSummary struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	CreatedAt     time.Time        `json:"created_at"`
	LatestVersion *DocumentVersion `json:"latest_version"`
	Tags          []Tag            `json:"tags"`
	VersionCount  int              `json:"version_count"`
}

// DocumentVersions is the full version history of one document, ascending by
// version number.
type DocumentVersions struct {
	DocumentID int64             `json:"document_id"`
	Title      string            `json:"title"`
	Versions   []DocumentVersion `json:"versions"`
}
