package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"docvault/internal/blob"
	"docvault/internal/cache"
	"docvault/internal/model"
	"docvault/internal/repository"
)

var (
	// ErrNotFound means the referenced document, or a resolvable blob for it,
	// does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrTitleRequired means a create was attempted without a title.
	ErrTitleRequired = errors.New("title is required")
	// ErrFileRequired means an upload arrived without file content.
	ErrFileRequired = errors.New("file is required")
)

// maxVersionRetries bounds recomputation when a concurrent writer from another
// process wins the same version number.
const maxVersionRetries = 3

// IsValidation reports whether err is a rejected-input condition, as opposed
// to not-found or an internal failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrFileRequired) ||
		errors.Is(err, blob.ErrExtensionNotAllowed) ||
		errors.Is(err, blob.ErrContentTypeNotAllowed) ||
		errors.Is(err, blob.ErrFileTooLarge)
}

// FileUpload is the uploaded file content plus the metadata the adapter
// extracted from the request.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// UploadInput drives Upload. A nil DocumentID creates a new document; a
// non-nil one appends a version. Description and Tags distinguish "absent"
// (nil) from "provided empty": an empty description clears the stored one and
// an empty tag list clears the association set.
type UploadInput struct {
	DocumentID  *int64
	Title       string
	Description *string
	Tags        []string
	File        FileUpload
}

// UploadResult reports where an upload landed.
type UploadResult struct {
	DocumentID    int64  `json:"document_id"`
	VersionNumber int    `json:"version_number"`
	Message       string `json:"message"`
}

// FetchResult is an opened blob ready for download or preview. The caller
// owns Content and must close it.
type FetchResult struct {
	Content  io.ReadCloser
	Filename string
	MIMEType string
	Size     int64
	Version  int
}

// SearchInput holds the user-facing search criteria. Tags nil means no tag
// filter; a non-nil list that normalizes to nothing is an explicit filter
// matching no documents.
type SearchInput struct {
	Tags     []string
	MatchAll bool
	Query    string
	FileType string
	Skip     int
	Limit    int
}

// SearchResult is a page of matches plus the total across all pages.
type SearchResult struct {
	Documents []model.DocumentSummary `json:"documents"`
	Total     int                     `json:"total"`
}

// DocumentService defines the use cases for versioned documents.
type DocumentService interface {
	// Upload creates a document (version 1) or appends a version to an
	// existing one, depending on whether a document ID is supplied.
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)

	// List returns paginated document summaries in insertion order.
	List(ctx context.Context, skip, limit int) ([]model.DocumentSummary, error)

	// Versions returns a document's full history ascending by version number.
	Versions(ctx context.Context, documentID int64) (*model.DocumentVersions, error)

	// Fetch resolves and opens the blob for (document, optional version);
	// nil version means latest by version number.
	Fetch(ctx context.Context, documentID int64, version *int) (*FetchResult, error)

	// Search filters documents by tags, free text and latest-version file type.
	Search(ctx context.Context, in SearchInput) (*SearchResult, error)

	// Delete removes a document, its versions and its blobs.
	Delete(ctx context.Context, documentID int64) error
}

type documentService struct {
	blobs    blob.Store
	resolver *blob.Resolver
	repo     repository.DocumentRepository
	tags     *cache.TagCache
	locks    *keyedMutex
}

// NewDocumentService constructs a DocumentService. tags may be nil when no
// cache is configured.
func NewDocumentService(store blob.Store, repo repository.DocumentRepository, tags *cache.TagCache) DocumentService {
	return &documentService{
		blobs:    store,
		resolver: blob.NewResolver(store),
		repo:     repo,
		tags:     tags,
		locks:    newKeyedMutex(),
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.File.Reader == nil {
		return nil, ErrFileRequired
	}
	if in.DocumentID != nil {
		return s.appendVersion(ctx, *in.DocumentID, in)
	}
	return s.create(ctx, in)
}

// create persists a new document with its first version as one unit of work.
// The document row becomes durable only if the blob write succeeds: any
// failure rolls the transaction back and takes the blob with it, so readers
// never see a document with zero versions.
func (s *documentService) create(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}

	var (
		result    *UploadResult
		blobDocID int64
	)
	err := s.repo.WithinTx(ctx, func(r repository.DocumentRepository) error {
		description := ""
		if in.Description != nil {
			description = *in.Description
		}
		doc, err := r.CreateDocument(ctx, in.Title, description)
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		blobDocID = doc.ID

		obj, err := s.blobs.Put(ctx, doc.ID, 1, in.File.Reader, blob.PutOptions{
			Filename:    in.File.Filename,
			ContentType: in.File.ContentType,
		})
		if err != nil {
			return err
		}

		if _, err := r.CreateVersion(ctx, &model.DocumentVersion{
			DocumentID:    doc.ID,
			VersionNumber: 1,
			StoragePath:   obj.Location,
			FileSize:      obj.Size,
			FileType:      blob.FileType(obj.Ext),
		}); err != nil {
			return fmt.Errorf("create version: %w", err)
		}

		if tags := NormalizeTags(in.Tags); len(tags) > 0 {
			ids, err := ensureTags(ctx, r, tags)
			if err != nil {
				return err
			}
			if err := r.ReplaceDocumentTags(ctx, doc.ID, ids); err != nil {
				return fmt.Errorf("associate tags: %w", err)
			}
		}

		result = &UploadResult{
			DocumentID:    doc.ID,
			VersionNumber: 1,
			Message:       "Document uploaded successfully",
		}
		return nil
	})
	if err != nil {
		// The row is rolled back; the identity is never reused, so the whole
		// blob namespace for it can go.
		if blobDocID != 0 {
			if delErr := s.blobs.DeleteAll(ctx, blobDocID); delErr != nil {
				log.Printf("warning: cleanup blobs for document %d: %v", blobDocID, delErr)
			}
		}
		return nil, err
	}
	return result, nil
}

// appendVersion adds the next version to an existing document and applies any
// metadata updates in the same transaction. Version-number allocation is
// serialized per document in-process; the (document_id, version_number)
// unique constraint backstops concurrent writers from other processes, in
// which case the number is recomputed and the write retried.
func (s *documentService) appendVersion(ctx context.Context, documentID int64, in UploadInput) (*UploadResult, error) {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		var (
			result  *UploadResult
			written blob.Object
		)
		err := s.repo.WithinTx(ctx, func(r repository.DocumentRepository) error {
			if _, err := r.FindDocumentByID(ctx, documentID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return fmt.Errorf("find document: %w", err)
			}

			var title *string
			if in.Title != "" {
				title = &in.Title
			}
			if title != nil || in.Description != nil {
				if err := r.UpdateDocument(ctx, documentID, title, in.Description); err != nil {
					return fmt.Errorf("update document: %w", err)
				}
			}

			// A provided tag list replaces the whole set, even when it parses
			// to nothing; an absent one leaves the set untouched.
			if in.Tags != nil {
				ids, err := ensureTags(ctx, r, NormalizeTags(in.Tags))
				if err != nil {
					return err
				}
				if err := r.ReplaceDocumentTags(ctx, documentID, ids); err != nil {
					return fmt.Errorf("replace tags: %w", err)
				}
			}

			max, err := r.MaxVersionNumber(ctx, documentID)
			if err != nil {
				return fmt.Errorf("max version: %w", err)
			}
			next := max + 1

			obj, err := s.blobs.Put(ctx, documentID, next, in.File.Reader, blob.PutOptions{
				Filename:    in.File.Filename,
				ContentType: in.File.ContentType,
			})
			if err != nil {
				return err
			}
			written = obj

			if _, err := r.CreateVersion(ctx, &model.DocumentVersion{
				DocumentID:    documentID,
				VersionNumber: next,
				StoragePath:   obj.Location,
				FileSize:      obj.Size,
				FileType:      blob.FileType(obj.Ext),
			}); err != nil {
				return err
			}

			result = &UploadResult{
				DocumentID:    documentID,
				VersionNumber: next,
				Message:       fmt.Sprintf("Version %d uploaded successfully", next),
			}
			return nil
		})
		if err == nil {
			return result, nil
		}

		// Take back the blob so an orphaned high version prefix cannot win
		// latest-version resolution.
		if written.Location != "" {
			if delErr := s.blobs.Remove(ctx, written); delErr != nil {
				log.Printf("warning: cleanup blob %s: %v", written.Location, delErr)
			}
		}
		if errors.Is(err, repository.ErrDuplicateVersion) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("allocate version number: %w", repository.ErrDuplicateVersion)
}

// List returns paginated document summaries without exposing repository types.
func (s *documentService) List(ctx context.Context, skip, limit int) ([]model.DocumentSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	res, err := s.repo.ListDocuments(ctx, repository.PageQuery{Limit: limit, Offset: skip})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Versions returns a document's history, ascending by version number.
func (s *documentService) Versions(ctx context.Context, documentID int64) (*model.DocumentVersions, error) {
	doc, err := s.repo.FindDocumentByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &model.DocumentVersions{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Versions:   versions,
	}, nil
}

// Fetch resolves and opens the blob for download/preview. A version record
// pointing at a missing blob is a not-found, never a server failure.
func (s *documentService) Fetch(ctx context.Context, documentID int64, version *int) (*FetchResult, error) {
	doc, err := s.repo.FindDocumentByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	obj, err := s.resolver.Resolve(ctx, documentID, version)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rc, err := s.blobs.Open(ctx, obj)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &FetchResult{
		Content:  rc,
		Filename: fmt.Sprintf("%s_v%d%s", doc.Title, obj.Version, obj.Ext),
		MIMEType: blob.MIMEType(obj.Ext),
		Size:     obj.Size,
		Version:  obj.Version,
	}, nil
}

// Delete removes blobs first, best effort: a blob-store failure is logged and
// swallowed so the metadata deletion always proceeds and the record can never
// become undeletable. Tag rows are left alone.
func (s *documentService) Delete(ctx context.Context, documentID int64) error {
	if _, err := s.repo.FindDocumentByID(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.blobs.DeleteAll(ctx, documentID); err != nil {
		log.Printf("warning: failed to delete blobs for document %d: %v", documentID, err)
	}

	deleted, err := s.repo.DeleteDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// ensureTags get-or-creates every normalized name and returns the tag IDs.
func ensureTags(ctx context.Context, r repository.DocumentRepository, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, n := range names {
		t, err := r.GetOrCreateTag(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("get or create tag %q: %w", n, err)
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// NormalizeTags trims, lowercases, drops empties and dedups while keeping
// first-occurrence order. "A, a, A " and "HR" reduce to ["a", "hr"].
func NormalizeTags(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		n := strings.ToLower(strings.TrimSpace(t))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
