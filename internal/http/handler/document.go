package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// UploadDocument handles multipart uploads. Without a document_id field it
// creates a new document (version 1); with one it appends the next version
// and applies any metadata updates carried alongside.
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form data is required")
		}

		title := strings.TrimSpace(formValue(form.Value, "title"))
		if title == "" {
			return writeError(c, fiber.StatusBadRequest, "TITLE_REQUIRED", "title is required")
		}

		in := service.UploadInput{Title: title}

		// Absent and empty are different things for description and tags:
		// empty overwrites, absent leaves the stored value alone.
		if vs, ok := form.Value["description"]; ok && len(vs) > 0 {
			d := vs[0]
			in.Description = &d
		}
		if vs, ok := form.Value["tags"]; ok && len(vs) > 0 {
			in.Tags = parseTagList(vs[0])
		}

		if raw := strings.TrimSpace(formValue(form.Value, "document_id")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DOCUMENT_ID", "invalid document_id")
			}
			in.DocumentID = &id
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		in.File = service.FileUpload{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		}

		res, err := svc.Upload(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ListDocuments returns paginated document summaries.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skip, limit, err := parsePagination(c)
		if err != nil {
			return writePaginationError(c, err)
		}
		docs, err := svc.List(c.UserContext(), skip, limit)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(docs)
	}
}

// GetDocumentVersions returns all versions of a document, ascending.
func GetDocumentVersions(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseDocumentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid document id")
		}
		res, err := svc.Versions(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DownloadDocument streams a version's bytes as an attachment with a generic
// binary content type. No version parameter means latest.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseDocumentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid document id")
		}
		version, ok := parseVersionQuery(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_VERSION", "invalid version")
		}

		res, err := svc.Fetch(c.UserContext(), id, version)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, "application/octet-stream")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
		return c.SendStream(res.Content, int(res.Size))
	}
}

// PreviewDocument streams a version inline with its type-specific MIME type,
// so browsers render instead of download.
func PreviewDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseDocumentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid document id")
		}
		version, ok := parseVersionQuery(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_VERSION", "invalid version")
		}

		res, err := svc.Fetch(c.UserContext(), id, version)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, res.MIMEType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", res.Filename))
		return c.SendStream(res.Content, int(res.Size))
	}
}

// DeleteDocument removes a document with all versions and blobs.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseDocumentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid document id")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": fmt.Sprintf("Document %d deleted successfully", id)})
	}
}

func formValue(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// parseTagList splits the comma-separated adapter format into raw tag names.
// Normalization (case folding, dedup) belongs to the service.
func parseTagList(s string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseDocumentID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseVersionQuery(c *fiber.Ctx) (*int, bool) {
	raw := c.Query("version")
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, false
	}
	return &n, true
}

var (
	errInvalidSkip  = errors.New("invalid skip")
	errInvalidLimit = errors.New("invalid limit")
)

// parsePagination reads the skip/limit query parameters. It never touches the
// response; a rejection comes back as a sentinel for writePaginationError.
func parsePagination(c *fiber.Ctx) (skip, limit int, err error) {
	skip, convErr := strconv.Atoi(c.Query("skip", "0"))
	if convErr != nil || skip < 0 {
		return 0, 0, errInvalidSkip
	}
	limit, convErr = strconv.Atoi(c.Query("limit", "100"))
	if convErr != nil || limit < 1 || limit > 1000 {
		return 0, 0, errInvalidLimit
	}
	return skip, limit, nil
}

// writePaginationError maps a parsePagination rejection to its 400 payload.
func writePaginationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errInvalidSkip) {
		return writeError(c, fiber.StatusBadRequest, "INVALID_SKIP", "invalid skip")
	}
	return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
}
