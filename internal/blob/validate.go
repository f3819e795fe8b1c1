package blob

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxFileSize is the upload byte cap applied when a store is built
// without an explicit limit.
const DefaultMaxFileSize = 10 << 20 // 10 MiB

// allowedExtensions is the fixed upload allow-list, matched case-insensitively.
var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".doc":  {},
	".txt":  {},
}

// allowedMIMETypes maps every accepted declared content type to its extension.
var allowedMIMETypes = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/msword": ".doc",
	"text/plain":         ".txt",
}

// ValidateUpload checks an upload before any byte is persisted and returns the
// normalized (lowercase) extension. A declared content type is optional; when
// present it must be one of the allowed MIME types.
func ValidateUpload(opt PutOptions) (string, error) {
	if opt.Filename == "" {
		return "", fmt.Errorf("%w: no filename provided", ErrExtensionNotAllowed)
	}
	ext := strings.ToLower(filepath.Ext(opt.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}
	if opt.ContentType != "" {
		if _, ok := allowedMIMETypes[opt.ContentType]; !ok {
			return "", fmt.Errorf("%w: %q", ErrContentTypeNotAllowed, opt.ContentType)
		}
	}
	return ext, nil
}

// FileType converts an extension into the stored file type: lowercase, no
// leading dot ("pdf", "docx", ...).
func FileType(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

// MIMEType maps a file type or extension to its MIME type for inline preview,
// falling back to a generic binary type for anything outside the fixed table.
func MIMEType(ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ext = strings.ToLower(ext)
	for mime, e := range allowedMIMETypes {
		if e == ext {
			return mime
		}
	}
	return "application/octet-stream"
}

// versionedName builds the stored object name for a version: a parseable
// version prefix plus a random suffix so concurrent uploads can never collide
// on names and client filenames can never traverse paths.
func versionedName(version int, ext string) string {
	return fmt.Sprintf("v%d_%s%s", version, uuid.NewString(), ext)
}

// parseVersionPrefix extracts the version number from a stored object name.
// Names that do not carry a valid "v<N>_" prefix are ignored by resolution.
func parseVersionPrefix(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "v")
	if !ok {
		return 0, false
	}
	idx := strings.IndexByte(rest, '_')
	if idx <= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:idx])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
