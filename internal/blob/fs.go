package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// fsStore implements Store on the local filesystem. Layout is one directory
// per document under the configured root:
//
//	root/{documentID}/v{N}_{random}{ext}
//
// The root is a constructor parameter, not package state, so tests and
// deployments pick their own location. Safe for concurrent use.
type fsStore struct {
	root    string
	maxSize int64
}

// NewFS creates a filesystem-backed blob store rooted at root. maxSize <= 0
// applies DefaultMaxFileSize.
func NewFS(root string, maxSize int64) (Store, error) {
	if root == "" {
		return nil, fmt.Errorf("blob store root path is required")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &fsStore{root: root, maxSize: maxSize}, nil
}

func (s *fsStore) docDir(documentID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(documentID, 10))
}

// Put validates the upload, then writes it to a temporary file and renames it
// into place. Oversized or failed writes remove the temporary file, so a
// rejected upload leaves nothing visible.
func (s *fsStore) Put(ctx context.Context, documentID int64, version int, r io.Reader, opt PutOptions) (Object, error) {
	ext, err := ValidateUpload(opt)
	if err != nil {
		return Object{}, err
	}

	dir := s.docDir(documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create document directory: %w", err)
	}

	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create temp file: %w", err)
	}

	// Measure actual received bytes; a declared size header is not trusted.
	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return Object{}, fmt.Errorf("write blob: %w", err)
	}
	if n > s.maxSize {
		f.Close()
		os.Remove(tmp)
		return Object{}, ErrFileTooLarge
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return Object{}, fmt.Errorf("close blob: %w", err)
	}

	name := versionedName(version, ext)
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		os.Remove(tmp)
		return Object{}, fmt.Errorf("finalize blob: %w", err)
	}

	return Object{
		DocumentID: documentID,
		Version:    version,
		Location:   path.Join(strconv.FormatInt(documentID, 10), name),
		Ext:        ext,
		Size:       n,
	}, nil
}

// Locate scans the document directory and resolves by parsed version prefix.
// It never relies on directory listing order: latest is the numerically
// highest prefix among the files present.
func (s *fsStore) Locate(ctx context.Context, documentID int64, version int) (Object, error) {
	entries, err := os.ReadDir(s.docDir(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("read document directory: %w", err)
	}

	var best os.DirEntry
	bestVersion := 0
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		v, ok := parseVersionPrefix(e.Name())
		if !ok {
			continue
		}
		if version > 0 {
			if v == version {
				best, bestVersion = e, v
				break
			}
			continue
		}
		if v > bestVersion {
			best, bestVersion = e, v
		}
	}
	if best == nil {
		return Object{}, ErrNotFound
	}

	info, err := best.Info()
	if err != nil {
		return Object{}, fmt.Errorf("stat blob: %w", err)
	}
	return Object{
		DocumentID: documentID,
		Version:    bestVersion,
		Location:   path.Join(strconv.FormatInt(documentID, 10), best.Name()),
		Ext:        strings.ToLower(filepath.Ext(best.Name())),
		Size:       info.Size(),
	}, nil
}

// Open returns the blob content as a streaming reader.
func (s *fsStore) Open(ctx context.Context, obj Object) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(obj.Location)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Remove deletes one stored blob. A missing file is a no-op.
func (s *fsStore) Remove(ctx context.Context, obj Object) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(obj.Location)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// DeleteAll removes the whole per-document directory tree. A missing
// directory is a no-op, not an error.
func (s *fsStore) DeleteAll(ctx context.Context, documentID int64) error {
	return os.RemoveAll(s.docDir(documentID))
}
