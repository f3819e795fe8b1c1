package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFSStore(t *testing.T, maxSize int64) Store {
	t.Helper()
	s, err := NewFS(t.TempDir(), maxSize)
	require.NoError(t, err)
	return s
}

func TestFSStore_PutAndOpen(t *testing.T) {
	s := newFSStore(t, 0)
	ctx := context.Background()

	obj, err := s.Put(ctx, 1, 1, strings.NewReader("hello world"), PutOptions{Filename: "report.pdf"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), obj.DocumentID)
	assert.Equal(t, 1, obj.Version)
	assert.Equal(t, ".pdf", obj.Ext)
	assert.Equal(t, int64(11), obj.Size)
	assert.True(t, strings.HasPrefix(obj.Location, "1/v1_"))

	rc, err := s.Open(ctx, obj)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestFSStore_LocateLatestByVersionNumber(t *testing.T) {
	s := newFSStore(t, 0)
	ctx := context.Background()

	// Written out of order on purpose: latest must come from the parsed
	// version prefix, not from write or listing order.
	for _, v := range []int{2, 10, 1} {
		_, err := s.Put(ctx, 1, v, strings.NewReader("content"), PutOptions{Filename: "report.pdf"})
		require.NoError(t, err)
	}

	obj, err := s.Locate(ctx, 1, 0)

	require.NoError(t, err)
	assert.Equal(t, 10, obj.Version)
}

func TestFSStore_LocateExplicitVersion(t *testing.T) {
	s := newFSStore(t, 0)
	ctx := context.Background()

	_, err := s.Put(ctx, 1, 1, strings.NewReader("one"), PutOptions{Filename: "a.txt"})
	require.NoError(t, err)
	_, err = s.Put(ctx, 1, 2, strings.NewReader("two"), PutOptions{Filename: "b.txt"})
	require.NoError(t, err)

	obj, err := s.Locate(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, obj.Version)

	_, err = s.Locate(ctx, 1, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_LocateUnknownDocument(t *testing.T) {
	s := newFSStore(t, 0)

	_, err := s.Locate(context.Background(), 99, 0)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_PutRejectsOversizeWithoutResidue(t *testing.T) {
	root := t.TempDir()
	s, err := NewFS(root, 8)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Put(ctx, 1, 1, strings.NewReader("way too many bytes"), PutOptions{Filename: "big.txt"})

	assert.ErrorIs(t, err, ErrFileTooLarge)

	// Nothing visible and no temp residue left behind
	entries, readErr := os.ReadDir(filepath.Join(root, "1"))
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestFSStore_PutRejectsBadExtension(t *testing.T) {
	s := newFSStore(t, 0)

	_, err := s.Put(context.Background(), 1, 1, strings.NewReader("MZ"), PutOptions{Filename: "evil.exe"})

	assert.ErrorIs(t, err, ErrExtensionNotAllowed)
}

func TestFSStore_Remove(t *testing.T) {
	s := newFSStore(t, 0)
	ctx := context.Background()

	obj, err := s.Put(ctx, 1, 2, strings.NewReader("content"), PutOptions{Filename: "report.pdf"})
	require.NoError(t, err)
	_, err = s.Put(ctx, 1, 1, strings.NewReader("content"), PutOptions{Filename: "report.pdf"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, obj))

	// With the orphan gone, latest falls back to the surviving version
	latest, err := s.Locate(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)

	// Removing twice is a no-op
	assert.NoError(t, s.Remove(ctx, obj))
}

func TestFSStore_DeleteAll(t *testing.T) {
	s := newFSStore(t, 0)
	ctx := context.Background()

	_, err := s.Put(ctx, 1, 1, strings.NewReader("content"), PutOptions{Filename: "report.pdf"})
	require.NoError(t, err)
	_, err = s.Put(ctx, 1, 2, strings.NewReader("content"), PutOptions{Filename: "report.pdf"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAll(ctx, 1))

	_, err = s.Locate(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent document is a no-op
	assert.NoError(t, s.DeleteAll(ctx, 99))
}

func TestFSStore_UploadsDoNotCollide(t *testing.T) {
	s := newFSStore(t, 0)
	ctx := context.Background()

	a, err := s.Put(ctx, 1, 1, strings.NewReader("a"), PutOptions{Filename: "x.txt"})
	require.NoError(t, err)
	b, err := s.Put(ctx, 1, 1, strings.NewReader("b"), PutOptions{Filename: "x.txt"})
	require.NoError(t, err)

	// Random suffixes keep even same-version writes from clobbering each other
	assert.NotEqual(t, a.Location, b.Location)
}

func TestResolver(t *testing.T) {
	s := newFSStore(t, 0)
	ctx := context.Background()
	r := NewResolver(s)

	_, err := s.Put(ctx, 1, 1, strings.NewReader("one"), PutOptions{Filename: "a.txt"})
	require.NoError(t, err)
	_, err = s.Put(ctx, 1, 2, strings.NewReader("two"), PutOptions{Filename: "b.txt"})
	require.NoError(t, err)

	latest, err := r.Resolve(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	v := 1
	first, err := r.Resolve(ctx, 1, &v)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
}
