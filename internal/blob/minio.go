package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docvault/internal/config"
)

// minioStore implements Store on an S3-compatible backend (MinIO, AWS S3).
// The per-document namespace is a key prefix instead of a directory:
//
//	docs/{documentID}/v{N}_{random}{ext}
//
// Safe for concurrent use by multiple goroutines.
type minioStore struct {
	client  *minio.Client
	bucket  string
	maxSize int64
}

// NewMinIO creates an S3-backed blob store. It validates connectivity and
// ensures the bucket exists (creates it if missing). maxSize <= 0 applies
// DefaultMaxFileSize.
func NewMinIO(cfg config.MinIOConfig, maxSize int64) (Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioStore{client: cli, bucket: cfg.Bucket, maxSize: maxSize}, nil
}

func (m *minioStore) docPrefix(documentID int64) string {
	return "docs/" + strconv.FormatInt(documentID, 10) + "/"
}

// cappedReader fails the stream once more than limit bytes flow through it,
// which aborts the in-flight PutObject without storing an object.
type cappedReader struct {
	r        io.Reader
	limit    int64
	read     int64
	exceeded bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		c.exceeded = true
		return n, ErrFileTooLarge
	}
	return n, err
}

// Put uploads using streaming I/O with the measured-size cap. The upload is
// aborted mid-stream when the cap is exceeded, and any partial object is
// removed so the write stays atomic-or-absent.
func (m *minioStore) Put(ctx context.Context, documentID int64, version int, r io.Reader, opt PutOptions) (Object, error) {
	ext, err := ValidateUpload(opt)
	if err != nil {
		return Object{}, err
	}

	key := m.docPrefix(documentID) + versionedName(version, ext)
	capped := &cappedReader{r: r, limit: m.maxSize}

	info, err := m.client.PutObject(ctx, m.bucket, key, capped, -1, minio.PutObjectOptions{
		ContentType: MIMEType(ext),
		UserMetadata: map[string]string{
			"original-filename": opt.Filename,
		},
	})
	if err != nil {
		_ = m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
		if capped.exceeded {
			return Object{}, ErrFileTooLarge
		}
		return Object{}, fmt.Errorf("upload blob: %w", err)
	}

	return Object{
		DocumentID: documentID,
		Version:    version,
		Location:   key,
		Ext:        ext,
		Size:       info.Size,
	}, nil
}

// Locate lists the document's key prefix and resolves by parsed version
// prefix, independent of listing order.
func (m *minioStore) Locate(ctx context.Context, documentID int64, version int) (Object, error) {
	var best minio.ObjectInfo
	bestVersion := 0

	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    m.docPrefix(documentID),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return Object{}, fmt.Errorf("list blobs: %w", obj.Err)
		}
		v, ok := parseVersionPrefix(path.Base(obj.Key))
		if !ok {
			continue
		}
		if version > 0 {
			if v == version {
				best, bestVersion = obj, v
			}
			continue
		}
		if v > bestVersion {
			best, bestVersion = obj, v
		}
	}
	if bestVersion == 0 {
		return Object{}, ErrNotFound
	}

	return Object{
		DocumentID: documentID,
		Version:    bestVersion,
		Location:   best.Key,
		Ext:        strings.ToLower(path.Ext(best.Key)),
		Size:       best.Size,
	}, nil
}

// Open returns the blob content as a streaming reader.
func (m *minioStore) Open(ctx context.Context, obj Object) (io.ReadCloser, error) {
	o, err := m.client.GetObject(ctx, m.bucket, obj.Location, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	// Stat up front so a missing key surfaces as not-found instead of a read error.
	if _, err := o.Stat(); err != nil {
		o.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat blob: %w", err)
	}
	return o, nil
}

// Remove deletes one stored object.
func (m *minioStore) Remove(ctx context.Context, obj Object) error {
	return m.client.RemoveObject(ctx, m.bucket, obj.Location, minio.RemoveObjectOptions{})
}

// DeleteAll removes every object under the document's prefix. An empty prefix
// is a no-op.
func (m *minioStore) DeleteAll(ctx context.Context, documentID int64) error {
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    m.docPrefix(documentID),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("list blobs: %w", obj.Err)
		}
		if err := m.client.RemoveObject(ctx, m.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove blob %s: %w", obj.Key, err)
		}
	}
	return nil
}
