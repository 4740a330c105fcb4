package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrObjectExists is returned when a key is already taken in its bucket.
var ErrObjectExists = errors.New("object already exists")

// LocalClient keeps objects on the local filesystem, one directory per bucket.
type LocalClient struct {
	root   string
	logger zerolog.Logger
}

var _ ObjectClient = (*LocalClient)(nil)

// NewLocalClient creates the root and the service buckets.
func NewLocalClient(root string, logger zerolog.Logger) (*LocalClient, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	for _, b := range []string{BucketUploads, BucketImages, BucketOutputs} {
		if err := os.MkdirAll(filepath.Join(abs, b), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", b, err)
		}
	}
	logger.Info().Str("root", abs).Msg("local object storage ready")
	return &LocalClient{root: abs, logger: logger}, nil
}

// Path returns the filesystem location of bucket/key without touching it.
func (c *LocalClient) Path(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == ".." {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	clean := filepath.Base(key)
	if key == "" || clean != key || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(c.root, bucket, clean), nil
}

// UploadFile writes data to a temp file in the bucket and links it under key,
// so a reader never sees a partially written object.
func (c *LocalClient) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	dst, err := c.Path(bucket, key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}

	// os.Link fails when dst exists, which gives write-once semantics.
	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectExists)
		}
		return "", fmt.Errorf("publish object %s/%s: %w", bucket, key, err)
	}

	c.logger.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Str("content_type", contentType).
		Int64("bytes", n).
		Msg("object stored")
	return dst, nil
}

func (c *LocalClient) DeleteFile(ctx context.Context, bucket, key string) error {
	p, err := c.Path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *LocalClient) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	rc, err := c.GetObjectReader(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}
	return body, nil
}

func (c *LocalClient) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	p, err := c.Path(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open object %s/%s: %w", bucket, key, err)
	}
	return f, nil
}
