package objectclient

import (
	"context"
	"io"
)

// Buckets used by the service. Each maps to one directory under the data root.
const (
	BucketUploads = "uploads"
	BucketImages  = "images"
	BucketOutputs = "outputs"
)

// ObjectClient stores named blobs in buckets. Names are write-once: storing
// under an existing key fails instead of overwriting.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (location string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
