package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nova-jack/novafusion/config"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// Object is an open object body with the metadata needed to serve it.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStore defines the media operations shared by every backend.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// New builds the backend selected by cfg.Backend. An empty backend
// disables media storage and returns a nil store.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "memory":
		return NewMemory("media"), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Backend)
	}
}
