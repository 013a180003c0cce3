package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrMissingSigner indicates signed URL support is not configured.
var ErrMissingSigner = errors.New("storage: signed url signer not configured")

// Storage is the subset of object storage the service uses: write an object,
// hand out a time limited download link, and remove it again.
type Storage interface {
	io.Closer

	// PutObject stores data and returns object metadata.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// DeleteObject removes the object. Missing objects are not an error.
	DeleteObject(ctx context.Context, bucket, key string) error
	// PresignGet returns a signed URL for downloading.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	// EnsureBucket creates bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error
}

type PutOptions struct {
	// Size is the content length; zero or less streams with unknown length.
	Size        int64
	ContentType string
	// ContentDisposition is served back on download, for example
	// `attachment; filename="blocked-ips.csv"`.
	ContentDisposition string
	Metadata           map[string]string
}

type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}
