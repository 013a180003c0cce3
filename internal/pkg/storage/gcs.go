package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client         *gcs.Client
	projectID      string
	googleAccessID string
	privateKey     []byte
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// CredentialsFile is a service account key file; takes precedence over CredentialsJSON.
	CredentialsFile string
	// CredentialsJSON is an inline service account key.
	CredentialsJSON []byte
	// Endpoint overrides the API endpoint (fake-gcs-server in development).
	Endpoint string
	// WithoutAuth disables authentication, for emulators only.
	WithoutAuth bool
	// ProjectID owns buckets created by EnsureBucket.
	ProjectID string
	// GoogleAccessID and PrivateKey enable PresignGet.
	GoogleAccessID string
	PrivateKey     []byte
}

// NewGCS constructs a GCS adapter. Without explicit credentials the client
// falls back to Application Default Credentials.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	var clientOpts []option.ClientOption

	credsJSON := opts.CredentialsJSON
	if opts.CredentialsFile != "" {
		// #nosec G304 -- path is from trusted config file.
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		credsJSON = b
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, credsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	if opts.WithoutAuth {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &GCSAdapter{
		client:         client,
		projectID:      opts.ProjectID,
		googleAccessID: opts.GoogleAccessID,
		privateKey:     opts.PrivateKey,
	}, nil
}

// PutObject streams data into a GCS object.
func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.ContentDisposition = opts.ContentDisposition
	w.Metadata = opts.Metadata

	if _, err := io.Copy(w, r); err != nil {
		return ObjectInfo{}, errors.Join(err, w.Close())
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}

	attrs := w.Attrs()
	return ObjectInfo{Bucket: bucket, Key: key, Size: attrs.Size, ETag: attrs.Etag}, nil
}

// DeleteObject removes an object; a missing object is ignored.
func (g *GCSAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	err := g.client.Bucket(bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// PresignGet returns a V4 signed URL for downloading.
func (g *GCSAdapter) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.googleAccessID == "" || len(g.privateKey) == 0 {
		return "", ErrMissingSigner
	}
	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.googleAccessID,
		PrivateKey:     g.privateKey,
	})
}

// EnsureBucket creates bucket under the configured project when missing.
func (g *GCSAdapter) EnsureBucket(ctx context.Context, bucket string) error {
	b := g.client.Bucket(bucket)
	_, err := b.Attrs(ctx)
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return err
	}
	return b.Create(ctx, g.projectID, nil)
}

// Close closes the underlying client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
