package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/storage"
)

type fakeObjectStore struct {
	bucket, key string
	body        []byte
	opts        storage.PutOptions
	expiry      time.Duration
	signErr     error
	deleted     string
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.bucket, f.key, f.body, f.opts = bucket, key, b, opts
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(b))}, nil
}

func (f *fakeObjectStore) DeleteObject(_ context.Context, _, key string) error {
	f.deleted = key
	return nil
}

func (f *fakeObjectStore) EnsureBucket(context.Context, string) error { return nil }

func (f *fakeObjectStore) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	f.expiry = expiry
	return "https://" + bucket + ".example/" + key, nil
}

func (f *fakeObjectStore) Close() error { return nil }

func TestUpload(t *testing.T) {

	t.Run("PutsThenSigns", func(t *testing.T) {

		// Arrange
		obj := &fakeObjectStore{}
		s := NewStorage(obj, instrument.NewNoop(), "exports")

		// Act
		url, err := s.Upload(context.Background(), "a/b.csv", "text/csv", []byte("ip\n"), 15*time.Minute)

		// Assert
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if url != "https://exports.example/a/b.csv" {
			t.Fatalf("url = %q", url)
		}
		if obj.bucket != "exports" || string(obj.body) != "ip\n" || obj.opts.ContentType != "text/csv" || obj.opts.Size != 3 {
			t.Fatalf("unexpected put %+v", obj)
		}
		if obj.opts.ContentDisposition != `attachment; filename="b.csv"` {
			t.Fatalf("disposition = %q", obj.opts.ContentDisposition)
		}
		if obj.expiry != 15*time.Minute {
			t.Fatalf("expiry = %v", obj.expiry)
		}
	})

	t.Run("MissingSigner", func(t *testing.T) {

		// Arrange
		obj := &fakeObjectStore{signErr: storage.ErrMissingSigner}
		s := NewStorage(obj, instrument.NewNoop(), "exports")

		// Act
		_, err := s.Upload(context.Background(), "a/b.csv", "text/csv", nil, time.Minute)

		// Assert
		if !errors.Is(err, storage.ErrMissingSigner) {
			t.Fatalf("expected ErrMissingSigner, got %v", err)
		}
		if obj.deleted != "a/b.csv" {
			t.Fatalf("expected unsigned export removed, deleted %q", obj.deleted)
		}
	})
}
