package storage

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Storage writes admin exports to one bucket and hands out signed links.
type Storage struct {
	client storage.Storage
	ins    instrument.Instrumentation
	bucket string
}

func NewStorage(client storage.Storage, ins instrument.Instrumentation, bucket string) *Storage {
	return &Storage{client: client, ins: ins, bucket: bucket}
}

func (s *Storage) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *Storage) Upload(ctx context.Context, key, contentType string, body []byte, urlTTL time.Duration) (string, error) {
	ctx, span := s.ins.Tracer("guard.outbound.storage").Start(ctx, "Upload")
	defer span.End()

	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:               int64(len(body)),
		ContentType:        contentType,
		ContentDisposition: `attachment; filename="` + path.Base(key) + `"`,
		Metadata:           map[string]string{"source": "loginguard"},
	}); err != nil {
		return "", s.fail(span, err)
	}

	url, err := s.client.PresignGet(ctx, s.bucket, key, urlTTL)
	if err != nil {
		// an export nobody can download is only a liability
		if derr := s.client.DeleteObject(ctx, s.bucket, key); derr != nil {
			slog.WarnContext(ctx, "failed to remove unsigned export", "key", key, "error", derr)
		}
		return "", s.fail(span, err)
	}

	return url, nil
}
