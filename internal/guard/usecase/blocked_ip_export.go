package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

type BlockedIPExportInput struct {
	ActiveOnly bool
}

type BlockedIPExportOutput struct {
	URL       string
	ExpiresAt time.Time
	Count     int
}

var exportHeader = []string{"ip", "expires_at", "created_at", "active", "remaining_seconds"}

// BlockedIPExport writes the block list as CSV to object storage and returns
// a temporary download link.
func (s *Usecase) BlockedIPExport(ctx context.Context, in BlockedIPExportInput) (*BlockedIPExportOutput, error) {
	ctx, span := s.startSpan(ctx, "BlockedIPExport")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, entity.PermBlockedIPs, entity.ActRead)
	if err != nil {
		return nil, err
	}

	rows, err := s.blockedIPs(ctx, in.ActiveOnly)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, exportHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.IP,
			r.ExpiresAt.UTC().Format(time.RFC3339),
			r.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(r.Active),
			strconv.FormatInt(int64(r.Remaining.Seconds()), 10),
		})
	}
	if err := w.WriteAll(records); err != nil {
		slog.ErrorContext(ctx, "failed to encode blocked ip export", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	ttl := s.settings().exportURLTTL
	key := "exports/blocked-ips/" + now.UTC().Format("20060102T150405Z") + "-" + s.oid.Generate() + ".csv"

	url, err := s.repoStorage.Upload(ctx, key, "text/csv", buf.Bytes(), ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upload blocked ip export", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "blocked ip export created", "key", key, "count", len(rows), "admin_id", clm.UserID)

	return &BlockedIPExportOutput{
		URL:       url,
		ExpiresAt: now.Add(ttl),
		Count:     len(rows),
	}, nil
}
