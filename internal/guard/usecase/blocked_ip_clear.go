package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

// BlockedIPClear removes every block and returns how many rows were deleted.
func (s *Usecase) BlockedIPClear(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "BlockedIPClear")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, entity.PermBlockedIPs, entity.ActWrite)
	if err != nil {
		return 0, err
	}

	n, err := s.repoDB.ClearAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo clear blocked ips", "error", err)
		return 0, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "blocked ips cleared by admin", "count", n, "admin_id", clm.UserID)
	s.publish(ctx, entity.SecurityEvent{
		Kind:     entity.EventBlocksCleared,
		UserID:   clm.UserID,
		Username: clm.Username,
		Detail:   map[string]string{"count": strconv.FormatInt(n, 10)},
	})

	return n, nil
}
