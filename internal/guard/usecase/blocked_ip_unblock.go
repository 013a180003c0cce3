package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

type BlockedIPUnblockInput struct {
	IP string `validate:"required,ip"`
}

// BlockedIPUnblock removes the block of one address. Unknown addresses are a no-op.
func (s *Usecase) BlockedIPUnblock(ctx context.Context, in BlockedIPUnblockInput) error {
	ctx, span := s.startSpan(ctx, "BlockedIPUnblock")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, entity.PermBlockedIPs, entity.ActWrite)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.Unblock(ctx, in.IP); err != nil {
		slog.ErrorContext(ctx, "failed to repo unblock ip", "ip", in.IP, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "ip unblocked by admin", "ip", in.IP, "admin_id", clm.UserID)
	s.publish(ctx, entity.SecurityEvent{
		Kind:     entity.EventIPUnblocked,
		UserID:   clm.UserID,
		Username: clm.Username,
		IP:       in.IP,
	})

	return nil
}
