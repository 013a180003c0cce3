package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

type BlockedIPListInput struct {
	ActiveOnly bool
}

type BlockedIP struct {
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
	Active    bool
	Remaining time.Duration
}

// BlockedIPList returns the block store in insertion order. Expired rows that
// were not read since they lapsed are reported as inactive.
func (s *Usecase) BlockedIPList(ctx context.Context, in BlockedIPListInput) ([]BlockedIP, error) {
	ctx, span := s.startSpan(ctx, "BlockedIPList")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, entity.PermBlockedIPs, entity.ActRead); err != nil {
		return nil, err
	}

	return s.blockedIPs(ctx, in.ActiveOnly)
}

func (s *Usecase) blockedIPs(ctx context.Context, activeOnly bool) ([]BlockedIP, error) {
	entries, err := s.repoDB.ListBlocks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list blocked ips", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	out := lo.Map(entries, func(e entity.BlockEntry, _ int) BlockedIP {
		return BlockedIP{
			IP:        e.IP,
			ExpiresAt: e.ExpiresAt,
			CreatedAt: e.CreatedAt,
			Active:    e.Active(now),
			Remaining: e.Remaining(now),
		}
	})
	if activeOnly {
		out = lo.Filter(out, func(b BlockedIP, _ int) bool { return b.Active })
	}

	return out, nil
}
