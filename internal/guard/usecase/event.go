package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
)

// publish sends ev in the background when events are enabled. Failures are
// logged and never affect the request.
func (s *Usecase) publish(ctx context.Context, ev entity.SecurityEvent) {
	if !s.cfg.GetBool("modules.guard.events.enabled") {
		return
	}

	ev.ID = s.uid.Generate()
	ev.OccurredAt = s.clock.Now()

	s.goroutine.Go(ctx, "publish."+string(ev.Kind), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishSecurityEvent(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish security event", "kind", string(ev.Kind), "event_id", ev.ID, "error", err)
		}
		return nil
	})
}
