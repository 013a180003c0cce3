package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/redact"
)

type ResendInput struct {
	SessionToken string `validate:"required,max=128"`
	ClientIP     string `validate:"omitempty,ip"`
}

// Resend replaces the session's code and sends it again. The resend counts
// even when delivery fails.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (entity.Outcome, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return entity.Outcome{}, goerror.NewInvalidInput(err)
	}

	var out entity.Outcome
	if err := s.withSessionLock(ctx, in.SessionToken, func(ctx context.Context) (err error) {
		out, err = s.resend(ctx, in)
		return err
	}); err != nil {
		return entity.Outcome{}, err
	}

	return s.record(ctx, out), nil
}

func (s *Usecase) resend(ctx context.Context, in ResendInput) (entity.Outcome, error) {
	ch, err := s.loadChallenge(ctx, in.SessionToken)
	if err != nil {
		return entity.Outcome{}, err
	}
	if ch == nil {
		return entity.SessionExpired(), nil
	}

	policy := entity.ParsePolicy(s.cfg)
	if ch.Resends >= policy.MaxResends {
		slog.WarnContext(ctx, "otp resend limit reached", "user_id", ch.Subject.UserID, "resends", ch.Resends)
		return entity.ResendLimitExceeded(), nil
	}

	code, digest, err := s.newCode(ctx)
	if err != nil {
		return entity.Outcome{}, err
	}

	ch.CodeDigest = digest
	ch.Attempts = 0
	ch.Resends++
	ch.IssuedAt = s.clock.Now()

	if err := s.saveChallenge(ctx, in.SessionToken, *ch); err != nil {
		return entity.Outcome{}, err
	}

	st := s.settings()
	if err := s.deliver(ctx, ch.Subject, code, st); err != nil {
		return entity.DeliveryFailed(), nil
	}

	s.publish(ctx, entity.SecurityEvent{
		Kind:     entity.EventChallengeIssued,
		UserID:   ch.Subject.UserID,
		Username: ch.Subject.Username,
		IP:       in.ClientIP,
		Detail:   map[string]string{"resend": "true"},
	})

	return entity.Issued(in.SessionToken, redact.Email(ch.Subject.Email), max(policy.MaxResends-ch.Resends, 0)), nil
}
