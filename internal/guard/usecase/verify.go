package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

type VerifyInput struct {
	SessionToken string `validate:"required,max=128"`
	// Code is not format checked: any mismatch, malformed or not, is an attempt.
	Code     string `validate:"required,max=32"`
	ClientIP string `validate:"omitempty,ip"`
}

// Verify checks a submitted code against the session's challenge.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (entity.Outcome, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return entity.Outcome{}, goerror.NewInvalidInput(err)
	}

	var out entity.Outcome
	if err := s.withSessionLock(ctx, in.SessionToken, func(ctx context.Context) (err error) {
		out, err = s.verify(ctx, in)
		return err
	}); err != nil {
		return entity.Outcome{}, err
	}

	return s.record(ctx, out), nil
}

func (s *Usecase) verify(ctx context.Context, in VerifyInput) (entity.Outcome, error) {
	ch, err := s.loadChallenge(ctx, in.SessionToken)
	if err != nil {
		return entity.Outcome{}, err
	}
	if ch == nil {
		return entity.SessionExpired(), nil
	}

	now := s.clock.Now()
	if ch.Expired(now) {
		slog.InfoContext(ctx, "otp challenge expired", "user_id", ch.Subject.UserID)
		if err := s.clearChallenge(ctx, in.SessionToken); err != nil {
			return entity.Outcome{}, err
		}
		return entity.Expired(), nil
	}

	if s.hmac.Verify(ch.CodeDigest, in.Code) {
		return s.verified(ctx, in, ch)
	}

	policy := entity.ParsePolicy(s.cfg)
	ch.Attempts++
	slog.WarnContext(ctx, "otp code mismatch", "user_id", ch.Subject.UserID, "attempts", ch.Attempts, "ip", in.ClientIP)

	if ch.Attempts < policy.MaxAttempts {
		if err := s.saveChallenge(ctx, in.SessionToken, *ch); err != nil {
			return entity.Outcome{}, err
		}
		return entity.Invalid(policy.MaxAttempts - ch.Attempts), nil
	}

	if err := s.clearChallenge(ctx, in.SessionToken); err != nil {
		return entity.Outcome{}, err
	}

	if !policy.IPBlockingEnabled || in.ClientIP == "" {
		return entity.AttemptsExhausted(), nil
	}

	if err := s.repoDB.Block(ctx, in.ClientIP, now.Add(policy.BlockDuration)); err != nil {
		slog.ErrorContext(ctx, "failed to repo block ip", "ip", in.ClientIP, "error", err)
		return entity.Outcome{}, goerror.NewServer(err)
	}

	slog.WarnContext(ctx, "ip blocked after failed otp attempts", "ip", in.ClientIP, "user_id", ch.Subject.UserID)
	s.publish(ctx, entity.SecurityEvent{
		Kind:     entity.EventIPBlocked,
		UserID:   ch.Subject.UserID,
		Username: ch.Subject.Username,
		IP:       in.ClientIP,
		Detail: map[string]string{
			"origin_ip":        ch.OriginIP,
			"duration_seconds": strconv.Itoa(int(policy.BlockDuration.Seconds())),
		},
	})

	return entity.Blocked(policy.BlockedHours()), nil
}

func (s *Usecase) verified(ctx context.Context, in VerifyInput, ch *entity.Challenge) (entity.Outcome, error) {
	if err := s.clearChallenge(ctx, in.SessionToken); err != nil {
		return entity.Outcome{}, err
	}

	user, err := s.repoDB.GetUserByID(ctx, ch.Subject.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verified user no longer exists", "user_id", ch.Subject.UserID)
		return entity.SessionExpired(), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", ch.Subject.UserID, "error", err)
		return entity.Outcome{}, goerror.NewServer(err)
	}
	if !user.CanLogin() {
		slog.WarnContext(ctx, "verified user is not allowed to login", "user_id", user.ID, "status", user.Status.String())
		return entity.SessionExpired(), nil
	}

	return s.finalizeSession(ctx, user, ch.Remember, true, in.ClientIP)
}
