package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/lock"
)

const sessionLockPrefix = "guard:session:"

// withSessionLock serializes verify and resend calls of one session.
func (s *Usecase) withSessionLock(ctx context.Context, session string, fn func(ctx context.Context) error) error {
	st := s.settings()

	err := s.locker.Do(ctx, sessionLockPrefix+session, fn, lock.WithTTL(st.lockTTL), lock.WithWait(st.lockWait))
	if errors.Is(err, lock.ErrNotAcquired) {
		slog.WarnContext(ctx, "session is busy with another request")
		return goerror.NewBusiness("Another request for this session is in progress", goerror.CodeTooManyRequest)
	}
	if errors.Is(err, lock.ErrNotHeld) {
		// fn finished; the lock ttl ran out before release
		slog.WarnContext(ctx, "session lock expired before release")
		return nil
	}

	return err
}

// loadChallenge returns nil when the session has no live challenge.
func (s *Usecase) loadChallenge(ctx context.Context, session string) (*entity.Challenge, error) {
	ch, err := s.repoCache.GetChallenge(ctx, session)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challenge", "error", err)
		return nil, goerror.NewServer(err)
	}

	return ch, nil
}

func (s *Usecase) clearChallenge(ctx context.Context, session string) error {
	if err := s.repoCache.ClearChallenge(ctx, session); err != nil {
		slog.ErrorContext(ctx, "failed to repo clear challenge", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) saveChallenge(ctx context.Context, session string, ch entity.Challenge) error {
	if err := s.repoCache.PutChallenge(ctx, session, ch, s.settings().challengeTTL); err != nil {
		slog.ErrorContext(ctx, "failed to repo put challenge", "user_id", ch.Subject.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
