package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/hash"
	"github.com/shandysiswandi/loginguard/internal/pkg/jwt"
)

// authenticate checks primary credentials. A nil user with a nil error means
// the credentials were rejected.
func (s *Usecase) authenticate(ctx context.Context, login, password string) (*entity.User, error) {
	login = strings.TrimSpace(login)

	user, err := s.repoDB.GetUserByLogin(ctx, login)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "login", login)
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by login", "login", login, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.verifyPassword(user.PasswordHash, password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, nil
	}

	if !user.CanLogin() {
		slog.WarnContext(ctx, "user account is not allowed to login", "user_id", user.ID, "status", user.Status.String())
		return nil, nil
	}

	return user, nil
}

func (s *Usecase) verifyPassword(hashed, password string) bool {
	if hash.IsArgon2id(hashed) {
		return s.argon2id.Verify(hashed, password)
	}
	return s.bcrypt.Verify(hashed, password)
}

// finalizeSession issues the access token that completes a login. withCode
// records that the email code factor was passed as well as the password.
func (s *Usecase) finalizeSession(ctx context.Context, user *entity.User, remember, withCode bool, ip string) (entity.Outcome, error) {
	methods := []string{jwt.MethodPassword}
	if withCode {
		methods = append(methods, jwt.MethodOTP)
	}

	tok, err := s.jwt.Generate(jwt.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Remember: remember,
		Methods:  methods,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return entity.Outcome{}, goerror.NewServer(err)
	}

	s.publish(ctx, entity.SecurityEvent{
		Kind:     entity.EventLoginSucceeded,
		UserID:   user.ID,
		Username: user.Username,
		IP:       ip,
	})

	return entity.Success(entity.Session{
		AccessToken: tok.Value,
		ExpiresAt:   tok.ExpiresAt,
		TTL:         tok.ExpiresAt.Sub(s.clock.Now()),
		Remember:    remember,
		Subject:     user.Subject(),
	}), nil
}
