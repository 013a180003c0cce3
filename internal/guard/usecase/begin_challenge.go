package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/redact"
)

type BeginChallengeInput struct {
	Username   string `validate:"required,login"`
	Password   string `validate:"required,max=4096"`
	ClientIP   string `validate:"omitempty,ip"`
	Remember   bool
	OTPEnabled bool
}

// BeginChallenge runs the login interceptors and, when primary credentials
// are accepted, issues a new code for a fresh session.
//
// Rejected credentials yield NotApplicable so callers cannot tell them apart
// from "no second factor required".
func (s *Usecase) BeginChallenge(ctx context.Context, in BeginChallengeInput) (entity.Outcome, error) {
	ctx, span := s.startSpan(ctx, "BeginChallenge")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return entity.Outcome{}, goerror.NewInvalidInput(err)
	}

	out, err := s.beginChallenge(ctx, &LoginAttempt{
		Username: in.Username,
		Password: in.Password,
		ClientIP: in.ClientIP,
		Remember: in.Remember,
		Policy:   entity.ParsePolicy(s.cfg),
	}, in.OTPEnabled)
	if err != nil {
		return entity.Outcome{}, err
	}

	return s.record(ctx, out), nil
}

func (s *Usecase) beginChallenge(ctx context.Context, a *LoginAttempt, otpEnabled bool) (entity.Outcome, error) {
	if !otpEnabled {
		return entity.NotApplicable(), nil
	}

	out, err := s.chain.run(ctx, StagePreCredential, a)
	if err != nil {
		return entity.Outcome{}, err
	}
	if out != nil {
		return *out, nil
	}

	user, err := s.authenticate(ctx, a.Username, a.Password)
	a.CredentialChecked = true
	if err != nil {
		return entity.Outcome{}, err
	}
	if user == nil {
		return entity.NotApplicable(), nil
	}
	a.User = user

	out, err = s.chain.run(ctx, StagePostCredential, a)
	if err != nil {
		return entity.Outcome{}, err
	}
	if out == nil {
		return entity.NotApplicable(), nil
	}

	return *out, nil
}

// issue stores a fresh challenge for the accepted user and sends the code.
// The challenge is discarded again when delivery fails.
func (s *Usecase) issue(ctx context.Context, a *LoginAttempt) (entity.Outcome, error) {
	code, digest, err := s.newCode(ctx)
	if err != nil {
		return entity.Outcome{}, err
	}

	st := s.settings()
	session := s.oid.Generate()
	ch := entity.Challenge{
		CodeDigest: digest,
		Subject:    a.User.Subject(),
		IssuedAt:   s.clock.Now(),
		Remember:   a.Remember,
		OriginIP:   a.ClientIP,
	}

	if err := s.repoCache.PutChallenge(ctx, session, ch, st.challengeTTL); err != nil {
		slog.ErrorContext(ctx, "failed to repo put challenge", "user_id", ch.Subject.UserID, "error", err)
		return entity.Outcome{}, goerror.NewServer(err)
	}

	if err := s.deliver(ctx, ch.Subject, code, st); err != nil {
		if err := s.repoCache.ClearChallenge(ctx, session); err != nil {
			slog.ErrorContext(ctx, "failed to repo clear undelivered challenge", "user_id", ch.Subject.UserID, "error", err)
		}
		return entity.DeliveryFailed(), nil
	}

	slog.InfoContext(ctx, "otp challenge issued", "user_id", ch.Subject.UserID, "ip", a.ClientIP)
	s.publish(ctx, entity.SecurityEvent{
		Kind:     entity.EventChallengeIssued,
		UserID:   ch.Subject.UserID,
		Username: ch.Subject.Username,
		IP:       a.ClientIP,
		Detail:   map[string]string{"resend": "false"},
	})

	return entity.Issued(session, redact.Email(ch.Subject.Email), a.Policy.MaxResends), nil
}

func (s *Usecase) newCode(ctx context.Context) (code, digest string, err error) {
	code, err = s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return "", "", goerror.NewServer(err)
	}

	sum, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return "", "", goerror.NewServer(err)
	}

	return code, string(sum), nil
}

func (s *Usecase) deliver(ctx context.Context, to entity.Subject, code string, st settings) error {
	ctx, cancel := context.WithTimeout(ctx, st.deliveryTimeout)
	defer cancel()

	if err := s.repoMail.SendCode(ctx, to.Recipient(), code); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp code", "user_id", to.UserID, "email", to.Email, "error", err)
		return err
	}

	return nil
}
