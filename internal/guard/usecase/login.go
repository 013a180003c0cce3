package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

type LoginInput struct {
	Username string `validate:"required,login"`
	Password string `validate:"required,max=4096"`
	ClientIP string `validate:"omitempty,ip"`
	Remember bool
}

// Login is the entry point of the login form. It starts the OTP step when the
// policy asks for it and otherwise completes an ordinary password login.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (entity.Outcome, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return entity.Outcome{}, goerror.NewInvalidInput(err)
	}

	a := &LoginAttempt{
		Username: in.Username,
		Password: in.Password,
		ClientIP: in.ClientIP,
		Remember: in.Remember,
		Policy:   entity.ParsePolicy(s.cfg),
	}

	out, err := s.beginChallenge(ctx, a, a.Policy.OTPEnabled)
	if err != nil {
		return entity.Outcome{}, err
	}
	if out.Kind != entity.OutcomeNotApplicable {
		return s.record(ctx, out), nil
	}

	user := a.User
	if !a.CredentialChecked {
		user, err = s.authenticate(ctx, in.Username, in.Password)
		if err != nil {
			return entity.Outcome{}, err
		}
	}
	if user == nil {
		slog.WarnContext(ctx, "login rejected", "ip", in.ClientIP)
		return entity.Outcome{}, goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)
	}

	out, err = s.finalizeSession(ctx, user, in.Remember, false, in.ClientIP)
	if err != nil {
		return entity.Outcome{}, err
	}

	return s.record(ctx, out), nil
}
