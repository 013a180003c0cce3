package inbound

import (
	"strconv"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

var errInvalidCredential = goerror.NewBusiness("invalid username or password", goerror.CodeUnauthorized)

// fromOutcome renders an engine outcome as a response or a business error.
func fromOutcome(o entity.Outcome, resend bool) (any, error) {
	switch o.Kind {
	case entity.OutcomeIssued:
		msg := "OTP has been sent to: " + o.MaskedRecipient
		if resend {
			msg = "New OTP has been sent to: " + o.MaskedRecipient + " (Resends remaining: " + strconv.Itoa(o.RemainingResends) + ")"
		}
		remaining := o.RemainingResends
		return LoginResponse{
			OTPRequired:      true,
			SessionToken:     o.SessionToken,
			MaskedEmail:      o.MaskedRecipient,
			RemainingResends: &remaining,
			message:          msg,
		}, nil

	case entity.OutcomeSuccess:
		return LoginResponse{
			AccessToken: o.Session.AccessToken,
			ExpiresIn:   max(int64(o.Session.TTL.Seconds()), 0),
			Remember:    o.Session.Remember,
			message:     "Login successful",
		}, nil

	case entity.OutcomeInvalid:
		return nil, goerror.NewBusinessWithFields(
			"Invalid OTP. You have "+strconv.Itoa(o.RemainingAttempts)+" attempt(s) remaining.",
			goerror.CodeUnauthorized, "remaining_attempts", strconv.Itoa(o.RemainingAttempts))

	case entity.OutcomeBlocked:
		return nil, goerror.NewBusinessWithFields(
			"Your IP has been blocked for "+strconv.Itoa(o.BlockedHours)+" hour(s) due to multiple failed attempts.",
			goerror.CodeForbidden, "blocked_hours", strconv.Itoa(o.BlockedHours))

	case entity.OutcomeAttemptsExhausted:
		return nil, goerror.NewBusiness("Maximum attempts exceeded. Please return to login page and start over.", goerror.CodeForbidden)

	case entity.OutcomeExpired:
		return nil, goerror.NewBusiness("Your verification code has expired. Please return to login page and try again.", goerror.CodeUnauthorized)

	case entity.OutcomeSessionExpired:
		return nil, goerror.NewBusiness("Session expired. Please return to login page and try again.", goerror.CodeUnauthorized)

	case entity.OutcomeResendLimitExceeded:
		return nil, goerror.NewBusiness("Maximum resend attempts reached. Please return to login page and start over.", goerror.CodeTooManyRequest)

	case entity.OutcomeDeliveryFailed:
		return nil, goerror.NewBusiness("Failed to send OTP email. Please contact the site administrator.", goerror.CodeBadGateway)

	default:
		return nil, errInvalidCredential
	}
}
