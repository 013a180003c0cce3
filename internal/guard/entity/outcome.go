package entity

import "time"

// OutcomeKind enumerates the results of the OTP policy engine.
type OutcomeKind int

const (
	OutcomeNotApplicable OutcomeKind = iota
	OutcomeBlocked
	OutcomeDeliveryFailed
	OutcomeIssued
	OutcomeInvalid
	OutcomeAttemptsExhausted
	OutcomeExpired
	OutcomeSessionExpired
	OutcomeResendLimitExceeded
	OutcomeSuccess
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	case OutcomeIssued:
		return "issued"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeAttemptsExhausted:
		return "attempts_exhausted"
	case OutcomeExpired:
		return "expired"
	case OutcomeSessionExpired:
		return "session_expired"
	case OutcomeResendLimitExceeded:
		return "resend_limit_exceeded"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Session is a finalized, authenticated login.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	// TTL is the token lifetime left when the session was finalized.
	TTL      time.Duration
	Remember bool
	Subject  Subject
}

// Outcome is the value returned by every engine operation. Only the fields
// relevant to Kind are set.
type Outcome struct {
	Kind OutcomeKind

	// Issued
	SessionToken     string
	MaskedRecipient  string
	RemainingResends int

	// Invalid
	RemainingAttempts int

	// Blocked
	BlockedHours int

	// Success
	Session *Session
}

func NotApplicable() Outcome { return Outcome{Kind: OutcomeNotApplicable} }

func Blocked(hours int) Outcome { return Outcome{Kind: OutcomeBlocked, BlockedHours: hours} }

func DeliveryFailed() Outcome { return Outcome{Kind: OutcomeDeliveryFailed} }

func Issued(sessionToken, masked string, remainingResends int) Outcome {
	return Outcome{
		Kind:             OutcomeIssued,
		SessionToken:     sessionToken,
		MaskedRecipient:  masked,
		RemainingResends: remainingResends,
	}
}

func Invalid(remaining int) Outcome {
	return Outcome{Kind: OutcomeInvalid, RemainingAttempts: remaining}
}

func AttemptsExhausted() Outcome { return Outcome{Kind: OutcomeAttemptsExhausted} }

func Expired() Outcome { return Outcome{Kind: OutcomeExpired} }

func SessionExpired() Outcome { return Outcome{Kind: OutcomeSessionExpired} }

func ResendLimitExceeded() Outcome { return Outcome{Kind: OutcomeResendLimitExceeded} }

func Success(session Session) Outcome { return Outcome{Kind: OutcomeSuccess, Session: &session} }
