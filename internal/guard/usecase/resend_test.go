package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
)

func resend(t *testing.T, f *fixture, session string) entity.Outcome {
	t.Helper()

	out, err := f.uc.Resend(context.Background(), ResendInput{SessionToken: session, ClientIP: clientIP})
	if err != nil {
		t.Fatalf("Resend() error = %v", err)
	}
	return out
}

func TestResend(t *testing.T) {

	t.Run("LimitReached", func(t *testing.T) {

		// Arrange
		f := newFixture(t, defaultTestConfig)
		issued := f.issue(t)

		// Act
		first := resend(t, f, issued.SessionToken)
		second := resend(t, f, issued.SessionToken)
		before, _ := f.cache.get(issued.SessionToken)
		third := resend(t, f, issued.SessionToken)
		after, _ := f.cache.get(issued.SessionToken)

		// Assert
		if first.Kind != entity.OutcomeIssued || first.RemainingResends != 1 {
			t.Fatalf("first = %+v, want issued with 1 remaining", first)
		}
		if second.Kind != entity.OutcomeIssued || second.RemainingResends != 0 {
			t.Fatalf("second = %+v, want issued with 0 remaining", second)
		}
		if third.Kind != entity.OutcomeResendLimitExceeded {
			t.Fatalf("third kind = %s, want resend_limit_exceeded", third.Kind)
		}
		if before != after {
			t.Fatalf("rejected resend mutated the challenge: %+v -> %+v", before, after)
		}
		if f.mail.count() != 3 {
			t.Fatalf("mails sent = %d, want 3", f.mail.count())
		}
	})

	t.Run("ResetsAttemptsAndReplacesCode", func(t *testing.T) {

		// Arrange
		f := newFixture(t, defaultTestConfig)
		issued := f.issue(t)
		verify(t, f, issued.SessionToken, wrongCode)
		verify(t, f, issued.SessionToken, wrongCode)
		f.clock.Advance(5 * time.Minute)

		// Act
		out := resend(t, f, issued.SessionToken)

		// Assert
		if out.Kind != entity.OutcomeIssued || out.SessionToken != issued.SessionToken {
			t.Fatalf("unexpected outcome %+v", out)
		}
		ch, _ := f.cache.get(issued.SessionToken)
		if ch.Attempts != 0 || ch.Resends != 1 || !ch.IssuedAt.Equal(baseTime.Add(5*time.Minute)) {
			t.Fatalf("unexpected challenge %+v", ch)
		}
		if got := verify(t, f, issued.SessionToken, "111111"); got.Kind != entity.OutcomeInvalid || got.RemainingAttempts != 2 {
			t.Fatalf("old code = %+v, want invalid(2)", got)
		}
		if got := verify(t, f, issued.SessionToken, "222222"); got.Kind != entity.OutcomeSuccess {
			t.Fatalf("new code kind = %s, want success", got.Kind)
		}
	})

	t.Run("DeliveryFailureStillCounts", func(t *testing.T) {

		// Arrange
		f := newFixture(t, defaultTestConfig)
		issued := f.issue(t)
		verify(t, f, issued.SessionToken, wrongCode)
		f.clock.Advance(time.Minute)
		f.mail.fail(errors.New("relay down"))

		// Act
		out := resend(t, f, issued.SessionToken)

		// Assert
		if out.Kind != entity.OutcomeDeliveryFailed {
			t.Fatalf("kind = %s, want delivery_failed", out.Kind)
		}
		ch, ok := f.cache.get(issued.SessionToken)
		if !ok {
			t.Fatalf("expected challenge kept")
		}
		if ch.Attempts != 0 || ch.Resends != 1 || !ch.IssuedAt.Equal(baseTime.Add(time.Minute)) {
			t.Fatalf("unexpected challenge %+v", ch)
		}
	})

	t.Run("UnknownSession", func(t *testing.T) {

		// Arrange
		f := newFixture(t, defaultTestConfig)

		// Act
		out := resend(t, f, "sess-404")

		// Assert
		if out.Kind != entity.OutcomeSessionExpired {
			t.Fatalf("kind = %s, want session_expired", out.Kind)
		}
	})
}
