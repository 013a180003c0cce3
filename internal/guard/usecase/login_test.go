package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

func TestLogin(t *testing.T) {

	t.Run("OrdinaryLoginWhenOTPDisabled", func(t *testing.T) {

		// Arrange
		f := newFixture(t, "modules: {guard: {otp_enabled: false}}")

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{Username: "jane", Password: janePassword, Remember: true})

		// Assert
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if out.Kind != entity.OutcomeSuccess || out.Session == nil {
			t.Fatalf("expected success with session, got %+v", out)
		}
		if out.Session.AccessToken != "token-jane" || !out.Session.Remember {
			t.Fatalf("unexpected session %+v", out.Session)
		}
		if f.mail.count() != 0 || f.cache.size() != 0 {
			t.Fatalf("expected no challenge, mail=%d cache=%d", f.mail.count(), f.cache.size())
		}
	})

	t.Run("OrdinaryLoginReusesCredentialCheck", func(t *testing.T) {

		// Arrange
		f := newFixture(t, "modules: {guard: {otp_enabled: false}}")

		// Act
		_, err := f.uc.Login(context.Background(), LoginInput{Username: "jane@example.com", Password: janePassword})

		// Assert
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if got := f.db.lookupCount(); got != 1 {
			t.Fatalf("expected one credential lookup, got %d", got)
		}
	})

	t.Run("IssuesChallengeWhenOTPEnabled", func(t *testing.T) {

		// Arrange
		f := newFixture(t, defaultTestConfig)

		// Act
		out := f.issue(t)

		// Assert
		if out.SessionToken != "sess-1" || out.MaskedRecipient != "**ne@example.com" || out.RemainingResends != 2 {
			t.Fatalf("unexpected issued outcome %+v", out)
		}
		sent := f.mail.last()
		if sent.Code != "111111" || sent.To.Email != "jane@example.com" || sent.To.DisplayName != "Jane Doe" {
			t.Fatalf("unexpected delivery %+v", sent)
		}
		ch, ok := f.cache.get("sess-1")
		if !ok {
			t.Fatalf("expected stored challenge")
		}
		if ch.CodeDigest == "111111" || ch.Attempts != 0 || ch.Resends != 0 || !ch.IssuedAt.Equal(baseTime) {
			t.Fatalf("unexpected challenge %+v", ch)
		}
		if ch.OriginIP != clientIP {
			t.Fatalf("origin ip = %q, want %q", ch.OriginIP, clientIP)
		}
		if got := f.events(t)[entity.EventChallengeIssued]; got != 1 {
			t.Fatalf("challenge_issued events = %d, want 1", got)
		}
	})

	t.Run("SameErrorForUnknownAndWrongPassword", func(t *testing.T) {
		for _, in := range []LoginInput{
			{Username: "nobody", Password: janePassword},
			{Username: "jane", Password: "wrong"},
			{Username: "sam", Password: janePassword},
		} {
			t.Run(in.Username, func(t *testing.T) {

				// Arrange
				f := newFixture(t, defaultTestConfig)

				// Act
				_, err := f.uc.Login(context.Background(), in)

				// Assert
				assertCode(t, err, goerror.CodeUnauthorized)
				if !strings.Contains(err.Error(), "invalid username or password") {
					t.Fatalf("unexpected message %q", err.Error())
				}
				if f.mail.count() != 0 {
					t.Fatalf("expected no code sent")
				}
			})
		}
	})

	t.Run("ValidationError", func(t *testing.T) {

		// Arrange
		f := newFixture(t, defaultTestConfig)

		// Act
		_, err := f.uc.Login(context.Background(), LoginInput{Username: "", Password: janePassword, ClientIP: "not-an-ip"})

		// Assert
		assertCode(t, err, goerror.CodeInvalidInput)
		if f.db.lookupCount() != 0 {
			t.Fatalf("expected no credential lookup")
		}
	})

	t.Run("BlockedIPShortCircuits", func(t *testing.T) {

		// Arrange
		f := newFixture(t, defaultTestConfig)
		if err := f.db.Block(context.Background(), clientIP, baseTime.Add(time.Hour)); err != nil {
			t.Fatalf("Block() error = %v", err)
		}

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{Username: "jane", Password: janePassword, ClientIP: clientIP})

		// Assert
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if out.Kind != entity.OutcomeBlocked || out.BlockedHours != 1 {
			t.Fatalf("expected blocked(1), got %+v", out)
		}
		if f.db.lookupCount() != 0 {
			t.Fatalf("expected no credential lookup for a blocked ip")
		}
	})
}
