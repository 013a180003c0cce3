package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type staticID struct{}

func (staticID) Generate() string { return "jti-1" }

func newTestJWT(t *testing.T, now time.Time) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:      []byte(strings.Repeat("s", 64)),
		Issuer:      "loginguard",
		Audiences:   []string{"loginguard-web"},
		TTL:         15 * time.Minute,
		RememberTTL: 14 * 24 * time.Hour,
		Clock:       fixedClock{t: now},
		UUID:        staticID{},
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	return j
}

func TestSymmetric(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	t.Run("ShortSecret", func(t *testing.T) {
		// Act
		_, err := NewHS512(Config{Secret: []byte("short")})

		// Assert
		if !errors.Is(err, ErrSigningKeyTooShort) {
			t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
		}
	})

	t.Run("DefaultClock", func(t *testing.T) {
		// Arrange
		j, err := NewHS512(Config{
			Secret: []byte(strings.Repeat("s", 64)),
			Issuer: "loginguard",
			TTL:    time.Minute,
			UUID:   staticID{},
		})
		if err != nil {
			t.Fatalf("NewHS512() error = %v", err)
		}

		// Act
		tok, err := j.Generate(Subject{UserID: 7})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		_, verr := j.Verify(tok.Value)

		// Assert
		if verr != nil {
			t.Fatalf("Verify() error = %v", verr)
		}
		if d := time.Until(tok.ExpiresAt); d <= 0 || d > time.Minute {
			t.Fatalf("expiry %v not one minute from the system clock", tok.ExpiresAt)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		j := newTestJWT(t, now)

		// Act
		tok, err := j.Generate(Subject{UserID: 7, Username: "jane", Email: "jane@example.com", Role: "admin"})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		claims, err := j.Verify(tok.Value)

		// Assert
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if claims.UserID != 7 || claims.Username != "jane" || claims.Role != "admin" {
			t.Fatalf("unexpected claims %+v", claims)
		}
		if !tok.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
			t.Fatalf("unexpected expiry %v", tok.ExpiresAt)
		}
	})

	t.Run("RememberUsesLongTTL", func(t *testing.T) {
		// Arrange
		j := newTestJWT(t, now)

		// Act
		tok, err := j.Generate(Subject{UserID: 7, Remember: true})

		// Assert
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !tok.ExpiresAt.Equal(now.Add(14 * 24 * time.Hour)) {
			t.Fatalf("unexpected expiry %v", tok.ExpiresAt)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		// Arrange
		old := newTestJWT(t, now.Add(-time.Hour))
		tok, err := old.Generate(Subject{UserID: 7})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		// Act
		_, err = newTestJWT(t, now).Verify(tok.Value)

		// Assert
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})
}

func TestSymmetricClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("MethodsRecorded", func(t *testing.T) {
		// Arrange
		j := newTestJWT(t, now)
		tok, err := j.Generate(Subject{UserID: 7, Methods: []string{MethodPassword, MethodOTP}})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		// Act
		claims, err := j.Verify(tok.Value)

		// Assert
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if len(claims.AMR) != 2 || claims.AMR[1] != MethodOTP || claims.ID != "jti-1" || claims.Subject != "7" {
			t.Fatalf("unexpected claims %+v", claims)
		}
	})

	t.Run("ExtendedSignature", func(t *testing.T) {
		// Arrange
		j := newTestJWT(t, now)
		tok, _ := j.Generate(Subject{UserID: 7})

		// Act
		_, err := j.Verify(tok.Value + "A")

		// Assert
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("WrongAudience", func(t *testing.T) {
		// Arrange
		other, err := NewHS512(Config{
			Secret:    []byte(strings.Repeat("s", 64)),
			Issuer:    "loginguard",
			Audiences: []string{"someone-else"},
			TTL:       time.Minute,
			Clock:     fixedClock{t: now},
			UUID:      staticID{},
		})
		if err != nil {
			t.Fatalf("NewHS512() error = %v", err)
		}
		tok, _ := other.Generate(Subject{UserID: 7})

		// Act
		_, err = newTestJWT(t, now).Verify(tok.Value)

		// Assert
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
