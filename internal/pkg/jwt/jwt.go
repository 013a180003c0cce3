package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the HS512 key size in bytes.
const MinSecretLen = 64

// Authentication methods recorded in the amr claim (RFC 8176).
const (
	MethodPassword = "pwd"
	MethodOTP      = "otp"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: unexpected signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token expired")
	// ErrInvalidToken covers every other parse or validation failure.
	ErrInvalidToken = errors.New("jwt: invalid token")
)

// JWT issues the access token that ends a login and verifies it on
// administrative requests.
type JWT interface {
	Generate(sub Subject) (Token, error)
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	// Secret must be at least MinSecretLen bytes.
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	// RememberTTL applies to Subject.Remember tokens; zero means TTL.
	RememberTTL time.Duration
	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway time.Duration
	Clock  clocker
	// UUID mints the jti claim.
	UUID generator
}

// Subject is the user a token is issued to, and how they proved it.
type Subject struct {
	UserID   int64
	Username string
	Email    string
	Role     string
	Remember bool
	// Methods lists the factors passed, e.g. MethodPassword, MethodOTP.
	Methods []string
}

type Token struct {
	Value     string
	ExpiresAt time.Time
}

type Claims struct {
	jwt.RegisteredClaims
	UserID    int64    `json:"user_id,string"`
	Username  string   `json:"username"`
	UserEmail string   `json:"user_email"`
	Role      string   `json:"role"`
	Remember  bool     `json:"remember,omitempty"`
	AMR       []string `json:"amr,omitempty"`
}

type ctxKey struct{}

// GetAuth returns the verified claims of the request, or nil.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(ctxKey{}).(Claims); ok {
		return &clm
	}
	return nil
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, clm)
}
