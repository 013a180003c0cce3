package jwt

import (
	"errors"
	"slices"
	"strconv"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/loginguard/internal/pkg/clock"
)

// Symmetric signs and verifies HS512 tokens with one shared secret.
type Symmetric struct {
	cfg    Config
	parser *libJWT.Parser
}

// NewHS512 builds a Symmetric signer. A nil Clock means the system clock.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = cfg.TTL
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithLeeway(cfg.Leeway),
		libJWT.WithTimeFunc(cfg.Clock.Now),
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(cfg.Audiences...))
	}

	return &Symmetric{cfg: cfg, parser: libJWT.NewParser(opts...)}, nil
}

func (s *Symmetric) Generate(sub Subject) (Token, error) {
	now := s.cfg.Clock.Now()
	ttl := s.cfg.TTL
	if sub.Remember {
		ttl = s.cfg.RememberTTL
	}
	exp := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   strconv.FormatInt(sub.UserID, 10),
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(exp),
		},
		UserID:    sub.UserID,
		Username:  sub.Username,
		UserEmail: sub.Email,
		Role:      sub.Role,
		Remember:  sub.Remember,
		AMR:       slices.Clone(sub.Methods),
	}

	signed, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Verify returns ErrTokenExpired for an expired token and wraps every other
// failure in ErrInvalidToken.
func (s *Symmetric) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := s.parser.ParseWithClaims(token, &claims, func(t *libJWT.Token) (any, error) {
		if t.Method != libJWT.SigningMethodHS512 {
			return nil, ErrInvalidSigningMethod
		}
		return s.cfg.Secret, nil
	})

	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	default:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
}
