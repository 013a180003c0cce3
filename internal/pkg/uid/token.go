package uid

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// MinTokenBytes is the smallest accepted token entropy.
const MinTokenBytes = 16

// ErrTokenTooShort is returned for tokens below MinTokenBytes.
var ErrTokenTooShort = errors.New("uid: token must carry at least 16 random bytes")

// RandomToken generates unguessable URL safe identifiers, used where knowing
// the identifier grants access (OTP sessions) or must not be enumerable
// (export object keys).
type RandomToken struct {
	size int
}

func NewRandomToken(size int) (*RandomToken, error) {
	if size < MinTokenBytes {
		return nil, ErrTokenTooShort
	}
	return &RandomToken{size: size}, nil
}

// Generate returns size random bytes encoded as unpadded base64url.
func (g *RandomToken) Generate() string {
	b := make([]byte, g.size)
	// crypto/rand.Read does not fail on supported platforms.
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
