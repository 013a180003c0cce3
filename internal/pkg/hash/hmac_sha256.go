package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 produces hex encoded HMAC-SHA256 digests under a server secret.
// It is deterministic, so it suits secrets that are compared once and then
// thrown away (one-time codes), not passwords.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	sum := s.sum(str)
	return hex.AppendEncode(nil, sum), nil
}

// Verify decodes hashed and compares it with the digest of str in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	want, err := hex.DecodeString(hashed)
	if err != nil || len(want) != sha256.Size {
		return false
	}
	return hmac.Equal(want, s.sum(str))
}

func (s *HMACSHA256) sum(str string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(str))
	return m.Sum(nil)
}
