package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

// Argon2idParams are the cost parameters of newly created hashes. Verification
// always uses the parameters encoded in the stored hash.
type Argon2idParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MaxConcurrent bounds simultaneous derivations; 0 disables the limit.
	MaxConcurrent int
}

// DefaultArgon2idParams follows the OWASP minimum for Argon2id.
var DefaultArgon2idParams = Argon2idParams{
	Memory:        19 * 1024,
	Iterations:    2,
	Parallelism:   1,
	SaltLength:    16,
	KeyLength:     32,
	MaxConcurrent: 4,
}

// Argon2id implements Hash with Argon2id and the PHC string format.
type Argon2id struct {
	params Argon2idParams
	pepper string
	sem    chan struct{}
}

// NewArgon2id returns a hasher using DefaultArgon2idParams.
func NewArgon2id(pepper string) *Argon2id {
	return NewArgon2idWithParams(pepper, DefaultArgon2idParams)
}

func NewArgon2idWithParams(pepper string, p Argon2idParams) *Argon2id {
	a := &Argon2id{params: p, pepper: pepper}
	if p.MaxConcurrent > 0 {
		a.sem = make(chan struct{}, p.MaxConcurrent)
	}
	return a
}

// Hash derives a new salted hash of str.
func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := a.derive(str, salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Appendf(nil, "%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		a.params.Memory,
		a.params.Iterations,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether str matches hashed. Malformed hashes never match.
func (a *Argon2id) Verify(hashed, str string) bool {
	if str == "" || !IsArgon2id(hashed) {
		return false
	}

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}
	if memory == 0 || iterations == 0 || parallelism == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := a.derive(str, salt, iterations, memory, parallelism, uint32(len(want)))

	return subtle.ConstantTimeCompare(want, got) == 1
}

func (a *Argon2id) derive(str string, salt []byte, t, m uint32, p uint8, keyLen uint32) []byte {
	if a.sem != nil {
		a.sem <- struct{}{}
		defer func() { <-a.sem }()
	}

	return argon2.IDKey([]byte(str+a.pepper), salt, t, m, p, keyLen)
}
