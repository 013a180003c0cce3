package hash

import "strings"

// Hash hashes secrets and verifies plaintext against a stored hash.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// IsArgon2id reports whether hashed is a PHC encoded Argon2id hash.
func IsArgon2id(hashed string) bool {
	return strings.HasPrefix(hashed, argon2idPrefix)
}
