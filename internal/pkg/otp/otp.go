package otp

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/pquerna/otp"
)

// ErrInvalidDigits is returned when the generator is configured with an
// unsupported code length.
var ErrInvalidDigits = errors.New("otp: digits must be 6 or 8")

// Generator produces one-time codes delivered out of band (email, SMS).
type Generator interface {
	// Generate returns a fixed-width, zero-padded numeric code.
	Generate() (string, error)
}

// RandomCode generates uniformly distributed numeric codes from crypto/rand.
type RandomCode struct {
	digits otp.Digits
	max    *big.Int
}

// NewRandomCode constructs a RandomCode of the given width.
//
// Only 6 and 8 digit codes are accepted, matching what authenticator style
// inputs expect.
func NewRandomCode(digits otp.Digits) (*RandomCode, error) {
	var upper int64
	switch digits {
	case otp.DigitsSix:
		upper = 1_000_000
	case otp.DigitsEight:
		upper = 100_000_000
	default:
		return nil, ErrInvalidDigits
	}

	return &RandomCode{digits: digits, max: big.NewInt(upper)}, nil
}

// Generate returns a code in [0, 10^digits) formatted with leading zeros.
func (g *RandomCode) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		return "", err
	}

	return g.digits.Format(int32(n.Int64())), nil
}

// Length returns the number of characters of generated codes.
func (g *RandomCode) Length() int {
	return g.digits.Length()
}
