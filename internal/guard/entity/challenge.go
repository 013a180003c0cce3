package entity

import "time"

// ChallengeLifetime is how long an issued code stays valid.
const ChallengeLifetime = 600 * time.Second

// Subject is the user a challenge was issued for.
type Subject struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Recipient returns where codes for this subject are delivered.
func (s Subject) Recipient() Recipient {
	return Recipient{Email: s.Email, DisplayName: s.DisplayName}
}

// Challenge is the live OTP state of one login session.
//
// The plaintext code is never stored, only its HMAC digest.
type Challenge struct {
	CodeDigest string    `json:"code_digest"`
	Subject    Subject   `json:"subject"`
	IssuedAt   time.Time `json:"issued_at"`
	Attempts   int       `json:"attempts"`
	Resends    int       `json:"resends"`
	Remember   bool      `json:"remember"`
	OriginIP   string    `json:"origin_ip"`
}

// Expired reports whether more than ChallengeLifetime passed since issuance.
func (c Challenge) Expired(now time.Time) bool {
	return now.Sub(c.IssuedAt) > ChallengeLifetime
}

// Recipient is the delivery target of a code.
type Recipient struct {
	Email       string
	DisplayName string
}
