package entity

import "time"

// BlockEntry is one row of the IP block store.
type BlockEntry struct {
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Active reports whether the block still applies at now.
func (b BlockEntry) Active(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}

// Remaining is the time left until expiry, zero once expired.
func (b BlockEntry) Remaining(now time.Time) time.Duration {
	return max(b.ExpiresAt.Sub(now), 0)
}
