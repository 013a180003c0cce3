package entity

import (
	"time"
)

const (
	DefaultMaxAttempts          = 3
	DefaultMaxResends           = 2
	DefaultBlockDurationSeconds = 3600
)

// Policy is the abuse prevention configuration of the engine.
type Policy struct {
	OTPEnabled        bool
	MaxAttempts       int
	MaxResends        int
	BlockDuration     time.Duration
	IPBlockingEnabled bool
}

type policySource interface {
	Has(key string) bool
	GetBool(key string) bool
	GetInt(key string) int
}

// ParsePolicy reads modules.guard.* and applies defaults: zero or negative
// limits fall back to their default, and IP blocking is on unless explicitly
// disabled.
func ParsePolicy(cfg policySource) Policy {
	p := Policy{
		OTPEnabled:        cfg.GetBool("modules.guard.otp_enabled"),
		MaxAttempts:       positiveOr(cfg.GetInt("modules.guard.max_attempts"), DefaultMaxAttempts),
		MaxResends:        positiveOr(cfg.GetInt("modules.guard.max_resends"), DefaultMaxResends),
		BlockDuration:     time.Duration(positiveOr(cfg.GetInt("modules.guard.block_duration_seconds"), DefaultBlockDurationSeconds)) * time.Second,
		IPBlockingEnabled: true,
	}
	if cfg.Has("modules.guard.ip_blocking_enabled") {
		p.IPBlockingEnabled = cfg.GetBool("modules.guard.ip_blocking_enabled")
	}

	return p
}

// BlockedHours is the block duration rounded up to whole hours.
func (p Policy) BlockedHours() int {
	secs := int(p.BlockDuration / time.Second)
	return (secs + 3599) / 3600
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
