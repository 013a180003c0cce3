package entity

import "time"

type SecurityEventKind string

const (
	EventChallengeIssued SecurityEventKind = "guard.challenge_issued"
	EventIPBlocked       SecurityEventKind = "guard.ip_blocked"
	EventLoginSucceeded  SecurityEventKind = "guard.login_succeeded"
	EventIPUnblocked     SecurityEventKind = "guard.ip_unblocked"
	EventBlocksCleared   SecurityEventKind = "guard.blocks_cleared"
)

// SecurityEvent is published to the broker after security relevant state changes.
type SecurityEvent struct {
	ID         int64
	Kind       SecurityEventKind
	UserID     int64
	Username   string
	IP         string
	OccurredAt time.Time
	Detail     map[string]string
}
