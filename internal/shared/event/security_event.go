package event

import "time"

// SecurityEventDestination is used when modules.guard.events.topic is empty.
const SecurityEventDestination string = "guard_security_events"

type SecurityEventMessage struct {
	ID         int64             `json:"id,string"`
	Kind       string            `json:"kind"`
	UserID     int64             `json:"user_id,omitempty"`
	Username   string            `json:"username,omitempty"`
	IP         string            `json:"ip,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Detail     map[string]string `json:"detail,omitempty"`
}
