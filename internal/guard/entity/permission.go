package entity

// Authorization objects and actions checked by the admin endpoints.
const (
	PermPolicy     = "guard.policy"
	PermBlockedIPs = "guard.blocked_ips"

	ActRead  = "read"
	ActWrite = "write"
)
