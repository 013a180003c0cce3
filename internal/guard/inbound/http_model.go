package inbound

import (
	"strconv"
	"time"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// LoginResponse carries either a pending OTP step or a finished session.
type LoginResponse struct {
	OTPRequired      bool   `json:"otp_required"`
	SessionToken     string `json:"session_token,omitempty"`
	MaskedEmail      string `json:"masked_email,omitempty"`
	RemainingResends *int   `json:"remaining_resends,omitempty"`
	AccessToken      string `json:"access_token,omitempty"`
	ExpiresIn        int64  `json:"expires_in,omitempty"`
	Remember         bool   `json:"remember,omitempty"`

	message string
}

func (r LoginResponse) Message() string {
	return r.message
}

type VerifyRequest struct {
	SessionToken string `json:"session_token"`
	Code         string `json:"code"`
}

type ResendRequest struct {
	SessionToken string `json:"session_token"`
}

type PolicyResponse struct {
	OTPEnabled           bool  `json:"otp_enabled"`
	MaxAttempts          int   `json:"max_attempts"`
	MaxResends           int   `json:"max_resends"`
	BlockDurationSeconds int64 `json:"block_duration_seconds"`
	BlockDurationHours   int   `json:"block_duration_hours"`
	IPBlockingEnabled    bool  `json:"ip_blocking_enabled"`
}

type BlockedIP struct {
	IP               string    `json:"ip"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	Status           string    `json:"status"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

type BlockedIPListResponse struct {
	Items []BlockedIP `json:"items"`
}

func (r BlockedIPListResponse) Meta() map[string]any {
	return map[string]any{"total": len(r.Items)}
}

type BlockedIPUnblockResponse struct {
	IP string `json:"ip"`
}

func (r BlockedIPUnblockResponse) Message() string {
	return "IP " + r.IP + " has been unblocked"
}

type BlockedIPClearResponse struct {
	Cleared int64 `json:"cleared"`
}

func (r BlockedIPClearResponse) Message() string {
	return strconv.FormatInt(r.Cleared, 10) + " blocked IP(s) cleared"
}

type BlockedIPExportRequest struct {
	ActiveOnly bool `json:"active_only"`
}

type BlockedIPExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Count     int       `json:"count"`
}
