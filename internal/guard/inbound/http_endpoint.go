package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/loginguard/internal/guard/usecase"
	"github.com/shandysiswandi/loginguard/internal/pkg/router"
)

// HTTPEndpoint exposes the login, OTP and blocked IP administration handlers.
type HTTPEndpoint struct {
	uc uc
}

// Login checks the password and starts the OTP step when required.
// @Summary Login
// @Description Validates credentials. When OTP is enabled a code is emailed and a session token is returned, otherwise an access token is issued.
// @Tags Guard, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "OTP challenge or access token"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "IP blocked"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Code delivery failed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/guard/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
		ClientIP: r.ClientIP(),
		Remember: req.Remember,
	})
	if err != nil {
		return nil, err
	}

	return fromOutcome(out, false)
}

// Verify checks an emailed code.
// @Summary Verify OTP
// @Description Checks the code of an OTP session and issues an access token on success. Repeated failures block the caller IP.
// @Tags Guard, Authentication
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Access token"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired code"
// @Failure 403 {object} router.errorResponse "Attempts exhausted or IP blocked"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Session busy"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/guard/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		SessionToken: req.SessionToken,
		Code:         req.Code,
		ClientIP:     r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return fromOutcome(out, false)
}

// Resend sends a new code for an OTP session.
// @Summary Resend OTP
// @Description Replaces the session code, resets the attempt counter and emails the new code.
// @Tags Guard, Authentication
// @Accept json
// @Produce json
// @Param request body ResendRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Session expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Resend limit reached"
// @Failure 502 {object} router.errorResponse "Code delivery failed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/guard/otp/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		SessionToken: req.SessionToken,
		ClientIP:     r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return fromOutcome(out, true)
}

// PolicyGet returns the effective policy.
// @Summary Get guard policy
// @Tags Guard, Administration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=PolicyResponse} "Effective policy"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/guard/policy [get]
func (h *HTTPEndpoint) PolicyGet(r *router.Request) (any, error) {
	p, err := h.uc.PolicyGet(r.Context())
	if err != nil {
		return nil, err
	}

	return PolicyResponse{
		OTPEnabled:           p.OTPEnabled,
		MaxAttempts:          p.MaxAttempts,
		MaxResends:           p.MaxResends,
		BlockDurationSeconds: int64(p.BlockDuration.Seconds()),
		BlockDurationHours:   p.BlockedHours(),
		IPBlockingEnabled:    p.IPBlockingEnabled,
	}, nil
}

// BlockedIPList lists blocked addresses.
// @Summary List blocked IPs
// @Tags Guard, Administration
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active blocks"
// @Success 200 {object} router.successResponse{data=BlockedIPListResponse} "Blocked IPs"
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/guard/blocked-ips [get]
func (h *HTTPEndpoint) BlockedIPList(r *router.Request) (any, error) {
	active, err := r.GetQueryBool("active")
	if err != nil {
		return nil, err
	}

	list, err := h.uc.BlockedIPList(r.Context(), usecase.BlockedIPListInput{ActiveOnly: active})
	if err != nil {
		return nil, err
	}

	return BlockedIPListResponse{
		Items: lo.Map(list, func(b usecase.BlockedIP, _ int) BlockedIP {
			return BlockedIP{
				IP:               b.IP,
				ExpiresAt:        b.ExpiresAt,
				CreatedAt:        b.CreatedAt,
				Status:           lo.Ternary(b.Active, "active", "expired"),
				RemainingSeconds: int64(b.Remaining.Seconds()),
			}
		}),
	}, nil
}

// BlockedIPUnblock removes one block.
// @Summary Unblock IP
// @Tags Guard, Administration
// @Produce json
// @Security BearerAuth
// @Param ip path string true "IP address"
// @Success 200 {object} router.successResponse{data=BlockedIPUnblockResponse} "Unblocked"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/guard/blocked-ips/{ip} [delete]
func (h *HTTPEndpoint) BlockedIPUnblock(r *router.Request) (any, error) {
	ip := r.GetParam("ip")
	if err := h.uc.BlockedIPUnblock(r.Context(), usecase.BlockedIPUnblockInput{IP: ip}); err != nil {
		return nil, err
	}

	return BlockedIPUnblockResponse{IP: ip}, nil
}

// BlockedIPClear removes every block.
// @Summary Clear blocked IPs
// @Tags Guard, Administration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=BlockedIPClearResponse} "Cleared"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/guard/blocked-ips [delete]
func (h *HTTPEndpoint) BlockedIPClear(r *router.Request) (any, error) {
	n, err := h.uc.BlockedIPClear(r.Context())
	if err != nil {
		return nil, err
	}

	return BlockedIPClearResponse{Cleared: n}, nil
}

// BlockedIPExport uploads the block list as CSV.
// @Summary Export blocked IPs
// @Description Writes the block list to object storage and returns a temporary download URL.
// @Tags Guard, Administration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BlockedIPExportRequest false "Export options"
// @Success 200 {object} router.successResponse{data=BlockedIPExportResponse} "Download link"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/guard/blocked-ips/export [post]
func (h *HTTPEndpoint) BlockedIPExport(r *router.Request) (any, error) {
	var req BlockedIPExportRequest
	if r.ContentLength != 0 {
		if err := r.DecodeBody(&req); err != nil {
			return nil, err
		}
	}

	out, err := h.uc.BlockedIPExport(r.Context(), usecase.BlockedIPExportInput{ActiveOnly: req.ActiveOnly})
	if err != nil {
		return nil, err
	}

	return BlockedIPExportResponse{
		URL:       out.URL,
		ExpiresAt: out.ExpiresAt,
		Count:     out.Count,
	}, nil
}
