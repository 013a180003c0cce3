package inbound

import (
	"context"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/guard/usecase"
	"github.com/shandysiswandi/loginguard/internal/pkg/router"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (entity.Outcome, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (entity.Outcome, error)
	Resend(ctx context.Context, in usecase.ResendInput) (entity.Outcome, error)

	PolicyGet(ctx context.Context) (*entity.Policy, error)
	BlockedIPList(ctx context.Context, in usecase.BlockedIPListInput) ([]usecase.BlockedIP, error)
	BlockedIPUnblock(ctx context.Context, in usecase.BlockedIPUnblockInput) error
	BlockedIPClear(ctx context.Context) (int64, error)
	BlockedIPExport(ctx context.Context, in usecase.BlockedIPExportInput) (*usecase.BlockedIPExportOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Login & OTP (public)
	r.POST("/api/v1/guard/login", end.Login, router.Public())
	r.POST("/api/v1/guard/otp/verify", end.Verify, router.Public())
	r.POST("/api/v1/guard/otp/resend", end.Resend, router.Public())

	// Administration (need authenticated & authorization)
	r.GET("/api/v1/guard/policy", end.PolicyGet)
	r.GET("/api/v1/guard/blocked-ips", end.BlockedIPList)
	r.DELETE("/api/v1/guard/blocked-ips", end.BlockedIPClear)
	r.DELETE("/api/v1/guard/blocked-ips/:ip", end.BlockedIPUnblock)
	r.POST("/api/v1/guard/blocked-ips/export", end.BlockedIPExport)
}
