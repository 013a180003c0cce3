package usecase

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
)

// Stage orders interceptors around the primary credential check.
type Stage int

const (
	// StagePreCredential runs before username and password are checked.
	StagePreCredential Stage = iota
	// StagePostCredential runs after the credentials were accepted.
	StagePostCredential
)

// LoginAttempt is one login submission as it moves through the chain.
type LoginAttempt struct {
	Username string
	Password string
	ClientIP string
	Remember bool
	Policy   entity.Policy

	// User is set once primary credentials were accepted.
	User *entity.User
	// CredentialChecked is set once the credential check ran, whatever its result.
	CredentialChecked bool
}

// Interceptor may decide the outcome of a login attempt. A nil outcome hands
// the attempt to the next interceptor.
type Interceptor interface {
	Intercept(ctx context.Context, a *LoginAttempt) (*entity.Outcome, error)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(ctx context.Context, a *LoginAttempt) (*entity.Outcome, error)

func (f InterceptorFunc) Intercept(ctx context.Context, a *LoginAttempt) (*entity.Outcome, error) {
	return f(ctx, a)
}

type interceptorChain struct {
	mu     sync.RWMutex
	stages map[Stage][]Interceptor
}

func newInterceptorChain() *interceptorChain {
	return &interceptorChain{stages: make(map[Stage][]Interceptor)}
}

func (c *interceptorChain) Register(stage Stage, ic Interceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages[stage] = append(c.stages[stage], ic)
}

func (c *interceptorChain) run(ctx context.Context, stage Stage, a *LoginAttempt) (*entity.Outcome, error) {
	c.mu.RLock()
	ics := slices.Clone(c.stages[stage])
	c.mu.RUnlock()

	for _, ic := range ics {
		out, err := ic.Intercept(ctx, a)
		if err != nil || out != nil {
			return out, err
		}
	}

	return nil, nil
}

// ipBlockGate rejects attempts from blocked addresses before any credential work.
type ipBlockGate struct {
	s *Usecase
}

func (g ipBlockGate) Intercept(ctx context.Context, a *LoginAttempt) (*entity.Outcome, error) {
	if !a.Policy.IPBlockingEnabled || a.ClientIP == "" {
		return nil, nil
	}

	blocked, err := g.s.repoDB.IsBlocked(ctx, a.ClientIP, g.s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check blocked ip", "ip", a.ClientIP, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !blocked {
		return nil, nil
	}

	slog.WarnContext(ctx, "login attempt from blocked ip", "ip", a.ClientIP, "username", a.Username)
	out := entity.Blocked(a.Policy.BlockedHours())
	return &out, nil
}

// challengeIssuer starts the OTP step for accepted credentials.
type challengeIssuer struct {
	s *Usecase
}

func (ci challengeIssuer) Intercept(ctx context.Context, a *LoginAttempt) (*entity.Outcome, error) {
	if a.User == nil {
		return nil, nil
	}

	out, err := ci.s.issue(ctx, a)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
