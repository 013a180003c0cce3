package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/samber/lo"
	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/clock"
	"github.com/shandysiswandi/loginguard/internal/pkg/config"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/loginguard/internal/pkg/hash"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/jwt"
	"github.com/shandysiswandi/loginguard/internal/pkg/lock"
	"github.com/shandysiswandi/loginguard/internal/pkg/otp"
	"github.com/shandysiswandi/loginguard/internal/pkg/uid"
	"github.com/shandysiswandi/loginguard/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetUserByLogin(ctx context.Context, login string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)

	IsBlocked(ctx context.Context, ip string, now time.Time) (bool, error)
	Block(ctx context.Context, ip string, expiresAt time.Time) error
	Unblock(ctx context.Context, ip string) error
	ClearAll(ctx context.Context) (int64, error)
	ListBlocks(ctx context.Context) ([]entity.BlockEntry, error)
}

type repoCache interface {
	GetChallenge(ctx context.Context, session string) (*entity.Challenge, error)
	PutChallenge(ctx context.Context, session string, c entity.Challenge, ttl time.Duration) error
	ClearChallenge(ctx context.Context, session string) error
}

type repoMail interface {
	SendCode(ctx context.Context, to entity.Recipient, code string) error
}

type repoMessaging interface {
	PublishSecurityEvent(ctx context.Context, ev entity.SecurityEvent) error
}

type repoStorage interface {
	Upload(ctx context.Context, key, contentType string, body []byte, urlTTL time.Duration) (string, error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMail      repoMail
	repoMessaging repoMessaging
	repoStorage   repoStorage
	locker        lock.Locker
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	bcrypt        hash.Hash
	argon2id      hash.Hash
	code          otp.Generator
	uid           uid.NumberID
	oid           uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer
	goroutine     *goroutine.Manager
	chain         *interceptorChain
	outcomes      metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMail      repoMail
	RepoMessaging repoMessaging
	RepoStorage   repoStorage
	Locker        lock.Locker
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	Argon2ID      hash.Hash
	Code          otp.Generator
	UID           uid.NumberID
	OID           uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Enforcer      *casbin.Enforcer
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMail:      dep.RepoMail,
		repoMessaging: dep.RepoMessaging,
		repoStorage:   dep.RepoStorage,
		locker:        dep.Locker,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		argon2id:      dep.Argon2ID,
		code:          dep.Code,
		uid:           dep.UID,
		oid:           dep.OID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		goroutine:     dep.Goroutine,
	}

	counter, err := s.ins.Meter("guard.usecase").Int64Counter("guard.outcomes",
		metric.WithDescription("Number of OTP engine outcomes by kind"))
	if err != nil {
		slog.Error("failed to create guard outcome counter", "error", err)
	}
	s.outcomes = counter

	s.chain = newInterceptorChain()
	s.chain.Register(StagePreCredential, ipBlockGate{s: s})
	s.chain.Register(StagePostCredential, challengeIssuer{s: s})

	return s
}

// Use appends an interceptor to stage. Interceptors run in registration order.
func (s *Usecase) Use(stage Stage, ic Interceptor) {
	s.chain.Register(stage, ic)
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("guard.usecase").Start(ctx, name)
}

type settings struct {
	challengeTTL    time.Duration
	deliveryTimeout time.Duration
	lockTTL         time.Duration
	lockWait        time.Duration
	exportURLTTL    time.Duration
}

func (s *Usecase) settings() settings {
	return settings{
		challengeTTL:    lo.CoalesceOrEmpty(s.cfg.GetSecond("modules.guard.challenge_ttl_seconds"), 15*time.Minute),
		deliveryTimeout: lo.CoalesceOrEmpty(s.cfg.GetSecond("modules.guard.delivery_timeout_seconds"), 10*time.Second),
		lockTTL:         lo.CoalesceOrEmpty(s.cfg.GetSecond("modules.guard.lock_ttl_seconds"), 10*time.Second),
		lockWait:        lo.CoalesceOrEmpty(time.Duration(s.cfg.GetInt64("modules.guard.lock_wait_ms"))*time.Millisecond, 2*time.Second),
		exportURLTTL:    lo.CoalesceOrEmpty(s.cfg.GetMinute("modules.guard.export_url_ttl_minutes"), 15*time.Minute),
	}
}

func (s *Usecase) record(ctx context.Context, o entity.Outcome) entity.Outcome {
	if s.outcomes != nil {
		s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", o.Kind.String())))
	}
	return o
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := s.enforcer.Enforce(clm.Role, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		slog.WarnContext(ctx, "admin operation denied", "user_id", clm.UserID, "role", clm.Role, "object", obj, "action", act)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}
