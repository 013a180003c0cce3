package guard

import (
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/loginguard/internal/guard/inbound"
	"github.com/shandysiswandi/loginguard/internal/guard/outbound/cache"
	"github.com/shandysiswandi/loginguard/internal/guard/outbound/db"
	"github.com/shandysiswandi/loginguard/internal/guard/outbound/email"
	"github.com/shandysiswandi/loginguard/internal/guard/outbound/mq"
	"github.com/shandysiswandi/loginguard/internal/guard/outbound/storage"
	"github.com/shandysiswandi/loginguard/internal/guard/usecase"
	"github.com/shandysiswandi/loginguard/internal/pkg/clock"
	"github.com/shandysiswandi/loginguard/internal/pkg/config"
	"github.com/shandysiswandi/loginguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/loginguard/internal/pkg/hash"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/jwt"
	"github.com/shandysiswandi/loginguard/internal/pkg/lock"
	"github.com/shandysiswandi/loginguard/internal/pkg/mail"
	"github.com/shandysiswandi/loginguard/internal/pkg/messaging"
	"github.com/shandysiswandi/loginguard/internal/pkg/otp"
	"github.com/shandysiswandi/loginguard/internal/pkg/router"
	pkgStorage "github.com/shandysiswandi/loginguard/internal/pkg/storage"
	"github.com/shandysiswandi/loginguard/internal/pkg/uid"
	"github.com/shandysiswandi/loginguard/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Storage    pkgStorage.Storage         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Argon2ID   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Code       otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache:     cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoMail:      email.New(dep.Mail, dep.Instrument, dep.Config.GetString("modules.guard.site_name")),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument, dep.Config.GetString("modules.guard.events.topic")),
		RepoStorage:   storage.NewStorage(dep.Storage, dep.Instrument, dep.Config.GetString("modules.guard.export_bucket")),
		Locker:        lock.New(dep.CacheConn, dep.UUID),
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		Argon2ID:      dep.Argon2ID,
		Code:          dep.Code,
		UID:           dep.UID,
		OID:           dep.OID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
