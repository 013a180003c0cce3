package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/loginguard/internal/guard"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.guard.enabled") {
		if err := guard.New(guard.Dependency{
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			OID:        a.oid,
			Bcrypt:     a.bcrypt,
			HMAC:       a.hmac,
			Argon2ID:   a.argon2id,
			Clock:      a.clock,
			Code:       a.code,
			Validator:  a.validator,
			Router:     a.router,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Mail:       a.mail,
			Messaging:  a.messaging,
			Storage:    a.storage,
			Goroutine:  a.goroutine,
			JWT:        a.jwt,
			Enforcer:   a.casbin,
		}); err != nil {
			slog.Error("failed to init module guard", "error", err)
			os.Exit(1)
		}
	}
}
