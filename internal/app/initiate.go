package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/loginguard/internal/migration"
	"github.com/shandysiswandi/loginguard/internal/pkg/clock"
	"github.com/shandysiswandi/loginguard/internal/pkg/config"
	"github.com/shandysiswandi/loginguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/loginguard/internal/pkg/hash"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/jwt"
	"github.com/shandysiswandi/loginguard/internal/pkg/mail"
	"github.com/shandysiswandi/loginguard/internal/pkg/messaging"
	"github.com/shandysiswandi/loginguard/internal/pkg/otp"
	"github.com/shandysiswandi/loginguard/internal/pkg/router"
	"github.com/shandysiswandi/loginguard/internal/pkg/storage"
	"github.com/shandysiswandi/loginguard/internal/pkg/uid"
	"github.com/shandysiswandi/loginguard/internal/pkg/validator"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		Redaction: instrument.LogRedaction{
			Secrets: a.config.GetArray("instrument.log_redact.secrets"),
			Emails:  a.config.GetArray("instrument.log_redact.emails"),
		},
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(goroutine.Config{
		Limit:       a.config.GetInt("app.server.max_goroutine"),
		TaskTimeout: a.config.GetSecond("app.server.task_timeout_seconds"),
	})
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.argon2id = hash.NewArgon2idWithParams(a.config.GetString("hash.argon2id.pepper"), hash.Argon2idParams{
		Memory:        lo.CoalesceOrEmpty(a.config.GetUint32("hash.argon2id.memory_kib"), hash.DefaultArgon2idParams.Memory),
		Iterations:    lo.CoalesceOrEmpty(a.config.GetUint32("hash.argon2id.iterations"), hash.DefaultArgon2idParams.Iterations),
		Parallelism:   lo.CoalesceOrEmpty(uint8(a.config.GetUint("hash.argon2id.parallelism")), hash.DefaultArgon2idParams.Parallelism),
		SaltLength:    hash.DefaultArgon2idParams.SaltLength,
		KeyLength:     hash.DefaultArgon2idParams.KeyLength,
		MaxConcurrent: lo.CoalesceOrEmpty(a.config.GetInt("hash.argon2id.max_concurrent"), hash.DefaultArgon2idParams.MaxConcurrent),
	})
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	token, err := uid.NewRandomToken(lo.CoalesceOrEmpty(a.config.GetInt("modules.guard.session_token_bytes"), 32))
	if err != nil {
		slog.Error("failed to init uid random token", "error", err)
		os.Exit(1)
	}
	a.oid = token

	code, err := otp.NewRandomCode(libOTP.DigitsSix)
	if err != nil {
		slog.Error("failed to init otp code generator", "error", err)
		os.Exit(1)
	}
	a.code = code
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:      []byte(a.config.GetString("jwt.secret")),
		Issuer:      a.config.GetString("jwt.issuer"),
		Audiences:   a.config.GetArray("jwt.audiences"),
		TTL:         a.config.GetMinute("jwt.ttl_minutes"),
		RememberTTL: a.config.GetDay("jwt.remember_ttl_days"),
		Leeway:      a.config.GetSecond("jwt.leeway_seconds"),
		Clock:       a.clock,
		UUID:        a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

// pingBackoff retries startup pings while dependencies come up.
func pingBackoff() retry.Backoff {
	b := retry.NewExponential(250 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxDuration(15*time.Second, b)
}

func (a *App) initDatabase() {
	dsn := a.config.GetString("database.url")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	err = retry.Do(a.ctx, pingBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("database.migrate") {
		if err := migration.Run(dsn, migration.Up); err != nil {
			slog.Error("failed to migrate DB", "error", err)
			os.Exit(1)
		}
		slog.Info("database schema is up to date")
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	err = retry.Do(a.ctx, pingBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initMail() {
	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			ProjectID:       strings.TrimSpace(a.config.GetString("storage.gcs.project_id")),
			CredentialsFile: strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")),
			CredentialsJSON: a.config.GetBinary("storage.gcs.credentials_json"),
			Endpoint:        strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")),
			WithoutAuth:     a.config.GetBool("storage.gcs.without_auth"),
			GoogleAccessID:  strings.TrimSpace(a.config.GetString("storage.gcs.signer_access_id")),
			PrivateKey:      a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err, "driver", driver)
		os.Exit(1)
	}

	bucket := a.config.GetString("modules.guard.export_bucket")
	if bucket != "" && a.config.GetBool("storage.ensure_bucket") {
		err := retry.Do(a.ctx, pingBackoff(), func(ctx context.Context) error {
			return retry.RetryableError(stg.EnsureBucket(ctx, bucket))
		})
		if err != nil {
			slog.Error("failed to ensure export bucket", "error", err, "driver", driver, "bucket", bucket)
			os.Exit(1)
		}
	}

	a.storage = stg
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			BatchTimeout: time.Duration(a.config.GetInt64("messaging.kafka.batch_timeout_ms")) * time.Millisecond,
		},
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("messaging.nats.name"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			CredentialsFile: a.config.GetString("messaging.pubsub.credentials_file"),
			Endpoint:        a.config.GetString("messaging.pubsub.endpoint"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initCasbin() {
	e, err := newEnforcer(a.config.GetArray("casbin.policies"), a.config.GetArray("casbin.roles"))
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	a.casbin = e
}

// newEnforcer builds an in-memory enforcer. Policy lines are
// "<sub> <obj> <act>" and role lines are "<member> <role>".
func newEnforcer(policies, roles []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, line := range policies {
		f := strings.Fields(line)
		if len(f) != 3 {
			slog.Warn("skipping malformed casbin policy", "line", line)
			continue
		}
		if _, err := e.AddPolicy(f[0], f[1], f[2]); err != nil {
			return nil, err
		}
	}

	for _, line := range roles {
		f := strings.Fields(line)
		if len(f) != 2 {
			slog.Warn("skipping malformed casbin role", "line", line)
			continue
		}
		if _, err := e.AddGroupingPolicy(f[0], f[1]); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})
	a.router.Raw(http.MethodGet, "/health", http.HandlerFunc(a.health), router.Public())

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

// initClosers lists resources released by Stop, in order. Instrument goes
// last so errors from the others are still exported.
func (a *App) initClosers() {
	a.closers = []closer{
		{name: "messaging", fn: withoutContext(a.messaging.Close)},
		{name: "mail", fn: withoutContext(a.mail.Close)},
		{name: "storage", fn: withoutContext(a.storage.Close)},
		{name: "redis", fn: withoutContext(a.cacheConn.Close)},
		{name: "database", fn: func(context.Context) error {
			a.dbConn.Close()
			return nil
		}},
		{name: "config", fn: withoutContext(a.config.Close)},
		{name: "instrument", fn: a.ins.Shutdown},
	}
}

func withoutContext(fn func() error) func(context.Context) error {
	return func(context.Context) error { return fn() }
}
