package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrNotAcquired is returned when the lock is still held by someone else
	// after the wait budget is spent.
	ErrNotAcquired = errors.New("lock: not acquired")
	// ErrNotHeld is returned by a release whose token no longer owns the key.
	ErrNotHeld = errors.New("lock: not held")
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes work on a key across processes.
type Locker interface {
	Do(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

type tokenGenerator interface {
	Generate() string
}

// RedisLock is a single-instance Redis mutex (SET NX PX plus owner token).
type RedisLock struct {
	client *redis.Client
	token  tokenGenerator
	prefix string
}

// New creates a RedisLock; tokens identify the owner so a late release
// never deletes a lock taken over by another request.
func New(client *redis.Client, token tokenGenerator) *RedisLock {
	return &RedisLock{
		client: client,
		token:  token,
		prefix: "lock:",
	}
}

const (
	defaultTTL      = 10 * time.Second
	defaultWait     = 2 * time.Second
	defaultInterval = 50 * time.Millisecond
)

// Option tunes a single Do call.
type Option func(*options)

type options struct {
	ttl  time.Duration
	wait time.Duration
}

// WithTTL bounds how long the lock survives if the holder crashes.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithWait bounds how long Do waits for a busy lock. Zero means try once.
func WithWait(wait time.Duration) Option {
	return func(o *options) {
		o.wait = wait
	}
}

// Acquire takes the lock or returns ErrNotAcquired once the wait budget runs out.
// The returned function releases it.
func (l *RedisLock) Acquire(ctx context.Context, key string, opts ...Option) (func(context.Context) error, error) {
	o := &options{ttl: defaultTTL, wait: defaultWait}
	for _, opt := range opts {
		opt(o)
	}
	if o.ttl <= 0 {
		o.ttl = defaultTTL
	}

	fk := l.prefix + key
	token := l.token.Generate()

	try := func(ctx context.Context) error {
		ok, err := l.client.SetNX(ctx, fk, token, o.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	}

	var err error
	if o.wait <= 0 {
		err = try(ctx)
	} else {
		b := retry.NewConstant(defaultInterval)
		b = retry.WithJitterPercent(20, b)
		b = retry.WithMaxDuration(o.wait, b)
		err = retry.Do(ctx, b, try)
	}
	if err != nil {
		if errors.Is(err, ErrNotAcquired) {
			return nil, ErrNotAcquired
		}
		return nil, err
	}

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{fk}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, nil
}

// Do runs fn while holding the lock on key.
//
// The release error is returned only when fn itself succeeded.
func (l *RedisLock) Do(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) (err error) {
	release, err := l.Acquire(ctx, key, opts...)
	if err != nil {
		return err
	}

	defer func() {
		// release must outlive a canceled request context
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if rerr := release(rctx); rerr != nil && err == nil {
			err = rerr
		}
	}()

	return fn(ctx)
}
