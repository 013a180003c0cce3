package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const challengePrefix = "guard:challenge:"

// Cache keeps one challenge per session token in Redis.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("guard.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) GetChallenge(ctx context.Context, session string) (_ *entity.Challenge, err error) {
	ctx, span := c.startSpan(ctx, "GetChallenge")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, challengePrefix+session).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var ch entity.Challenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, err
	}

	return &ch, nil
}

func (c *Cache) PutChallenge(ctx context.Context, session string, ch entity.Challenge, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "PutChallenge")
	defer func() { c.endSpan(span, err) }()

	raw, err := json.Marshal(ch)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, challengePrefix+session, raw, ttl).Err()
}

func (c *Cache) ClearChallenge(ctx context.Context, session string) (err error) {
	ctx, span := c.startSpan(ctx, "ClearChallenge")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, challengePrefix+session).Err()
}
