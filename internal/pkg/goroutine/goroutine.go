package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/loginguard/internal/pkg/stacktrace"
)

// DefaultLimit caps in-flight tasks when Config.Limit is not positive.
const DefaultLimit = 64

// ErrPanic wraps a recovered task panic in the error returned by Shutdown.
var ErrPanic = errors.New("goroutine: task panicked")

type Config struct {
	// Limit is the maximum number of tasks running at once. Tasks submitted
	// beyond it are dropped.
	Limit int
	// TaskTimeout bounds every task. Zero means no bound.
	TaskTimeout time.Duration
}

// Manager runs fire-and-forget work (event publishing, audit writes) off the
// request path. Tasks outlive the request that scheduled them, so they
// receive a context detached from its cancellation.
type Manager struct {
	cfg     Config
	slots   chan struct{}
	wg      sync.WaitGroup
	closing atomic.Bool
	dropped atomic.Int64

	mu   sync.Mutex
	errs []error
}

func NewManager(cfg Config) *Manager {
	if cfg.Limit < 1 {
		cfg.Limit = DefaultLimit
	}

	return &Manager{cfg: cfg, slots: make(chan struct{}, cfg.Limit)}
}

// Go schedules task under name. It never blocks: when the manager is
// shutting down or saturated the task is dropped and logged.
func (m *Manager) Go(ctx context.Context, name string, task func(ctx context.Context) error) {
	if m == nil {
		return
	}
	if m.closing.Load() {
		slog.WarnContext(ctx, "background task rejected, manager is shutting down", "task", name)
		return
	}

	select {
	case m.slots <- struct{}{}:
	default:
		m.dropped.Add(1)
		slog.WarnContext(ctx, "background task dropped, limit reached", "task", name, "limit", m.cfg.Limit)
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() { <-m.slots }()

		m.run(context.WithoutCancel(ctx), name, task)
	}()
}

func (m *Manager) run(ctx context.Context, name string, task func(ctx context.Context) error) {
	if m.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.TaskTimeout)
		defer cancel()
	}

	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		slog.ErrorContext(ctx, "background task panicked", "task", name, "panic", rvr,
			"stack", stacktrace.Frames(debug.Stack()))
		m.record(errors.Join(ErrPanic, errors.New(name)))
	}()

	if err := task(ctx); err != nil {
		m.record(err)
	}
}

func (m *Manager) record(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}

// Dropped reports how many tasks were rejected because the limit was reached.
func (m *Manager) Dropped() int64 {
	if m == nil {
		return 0
	}
	return m.dropped.Load()
}

// Shutdown stops accepting tasks and waits for running ones until ctx ends.
// It returns the task errors collected so far, joined with ctx.Err() when
// the wait was cut short.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.closing.Store(true)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return errors.Join(append(m.errs, waitErr)...)
}
