package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/lo"
)

const defaultShutdownTimeout = 10 * time.Second

// Start serves HTTP in the background. The returned channel is closed once a
// termination signal arrives or the listener fails.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})
	var once sync.Once
	finish := func() {
		once.Do(func() {
			a.cancel()
			close(done)
		})
	}

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		err := a.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			finish()
		}
	}()

	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("shutdown requested")
		finish()
	}()

	return done
}

// ShutdownTimeout bounds Stop, from app.server.shutdown_timeout_seconds.
func (a *App) ShutdownTimeout() time.Duration {
	return lo.CoalesceOrEmpty(a.config.GetSecond("app.server.shutdown_timeout_seconds"), defaultShutdownTimeout)
}

// Stop drains in-flight requests and background tasks, then releases
// resources.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown http server", "error", err)
	}

	if err := a.goroutine.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "background tasks ended with errors", "dropped", a.goroutine.Dropped(), "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}

// health reports whether the database and redis answer.
func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := errors.Join(a.dbConn.Ping(ctx), a.cacheConn.Ping(ctx).Err()); err != nil {
		slog.WarnContext(ctx, "health check failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"message":"` + status + `"}`))
}
