package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/shandysiswandi/loginguard/internal/pkg/config"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/jwt"
	"github.com/shandysiswandi/loginguard/internal/pkg/stacktrace"
	"github.com/shandysiswandi/loginguard/internal/pkg/uid"
)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:errorlint,err113 // sentinel comparison by identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic while serving request",
				"route", routePattern(r), "panic", rvr, "stack", stacktrace.Frames(debug.Stack()))
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

const (
	// HeaderCorrelationID carries the request correlation id in and out.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted inbound when no correlation id is sent.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// validCorrelationID accepts ids made of [A-Za-z0-9._:-] only, so a caller
// cannot smuggle control characters or JSON into log lines.
func validCorrelationID(v string) bool {
	if v == "" || len(v) > maxCorrelationIDLen {
		return false
	}
	for _, c := range v {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := strings.TrimSpace(r.Header.Get(HeaderCorrelationID))
			if !validCorrelationID(cid) {
				cid = strings.TrimSpace(r.Header.Get(HeaderRequestID))
			}
			if !validCorrelationID(cid) {
				cid = ""
				if gen != nil {
					cid = gen.Generate()
				}
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints. An entry is either a route pattern matching any
// method ("/api/v1/guard/login"), a "METHOD pattern" pair, or "*" for all.
func middlewareMaintenance(cfg config.Config) Middleware {
	var all bool
	routes := make(map[string]struct{})
	if cfg != nil {
		for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
			entry = strings.Join(strings.Fields(entry), " ")
			switch {
			case entry == "":
			case entry == "*":
				all = true
			default:
				routes[entry] = struct{}{}
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pattern := routePattern(r)
			_, byPath := routes[pattern]
			_, byMethod := routes[r.Method+" "+pattern]
			if all || byPath || byMethod {
				w.Header().Set("Retry-After", "120")
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func middlewareAuthentication(verifier jwt.JWT) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			token = strings.TrimSpace(token)
			if !strings.EqualFold(scheme, "Bearer") || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="loginguard"`)
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				slog.WarnContext(r.Context(), "rejected bearer token", "route", routePattern(r), "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="loginguard", error="invalid_token"`)
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
