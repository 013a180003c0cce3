package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shandysiswandi/loginguard/internal/pkg/redact"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// LogRedaction lists attribute keys that must not reach log sinks verbatim.
type LogRedaction struct {
	// Secrets are replaced by "***" (passwords, codes, tokens).
	Secrets []string
	// Emails keep only their last two local-part characters.
	Emails []string
}

func initLogging(serviceName string, lp *sdklog.LoggerProvider, red LogRedaction) {
	sinks := []slog.Handler{slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})}
	if lp != nil {
		sinks = append(sinks, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp)))
	}

	var out slog.Handler = fanout(sinks)
	if len(sinks) == 1 {
		out = sinks[0]
	}

	slog.SetDefault(slog.New(&contextHandler{
		Handler:     &redactHandler{next: out, rules: newRedactRules(red)},
		serviceName: serviceName,
	}))
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", filepath.Join("internal", rel)+":"+strconv.Itoa(src.Line))
	}
	return a
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.serviceName))

	return h.Handler.Handle(ctx, r)
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

type redactRules struct {
	secrets map[string]struct{}
	emails  map[string]struct{}
}

func newRedactRules(red LogRedaction) redactRules {
	set := func(keys []string) map[string]struct{} {
		m := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				m[k] = struct{}{}
			}
		}
		return m
	}
	return redactRules{secrets: set(red.Secrets), emails: set(red.Emails)}
}

func (r redactRules) empty() bool {
	return len(r.secrets) == 0 && len(r.emails) == 0
}

// value returns the redacted form of v stored under key, and whether key is redacted.
func (r redactRules) value(key string, v any) (any, bool) {
	k := strings.ToLower(key)
	if _, ok := r.secrets[k]; ok {
		return "***", true
	}
	if _, ok := r.emails[k]; ok {
		if s, isStr := v.(string); isStr {
			return redact.Email(s), true
		}
		return "***", true
	}
	return nil, false
}

type redactHandler struct {
	next  slog.Handler
	rules redactRules
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.rules.empty() {
		return h.next.Handle(ctx, r)
	}

	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.attr(a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.attr(a)
	}
	return &redactHandler{next: h.next.WithAttrs(redacted), rules: h.rules}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), rules: h.rules}
}

func (h *redactHandler) attr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if v, ok := h.rules.value(a.Key, a.Value.Any()); ok {
		return slog.Any(a.Key, v)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = h.attr(ga)
		}
		a.Value = slog.GroupValue(redacted...)
	case slog.KindString:
		if s, ok := h.json([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(h.walk(v))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			a.Value = slog.AnyValue(h.walk(m))
		case []byte:
			if s, ok := h.json(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

// json redacts JSON documents logged as strings or raw bytes (request bodies).
func (h *redactHandler) json(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}
	b, err := json.Marshal(h.walk(doc))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (h *redactHandler) walk(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if red, ok := h.rules.value(k, inner); ok {
				out[k] = red
				continue
			}
			out[k] = h.walk(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = h.walk(inner)
		}
		return out
	default:
		return v
	}
}
