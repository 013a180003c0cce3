package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(&contextHandler{
		Handler: &redactHandler{
			next: slog.NewJSONHandler(buf, nil),
			rules: newRedactRules(LogRedaction{
				Secrets: []string{"password", "Code"},
				Emails:  []string{"email"},
			}),
		},
		serviceName: "loginguard",
	})
}

func TestRedactHandler(t *testing.T) {
	t.Run("SecretsAndEmails", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		log := newTestLogger(&buf)
		ctx := SetCorrelationID(context.Background(), "cid-1")

		// Act
		log.InfoContext(ctx, "challenge issued", "code", "123456", "email", "abcdef@x.com", "ip", "10.0.0.1")

		// Assert
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if got["code"] != "***" {
			t.Fatalf("expected code redacted, got %v", got["code"])
		}
		if got["email"] != "****ef@x.com" {
			t.Fatalf("expected email masked, got %v", got["email"])
		}
		if got["ip"] != "10.0.0.1" {
			t.Fatalf("expected ip untouched, got %v", got["ip"])
		}
		if got["_cID"] != "cid-1" || got["service"] != "loginguard" {
			t.Fatalf("expected correlation and service attrs, got %v", got)
		}
	})

	t.Run("JSONBody", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		log := newTestLogger(&buf)

		// Act
		log.Info("request", "body", `{"username":"jane","password":"hunter22"}`)

		// Assert
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		var body map[string]any
		if err := json.Unmarshal([]byte(got["body"].(string)), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["password"] != "***" || body["username"] != "jane" {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("WithAttrs", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		log := newTestLogger(&buf).With("password", "secret")

		// Act
		log.Info("x")

		// Assert
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if got["password"] != "***" {
			t.Fatalf("expected password redacted, got %v", got["password"])
		}
	})
}

func TestCorrelationID(t *testing.T) {
	if GetCorrelationID(context.Background()) != "" {
		t.Fatalf("expected empty correlation id")
	}
	ctx := SetCorrelationID(context.Background(), "abc")
	if GetCorrelationID(ctx) != "abc" {
		t.Fatalf("expected stored correlation id")
	}
}
