package config

import (
	"testing"
	"time"
)

const sample = `
modules:
  guard:
    max_attempts: 5
    ip_blocking_enabled: false
    delivery_timeout_seconds: 10
casbin:
  policies: "p,admin,blocked_ips,read, p,admin,blocked_ips,write,"
  roles:
    - "g,alice,admin"
    - " "
mail:
  secret: aGVsbG8=
labels: "team:security,tier:1"
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	t.Run("Scalars", func(t *testing.T) {
		if got := cfg.GetInt("modules.guard.max_attempts"); got != 5 {
			t.Fatalf("GetInt() = %d, want 5", got)
		}
		if got := cfg.GetSecond("modules.guard.delivery_timeout_seconds"); got != 10*time.Second {
			t.Fatalf("GetSecond() = %v, want 10s", got)
		}
		if got := string(cfg.GetBinary("mail.secret")); got != "hello" {
			t.Fatalf("GetBinary() = %q, want hello", got)
		}
	})

	t.Run("HasDistinguishesExplicitFalse", func(t *testing.T) {
		if !cfg.Has("modules.guard.ip_blocking_enabled") {
			t.Fatalf("expected explicit false to be set")
		}
		if cfg.GetBool("modules.guard.ip_blocking_enabled") {
			t.Fatalf("expected false")
		}
		if cfg.Has("modules.guard.max_resends") {
			t.Fatalf("expected missing key to be unset")
		}
	})

	t.Run("ArrayFromCommaString", func(t *testing.T) {
		// Act
		got := cfg.GetArray("casbin.policies")

		// Assert
		want := []string{"p", "admin", "blocked_ips", "read", "p", "admin", "blocked_ips", "write"}
		if len(got) != len(want) {
			t.Fatalf("GetArray() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("GetArray()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("ArrayFromSequence", func(t *testing.T) {
		// Act
		got := cfg.GetArray("casbin.roles")

		// Assert
		if len(got) != 1 || got[0] != "g,alice,admin" {
			t.Fatalf("GetArray() = %v", got)
		}
	})

	t.Run("MissingArrayIsEmpty", func(t *testing.T) {
		if got := cfg.GetArray("app.server.cors"); len(got) != 0 {
			t.Fatalf("expected empty slice, got %v", got)
		}
	})

	t.Run("Map", func(t *testing.T) {
		got := cfg.GetMap("labels")
		if got["team"] != "security" || got["tier"] != "1" {
			t.Fatalf("GetMap() = %v", got)
		}
	})
}

func TestViperEnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("LOGINGUARD_MODULES_GUARD_MAX_RESENDS", "4")
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	// Act
	got := cfg.GetInt("modules.guard.max_resends")

	// Assert
	if got != 4 {
		t.Fatalf("GetInt() = %d, want 4", got)
	}
	if !cfg.Has("modules.guard.max_resends") {
		t.Fatalf("expected env override to count as set")
	}
}
