package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: app.server.http.address is read
// from LOGINGUARD_APP_SERVER_HTTP_ADDRESS when set.
const EnvPrefix = "LOGINGUARD"

var ErrConfigType = errors.New("config: type is required")

type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at path (format from its extension) and watches
// it, so policy knobs such as modules.guard.max_attempts take effect without
// a restart.
func NewViper(path string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		slog.Info("config file changed, values reloaded", "path", ev.Name, "op", ev.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes reads an in-memory document of the given type ("yaml",
// "json", "toml"). Nothing is watched.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigType
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Viper) Has(key string) bool { return c.v.IsSet(key) }

func (c *Viper) GetBool(key string) bool     { return c.v.GetBool(key) }
func (c *Viper) GetString(key string) string { return c.v.GetString(key) }

func (c *Viper) GetInt(key string) int       { return c.v.GetInt(key) }
func (c *Viper) GetInt32(key string) int32   { return c.v.GetInt32(key) }
func (c *Viper) GetInt64(key string) int64   { return c.v.GetInt64(key) }
func (c *Viper) GetUint(key string) uint     { return c.v.GetUint(key) }
func (c *Viper) GetUint16(key string) uint16 { return c.v.GetUint16(key) }
func (c *Viper) GetUint32(key string) uint32 { return c.v.GetUint32(key) }
func (c *Viper) GetUint64(key string) uint64 { return c.v.GetUint64(key) }

func (c *Viper) GetFloat32(key string) float32 { return cast.ToFloat32(c.v.Get(key)) }
func (c *Viper) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

// Durations are stored as plain integers whose unit is named by the getter,
// matching the *_seconds, *_minutes and *_days key suffixes.
func (c *Viper) units(key string, unit time.Duration) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * unit
}

func (c *Viper) GetSecond(key string) time.Duration { return c.units(key, time.Second) }
func (c *Viper) GetMinute(key string) time.Duration { return c.units(key, time.Minute) }
func (c *Viper) GetHour(key string) time.Duration   { return c.units(key, time.Hour) }
func (c *Viper) GetDay(key string) time.Duration    { return c.units(key, 24*time.Hour) }

// GetBinary decodes a standard base64 value; malformed input reads as nil.
func (c *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(c.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray reads a YAML sequence as is, or splits a scalar on commas (the
// form environment overrides take). Blank items are dropped.
func (c *Viper) GetArray(key string) []string {
	var items []string
	switch raw := c.v.Get(key).(type) {
	case []any:
		items = cast.ToStringSlice(raw)
	case []string:
		items = raw
	default:
		items = strings.Split(cast.ToString(raw), ",")
	}

	return lo.Compact(lo.Map(items, func(s string, _ int) string { return strings.TrimSpace(s) }))
}

// GetMap parses "k1:v1,k2:v2". Pairs without a colon are skipped.
func (c *Viper) GetMap(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range c.GetArray(key) {
		if k, v, ok := strings.Cut(pair, ":"); ok {
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return out
}

// Close satisfies io.Closer; viper holds no resources worth releasing.
func (c *Viper) Close() error { return nil }
