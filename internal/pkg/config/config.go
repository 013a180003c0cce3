package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values as durations of the named unit.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// SignedIntConfig reads signed integers. Missing or malformed values read as 0.
type SignedIntConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
}

// UnsignedIntConfig reads unsigned integers. Missing or malformed values read as 0.
type UnsignedIntConfig interface {
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
}

// FloatConfig reads floating-point values.
type FloatConfig interface {
	GetFloat32(key string) float32
	GetFloat64(key string) float64
}

// Config is the read-only view of the service configuration.
//
// Getters never fail: a missing or unconvertible key yields the zero value.
// Use Has to tell "unset" apart from an explicit zero.
type Config interface {
	io.Closer
	TimeConfig
	SignedIntConfig
	UnsignedIntConfig
	FloatConfig

	// Has reports whether key is present in the file or the environment.
	Has(key string) bool

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray splits a "<a>,<b>,..." value (or reads a YAML list), trimming
	// blanks and dropping empty elements.
	GetArray(key string) []string

	// GetMap parses a "<k1>:<v1>,<k2>:<v2>" value.
	GetMap(key string) map[string]string
}
