// Package redact hides personal data before it leaves the process, either in
// user facing messages or in logs.
package redact

import (
	"strings"
)

// Email hides the local part of an address, keeping only its last two
// characters. Local parts of two characters or less are fully hidden. The
// domain is kept. Input that does not split into exactly two parts on '@' is
// returned unchanged.
//
//	Email("abcdef@x.com")   == "****ef@x.com"
//	Email("ab@example.com") == "**@example.com"
func Email(addr string) string {
	parts := strings.Split(addr, "@")
	if len(parts) != 2 {
		return addr
	}

	local := []rune(parts[0])
	keep := 2
	if len(local) <= keep {
		return strings.Repeat("*", len(local)) + "@" + parts[1]
	}

	return strings.Repeat("*", len(local)-keep) + string(local[len(local)-keep:]) + "@" + parts[1]
}

// Secret replaces any non-empty value with a fixed placeholder.
func Secret(v string) string {
	if v == "" {
		return ""
	}
	return "***"
}
