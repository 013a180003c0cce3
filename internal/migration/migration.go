// Package migration applies the embedded SQL schema with golang-migrate.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

var (
	// ErrEmptyDSN is returned when no database url is configured.
	ErrEmptyDSN = errors.New("migration: database url is empty")
	// ErrDirection is returned for anything other than up or down.
	ErrDirection = errors.New("migration: direction must be up or down")
)

// Direction selects which way the schema moves.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Run applies all migrations in the given direction. Being already at the
// target version is not an error.
func Run(dsn string, direction Direction) error {
	if strings.TrimSpace(dsn) == "" {
		return ErrEmptyDSN
	}
	if direction != Up && direction != Down {
		return fmt.Errorf("%w, got %q", ErrDirection, direction)
	}

	src, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == Up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// ApplyUp is Run(dsn, Up), shaped for testkit.Postgres setup hooks.
func ApplyUp(dsn string) error {
	return Run(dsn, Up)
}
