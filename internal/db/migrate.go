package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations. Safe to call on every
// start; a fully migrated database is a no-op.
func Migrate(dbURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	// golang-migrate selects its pgx/v5 driver by URL scheme
	url := "pgx5://" + strings.TrimPrefix(dbURL, "postgres://")

	m, err := migrate.NewWithSourceInstance("iofs", src, url)

	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}

	defer func() {
		_, _ = m.Close()
	}()

	err = m.Up()

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
