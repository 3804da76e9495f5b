package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations применяет миграции из migrationURL к базе dbSource.
// Возвращает true, если схема изменилась.
func RunMigrations(migrationURL, dbSource string) (bool, error) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		return false, fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	defer func() { _, _ = migration.Close() }()

	if err = migration.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("failed to run migrate up: %w", err)
	}
	return true, nil
}

// RollbackMigrations откатывает все миграции.
func RollbackMigrations(migrationURL, dbSource string) error {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		return fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	defer func() { _, _ = migration.Close() }()

	if err = migration.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate down: %w", err)
	}
	return nil
}
