package repository

import (
	"errors"
	"fmt"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Коды ошибок PostgreSQL, после которых транзакцию можно повторить.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
)

// pgError переводит ошибку драйвера в доменную ошибку.
func pgError(action string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%s: %w: %s", action, models.ErrTxConflict, pgErr.Message)
		case pgUniqueViolation, pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", action, models.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w: %w", action, models.ErrStorageFailure, err)
}
