package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		retryable bool
	}{
		{"no rows", pgx.ErrNoRows, models.ErrNotFound, false},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), models.ErrNotFound, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, models.ErrTxConflict, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, models.ErrTxConflict, true},
		{"lock not available", &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}, models.ErrTxConflict, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.ErrConflict, false},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, models.ErrConflict, false},
		{"numeric out of range", &pgconn.PgError{Code: "22003"}, models.ErrStorageFailure, false},
		{"connection error", errors.New("connection refused"), models.ErrStorageFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pgError("lock operation", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, tt.retryable, models.IsRetryable(got))
			if tt.want == models.ErrTxConflict {
				assert.ErrorIs(t, got, models.ErrStorageFailure)
			}
		})
	}
}
