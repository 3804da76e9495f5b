package models

import (
	"errors"
	"fmt"
)

// Ошибки уровня домена. Обработчики переводят их в HTTP-статусы.
var (
	ErrNotFound              = errors.New("not found")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrOperationClosed       = errors.New("operation is closed")
	ErrOperationExpired      = errors.New("operation expired by date")
	ErrAmountExceedsCapacity = errors.New("amount of the bid exceeds the value")
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("conflict")
	ErrStorageFailure        = errors.New("storage failure")

	// ErrTxConflict - временный конфликт транзакций, запрос можно повторить.
	ErrTxConflict = fmt.Errorf("%w: transaction conflict", ErrStorageFailure)
)

// ValidationError описывает ошибку валидации конкретного поля.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrValidation
}

// IsRetryable сообщает, можно ли повторить операцию после ошибки.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTxConflict)
}

// IsBusinessRule сообщает, является ли ошибка нарушением правил приема предложений.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrOperationClosed) ||
		errors.Is(err, ErrOperationExpired) ||
		errors.Is(err, ErrAmountExceedsCapacity) ||
		errors.Is(err, ErrPermissionDenied)
}
