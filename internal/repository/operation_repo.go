package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const selectOperation = `SELECT id, operator_id, amount_required::text, interest_rate::text, deadline,
	       amount_collected::text, is_closed, created_at
	FROM operation`

// PostgresOperationRepository - реализация OperationRepository для базы данных.
type PostgresOperationRepository struct {
	DB          *pgxpool.Pool
	LockTimeout time.Duration
}

// NewPostgresOperationRepository создаёт новый экземпляр PostgresOperationRepository.
func NewPostgresOperationRepository(db *pgxpool.Pool, lockTimeout time.Duration) *PostgresOperationRepository {
	return &PostgresOperationRepository{DB: db, LockTimeout: lockTimeout}
}

// CreateOperation сохраняет новую операцию.
func (r *PostgresOperationRepository) CreateOperation(ctx context.Context, op *models.Operation) error {
	insertQuery := `INSERT INTO operation (id, operator_id, amount_required, interest_rate, deadline, amount_collected, is_closed, created_at)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		op.ID,
		op.OperatorID,
		op.AmountRequired.String(),
		op.InterestRate.String(),
		op.Deadline,
		op.AmountCollected.String(),
		op.IsClosed,
		op.CreatedAt)
	if err != nil {
		return pgError("create operation", err)
	}
	return nil
}

// GetOperation возвращает операцию по ID.
func (r *PostgresOperationRepository) GetOperation(ctx context.Context, operationId string) (*models.Operation, error) {
	op, err := scanOperation(r.DB.QueryRow(ctx, selectOperation+` WHERE id = $1`, operationId))
	if err != nil {
		return nil, pgError("get operation", err)
	}
	return op, nil
}

// ListOpenOperations возвращает список активных операций.
func (r *PostgresOperationRepository) ListOpenOperations(ctx context.Context, today time.Time) ([]models.Operation, error) {
	query := selectOperation + `
		WHERE NOT is_closed AND deadline >= $1
		ORDER BY created_at`
	rows, err := r.DB.Query(ctx, query, today)
	if err != nil {
		return nil, pgError("list operations", err)
	}
	defer rows.Close()

	operations := make([]models.Operation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, pgError("scan operation", err)
		}
		operations = append(operations, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("list operations", err)
	}
	return operations, nil
}

// DeleteOperation удаляет операцию вместе с её предложениями.
func (r *PostgresOperationRepository) DeleteOperation(ctx context.Context, operationId string) (bool, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM operation WHERE id = $1`, operationId)
	if err != nil {
		return false, pgError("delete operation", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CloseExpiredOperations закрывает операции с истекшим дедлайном.
func (r *PostgresOperationRepository) CloseExpiredOperations(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `UPDATE operation SET is_closed = TRUE WHERE NOT is_closed AND deadline < $1`, today)
	if err != nil {
		return 0, pgError("close expired operations", err)
	}
	return tag.RowsAffected(), nil
}

// WithLockedOperation блокирует строку операции (SELECT ... FOR UPDATE) и выполняет fn в той же транзакции.
func (r *PostgresOperationRepository) WithLockedOperation(ctx context.Context, operationId string, fn LockedOperationFunc) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return pgError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.LockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.LockTimeout.Milliseconds())); err != nil {
			return pgError("set lock timeout", err)
		}
	}

	op, err := scanOperation(tx.QueryRow(ctx, selectOperation+` WHERE id = $1 FOR UPDATE`, operationId))
	if err != nil {
		return pgError("lock operation", err)
	}

	if err := fn(ctx, op, &pgFundingTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return pgError("commit transaction", err)
	}
	return nil
}

// pgFundingTx - записи внутри транзакции приема предложения.
type pgFundingTx struct {
	tx pgx.Tx
}

// InsertBid сохраняет предложение в текущей транзакции.
func (t *pgFundingTx) InsertBid(ctx context.Context, bid *models.Bid) error {
	insertQuery := `INSERT INTO bid (id, operation_id, investor_id, amount, interest_rate, bid_date)
	                VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.Exec(
		ctx,
		insertQuery,
		bid.ID,
		bid.OperationID,
		bid.InvestorID,
		bid.Amount.String(),
		bid.InterestRate.String(),
		bid.BidDate)
	if err != nil {
		return pgError("insert bid", err)
	}
	return nil
}

// UpdateCollected записывает собранную сумму и признак закрытия операции.
func (t *pgFundingTx) UpdateCollected(ctx context.Context, operationId string, collected decimal.Decimal, closed bool) error {
	tag, err := t.tx.Exec(ctx, `UPDATE operation SET amount_collected = $2, is_closed = $3 WHERE id = $1`,
		operationId, collected.String(), closed)
	if err != nil {
		return pgError("update amount collected", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (*models.Operation, error) {
	var (
		op                        models.Operation
		required, rate, collected string
	)
	err := row.Scan(
		&op.ID,
		&op.OperatorID,
		&required,
		&rate,
		&op.Deadline,
		&collected,
		&op.IsClosed,
		&op.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if op.AmountRequired, err = decimal.NewFromString(required); err != nil {
		return nil, fmt.Errorf("failed to parse amount_required: %w", err)
	}
	if op.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
	}
	if op.AmountCollected, err = decimal.NewFromString(collected); err != nil {
		return nil, fmt.Errorf("failed to parse amount_collected: %w", err)
	}
	op.Deadline = models.DateOf(op.Deadline)
	op.CreatedAt = op.CreatedAt.UTC()
	return &op, nil
}
