package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// sqliteTimeLayout сохраняет сортируемость строк времени.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	sqliteSelectOperation = `SELECT id, operator_id, amount_required, interest_rate, deadline, amount_collected, is_closed, created_at FROM operation`
	sqliteSelectBid       = `SELECT id, operation_id, investor_id, amount, interest_rate, bid_date FROM bid`
)

// SqliteStore - реализация репозиториев поверх SQLite.
// Транзакции открываются как BEGIN IMMEDIATE, поэтому пишущие транзакции выполняются по очереди.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore создает хранилище поверх открытого соединения SQLite.
func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{db: db}
}

// CreateUser сохраняет нового пользователя.
func (s *SqliteStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO app_user (id, username, role, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Username, string(user.Role), formatSqliteTime(user.CreatedAt),
	)
	if err != nil {
		return sqliteError("create user", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по ID.
func (s *SqliteStore) GetUserByID(ctx context.Context, userId string) (*models.User, error) {
	return s.getUser(ctx, "id", userId)
}

// GetUserByUsername возвращает пользователя по username.
func (s *SqliteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *SqliteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	var (
		user      models.User
		role      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, role, created_at FROM app_user WHERE "+column+" = ?", value,
	).Scan(&user.ID, &user.Username, &role, &createdAt)
	if err != nil {
		return nil, sqliteError("get user", err)
	}
	user.Role = models.Role(role)
	if user.CreatedAt, err = parseSqliteTime(createdAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser удаляет пользователя.
func (s *SqliteStore) DeleteUser(ctx context.Context, userId string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM app_user WHERE id = ?", userId)
	if err != nil {
		return false, sqliteError("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, sqliteError("delete user", err)
	}
	return n > 0, nil
}

// CreateOperation сохраняет новую операцию.
func (s *SqliteStore) CreateOperation(ctx context.Context, op *models.Operation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operation (id, operator_id, amount_required, interest_rate, deadline, amount_collected, is_closed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID,
		op.OperatorID,
		op.AmountRequired.String(),
		op.InterestRate.String(),
		op.Deadline.Format(models.DateLayout),
		op.AmountCollected.String(),
		op.IsClosed,
		formatSqliteTime(op.CreatedAt),
	)
	if err != nil {
		return sqliteError("create operation", err)
	}
	return nil
}

// GetOperation возвращает операцию по ID.
func (s *SqliteStore) GetOperation(ctx context.Context, operationId string) (*models.Operation, error) {
	op, err := scanSqliteOperation(s.db.QueryRowContext(ctx, sqliteSelectOperation+" WHERE id = ?", operationId))
	if err != nil {
		return nil, sqliteError("get operation", err)
	}
	return op, nil
}

// ListOpenOperations возвращает список активных операций.
func (s *SqliteStore) ListOpenOperations(ctx context.Context, today time.Time) ([]models.Operation, error) {
	rows, err := s.db.QueryContext(ctx,
		sqliteSelectOperation+" WHERE is_closed = 0 AND deadline >= ? ORDER BY created_at",
		today.Format(models.DateLayout),
	)
	if err != nil {
		return nil, sqliteError("list operations", err)
	}
	defer rows.Close()

	operations := make([]models.Operation, 0)
	for rows.Next() {
		op, err := scanSqliteOperation(rows)
		if err != nil {
			return nil, sqliteError("scan operation", err)
		}
		operations = append(operations, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError("list operations", err)
	}
	return operations, nil
}

// DeleteOperation удаляет операцию вместе с её предложениями.
func (s *SqliteStore) DeleteOperation(ctx context.Context, operationId string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM operation WHERE id = ?", operationId)
	if err != nil {
		return false, sqliteError("delete operation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, sqliteError("delete operation", err)
	}
	return n > 0, nil
}

// CloseExpiredOperations закрывает операции с истекшим дедлайном.
func (s *SqliteStore) CloseExpiredOperations(ctx context.Context, today time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE operation SET is_closed = 1 WHERE is_closed = 0 AND deadline < ?",
		today.Format(models.DateLayout),
	)
	if err != nil {
		return 0, sqliteError("close expired operations", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, sqliteError("close expired operations", err)
	}
	return n, nil
}

// WithLockedOperation выполняет fn в транзакции BEGIN IMMEDIATE.
func (s *SqliteStore) WithLockedOperation(ctx context.Context, operationId string, fn LockedOperationFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sqliteError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	op, err := scanSqliteOperation(tx.QueryRowContext(ctx, sqliteSelectOperation+" WHERE id = ?", operationId))
	if err != nil {
		return sqliteError("lock operation", err)
	}

	if err := fn(ctx, op, &sqliteFundingTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return sqliteError("commit transaction", err)
	}
	return nil
}

// GetBid возвращает предложение по ID.
func (s *SqliteStore) GetBid(ctx context.Context, bidId string) (*models.Bid, error) {
	bid, err := scanSqliteBid(s.db.QueryRowContext(ctx, sqliteSelectBid+" WHERE id = ?", bidId))
	if err != nil {
		return nil, sqliteError("get bid", err)
	}
	return bid, nil
}

// ListOperationBids возвращает список предложений по операции.
func (s *SqliteStore) ListOperationBids(ctx context.Context, operationId string, limit, offset int) ([]models.Bid, error) {
	rows, err := s.db.QueryContext(ctx,
		sqliteSelectBid+" WHERE operation_id = ? ORDER BY bid_date, id LIMIT ? OFFSET ?",
		operationId, limit, offset,
	)
	if err != nil {
		return nil, sqliteError("list bids", err)
	}
	defer rows.Close()

	bids := make([]models.Bid, 0)
	for rows.Next() {
		bid, err := scanSqliteBid(rows)
		if err != nil {
			return nil, sqliteError("scan bid", err)
		}
		bids = append(bids, *bid)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError("list bids", err)
	}
	return bids, nil
}

type sqliteFundingTx struct {
	tx *sql.Tx
}

func (t *sqliteFundingTx) InsertBid(ctx context.Context, bid *models.Bid) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO bid (id, operation_id, investor_id, amount, interest_rate, bid_date) VALUES (?, ?, ?, ?, ?, ?)",
		bid.ID,
		bid.OperationID,
		bid.InvestorID,
		bid.Amount.String(),
		bid.InterestRate.String(),
		formatSqliteTime(bid.BidDate),
	)
	if err != nil {
		return sqliteError("insert bid", err)
	}
	return nil
}

func (t *sqliteFundingTx) UpdateCollected(ctx context.Context, operationId string, collected decimal.Decimal, closed bool) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE operation SET amount_collected = ?, is_closed = ? WHERE id = ?",
		collected.String(), closed, operationId,
	)
	if err != nil {
		return sqliteError("update amount collected", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanSqliteOperation(row rowScanner) (*models.Operation, error) {
	var (
		op                        models.Operation
		required, rate, collected string
		deadline, createdAt       string
	)
	err := row.Scan(&op.ID, &op.OperatorID, &required, &rate, &deadline, &collected, &op.IsClosed, &createdAt)
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
	if op.Deadline, err = time.ParseInLocation(models.DateLayout, deadline, time.UTC); err != nil {
		return nil, fmt.Errorf("failed to parse deadline: %w", err)
	}
	if op.CreatedAt, err = parseSqliteTime(createdAt); err != nil {
		return nil, err
	}
	return &op, nil
}

func scanSqliteBid(row rowScanner) (*models.Bid, error) {
	var (
		bid                   models.Bid
		amount, rate, bidDate string
	)
	err := row.Scan(&bid.ID, &bid.OperationID, &bid.InvestorID, &amount, &rate, &bidDate)
	if err != nil {
		return nil, err
	}
	if bid.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if bid.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
	}
	if bid.BidDate, err = parseSqliteTime(bidDate); err != nil {
		return nil, err
	}
	return &bid, nil
}

func formatSqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSqliteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// sqliteError переводит ошибку драйвера SQLite в доменную ошибку.
func sqliteError(action string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%s: %w: %s", action, models.ErrTxConflict, sqErr.Error())
		case sqlite3.ErrConstraint:
			return fmt.Errorf("%s: %w: %s", action, models.ErrConflict, sqErr.Error())
		}
	}
	return fmt.Errorf("%s: %w: %w", action, models.ErrStorageFailure, err)
}
