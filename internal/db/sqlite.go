package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteSchema - схема хранилища SQLite, повторяющая миграции Postgres.
const SqliteSchema = `
CREATE TABLE IF NOT EXISTS app_user (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL UNIQUE,
    role       TEXT NOT NULL CHECK (role IN ('operator', 'investor')),
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS operation (
    id               TEXT PRIMARY KEY,
    operator_id      TEXT    NOT NULL REFERENCES app_user (id) ON DELETE RESTRICT,
    amount_required  TEXT    NOT NULL,
    interest_rate    TEXT    NOT NULL,
    deadline         TEXT    NOT NULL,
    amount_collected TEXT    NOT NULL DEFAULT '0',
    is_closed        INTEGER NOT NULL DEFAULT 0,
    created_at       TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS operation_open_deadline_idx ON operation (is_closed, deadline);

CREATE TABLE IF NOT EXISTS bid (
    id            TEXT PRIMARY KEY,
    operation_id  TEXT NOT NULL REFERENCES operation (id) ON DELETE CASCADE,
    investor_id   TEXT NOT NULL REFERENCES app_user (id) ON DELETE RESTRICT,
    amount        TEXT NOT NULL,
    interest_rate TEXT NOT NULL,
    bid_date      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS bid_operation_idx ON bid (operation_id, bid_date);
`

// OpenSqlite открывает базу SQLite по пути path и применяет схему.
// Пишущие транзакции открываются как BEGIN IMMEDIATE через единственное соединение.
func OpenSqlite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_foreign_keys=on&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, SqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unable to apply sqlite schema: %w", err)
	}
	return conn, nil
}
