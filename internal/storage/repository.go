// Package storage persists the ledger in SQLite. It is the service-side
// source of truth: every record handed back to a client comes from a
// read-after-write of this store, never from request echo.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no transaction matches the given id.
var ErrNotFound = errors.New("transaction not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const listQuery = `
SELECT id, title, amount_cents, kind, category, occurred_at
FROM transactions
ORDER BY occurred_at DESC, id DESC`

// ListTransactions returns the whole ledger in canonical order:
// most recent occurrence first, insertion order as tiebreak.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	items := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return items, nil
}

const getQuery = `
SELECT id, title, amount_cents, kind, category, occurred_at
FROM transactions
WHERE id = ?`

// GetTransaction retrieves a single record by its opaque id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	rowID, err := parseID(id)
	if err != nil {
		return core.Transaction{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, getQuery, rowID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

const insertQuery = `
INSERT INTO transactions (title, amount_cents, kind, category, occurred_at)
VALUES (?, ?, ?, ?, ?)`

// CreateTransaction stores a validated draft and returns the canonical
// record, id included.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, d core.Draft) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, insertQuery,
		d.Title, d.Amount.Cents, string(d.Kind), d.Category, formatTime(d.OccurredAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", rowID,
		"title", d.Title,
		"amount_cents", d.Amount.Cents,
		"kind", d.Kind)

	return r.GetTransaction(ctx, strconv.FormatInt(rowID, 10))
}

const updateQuery = `
UPDATE transactions
SET title = ?, amount_cents = ?, kind = ?, category = ?, occurred_at = ?,
    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
WHERE id = ?`

// UpdateTransaction replaces a record's fields and returns the updated
// canonical record. ErrNotFound if no record has that id.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	rowID, err := parseID(id)
	if err != nil {
		return core.Transaction{}, ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, updateQuery,
		d.Title, d.Amount.Cents, string(d.Kind), d.Category, formatTime(d.OccurredAt), rowID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, ErrNotFound
	}

	return r.GetTransaction(ctx, id)
}

const deleteQuery = `DELETE FROM transactions WHERE id = ?`

// DeleteTransaction removes a record. ErrNotFound if nothing matched.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	rowID, err := parseID(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, deleteQuery, rowID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		rowID      int64
		t          core.Transaction
		kind       string
		occurredAt string
	)
	if err := row.Scan(&rowID, &t.Title, &t.Amount.Cents, &kind, &t.Category, &occurredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.ID = strconv.FormatInt(rowID, 10)
	t.Kind = core.Kind(kind)
	ts, err := time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
	}
	t.OccurredAt = ts
	return t, nil
}

// formatTime stores timestamps as UTC RFC 3339 text with a fixed-width
// fraction so the occurred_at index sorts chronologically as plain
// strings.
func formatTime(ts time.Time) string {
	return ts.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
