package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skytecs/hermes/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, remote_operation_id, method, received_at, confirmed_at, last_error
func scanOperation(s scanner) (*ledger.Operation, error) {
	var (
		op          ledger.Operation
		confirmedAt sql.NullTime
		lastError   sql.NullString
	)

	if err := s.Scan(&op.ID, &op.RemoteOperationID, &op.Method, &op.ReceivedAt, &confirmedAt, &lastError); err != nil {
		return nil, err
	}

	if confirmedAt.Valid {
		op.ConfirmedAt = &confirmedAt.Time
	}

	if lastError.Valid {
		op.LastError = &lastError.String
	}

	return &op, nil
}

const selectOperationColumns = `id, remote_operation_id, method, received_at, confirmed_at, last_error`

func (s *Store) Create(ctx context.Context, op *ledger.Operation) error {
	query := `
		INSERT INTO operations (remote_operation_id, method, received_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := s.db.QueryRowContext(ctx, query, op.RemoteOperationID, op.Method, op.ReceivedAt).Scan(&op.ID); err != nil {
		return fmt.Errorf("creating operation: %w", err)
	}

	return nil
}

func (s *Store) FindConfirmed(ctx context.Context, remoteOperationID int64) (*ledger.Operation, error) {
	query := `SELECT ` + selectOperationColumns + `
		FROM operations
		WHERE remote_operation_id = $1 AND confirmed_at IS NOT NULL
		ORDER BY confirmed_at DESC
		LIMIT 1`

	op, err := scanOperation(s.db.QueryRowContext(ctx, query, remoteOperationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("finding confirmed operation: %w", err)
	}

	return op, nil
}

func (s *Store) MarkConfirmed(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE operations
		SET confirmed_at = $1, last_error = NULL
		WHERE id = $2
	`

	return s.update(ctx, "confirming operation", query, at, id)
}

func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE operations
		SET last_error = $1
		WHERE id = $2
	`

	return s.update(ctx, "recording operation error", query, message, id)
}

func (s *Store) List(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Operation, error) {
	query := `SELECT ` + selectOperationColumns + ` FROM operations`

	var args []any

	if filter.UnconfirmedOnly {
		query += " WHERE confirmed_at IS NULL"
	}

	query += " ORDER BY received_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT $1"

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*ledger.Operation

	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}

		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operation rows: %w", err)
	}

	return ops, nil
}

func (s *Store) update(ctx context.Context, action, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", action, ledger.ErrNotFound)
	}

	return nil
}
