// Package repository holds the database/sql helpers shared by the domain
// repositories: typed row scanning, transactions with serialization retry,
// and Postgres error mapping.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc converts a Scanner into a typed value.
type ScanFunc[T any] func(Scanner) (T, error)

const retryStep = 10 * time.Millisecond

// WithTx runs fn in a transaction at the default isolation, committing when fn
// succeeds and rolling back otherwise.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	return inTx(ctx, db, nil, fn)
}

// WithRetry runs fn in a transaction with opts and restarts it from the
// beginning on serialization failure or deadlock, up to attempts times.
// The wait between attempts doubles from 10ms.
func WithRetry[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, attempts int, fn func(tx *sql.Tx) (T, error)) (T, error) {
	n := max(attempts, 1)
	wait := retryStep

	for attempt := 1; ; attempt++ {
		result, err := inTx(ctx, db, opts, fn)
		if err == nil || !IsSerializationFailure(err) {
			return result, err
		}
		if attempt == n {
			return result, fmt.Errorf("gave up after %d attempts: %w", n, err)
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func inTx[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return result, nil
}

// QueryOne scans the single row returned by query. A missing row surfaces
// as sql.ErrNoRows for MapError.
func QueryOne[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryMany scans every row returned by query. No rows yields an empty,
// non-nil slice so JSON responses carry [] rather than null.
func QueryMany[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	results := []T{}
	err := each(ctx, q, query, args, func(s Scanner) error {
		item, err := scan(s)
		if err != nil {
			return err
		}
		results = append(results, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// QueryStrings collects a single text column into a set, e.g. the content
// hashes already ledgered for a scope.
func QueryStrings(ctx context.Context, q Querier, query string, args ...any) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	err := each(ctx, q, query, args, func(s Scanner) error {
		var v string
		if err := s.Scan(&v); err != nil {
			return err
		}
		set[v] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func each(ctx context.Context, q Querier, query string, args []any, fn func(Scanner) error) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Exists runs a SELECT EXISTS(...) style query and returns its boolean.
func Exists(ctx context.Context, q Querier, query string, args ...any) (bool, error) {
	var ok bool
	err := q.QueryRowContext(ctx, query, args...).Scan(&ok)
	return ok, err
}

// ExecExpectOne executes a statement that must touch a row, returning
// sql.ErrNoRows when it touched none.
func ExecExpectOne(ctx context.Context, e Executor, query string, args ...any) error {
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	switch {
	case err != nil:
		return err
	case n == 0:
		return sql.ErrNoRows
	default:
		return nil
	}
}
