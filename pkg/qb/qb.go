// Package qb provides a type-safe PostgreSQL query builder on top of pgx.
package qb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations the builder needs. It is satisfied
// by both *pgxpool.Pool and pgx.Tx, so the same query types run inside and
// outside transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a Querier and is the entry point for building queries.
type DB struct {
	q Querier
}

// New creates a DB from any Querier.
func New(q Querier) *DB {
	return &DB{q: q}
}

// Connect opens a pgx connection pool from a URL and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Querier returns the underlying Querier.
func (d *DB) Querier() Querier {
	return d.q
}

// Exec runs a raw statement and returns the number of affected rows.
func (d *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := d.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, &QueryError{Query: sql, Err: err}
	}
	return tag.RowsAffected(), nil
}

// Select creates a type-safe SELECT query.
// Usage: qb.Select[User](db).Where(qb.Eq("id", 1)).First(ctx)
func Select[T any](d *DB) *SelectQuery[T] {
	var model T
	table, err := tableFor(model)
	return &SelectQuery[T]{db: d, table: table, err: err, columns: []string{"*"}}
}

// Insert creates a type-safe INSERT query.
// Usage: qb.Insert[User](db).Values(user).One(ctx)
func Insert[T any](d *DB) *InsertQuery[T] {
	var model T
	table, err := tableFor(model)
	return &InsertQuery[T]{db: d, table: table, err: err}
}

// Update creates a type-safe UPDATE query.
// Usage: qb.Update[User](db).Set("name", "Ada").Where(qb.Eq("id", 1)).Exec(ctx)
func Update[T any](d *DB) *UpdateQuery[T] {
	var model T
	table, err := tableFor(model)
	return &UpdateQuery[T]{db: d, table: table, err: err}
}

// Delete creates a type-safe DELETE query.
// Usage: qb.Delete[User](db).Where(qb.Eq("id", 1)).Exec(ctx)
func Delete[T any](d *DB) *DeleteQuery[T] {
	var model T
	table, err := tableFor(model)
	return &DeleteQuery[T]{db: d, table: table, err: err}
}
