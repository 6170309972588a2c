// Package store is the persistence layer: one repository per resource,
// all built on the qb query builder over a shared pgx pool.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/pkg/qb"
)

// Store bundles the repositories over one connection pool.
type Store struct {
	Pool *pgxpool.Pool

	Users         *UserRepo
	Categories    *CategoryRepo
	Products      *ProductRepo
	Orders        *OrderRepo
	Consultations *ConsultationRepo
	Tips          *TipRepo
	Stories       *StoryRepo
	Messages      *MessageRepo
}

// New builds a Store over an open pool.
func New(pool *pgxpool.Pool) *Store {
	db := qb.New(pool)
	return &Store{
		Pool:          pool,
		Users:         &UserRepo{pool: pool, db: db},
		Categories:    &CategoryRepo{pool: pool, db: db},
		Products:      &ProductRepo{pool: pool, db: db},
		Orders:        &OrderRepo{pool: pool, db: db},
		Consultations: &ConsultationRepo{pool: pool, db: db},
		Tips:          &TipRepo{pool: pool, db: db},
		Stories:       &StoryRepo{pool: pool, db: db},
		Messages:      &MessageRepo{pool: pool, db: db},
	}
}

// Close releases the pool.
func (s *Store) Close() {
	s.Pool.Close()
}

// Postgres error codes the repositories translate into application errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
