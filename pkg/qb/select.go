package qb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// OrderDirection is the sort direction for ORDER BY.
type OrderDirection string

const (
	Asc  OrderDirection = "ASC"
	Desc OrderDirection = "DESC"
)

type orderBy struct {
	column    string
	direction OrderDirection
}

// SelectQuery builds a SELECT statement for model T.
type SelectQuery[T any] struct {
	db        *DB
	table     *Table
	err       error
	columns   []string
	where     []Condition
	orderBy   []orderBy
	limit     *int
	offset    *int
	forUpdate bool
}

// Columns overrides the selected columns (default *).
func (q *SelectQuery[T]) Columns(cols ...string) *SelectQuery[T] {
	q.columns = cols
	return q
}

// Where adds a condition.
func (q *SelectQuery[T]) Where(conditions ...Condition) *SelectQuery[T] {
	q.where = append(q.where, conditions...)
	return q
}

// OrderByAsc adds an ascending ORDER BY.
func (q *SelectQuery[T]) OrderByAsc(column string) *SelectQuery[T] {
	q.orderBy = append(q.orderBy, orderBy{column, Asc})
	return q
}

// OrderByDesc adds a descending ORDER BY.
func (q *SelectQuery[T]) OrderByDesc(column string) *SelectQuery[T] {
	q.orderBy = append(q.orderBy, orderBy{column, Desc})
	return q
}

// Limit sets LIMIT.
func (q *SelectQuery[T]) Limit(n int) *SelectQuery[T] {
	q.limit = &n
	return q
}

// Offset sets OFFSET.
func (q *SelectQuery[T]) Offset(n int) *SelectQuery[T] {
	q.offset = &n
	return q
}

// ForUpdate locks the selected rows.
func (q *SelectQuery[T]) ForUpdate() *SelectQuery[T] {
	q.forUpdate = true
	return q
}

// ToSQL renders the statement and its arguments.
func (q *SelectQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	var sql strings.Builder
	sql.WriteString("SELECT ")
	if len(q.columns) == 0 {
		sql.WriteString("*")
	} else {
		sql.WriteString(strings.Join(q.columns, ", "))
	}
	sql.WriteString(" FROM ")
	sql.WriteString(q.table.Name)

	whereSQL, args, err := buildWhere(q.where, 1)
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
	}

	if len(q.orderBy) > 0 {
		parts := make([]string, len(q.orderBy))
		for i, o := range q.orderBy {
			parts[i] = o.column + " " + string(o.direction)
		}
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(parts, ", "))
	}

	if q.limit != nil {
		fmt.Fprintf(&sql, " LIMIT %d", *q.limit)
	}
	if q.offset != nil {
		fmt.Fprintf(&sql, " OFFSET %d", *q.offset)
	}
	if q.forUpdate {
		sql.WriteString(" FOR UPDATE")
	}

	return sql.String(), args, nil
}

// All executes the query and returns every matching row.
func (q *SelectQuery[T]) All(ctx context.Context) ([]T, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := q.db.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Query: sql, Err: err}
	}
	return collectRows[T](rows, q.table)
}

// First executes the query and returns the first row, or ErrNotFound.
func (q *SelectQuery[T]) First(ctx context.Context) (*T, error) {
	q.Limit(1)
	results, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}

// countSQL renders SELECT COUNT(*) with the query's conditions. A FOR UPDATE
// modifier is honored by locking the matching rows in a subquery, since
// aggregates cannot take the clause directly.
func (q *SelectQuery[T]) countSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	whereSQL, args, err := buildWhere(q.where, 1)
	if err != nil {
		return "", nil, err
	}

	var sql strings.Builder
	if q.forUpdate {
		sql.WriteString("SELECT COUNT(*) FROM (SELECT 1 FROM ")
		sql.WriteString(q.table.Name)
		if whereSQL != "" {
			sql.WriteString(" ")
			sql.WriteString(whereSQL)
		}
		sql.WriteString(" FOR UPDATE) locked")
	} else {
		sql.WriteString("SELECT COUNT(*) FROM ")
		sql.WriteString(q.table.Name)
		if whereSQL != "" {
			sql.WriteString(" ")
			sql.WriteString(whereSQL)
		}
	}
	return sql.String(), args, nil
}

// Count executes SELECT COUNT(*) with the query's conditions.
func (q *SelectQuery[T]) Count(ctx context.Context) (int64, error) {
	sql, args, err := q.countSQL()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := q.db.q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, &QueryError{Query: sql, Err: err}
	}
	return count, nil
}

// Exists reports whether any row matches the query.
func (q *SelectQuery[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
