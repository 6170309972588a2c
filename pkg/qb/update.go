package qb

import (
	"context"
	"fmt"
	"strings"
)

type setClause struct {
	column string
	value  any
	raw    string // raw SQL expression, used instead of a placeholder when set
}

// UpdateQuery builds an UPDATE statement for model T.
type UpdateQuery[T any] struct {
	db        *DB
	table     *Table
	err       error
	sets      []setClause
	where     []Condition
	returning []string
}

// Set assigns a column to a parameterized value.
func (q *UpdateQuery[T]) Set(column string, value any) *UpdateQuery[T] {
	q.sets = append(q.sets, setClause{column: column, value: value})
	return q
}

// SetRaw assigns a column to a raw SQL expression, e.g.
// SetRaw("likes_count", "likes_count + 1"). The expression is not
// parameterized; never pass user input.
func (q *UpdateQuery[T]) SetRaw(column, expr string) *UpdateQuery[T] {
	q.sets = append(q.sets, setClause{column: column, raw: expr})
	return q
}

// Where adds a condition.
func (q *UpdateQuery[T]) Where(conditions ...Condition) *UpdateQuery[T] {
	q.where = append(q.where, conditions...)
	return q
}

// Returning sets the RETURNING columns.
func (q *UpdateQuery[T]) Returning(columns ...string) *UpdateQuery[T] {
	q.returning = columns
	return q
}

// ToSQL renders the statement and its arguments.
func (q *UpdateQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if len(q.sets) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}

	var sql strings.Builder
	var args []any
	paramNum := 1

	sql.WriteString("UPDATE ")
	sql.WriteString(q.table.Name)
	sql.WriteString(" SET ")

	setParts := make([]string, len(q.sets))
	for i, set := range q.sets {
		if set.raw != "" {
			setParts[i] = fmt.Sprintf("%s = %s", set.column, set.raw)
			continue
		}
		setParts[i] = fmt.Sprintf("%s = $%d", set.column, paramNum)
		args = append(args, set.value)
		paramNum++
	}
	sql.WriteString(strings.Join(setParts, ", "))

	whereSQL, whereArgs, err := buildWhere(q.where, paramNum)
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), args, nil
}

// Exec executes the UPDATE and returns the number of affected rows.
func (q *UpdateQuery[T]) Exec(ctx context.Context) (int64, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	return q.db.Exec(ctx, sql, args...)
}

// ExecReturning executes the UPDATE and returns the updated rows.
func (q *UpdateQuery[T]) ExecReturning(ctx context.Context) ([]T, error) {
	if len(q.returning) == 0 {
		q.Returning("*")
	}

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

// One executes the UPDATE and returns the single updated row, or ErrNotFound.
func (q *UpdateQuery[T]) One(ctx context.Context) (*T, error) {
	results, err := q.ExecReturning(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}
