package qb

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// InsertQuery builds an INSERT statement for model T.
type InsertQuery[T any] struct {
	db           *DB
	table        *Table
	err          error
	values       []T
	returning    []string
	conflictCols []string
	conflictSkip bool
}

// Values appends one or more rows to insert.
func (q *InsertQuery[T]) Values(values ...T) *InsertQuery[T] {
	q.values = append(q.values, values...)
	return q
}

// Returning sets the RETURNING columns.
func (q *InsertQuery[T]) Returning(columns ...string) *InsertQuery[T] {
	q.returning = columns
	return q
}

// OnConflictDoNothing adds ON CONFLICT [(columns)] DO NOTHING.
func (q *InsertQuery[T]) OnConflictDoNothing(columns ...string) *InsertQuery[T] {
	q.conflictCols = columns
	q.conflictSkip = true
	return q
}

// ToSQL renders the statement and its arguments.
func (q *InsertQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if len(q.values) == 0 {
		return "", nil, fmt.Errorf("no values to insert")
	}

	rows := make([]reflect.Value, len(q.values))
	for i := range q.values {
		value, err := structValue(q.values[i])
		if err != nil {
			return "", nil, fmt.Errorf("failed to extract values from row %d: %w", i, err)
		}
		rows[i] = value
	}
	// The column set is the union across all rows: an omitzero column that
	// is zero in the first row but set in a later one must still appear.
	columns := insertColumns(q.table, rows)

	var sql strings.Builder
	var args []any
	paramNum := 1

	sql.WriteString("INSERT INTO ")
	sql.WriteString(q.table.Name)
	sql.WriteString(" (")
	sql.WriteString(strings.Join(columns, ", "))
	sql.WriteString(") VALUES ")

	rowClauses := make([]string, len(q.values))
	for i, row := range rows {
		rowValues, err := structToValuesFixed(row, q.table, columns)
		if err != nil {
			return "", nil, fmt.Errorf("failed to extract values from row %d: %w", i, err)
		}

		placeholders := make([]string, len(rowValues))
		for j := range rowValues {
			placeholders[j] = fmt.Sprintf("$%d", paramNum)
			paramNum++
			args = append(args, rowValues[j])
		}
		rowClauses[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}
	sql.WriteString(strings.Join(rowClauses, ", "))

	if q.conflictSkip {
		sql.WriteString(" ON CONFLICT")
		if len(q.conflictCols) > 0 {
			sql.WriteString(" (")
			sql.WriteString(strings.Join(q.conflictCols, ", "))
			sql.WriteString(")")
		}
		sql.WriteString(" DO NOTHING")
	}

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), args, nil
}

// Exec executes the INSERT and returns the number of inserted rows.
func (q *InsertQuery[T]) Exec(ctx context.Context) (int64, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	return q.db.Exec(ctx, sql, args...)
}

// ExecReturning executes the INSERT and returns the inserted rows.
func (q *InsertQuery[T]) ExecReturning(ctx context.Context) ([]T, error) {
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

// One executes the INSERT of a single row and returns it.
func (q *InsertQuery[T]) One(ctx context.Context) (*T, error) {
	results, err := q.ExecReturning(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}
