package qb

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
)

// scanIntoStruct scans the current row into dest, matching result columns to
// db-tagged struct fields by name. Unmapped result columns are discarded.
func scanIntoStruct(rows pgx.Rows, dest any, table *Table) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Pointer || destValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}
	destValue = destValue.Elem()

	fields := rows.FieldDescriptions()
	targets := make([]any, len(fields))

	for i, fd := range fields {
		col := table.Column(fd.Name)
		if col == nil {
			continue
		}
		field := destValue.FieldByName(col.GoField)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		targets[i] = field.Addr().Interface()
	}

	var discard any
	for i := range targets {
		if targets[i] == nil {
			targets[i] = &discard
		}
	}

	if err := rows.Scan(targets...); err != nil {
		return fmt.Errorf("failed to scan row: %w", err)
	}
	return nil
}

// insertColumns picks the column list for an INSERT over one or more rows.
// Auto columns never appear. An OmitZero column is dropped only when it is
// zero in every row; as soon as one row sets it, all rows write it
// explicitly, otherwise the database default would desync the other rows.
func insertColumns(table *Table, rows []reflect.Value) []string {
	var columns []string
	for _, col := range table.Columns {
		if col.Auto {
			continue
		}
		if col.OmitZero {
			set := false
			for _, row := range rows {
				field := row.FieldByName(col.GoField)
				if field.IsValid() && !field.IsZero() {
					set = true
					break
				}
			}
			if !set {
				continue
			}
		}
		columns = append(columns, col.Name)
	}
	return columns
}

// structValue unwraps a model into its struct reflect.Value.
func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be a struct")
	}
	return value, nil
}

// structToValuesFixed extracts values for an already-decided column list,
// keeping multi-row inserts aligned on the same columns.
func structToValuesFixed(value reflect.Value, table *Table, columns []string) ([]any, error) {
	values := make([]any, 0, len(columns))
	for _, name := range columns {
		col := table.Column(name)
		if col == nil {
			return nil, fmt.Errorf("unknown column %s", name)
		}
		field := value.FieldByName(col.GoField)
		if !field.IsValid() {
			return nil, fmt.Errorf("missing field %s", col.GoField)
		}
		values = append(values, field.Interface())
	}
	return values, nil
}

// collectRows scans all rows into a slice of T.
func collectRows[T any](rows pgx.Rows, table *Table) ([]T, error) {
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		if err := scanIntoStruct(rows, &item, table); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}
