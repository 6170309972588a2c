package qb

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagKey is the struct tag key the builder reads (e.g. `db:"email,omitzero"`).
const TagKey = "db"

// Tabler lets a model declare its table name explicitly.
type Tabler interface {
	TableName() string
}

// Column describes a mapped struct field.
type Column struct {
	Name     string // database column name
	GoField  string // Go struct field name
	PK       bool   // primary key
	Auto     bool   // generated by the database, never written on insert
	OmitZero bool   // skipped on insert when the Go value is zero (DB default applies)
}

// Table holds the metadata extracted from a model struct.
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the column with the given database name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// registry caches parsed table metadata per struct type.
var registry = struct {
	mu     sync.RWMutex
	tables map[reflect.Type]*Table
}{tables: make(map[reflect.Type]*Table)}

// tableFor parses (and caches) the table metadata for a model value.
func tableFor(model any) (*Table, error) {
	typ := reflect.TypeOf(model)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: model must be a struct, got %v", ErrInvalidModel, typ)
	}

	registry.mu.RLock()
	table, ok := registry.tables[typ]
	registry.mu.RUnlock()
	if ok {
		return table, nil
	}

	table = &Table{Name: tableName(model, typ)}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get(TagKey)
		if tag == "" || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		col := Column{Name: parts[0], GoField: field.Name}
		if col.Name == "" {
			col.Name = toSnakeCase(field.Name)
		}
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "pk":
				col.PK = true
			case "auto":
				col.Auto = true
			case "omitzero":
				col.OmitZero = true
			}
		}
		table.Columns = append(table.Columns, col)
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s has no db-tagged fields", ErrInvalidModel, typ.Name())
	}

	registry.mu.Lock()
	registry.tables[typ] = table
	registry.mu.Unlock()

	return table, nil
}

// tableName resolves the table name for a model: Tabler first, then the
// snake_cased struct name.
func tableName(model any, typ reflect.Type) string {
	if t, ok := model.(Tabler); ok {
		return t.TableName()
	}
	// Pointer receivers also count.
	if typ.Kind() == reflect.Struct {
		ptr := reflect.New(typ).Interface()
		if t, ok := ptr.(Tabler); ok {
			return t.TableName()
		}
	}
	return toSnakeCase(typ.Name())
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, ch := range s {
		if i > 0 && ch >= 'A' && ch <= 'Z' {
			b.WriteRune('_')
		}
		b.WriteRune(ch)
	}
	return strings.ToLower(b.String())
}
