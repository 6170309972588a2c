package qb

import (
	"strings"
	"testing"
)

type testProduct struct {
	ID        int64   `db:"id,pk,auto"`
	FarmerID  int64   `db:"farmer_id"`
	Name      string  `db:"name"`
	Price     float64 `db:"price"`
	Likes     int     `db:"likes_count,omitzero"`
	Available bool    `db:"is_available"`
	NoTag     string
}

func (testProduct) TableName() string { return "products" }

type testOrderItem struct {
	ID      int64 `db:"id,pk,auto"`
	OrderID int64 `db:"order_id"`
	Qty     int   `db:"quantity"`
}

func (testOrderItem) TableName() string { return "order_items" }

func TestTableFor(t *testing.T) {
	table, err := tableFor(testProduct{})
	if err != nil {
		t.Fatalf("tableFor() error = %v", err)
	}
	if table.Name != "products" {
		t.Errorf("table name = %q, want products", table.Name)
	}
	if len(table.Columns) != 6 {
		t.Fatalf("columns = %d, want 6", len(table.Columns))
	}
	id := table.Column("id")
	if id == nil || !id.PK || !id.Auto {
		t.Errorf("id column should be pk+auto, got %+v", id)
	}
	likes := table.Column("likes_count")
	if likes == nil || !likes.OmitZero {
		t.Errorf("likes_count should be omitzero, got %+v", likes)
	}
	if table.Column("no_tag") != nil {
		t.Error("untagged field must not be mapped")
	}
}

func TestTableFor_SnakeCaseFallback(t *testing.T) {
	type StoryComment struct {
		ID int64 `db:"id,pk,auto"`
	}
	table, err := tableFor(StoryComment{})
	if err != nil {
		t.Fatalf("tableFor() error = %v", err)
	}
	if table.Name != "story_comment" {
		t.Errorf("table name = %q, want story_comment", table.Name)
	}
}

func TestSelectQuery_ToSQL(t *testing.T) {
	db := New(nil)

	tests := []struct {
		name    string
		build   func() (string, []any, error)
		wantSQL string
		wantLen int
	}{
		{
			name: "select all",
			build: func() (string, []any, error) {
				return Select[testProduct](db).ToSQL()
			},
			wantSQL: "SELECT * FROM products",
		},
		{
			name: "select with where and order",
			build: func() (string, []any, error) {
				return Select[testProduct](db).
					Where(Eq("farmer_id", 4)).
					OrderByDesc("created_at").
					ToSQL()
			},
			wantSQL: "SELECT * FROM products WHERE farmer_id = $1 ORDER BY created_at DESC",
			wantLen: 1,
		},
		{
			name: "select with limit offset",
			build: func() (string, []any, error) {
				return Select[testProduct](db).Limit(20).Offset(40).ToSQL()
			},
			wantSQL: "SELECT * FROM products LIMIT 20 OFFSET 40",
		},
		{
			name: "select for update",
			build: func() (string, []any, error) {
				return Select[testProduct](db).Where(Eq("id", 1)).ForUpdate().ToSQL()
			},
			wantSQL: "SELECT * FROM products WHERE id = $1 FOR UPDATE",
			wantLen: 1,
		},
		{
			name: "select columns",
			build: func() (string, []any, error) {
				return Select[testProduct](db).Columns("id", "name").ToSQL()
			},
			wantSQL: "SELECT id, name FROM products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.build()
			if err != nil {
				t.Fatalf("ToSQL() error = %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("ToSQL() = %q, want %q", sql, tt.wantSQL)
			}
			if len(args) != tt.wantLen {
				t.Errorf("args = %d, want %d", len(args), tt.wantLen)
			}
		})
	}
}

func TestSelectQuery_CountSQL(t *testing.T) {
	db := New(nil)

	sql, args, err := Select[testProduct](db).Where(Eq("farmer_id", 4)).countSQL()
	if err != nil {
		t.Fatalf("countSQL() error = %v", err)
	}
	want := "SELECT COUNT(*) FROM products WHERE farmer_id = $1"
	if sql != want {
		t.Errorf("countSQL() = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %d, want 1", len(args))
	}
}

func TestSelectQuery_CountSQLForUpdate(t *testing.T) {
	db := New(nil)

	sql, args, err := Select[testProduct](db).Where(Eq("id", 7)).ForUpdate().countSQL()
	if err != nil {
		t.Fatalf("countSQL() error = %v", err)
	}
	want := "SELECT COUNT(*) FROM (SELECT 1 FROM products WHERE id = $1 FOR UPDATE) locked"
	if sql != want {
		t.Errorf("countSQL() = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %d, want 1", len(args))
	}
}

func TestInsertQuery_ToSQL(t *testing.T) {
	db := New(nil)

	p := testProduct{FarmerID: 2, Name: "Tomatoes", Price: 3.50, Available: true}
	sql, args, err := Insert[testProduct](db).Values(p).Returning("*").ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}

	// id is auto and likes_count is zero+omitzero, so neither appears.
	want := "INSERT INTO products (farmer_id, name, price, is_available) VALUES ($1, $2, $3, $4) RETURNING *"
	if sql != want {
		t.Errorf("ToSQL() = %q, want %q", sql, want)
	}
	if len(args) != 4 {
		t.Errorf("args = %d, want 4", len(args))
	}
}

func TestInsertQuery_MultiRow(t *testing.T) {
	db := New(nil)

	items := []testOrderItem{
		{OrderID: 1, Qty: 2},
		{OrderID: 1, Qty: 5},
	}
	sql, args, err := Insert[testOrderItem](db).Values(items...).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	want := "INSERT INTO order_items (order_id, quantity) VALUES ($1, $2), ($3, $4)"
	if sql != want {
		t.Errorf("ToSQL() = %q, want %q", sql, want)
	}
	if len(args) != 4 {
		t.Errorf("args = %d, want 4", len(args))
	}
}

func TestInsertQuery_MultiRowOmitZeroUnion(t *testing.T) {
	db := New(nil)

	type testStoryImage struct {
		ID       int64  `db:"id,pk,auto"`
		StoryID  int64  `db:"story_id"`
		Path     string `db:"image_path"`
		Position int    `db:"position,omitzero"`
	}
	images := []testStoryImage{
		{StoryID: 1, Path: "a.png", Position: 0},
		{StoryID: 1, Path: "b.png", Position: 1},
		{StoryID: 1, Path: "c.png", Position: 2},
	}

	sql, args, err := Insert[testStoryImage](db).Values(images...).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}

	// position is zero in the first row but set in later ones, so every row
	// must write it explicitly.
	want := "INSERT INTO test_story_image (story_id, image_path, position) VALUES ($1, $2, $3), ($4, $5, $6), ($7, $8, $9)"
	if sql != want {
		t.Errorf("ToSQL() = %q, want %q", sql, want)
	}
	if len(args) != 9 {
		t.Fatalf("args = %d, want 9", len(args))
	}
	for i, wantPos := range []int{0, 1, 2} {
		if got := args[i*3+2]; got != wantPos {
			t.Errorf("args[%d] = %v, want %d", i*3+2, got, wantPos)
		}
	}
}

func TestInsertQuery_MultiRowOmitZeroAllZero(t *testing.T) {
	db := New(nil)

	products := []testProduct{
		{FarmerID: 2, Name: "Tomatoes", Price: 3.50},
		{FarmerID: 2, Name: "Peppers", Price: 2.25},
	}
	sql, _, err := Insert[testProduct](db).Values(products...).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	if strings.Contains(sql, "likes_count") {
		t.Errorf("ToSQL() = %q, likes_count is zero everywhere and should stay omitted", sql)
	}
}

func TestInsertQuery_OnConflictDoNothing(t *testing.T) {
	db := New(nil)

	sql, _, err := Insert[testOrderItem](db).
		Values(testOrderItem{OrderID: 1, Qty: 1}).
		OnConflictDoNothing("order_id", "quantity").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	if !strings.HasSuffix(sql, "ON CONFLICT (order_id, quantity) DO NOTHING") {
		t.Errorf("ToSQL() = %q, want ON CONFLICT suffix", sql)
	}
}

func TestInsertQuery_NoValues(t *testing.T) {
	db := New(nil)
	if _, _, err := Insert[testProduct](db).ToSQL(); err == nil {
		t.Fatal("expected error for insert with no values")
	}
}

func TestUpdateQuery_ToSQL(t *testing.T) {
	db := New(nil)

	sql, args, err := Update[testProduct](db).
		Set("name", "Heirloom Tomatoes").
		Set("price", 4.25).
		Where(Eq("id", 9)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	want := "UPDATE products SET name = $1, price = $2 WHERE id = $3"
	if sql != want {
		t.Errorf("ToSQL() = %q, want %q", sql, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %d, want 3", len(args))
	}
}

func TestUpdateQuery_SetRaw(t *testing.T) {
	db := New(nil)

	sql, args, err := Update[testProduct](db).
		SetRaw("likes_count", "likes_count + 1").
		Where(Eq("id", 3)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	want := "UPDATE products SET likes_count = likes_count + 1 WHERE id = $1"
	if sql != want {
		t.Errorf("ToSQL() = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %d, want 1", len(args))
	}
}

func TestUpdateQuery_NoSets(t *testing.T) {
	db := New(nil)
	if _, _, err := Update[testProduct](db).Where(Eq("id", 1)).ToSQL(); err == nil {
		t.Fatal("expected error for update with no sets")
	}
}

func TestDeleteQuery_ToSQL(t *testing.T) {
	db := New(nil)

	sql, args, err := Delete[testProduct](db).Where(Eq("id", 12)).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	want := "DELETE FROM products WHERE id = $1"
	if sql != want {
		t.Errorf("ToSQL() = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %d, want 1", len(args))
	}
}

func TestDeleteQuery_RequiresWhere(t *testing.T) {
	db := New(nil)
	if _, _, err := Delete[testProduct](db).ToSQL(); err == nil {
		t.Fatal("expected error for delete without where")
	}
}
