package qb

import (
	"testing"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name           string
		conditions     []Condition
		expectedSQL    string
		expectedArgLen int
	}{
		{
			name:           "empty conditions",
			conditions:     []Condition{},
			expectedSQL:    "",
			expectedArgLen: 0,
		},
		{
			name: "single equality condition",
			conditions: []Condition{
				Eq("role", "farmer"),
			},
			expectedSQL:    "WHERE role = $1",
			expectedArgLen: 1,
		},
		{
			name: "multiple AND conditions",
			conditions: []Condition{
				Eq("status", "pending"),
				Eq("customer_id", 7),
			},
			expectedSQL:    "WHERE status = $1 AND customer_id = $2",
			expectedArgLen: 2,
		},
		{
			name: "OR condition",
			conditions: []Condition{
				Eq("farmer_id", 1),
				Or(Eq("expert_id", 1)),
			},
			expectedSQL:    "WHERE farmer_id = $1 OR expert_id = $2",
			expectedArgLen: 2,
		},
		{
			name: "IN condition",
			conditions: []Condition{
				In("status", "pending", "accepted"),
			},
			expectedSQL:    "WHERE status IN ($1, $2)",
			expectedArgLen: 2,
		},
		{
			name: "IS NULL condition",
			conditions: []Condition{
				IsNull("parent_id"),
			},
			expectedSQL:    "WHERE parent_id IS NULL",
			expectedArgLen: 0,
		},
		{
			name: "IS NOT NULL condition",
			conditions: []Condition{
				IsNotNull("image_path"),
			},
			expectedSQL:    "WHERE image_path IS NOT NULL",
			expectedArgLen: 0,
		},
		{
			name: "ILIKE condition",
			conditions: []Condition{
				ILike("name", "%tomato%"),
			},
			expectedSQL:    "WHERE name ILIKE $1",
			expectedArgLen: 1,
		},
		{
			name: "grouped conditions",
			conditions: []Condition{
				Eq("user_id", 3),
				Group(Eq("status", "pending"), Or(Eq("status", "accepted"))),
			},
			expectedSQL:    "WHERE user_id = $1 AND (status = $2 OR status = $3)",
			expectedArgLen: 3,
		},
		{
			name: "comparison operators",
			conditions: []Condition{
				Gte("price", 10),
				Lt("quantity", 100),
			},
			expectedSQL:    "WHERE price >= $1 AND quantity < $2",
			expectedArgLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildWhere(tt.conditions, 1)
			if err != nil {
				t.Fatalf("buildWhere() error = %v", err)
			}
			if sql != tt.expectedSQL {
				t.Errorf("buildWhere() sql = %q, want %q", sql, tt.expectedSQL)
			}
			if len(args) != tt.expectedArgLen {
				t.Errorf("buildWhere() args = %d, want %d", len(args), tt.expectedArgLen)
			}
		})
	}
}

func TestBuildWhere_ParamStart(t *testing.T) {
	sql, args, err := buildWhere([]Condition{Eq("id", 5), Eq("user_id", 9)}, 3)
	if err != nil {
		t.Fatalf("buildWhere() error = %v", err)
	}
	want := "WHERE id = $3 AND user_id = $4"
	if sql != want {
		t.Errorf("buildWhere() sql = %q, want %q", sql, want)
	}
	if len(args) != 2 {
		t.Errorf("buildWhere() args = %d, want 2", len(args))
	}
}

func TestBuildWhere_EmptyIn(t *testing.T) {
	_, _, err := buildWhere([]Condition{In("status")}, 1)
	if err == nil {
		t.Fatal("expected error for IN with no values")
	}
}
