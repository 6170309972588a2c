package store

import "testing"

func TestLoadMigrations(t *testing.T) {
	ms, err := LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(ms) == 0 {
		t.Fatal("no embedded migrations found")
	}

	last := 0
	for _, m := range ms {
		if m.Version <= last {
			t.Errorf("versions out of order: %d after %d", m.Version, last)
		}
		last = m.Version
		if m.UpSQL == "" {
			t.Errorf("migration %04d_%s has empty up SQL", m.Version, m.Name)
		}
		if m.DownSQL == "" {
			t.Errorf("migration %04d_%s has empty down SQL", m.Version, m.Name)
		}
	}
}

func TestSplitSQL(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want int
	}{
		{"single statement", "CREATE TABLE t (id INT)", 1},
		{"two statements", "CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);", 2},
		{"comments skipped", "-- header\nCREATE TABLE t (id INT);\n-- trailer\n", 1},
		{"empty", "", 0},
		{"whitespace and semicolons", "  ;\n\n ; ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitSQL(tt.sql); len(got) != tt.want {
				t.Errorf("splitSQL() returned %d statements, want %d: %q", len(got), tt.want, got)
			}
		})
	}
}
