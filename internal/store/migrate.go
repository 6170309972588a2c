package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/migrations"
)

// migrationLockID is the advisory lock taken while applying migrations so
// two servers starting at once do not race.
const migrationLockID int64 = 7244831905

// Migration is one embedded up/down SQL pair.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrationRecord is one row of schema_migrations.
type MigrationRecord struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// LoadMigrations reads the embedded migration files, pairing NNNN_name.up.sql
// with its .down.sql, sorted by version.
func LoadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		down := strings.HasSuffix(name, ".down.sql")
		base := strings.TrimSuffix(strings.TrimSuffix(name, ".down.sql"), ".up.sql")

		idx := strings.Index(base, "_")
		if idx <= 0 {
			return nil, fmt.Errorf("migration %s: name must be NNNN_name.up.sql", name)
		}
		version, err := strconv.Atoi(base[:idx])
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version prefix: %w", name, err)
		}

		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: base[idx+1:]}
			byVersion[version] = m
		}
		if down {
			m.DownSQL = string(content)
		} else {
			m.UpSQL = string(content)
		}
	}

	result := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" {
			return nil, fmt.Errorf("migration %04d_%s has no up file", m.Version, m.Name)
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}

// Migrate applies every pending migration and returns how many ran. Each
// migration executes inside its own transaction; the whole run holds an
// advisory lock.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	ms, err := LoadMigrations()
	if err != nil {
		return 0, err
	}

	if err := initMigrationTable(ctx, pool); err != nil {
		return 0, err
	}
	lock, err := acquireMigrationLock(ctx, pool)
	if err != nil {
		return 0, err
	}
	defer lock.release(ctx)

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range ms {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(ctx, pool, m); err != nil {
			return count, fmt.Errorf("migration %04d_%s: %w", m.Version, m.Name, err)
		}
		count++
	}
	return count, nil
}

// MigrateDown rolls back the most recent migrations, up to steps of them.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool, steps int) (int, error) {
	ms, err := LoadMigrations()
	if err != nil {
		return 0, err
	}
	byVersion := make(map[int]Migration, len(ms))
	for _, m := range ms {
		byVersion[m.Version] = m
	}

	if err := initMigrationTable(ctx, pool); err != nil {
		return 0, err
	}
	lock, err := acquireMigrationLock(ctx, pool)
	if err != nil {
		return 0, err
	}
	defer lock.release(ctx)

	records, err := MigrationStatus(ctx, pool)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := len(records) - 1; i >= 0 && count < steps; i-- {
		m, ok := byVersion[records[i].Version]
		if !ok {
			return count, fmt.Errorf("no migration file for applied version %04d", records[i].Version)
		}
		if m.DownSQL == "" {
			return count, fmt.Errorf("migration %04d_%s has no down file", m.Version, m.Name)
		}
		if err := rollbackMigration(ctx, pool, m); err != nil {
			return count, fmt.Errorf("rollback %04d_%s: %w", m.Version, m.Name, err)
		}
		count++
	}
	return count, nil
}

// MigrationStatus returns the applied migrations in version order.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) ([]MigrationRecord, error) {
	if err := initMigrationTable(ctx, pool); err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx,
		"SELECT version, name, applied_at FROM schema_migrations ORDER BY version ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var r MigrationRecord
		if err := rows.Scan(&r.Version, &r.Name, &r.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func initMigrationTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// migrationLock pins one pooled connection so the advisory lock and its
// release happen on the same session.
type migrationLock struct {
	conn *pgxpool.Conn
}

func acquireMigrationLock(ctx context.Context, pool *pgxpool.Pool) (*migrationLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for migration lock: %w", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	return &migrationLock{conn: conn}, nil
}

func (l *migrationLock) release(ctx context.Context) {
	_, _ = l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)
	l.conn.Release()
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[int]bool, error) {
	records, err := MigrationStatus(ctx, pool)
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(records))
	for _, r := range records {
		applied[r.Version] = true
	}
	return applied, nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, m Migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range splitSQL(m.UpSQL) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
		m.Version, m.Name)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit(ctx)
}

func rollbackMigration(ctx context.Context, pool *pgxpool.Pool, m Migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range splitSQL(m.DownSQL) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", m.Version); err != nil {
		return fmt.Errorf("failed to delete migration record: %w", err)
	}

	return tx.Commit(ctx)
}

// splitSQL breaks a migration file into statements on semicolons, dropping
// comment lines. Good enough for DDL; none of the migrations embed literal
// semicolons.
func splitSQL(sql string) []string {
	var kept []string
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var result []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}
