package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	migrationsGlob   = "sql/migrations/*.sql"
	migrationLockKey = int64(20240917)

	migrationTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

var (
	//go:embed sql/migrations/*.sql
	migrationsFS embed.FS

	migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)
)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrateUp применяет up-миграции. steps=0 означает "применить все доступные".
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.migrate(ctx, true, steps)
}

// MigrateDown откатывает миграции. steps<=0 интерпретируется как 1 шаг.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.migrate(ctx, false, steps)
}

// MigrationStatus возвращает текущую версию и количество применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, fmt.Errorf("postgres store is not initialized")
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(queryCtx, migrationTableDDL); err != nil {
		return 0, 0, fmt.Errorf("ensure migration table: %w", err)
	}

	var (
		version int64
		count   int
	)
	if err := s.db.QueryRowContext(queryCtx, `
		SELECT COALESCE(MAX(version), 0), COUNT(*)
		FROM schema_migrations
	`).Scan(&version, &count); err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}

	return version, count, nil
}

// migrate выполняет миграции под advisory lock, чтобы параллельные процессы
// не применяли одну и ту же миграцию дважды.
func (s *Store) migrate(ctx context.Context, up bool, steps int) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)
	}()

	if _, err := conn.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	if up {
		return applyUp(ctx, conn, migrations, steps)
	}
	return applyDown(ctx, conn, migrations, steps)
}

func applyUp(ctx context.Context, conn *sql.Conn, migrations []migration, steps int) error {
	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	done := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := runMigrationTx(ctx, conn, m.UpSQL, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO schema_migrations (version, name, applied_at)
				VALUES ($1, $2, NOW())
			`, m.Version, m.Name)
			return err
		}, fmt.Sprintf("up %d_%s", m.Version, m.Name)); err != nil {
			return err
		}
		done++
		if steps > 0 && done >= steps {
			break
		}
	}

	return nil
}

func applyDown(ctx context.Context, conn *sql.Conn, migrations []migration, steps int) error {
	byVersion := make(map[int64]migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	versions, err := appliedVersionsDesc(ctx, conn, steps)
	if err != nil {
		return err
	}

	for _, version := range versions {
		m, ok := byVersion[version]
		if !ok {
			return fmt.Errorf("cannot rollback unknown migration version %d", version)
		}
		if err := runMigrationTx(ctx, conn, m.DownSQL, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
			return err
		}, fmt.Sprintf("down %d_%s", m.Version, m.Name)); err != nil {
			return err
		}
	}

	return nil
}

// runMigrationTx исполняет SQL миграции и запись в schema_migrations
// в одной транзакции.
func runMigrationTx(ctx context.Context, conn *sql.Conn, body string, record func(*sql.Tx) error, label string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx (%s): %w", label, err)
	}

	if _, err := tx.ExecContext(ctx, body); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("execute migration %s: %w", label, err)
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", label, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", label, err)
	}

	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]bool)
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration version: %w", err)
		}
		result[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}

	return result, nil
}

func appliedVersionsDesc(ctx context.Context, conn *sql.Conn, limit int) ([]int64, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT version
		FROM schema_migrations
		ORDER BY version DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations desc: %w", err)
	}
	defer rows.Close()

	versions := make([]int64, 0, limit)
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration desc: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations desc: %w", err)
	}

	return versions, nil
}

// loadMigrationsFromFS собирает пары up/down файлов по версии.
func loadMigrationsFromFS(fsys fs.FS) ([]migration, error) {
	files, err := fs.Glob(fsys, migrationsGlob)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no migration files found")
	}

	partial := make(map[int64]*migration)
	for _, file := range files {
		base := filepath.Base(file)
		matches := migrationFilePattern.FindStringSubmatch(base)
		if len(matches) != 4 {
			return nil, fmt.Errorf("invalid migration file name: %s", base)
		}

		version, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", base, err)
		}
		name := matches[2]
		direction := matches[3]

		bodyRaw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", file, err)
		}
		body := strings.TrimSpace(string(bodyRaw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", base)
		}

		m, ok := partial[version]
		if !ok {
			m = &migration{Version: version, Name: name}
			partial[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, m.Name, name)
		}

		switch direction {
		case "up":
			if m.UpSQL != "" {
				return nil, fmt.Errorf("duplicate up migration for version %d", version)
			}
			m.UpSQL = body
		case "down":
			if m.DownSQL != "" {
				return nil, fmt.Errorf("duplicate down migration for version %d", version)
			}
			m.DownSQL = body
		}
	}

	versions := make([]int64, 0, len(partial))
	for version := range partial {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })

	migrations := make([]migration, 0, len(versions))
	for _, version := range versions {
		m := partial[version]
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %d_%s must have both up and down files", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}

	return migrations, nil
}
