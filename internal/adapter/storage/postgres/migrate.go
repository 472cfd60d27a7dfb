package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one embedded schema change, applied in version order.
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the embedded migrations sorted by version.
func Migrations() ([]Migration, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(entries)

	migrations := make([]Migration, 0, len(entries))
	for _, name := range entries {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
		migrations = append(migrations, Migration{Version: version, SQL: string(body)})
	}
	return migrations, nil
}

// Migrate applies every migration not yet recorded in schema_migrations.
// Each migration runs in its own transaction together with its bookkeeping row.
func Migrate(ctx context.Context, pool Pool, log zerolog.Logger) (int, error) {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`)
	if err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	migrations, err := Migrations()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		var done bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&done)
		if err != nil {
			return applied, fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if done {
			continue
		}

		if err := applyMigration(ctx, pool, m); err != nil {
			return applied, err
		}
		applied++
		log.Info().Str("version", m.Version).Msg("migration applied")
	}
	return applied, nil
}

func applyMigration(ctx context.Context, pool Pool, m Migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.Version, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("apply migration %s: %w", m.Version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.Version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.Version, err)
	}
	return nil
}
