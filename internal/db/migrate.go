package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const createMigrations = `
	CREATE TABLE IF NOT EXISTS _migrations (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		name     TEXT    NOT NULL UNIQUE,
		applied  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

// Migrate applies the embedded migrations/*.sql files that have not run yet,
// in filename order, each inside a transaction.
func (d *DB) Migrate() error {
	ctx := context.Background()
	if _, err := d.Conn.ExecContext(ctx, createMigrations); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	done, err := d.Applied()
	if err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	for _, file := range names {
		name := path.Base(file)
		if slices.Contains(done, name) {
			continue
		}
		body, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := d.apply(ctx, name, string(body)); err != nil {
			return err
		}
		d.log.Info("migration applied", zap.String("name", name))
	}
	return nil
}

func (d *DB) apply(ctx context.Context, name, stmts string) error {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	defer tx.Rollback() //nolint: errcheck

	if _, err := tx.ExecContext(ctx, stmts); err != nil {
		return fmt.Errorf("exec migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit()
}

// Applied lists applied migration names in the order they ran. A database
// that was never migrated has none.
func (d *DB) Applied() ([]string, error) {
	rows, err := d.Conn.Query("SELECT name FROM _migrations ORDER BY id")
	if IsNoSuchTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// MigrationCount is len(Applied()), for the health endpoint.
func (d *DB) MigrationCount() (int, error) {
	names, err := d.Applied()
	return len(names), err
}

// IsNoSuchTable reports whether err is SQLite's missing-table error.
func IsNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
