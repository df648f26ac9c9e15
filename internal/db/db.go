package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DB wraps a *sql.DB connection to SQLite.
type DB struct {
	Conn *sql.DB
	path string
	log  *zap.Logger
}

// New opens (or creates) a SQLite database at the given path and returns a
// wrapped connection. It creates the parent directory if it doesn't exist and
// enables WAL mode + foreign keys.
func New(dbPath string, log *zap.Logger) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	d, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key enforcement.
	if _, err := d.Conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		d.Conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if log != nil {
		d.log = log
	}
	d.log.Info("database opened", zap.String("path", dbPath))
	return d, nil
}

// OpenExisting opens a SQLite database that must already exist. Tenant
// databases are opened this way so a mistyped name never creates a file.
func OpenExisting(dbPath string) (*DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	return open(dbPath)
}

func open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single connection avoids SQLite locking issues.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return &DB{Conn: conn, path: dbPath, log: zap.NewNop()}, nil
}

// Path is the file the database was opened from.
func (d *DB) Path() string {
	return d.path
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.Conn.Close()
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.Conn.PingContext(ctx)
}
