// Package db provides SQLite database initialization and access.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultFile is the database filename inside the data directory.
const DefaultFile = "visitlog.db"

// Options controls connection-level settings.
type Options struct {
	// BusyTimeout is how long SQLite waits on a locked database before
	// returning SQLITE_BUSY. Zero means the driver default.
	BusyTimeout time.Duration
}

// DefaultPath returns the database path inside dataDir.
// An empty dataDir falls back to ~/.visitlog.
func DefaultPath(dataDir string) (string, error) {
	if dataDir != "" {
		return filepath.Join(dataDir, DefaultFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".visitlog", DefaultFile), nil
}

// Open opens (or creates) a SQLite database at the given path,
// enables WAL mode and foreign keys, and runs migrations.
func Open(path string, opts Options) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := configure(db); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
		}
		return nil, err
	}

	if err := migrate(db); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// uriEscaper percent-encodes the characters that would otherwise end the
// path part of a file: URI.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn builds a go-sqlite3 connection string. synchronous and busy_timeout
// are per-connection, so they go in the DSN rather than a one-off PRAGMA.
func dsn(path string, opts Options) string {
	s := fmt.Sprintf("file:%s?_synchronous=NORMAL", uriEscaper.Replace(path))
	if opts.BusyTimeout > 0 {
		s += fmt.Sprintf("&_busy_timeout=%d", opts.BusyTimeout.Milliseconds())
	}
	return s
}

// configure sets SQLite pragmas for WAL mode and foreign keys.
func configure(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("executing %s: %w", p, err)
		}
	}

	return nil
}
