package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS visits (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at  TEXT,
		visit_date  TEXT,
		gender      TEXT,
		age_group   TEXT,
		residence   TEXT,
		purpose     TEXT,
		visit_type  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visits_visit_date ON visits (visit_date)`,
	`CREATE TABLE IF NOT EXISTS admin_sessions (
		token      TEXT    PRIMARY KEY,
		expires_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admin_passkeys (
		id              TEXT     PRIMARY KEY,
		name            TEXT     NOT NULL DEFAULT '',
		credential_json TEXT     NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions are idempotent; each checks the column first.
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"admin_passkeys", "last_used_at", "DATETIME"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing table info rows", "table", table, "err", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return nil // column already exists
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
