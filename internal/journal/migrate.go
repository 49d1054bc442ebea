package journal

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// applyMigrations executes every embedded *.sql file at most once.
func applyMigrations(ctx context.Context, db *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, name := range files {
		var found int
		err := db.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&found)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration %s: %w", name, err)
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		up := upSection(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
			name, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

// upSection returns the SQL between "-- +migrate Up" and "-- +migrate Down".
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	i := strings.Index(content, up)
	if i == -1 {
		return content
	}
	rest := content[i+len(up):]
	if j := strings.Index(rest, down); j != -1 {
		return rest[:j]
	}
	return rest
}
