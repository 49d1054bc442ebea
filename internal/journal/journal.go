// Package journal persists the committed actions of each battle so a battle
// can be replayed and verified offline.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/pefman/tactics-duel/internal/journal/migrations"
)

// Kind tags what an entry records.
type Kind string

const (
	// KindSetup holds the starting scenario.
	KindSetup Kind = "setup"
	// KindTurn holds a turn start.
	KindTurn Kind = "turn"
	// KindAction holds a committed action: its request, seed and result.
	KindAction Kind = "action"
)

// ErrDuplicate is returned when an entry with the same battle and sequence
// already exists.
var ErrDuplicate = errors.New("journal entry already exists")

// Entry is one journaled record.
type Entry struct {
	BattleID  string          `json:"battle_id"`
	Seq       int64           `json:"seq"`
	Kind      Kind            `json:"kind"`
	Seed      int64           `json:"seed"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the journal at path, creating parent directories, and applies
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append inserts one entry.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("journal is not configured")
	}
	if strings.TrimSpace(e.BattleID) == "" {
		return fmt.Errorf("battle id is required")
	}
	if e.Kind == "" {
		return fmt.Errorf("entry kind is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO journal_entries (battle_id, seq, kind, seed, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.BattleID, e.Seq, string(e.Kind), e.Seed, string(payload), e.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// List returns a battle's entries in sequence order.
func (s *Store) List(ctx context.Context, battleID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("journal is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT battle_id, seq, kind, seed, payload, created_at
		   FROM journal_entries
		  WHERE battle_id = ?
		  ORDER BY seq`, battleID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			payload string
			created int64
		)
		if err := rows.Scan(&e.BattleID, &e.Seq, &kind, &e.Seed, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.Payload = json.RawMessage(payload)
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return out, nil
}

// Battles returns the ids of every journaled battle, oldest first.
func (s *Store) Battles(ctx context.Context) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("journal is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT battle_id FROM journal_entries GROUP BY battle_id ORDER BY MIN(created_at), battle_id`)
	if err != nil {
		return nil, fmt.Errorf("list battles: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan battle id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
