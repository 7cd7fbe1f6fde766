// Package historyindex provides a queryable sqlite cache over the
// append-only history.jsonl log (spec.md §4.7, §4.8 "dcg history").
// history.jsonl remains the source of truth; the index exists so that
// `dcg history` can filter/aggregate thousands of records without a full
// linear scan on every invocation.
package historyindex

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dcg-project/dcg/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	command_hash   TEXT NOT NULL,
	timestamp      TEXT NOT NULL,
	rule_id        TEXT NOT NULL,
	pack_id        TEXT NOT NULL,
	severity       TEXT NOT NULL,
	response_level TEXT NOT NULL,
	session_id     TEXT NOT NULL,
	cwd            TEXT NOT NULL,
	allowed        INTEGER NOT NULL,
	PRIMARY KEY (command_hash, timestamp, rule_id, session_id)
);
CREATE INDEX IF NOT EXISTS idx_records_rule_id ON records(rule_id);
CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DB wraps the sqlite cache connection.
type DB struct {
	*sql.DB
}

// Open creates/migrates the sqlite file at path and returns a ready DB.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("historyindex: open: %w", err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite: single-writer, avoid SQLITE_BUSY.
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("historyindex: migrate: %w", err)
	}
	return &DB{conn}, nil
}

// Insert upserts one history.Record into the cache. Re-inserting the same
// record (same primary key) is a no-op, which makes Sync idempotent.
func (db *DB) Insert(rec history.Record) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO records
			(command_hash, timestamp, rule_id, pack_id, severity, response_level, session_id, cwd, allowed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.CommandHash, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.RuleID, rec.PackID,
		rec.Severity, rec.ResponseLevel, rec.SessionID, rec.Cwd, boolToInt(rec.Allowed))
	if err != nil {
		return fmt.Errorf("historyindex: insert: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// LastSyncedLine returns how many lines of history.jsonl have already
// been absorbed into the cache, so Sync can resume from where it left off
// instead of rescanning the whole log on every invocation.
func (db *DB) LastSyncedLine() (int, error) {
	var v string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'synced_lines'`).Scan(&v)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("historyindex: read sync cursor: %w", err)
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("historyindex: parse sync cursor: %w", err)
	}
	return n, nil
}

func (db *DB) setLastSyncedLine(n int) error {
	_, err := db.Exec(`INSERT INTO meta (key, value) VALUES ('synced_lines', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", n))
	if err != nil {
		return fmt.Errorf("historyindex: write sync cursor: %w", err)
	}
	return nil
}
