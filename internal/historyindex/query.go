package historyindex

import (
	"fmt"
	"strings"
	"time"
)

// QueryFilter narrows a history listing; zero values are unfiltered.
type QueryFilter struct {
	RuleID    string
	PackID    string
	SessionID string
	Since     time.Time
	Limit     int
}

// Entry is one row of a filtered history listing.
type Entry struct {
	CommandHash   string    `json:"command_hash"`
	Timestamp     time.Time `json:"timestamp"`
	RuleID        string    `json:"rule_id"`
	PackID        string    `json:"pack_id"`
	Severity      string    `json:"severity"`
	ResponseLevel string    `json:"response_level"`
	SessionID     string    `json:"session_id"`
	Cwd           string    `json:"cwd"`
	Allowed       bool      `json:"allowed"`
}

// Entries returns matching records newest-first.
func (db *DB) Entries(f QueryFilter) ([]Entry, error) {
	var conds []string
	var args []any

	if f.RuleID != "" {
		conds = append(conds, "rule_id = ?")
		args = append(args, f.RuleID)
	}
	if f.PackID != "" {
		conds = append(conds, "pack_id = ?")
		args = append(args, f.PackID)
	}
	if f.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}

	query := "SELECT command_hash, timestamp, rule_id, pack_id, severity, response_level, session_id, cwd, allowed FROM records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := db.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("historyindex: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var allowed int
		if err := rows.Scan(&e.CommandHash, &ts, &e.RuleID, &e.PackID, &e.Severity, &e.ResponseLevel, &e.SessionID, &e.Cwd, &allowed); err != nil {
			return nil, fmt.Errorf("historyindex: scan: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("historyindex: parse timestamp: %w", err)
		}
		e.Timestamp = parsed
		e.Allowed = allowed != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// RuleCount reports how many matching records exist, irrespective of Limit.
func (db *DB) RuleCount(ruleID string, since time.Time) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM records WHERE rule_id = ? AND timestamp >= ?`,
		ruleID, since.UTC().Format(time.RFC3339Nano)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("historyindex: count: %w", err)
	}
	return n, nil
}
