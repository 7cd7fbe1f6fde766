package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ParseHumanDuration parses Go's standard duration units plus "d" (days)
// and "w" (weeks) suffixes, matching spec.md §6's "24h"/"7d" examples.
func ParseHumanDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if m := humanDurationRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		unit := 24 * time.Hour
		if m[2] == "w" {
			unit = 7 * 24 * time.Hour
		}
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	return d, nil
}

var humanDurationRe = regexp.MustCompile(`^(\d+)([dw])$`)

// valueKind enumerates the scalar types a config key can hold, for
// ParseValue/GetValue dispatch.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindDuration
)

var keyKinds = map[string]valueKind{
	"response.mode":                   kindString,
	"response.session_threshold":      kindInt,
	"response.history_threshold":      kindInt,
	"response.history_window":         kindDuration,
	"response.critical_always_hard":   kindBool,
	"response.scope_by_cwd":           kindBool,
	"interactive.enabled":             kindBool,
	"interactive.verification":        kindString,
	"interactive.timeout_seconds":     kindInt,
	"interactive.code_length":         kindInt,
	"interactive.max_attempts":        kindInt,
	"interactive.lockout_seconds":     kindInt,
	"history.max_age":                 kindDuration,
	"history.max_entries":             kindInt,
	"history.prune_on_startup":        kindBool,
	"history.auto_git_commit":         kindBool,
	"history.git_repo_path":           kindString,
	"ui.theme":                        kindString,
}

// ParseValue parses a raw CLI/env string into the correctly typed Go
// value for the given dotted config key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("config: unsupported key %q", key)
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid integer %q: %w", raw, err)
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid boolean %q: %w", raw, err)
		}
		return b, nil
	case kindDuration:
		return ParseHumanDuration(raw)
	default:
		return nil, fmt.Errorf("config: unsupported value kind %d", kind)
	}
}

// GetValue looks up a dotted key against a resolved Config, returning
// either a leaf scalar or an entire section struct.
func GetValue(cfg Config, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	switch key {
	case "response":
		return cfg.Response, true
	case "interactive":
		return cfg.Interactive, true
	case "history":
		return cfg.History, true

	case "response.mode":
		return cfg.Response.Mode, true
	case "response.session_threshold":
		return cfg.Response.SessionThreshold, true
	case "response.history_threshold":
		return cfg.Response.HistoryThreshold, true
	case "response.history_window":
		return cfg.Response.HistoryWindow, true
	case "response.critical_always_hard":
		return cfg.Response.CriticalAlwaysHard, true
	case "response.scope_by_cwd":
		return cfg.Response.ScopeByCwd, true

	case "interactive.enabled":
		return cfg.Interactive.Enabled, true
	case "interactive.verification":
		return cfg.Interactive.Verification, true
	case "interactive.timeout_seconds":
		return cfg.Interactive.TimeoutSeconds, true
	case "interactive.code_length":
		return cfg.Interactive.CodeLength, true
	case "interactive.max_attempts":
		return cfg.Interactive.MaxAttempts, true
	case "interactive.lockout_seconds":
		return cfg.Interactive.LockoutSeconds, true

	case "history.max_age":
		return cfg.History.MaxAge, true
	case "history.max_entries":
		return cfg.History.MaxEntries, true
	case "history.prune_on_startup":
		return cfg.History.PruneOnStartup, true
	case "history.auto_git_commit":
		return cfg.History.AutoGitCommit, true
	case "history.git_repo_path":
		return cfg.History.GitRepoPath, true

	case "ui.theme":
		return cfg.UI.Theme, true

	default:
		return nil, false
	}
}

// WriteValue merges a single dotted key=value pair into the TOML file at
// path, creating the file if absent. Used by `dcg config set`.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return fmt.Errorf("config: empty path")
	}
	m := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if _, err := toml.Decode(string(data), &m); err != nil {
			return fmt.Errorf("config: decode config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := setNested(m, strings.Split(key, "."), value); err != nil {
		return err
	}

	if err := os.MkdirAll(parentDir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	enc := toml.NewEncoder(f)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}

func setNested(m map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("config: empty key")
	}
	if len(parts) == 1 {
		m[parts[0]] = value
		return nil
	}
	head := parts[0]
	existing, ok := m[head]
	if !ok {
		sub := map[string]any{}
		m[head] = sub
		return setNested(sub, parts[1:], value)
	}
	sub, ok := existing.(map[string]any)
	if !ok {
		return fmt.Errorf("config: %q is not a table", head)
	}
	return setNested(sub, parts[1:], value)
}

func parentDir(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "."
	}
	return path[:i]
}
