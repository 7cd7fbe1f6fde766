// Package config implements the configuration precedence chain of
// spec.md §6: CLI flags > environment variables > project
// .dcg/config.toml > user ~/.config/dcg/config.toml > system
// /etc/dcg/config.toml > defaults. Grounded on joyshmitz-slb's
// internal/config package (only its config_test.go survived retrieval;
// this file re-derives the implementation that test file's API implies:
// Load/LoadOptions/DefaultConfig/Validate/GetValue/ParseValue/WriteValue/
// ConfigPaths/setDefaults/mergeConfigFile), retargeted from SLB's
// general/daemon/rate_limits sections to DCG's response/interactive/history
// sections.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// ResponseConfig controls graduated response (spec.md §4.8.1).
type ResponseConfig struct {
	Mode               string        `mapstructure:"mode"`
	SessionThreshold   int           `mapstructure:"session_threshold"`
	HistoryThreshold   int           `mapstructure:"history_threshold"`
	HistoryWindow      time.Duration `mapstructure:"history_window"`
	CriticalAlwaysHard bool          `mapstructure:"critical_always_hard"`
	// ScopeByCwd resolves spec.md §9 open question (b): session/history
	// counters are filtered to the requesting cwd by default.
	ScopeByCwd bool `mapstructure:"scope_by_cwd"`
}

// InteractiveConfig controls the TTY confirm/allow-once prompt (spec.md §6).
type InteractiveConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Verification   string `mapstructure:"verification"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	CodeLength     int    `mapstructure:"code_length"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	LockoutSeconds int    `mapstructure:"lockout_seconds"`
}

// HistoryConfig controls occurrence-tracker maintenance (spec.md §4.7, §6)
// plus the supplemented git audit trail (SPEC_FULL.md).
type HistoryConfig struct {
	MaxAge         time.Duration `mapstructure:"max_age"`
	MaxEntries     int           `mapstructure:"max_entries"`
	PruneOnStartup bool          `mapstructure:"prune_on_startup"`
	AutoGitCommit  bool          `mapstructure:"auto_git_commit"`
	GitRepoPath    string        `mapstructure:"git_repo_path"`
}

// UIConfig controls cosmetic rendering of the interactive confirm prompt
// (SPEC_FULL.md ambient stack, grounded on internal/tui/theme's Catppuccin
// flavor set).
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// Config is the fully resolved configuration.
type Config struct {
	Response    ResponseConfig    `mapstructure:"response"`
	Interactive InteractiveConfig `mapstructure:"interactive"`
	History     HistoryConfig     `mapstructure:"history"`
	UI          UIConfig          `mapstructure:"ui"`
}

// DefaultConfig returns the built-in defaults (spec.md §4.7, §4.8.1, §6).
func DefaultConfig() Config {
	return Config{
		Response: ResponseConfig{
			Mode:               "standard",
			SessionThreshold:   2,
			HistoryThreshold:   5,
			HistoryWindow:      24 * time.Hour,
			CriticalAlwaysHard: true,
			ScopeByCwd:         true,
		},
		Interactive: InteractiveConfig{
			Enabled:        true,
			Verification:   "code",
			TimeoutSeconds: 15,
			CodeLength:     6,
			MaxAttempts:    3,
			LockoutSeconds: 60,
		},
		History: HistoryConfig{
			MaxAge:         30 * 24 * time.Hour,
			MaxEntries:     10000,
			PruneOnStartup: true,
			AutoGitCommit:  false,
			GitRepoPath:    "~/.config/dcg/audit",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

var validModes = map[string]bool{"paranoid": true, "strict": true, "standard": true, "lenient": true}
var validVerifications = map[string]bool{"code": true, "command": true, "none": true}
var validThemes = map[string]bool{"mocha": true, "macchiato": true, "frappe": true, "latte": true}

// Validate checks range and enum constraints (spec.md §6, §7 ConfigError).
func Validate(cfg Config) error {
	var errs []string

	if !validModes[cfg.Response.Mode] {
		errs = append(errs, fmt.Sprintf("response.mode: invalid value %q", cfg.Response.Mode))
	}
	if cfg.Response.SessionThreshold < 1 {
		errs = append(errs, "response.session_threshold: must be >= 1")
	}
	if cfg.Response.HistoryThreshold < 1 {
		errs = append(errs, "response.history_threshold: must be >= 1")
	}
	if cfg.Response.HistoryWindow <= 0 {
		errs = append(errs, "response.history_window: must be positive")
	}

	if !validVerifications[cfg.Interactive.Verification] {
		errs = append(errs, fmt.Sprintf("interactive.verification: invalid value %q", cfg.Interactive.Verification))
	}
	if cfg.Interactive.TimeoutSeconds < 1 || cfg.Interactive.TimeoutSeconds > 30 {
		errs = append(errs, "interactive.timeout_seconds: must be in [1, 30]")
	}
	if cfg.Interactive.CodeLength < 4 || cfg.Interactive.CodeLength > 8 {
		errs = append(errs, "interactive.code_length: must be in [4, 8]")
	}
	if cfg.Interactive.MaxAttempts < 1 || cfg.Interactive.MaxAttempts > 10 {
		errs = append(errs, "interactive.max_attempts: must be in [1, 10]")
	}
	if cfg.Interactive.LockoutSeconds < 0 {
		errs = append(errs, "interactive.lockout_seconds: must be >= 0")
	}

	if cfg.History.MaxEntries < 1 {
		errs = append(errs, "history.max_entries: must be >= 1")
	}
	if cfg.History.MaxAge <= 0 {
		errs = append(errs, "history.max_age: must be positive")
	}

	if !validThemes[cfg.UI.Theme] {
		errs = append(errs, fmt.Sprintf("ui.theme: invalid value %q", cfg.UI.Theme))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadOptions parameterizes Load.
type LoadOptions struct {
	// ProjectDir is the project root to look for .dcg/config.toml in;
	// empty uses the current working directory.
	ProjectDir string
	// ConfigPath, if set, overrides the project config file location
	// entirely (e.g. a --config CLI flag).
	ConfigPath string
	// FlagOverrides are applied last, taking precedence over everything
	// (spec.md §6: "CLI flags" is the highest-precedence source).
	FlagOverrides map[string]any
}

// envBindings maps DCG_* environment variables to dotted config keys
// (spec.md §6 "Environment overrides").
var envBindings = []struct {
	env string
	key string
}{
	{"DCG_RESPONSE_MODE", "response.mode"},
	{"DCG_SESSION_THRESHOLD", "response.session_threshold"},
	{"DCG_HISTORY_THRESHOLD", "response.history_threshold"},
	{"DCG_CRITICAL_ALWAYS_HARD", "response.critical_always_hard"},
}

// Load resolves the full precedence chain and unmarshals into a Config.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	if err := mergeConfigFile(v, "/etc/dcg/config.toml"); err != nil {
		return Config{}, err
	}
	if err := mergeConfigFile(v, filepath.Join(home, ".config", "dcg", "config.toml")); err != nil {
		return Config{}, err
	}

	projectDir := opts.ProjectDir
	if projectDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectDir = cwd
		}
	}
	if err := mergeConfigFile(v, projectConfigPath(projectDir, opts.ConfigPath)); err != nil {
		return Config{}, err
	}

	for _, b := range envBindings {
		raw, ok := os.LookupEnv(b.env)
		if !ok || raw == "" {
			continue
		}
		parsed, err := ParseValue(b.key, raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: env %s: %w", b.env, err)
		}
		v.Set(b.key, parsed)
	}

	for k, val := range opts.FlagOverrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook)); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("response.mode", d.Response.Mode)
	v.SetDefault("response.session_threshold", d.Response.SessionThreshold)
	v.SetDefault("response.history_threshold", d.Response.HistoryThreshold)
	v.SetDefault("response.history_window", d.Response.HistoryWindow.String())
	v.SetDefault("response.critical_always_hard", d.Response.CriticalAlwaysHard)
	v.SetDefault("response.scope_by_cwd", d.Response.ScopeByCwd)

	v.SetDefault("interactive.enabled", d.Interactive.Enabled)
	v.SetDefault("interactive.verification", d.Interactive.Verification)
	v.SetDefault("interactive.timeout_seconds", d.Interactive.TimeoutSeconds)
	v.SetDefault("interactive.code_length", d.Interactive.CodeLength)
	v.SetDefault("interactive.max_attempts", d.Interactive.MaxAttempts)
	v.SetDefault("interactive.lockout_seconds", d.Interactive.LockoutSeconds)

	v.SetDefault("history.max_age", d.History.MaxAge.String())
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("history.prune_on_startup", d.History.PruneOnStartup)
	v.SetDefault("history.auto_git_commit", d.History.AutoGitCommit)
	v.SetDefault("history.git_repo_path", d.History.GitRepoPath)

	v.SetDefault("ui.theme", d.UI.Theme)
}

// mergeConfigFile decodes a TOML file into a map and merges it into v. An
// empty path or a missing file is a no-op (spec.md §4.8.2 IoError policy:
// a missing config source is not an error).
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config: %s is a directory, not a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var m map[string]any
	if _, err := toml.Decode(string(data), &m); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return v.MergeConfigMap(m)
}

// ConfigPaths returns the (user, project) config file paths for the given
// project directory and optional --config override.
func ConfigPaths(projectDir, flagConfig string) (userPath, projectPath string) {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dcg", "config.toml"), projectConfigPath(projectDir, flagConfig)
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	if projectDir == "" {
		return filepath.Join(".dcg", "config.toml")
	}
	return filepath.Join(projectDir, ".dcg", "config.toml")
}

// durationDecodeHook lets viper.Unmarshal turn "24h"/"7d"/"30d" strings
// into time.Duration, extending Go's units with day/week suffixes the way
// spec.md §6 examples ("24h", "7d") expect.
func durationDecodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return ParseHumanDuration(v)
	case time.Duration:
		return v, nil
	default:
		return data, nil
	}
}
