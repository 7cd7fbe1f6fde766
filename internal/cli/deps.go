package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dcg-project/dcg/internal/allowlist"
	"github.com/dcg-project/dcg/internal/catalog"
	"github.com/dcg-project/dcg/internal/config"
	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/history"
	"github.com/dcg-project/dcg/internal/pending"
)

// projectPath returns the directory config/allowlist/history paths are
// resolved relative to: --project if given, else the cwd.
func projectPath() (string, error) {
	if flagProject != "" {
		abs, err := filepath.Abs(flagProject)
		if err != nil {
			return "", fmt.Errorf("resolving --project: %w", err)
		}
		return abs, nil
	}
	return os.Getwd()
}

func userConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dcg")
}

// homeDir returns the user's home directory, the root pending.DefaultPath
// and history.DefaultPath resolve their ~/.config/dcg/... paths from.
func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// loadConfig resolves the full precedence chain for the current --project
// and --config flags.
func loadConfig() (config.Config, error) {
	project, err := projectPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(config.LoadOptions{ProjectDir: project, ConfigPath: flagConfig})
	if err != nil {
		return config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildDeps wires every engine collaborator from a resolved Config, the
// way cmd/dcg's hook entrypoint and every other explicit subcommand do.
func buildDeps(cfg config.Config) (engine.Deps, error) {
	project, err := projectPath()
	if err != nil {
		return engine.Deps{}, err
	}
	home, _ := os.UserHomeDir()

	allowPaths := []string{
		filepath.Join(project, ".dcg", "allowlist.toml"),
		filepath.Join(home, ".config", "dcg", "allowlist.toml"),
	}
	list, err := allowlist.Load(allowPaths, time.Now())
	if err != nil {
		return engine.Deps{}, fmt.Errorf("loading allowlist: %w", err)
	}

	return engine.Deps{
		Catalog:  catalog.Default(),
		Allow:    list,
		Pending:  pending.NewStore(pending.DefaultPath(os.Getenv, home)),
		History:  history.NewStore(history.DefaultPath(home)),
		Sessions: history.NewSessionStore(history.DefaultSessionDir),
		Config:   cfg,
	}, nil
}

// allowlistPaths returns (project, user) allowlist file paths, the same
// two locations config.ConfigPaths uses (which returns them user first).
func allowlistPaths(project string) (projPath, userPath string) {
	home, _ := os.UserHomeDir()
	return filepath.Join(project, ".dcg", "allowlist.toml"), filepath.Join(home, ".config", "dcg", "allowlist.toml")
}
