package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/historygit"
	"github.com/dcg-project/dcg/internal/hookio"
	"github.com/dcg-project/dcg/internal/output"
)

func init() {
	hookCmd.AddCommand(hookPreToolUseCmd)
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
	hookCmd.AddCommand(hookTestCmd)
	hookCmd.AddCommand(hookPreCommitCmd)

	rootCmd.AddCommand(hookCmd)
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the Claude Code PreToolUse hook integration",
	Long: `Manage the Claude Code PreToolUse hook that runs dcg before every
Bash tool call.

  dcg hook install    configure ~/.claude/settings.json to call this hook
  dcg hook status     check installation status
  dcg hook uninstall  remove the hook from settings.json
  dcg hook pretooluse the hook entrypoint itself (reads stdin, never call by hand)`,
}

var hookPreToolUseCmd = &cobra.Command{
	Use:   "pretooluse",
	Short: "Hook entrypoint: evaluate a PreToolUse envelope from stdin",
	Long: `Reads one JSON envelope from stdin (tool_name, command, cwd,
session_id), evaluates it, and exits with the hook contract's fixed exit
code: 0 allow (silent), 1 deny (a JSON object on stdout plus a rendered
warning on stderr), 2 warn (a rendered warning on stderr, silent stdout).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			os.Exit(hookio.ExitConfigErr)
		}
		deps, err := buildDeps(cfg)
		if err != nil {
			os.Exit(hookio.ExitIOErr)
		}
		code := hookio.Handle(os.Stdin, os.Stdout, os.Stderr, deps, time.Now())
		os.Exit(code)
		return nil
	},
}

var hookTestCmd = &cobra.Command{
	Use:   "test <command>",
	Short: "Show what the hook would do for a command, without the hook envelope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		deps, err := buildDeps(cfg)
		if err != nil {
			return err
		}
		project, err := projectPath()
		if err != nil {
			return err
		}

		req := engine.CommandRequest{RawCommand: args[0], Cwd: project, Now: time.Now()}
		d, _ := engine.Evaluate(req, deps, false)

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"command":        args[0],
			"kind":           d.Kind,
			"rule_id":        d.RuleID,
			"severity":       d.Severity,
			"response_level": d.ResponseLevel,
			"reason":         d.Reason,
		})
	},
}

// claudeHookEntry is the command Claude Code invokes, always this binary.
func claudeHookEntry() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving dcg binary path: %w", err)
	}
	return exe, nil
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the PreToolUse hook into ~/.claude/settings.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		exe, err := claudeHookEntry()
		if err != nil {
			return err
		}
		settingsPath, err := claudeSettingsPath()
		if err != nil {
			return err
		}
		settings, err := readClaudeSettings(settingsPath)
		if err != nil {
			return err
		}

		entry := fmt.Sprintf("%s hook pretooluse", exe)
		found := installHookEntry(settings, entry)

		if err := writeClaudeSettings(settingsPath, settings); err != nil {
			return err
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"status":          "installed",
			"settings_path":   settingsPath,
			"hook_command":    entry,
			"already_existed": found,
		})
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the PreToolUse hook from ~/.claude/settings.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		settingsPath, err := claudeSettingsPath()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(settingsPath)
		out := output.New(output.Format(GetOutput()))
		if err != nil {
			if os.IsNotExist(err) {
				return out.Write(map[string]any{"status": "not_installed"})
			}
			return fmt.Errorf("reading %s: %w", settingsPath, err)
		}
		var settings map[string]any
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("parsing %s: %w", settingsPath, err)
		}

		removed := uninstallHookEntries(settings)

		if err := writeClaudeSettings(settingsPath, settings); err != nil {
			return err
		}
		return out.Write(map[string]any{"status": "uninstalled", "removed": removed})
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show PreToolUse hook installation status",
	RunE: func(cmd *cobra.Command, args []string) error {
		settingsPath, err := claudeSettingsPath()
		if err != nil {
			return err
		}
		configured := false
		var configuredCommand string
		if data, err := os.ReadFile(settingsPath); err == nil {
			var settings map[string]any
			if json.Unmarshal(data, &settings) == nil {
				configured, configuredCommand = hookEntryConfigured(settings)
			}
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"settings_path":      settingsPath,
			"settings_configured": configured,
			"configured_command": configuredCommand,
		})
	},
}

var hookPreCommitCmd = &cobra.Command{
	Use:   "pre-commit",
	Short: "Evaluate staged files as a git pre-commit hook (installed by dcg hook install-git)",
	Long: `Scans every staged file's contents as a batch of shell scripts and
fails the commit (non-zero exit) if any line evaluates to deny. This is
the thin pre-commit collaborator described by spec.md §1/§6; it is
installed via historygit.InstallHook, not run directly by a human.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPath()
		if err != nil {
			return err
		}
		staged, err := stagedFiles(project)
		if err != nil {
			return err
		}
		return runScan(cmd, staged)
	},
}

var hookInstallGitCmd = &cobra.Command{
	Use:   "install-git",
	Short: "Install dcg as this repository's git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPath()
		if err != nil {
			return err
		}
		root, err := historygit.GetRoot(project)
		if err != nil {
			return fmt.Errorf("dcg hook install-git must run inside a git repository: %w", err)
		}
		if err := historygit.InstallHook(root); err != nil {
			return err
		}
		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{"status": "installed", "repo_root": root})
	},
}

func init() {
	hookCmd.AddCommand(hookInstallGitCmd)
}

func claudeSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

func readClaudeSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return settings, nil
}

func writeClaudeSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// installHookEntry adds entry as a Bash PreToolUse hook, returning true
// if an equivalent entry was already present.
func installHookEntry(settings map[string]any, entry string) bool {
	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}
	preToolUse, _ := hooks["PreToolUse"].([]any)

	found, _ := hookEntryConfigured(settings)
	if !found {
		preToolUse = append(preToolUse, map[string]any{
			"matcher": "Bash",
			"hooks": []map[string]any{
				{"type": "command", "command": entry},
			},
		})
	}

	hooks["PreToolUse"] = preToolUse
	settings["hooks"] = hooks
	return found
}

func uninstallHookEntries(settings map[string]any) bool {
	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		return false
	}
	preToolUse, _ := hooks["PreToolUse"].([]any)
	var filtered []any
	removed := false
	for _, raw := range preToolUse {
		h, ok := raw.(map[string]any)
		if !ok {
			filtered = append(filtered, raw)
			continue
		}
		if matcher, _ := h["matcher"].(string); matcher != "Bash" || !hookListMentionsDcg(h) {
			filtered = append(filtered, raw)
			continue
		}
		removed = true
	}
	hooks["PreToolUse"] = filtered
	settings["hooks"] = hooks
	return removed
}

func hookEntryConfigured(settings map[string]any) (bool, string) {
	hooks, _ := settings["hooks"].(map[string]any)
	preToolUse, _ := hooks["PreToolUse"].([]any)
	for _, raw := range preToolUse {
		h, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if matcher, _ := h["matcher"].(string); matcher != "Bash" {
			continue
		}
		if cmd, ok := dcgCommandIn(h); ok {
			return true, cmd
		}
	}
	return false, ""
}

func hookListMentionsDcg(h map[string]any) bool {
	_, ok := dcgCommandIn(h)
	return ok
}

func dcgCommandIn(h map[string]any) (string, bool) {
	// A settings map decoded from JSON holds []any; one built in-process by
	// installHookEntry holds []map[string]any.
	var hookList []map[string]any
	switch list := h["hooks"].(type) {
	case []map[string]any:
		hookList = list
	case []any:
		for _, raw := range list {
			if hk, ok := raw.(map[string]any); ok {
				hookList = append(hookList, hk)
			}
		}
	}
	for _, hk := range hookList {
		cmd, _ := hk["command"].(string)
		binary := cmd
		if i := strings.IndexByte(cmd, ' '); i >= 0 {
			binary = cmd[:i]
		}
		if filepath.Base(binary) == "dcg" {
			return cmd, true
		}
	}
	return "", false
}
