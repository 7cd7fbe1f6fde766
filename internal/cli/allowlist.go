package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/allowlist"
	"github.com/dcg-project/dcg/internal/output"
)

var (
	flagAllowlistGlobal  bool
	flagAllowPrefix      bool
	flagAllowContext     string
	flagAllowPattern     bool
	flagAllowRisk        bool
	flagAllowReason      string
	flagAllowAddedBy     string
	flagAllowExpiresDays int
)

func init() {
	allowlistAddCmd.Flags().BoolVar(&flagAllowlistGlobal, "global", false, "add to the user allowlist (~/.config/dcg/allowlist.toml) instead of the project one")
	allowlistAddCmd.Flags().BoolVar(&flagAllowPrefix, "prefix", false, "treat the argument as a command_prefix entry")
	allowlistAddCmd.Flags().StringVar(&flagAllowContext, "context", "", "context tag to narrow a --prefix entry (string-argument, search-pattern, heredoc-example, comment, disabled-code)")
	allowlistAddCmd.Flags().BoolVar(&flagAllowPattern, "pattern", false, "treat the argument as a regex pattern entry (requires --risk-acknowledged)")
	allowlistAddCmd.Flags().BoolVar(&flagAllowRisk, "risk-acknowledged", false, "required for --pattern entries (spec.md §4.5)")
	allowlistAddCmd.Flags().StringVar(&flagAllowReason, "reason", "", "human-readable justification stored alongside the entry")
	allowlistAddCmd.Flags().StringVar(&flagAllowAddedBy, "added-by", "", "who is adding this entry")
	allowlistAddCmd.Flags().IntVar(&flagAllowExpiresDays, "expires-days", 0, "expire the entry this many days from now (0 = never)")

	allowlistListCmd.Flags().BoolVar(&flagAllowlistGlobal, "global", false, "list only the user allowlist")

	allowlistCmd.AddCommand(allowlistListCmd)
	allowlistCmd.AddCommand(allowlistAddCmd)
	rootCmd.AddCommand(allowlistCmd)
}

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Inspect and edit the command allowlist",
	Long: `The allowlist (spec.md §4.5) suppresses a single destructive rule for
an exact command, a command_prefix plus optional context tag, or a
risk-acknowledged regex, without disabling the rest of the evaluation.`,
}

var allowlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the merged project + user allowlist entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPath()
		if err != nil {
			return err
		}
		projPath, userPath := allowlistPaths(project)
		paths := []string{projPath, userPath}
		if flagAllowlistGlobal {
			paths = []string{userPath}
		}

		list, err := allowlist.Load(paths, time.Now())
		if err != nil {
			return err
		}

		type row struct {
			Kind    string `json:"kind"`
			Match   string `json:"match"`
			Context string `json:"context,omitempty"`
			Reason  string `json:"reason,omitempty"`
			Source  string `json:"source"`
		}
		rows := make([]row, 0, len(list.Entries))
		for _, e := range list.Entries {
			r := row{Kind: string(e.Kind), Reason: e.Reason, Source: e.Source}
			switch e.Kind {
			case allowlist.KindExact:
				r.Match = e.Exact
			case allowlist.KindPrefix:
				r.Match = e.Prefix
				r.Context = string(e.Context)
			case allowlist.KindRegex:
				r.Match = e.Pattern
			}
			rows = append(rows, r)
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{"entries": rows, "warnings": list.Warnings})
	},
}

var allowlistAddCmd = &cobra.Command{
	Use:   "add <command-or-pattern>",
	Short: "Append an entry to the project (or --global) allowlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagAllowPattern && !flagAllowRisk {
			return fmt.Errorf("--pattern entries require --risk-acknowledged (spec.md §4.5)")
		}
		if flagAllowPattern && flagAllowPrefix {
			return fmt.Errorf("--pattern and --prefix are mutually exclusive")
		}

		project, err := projectPath()
		if err != nil {
			return err
		}
		projPath, userPath := allowlistPaths(project)
		target := projPath
		if flagAllowlistGlobal {
			target = userPath
		}

		entry := rawAllowEntry{
			RiskAcknowledged: flagAllowRisk,
			Reason:           flagAllowReason,
			AddedBy:          flagAllowAddedBy,
			AddedAt:          time.Now().UTC().Format(time.RFC3339),
		}
		switch {
		case flagAllowPattern:
			entry.Pattern = args[0]
		case flagAllowPrefix:
			entry.CommandPrefix = args[0]
			entry.Context = flagAllowContext
		default:
			entry.Command = args[0]
		}
		if flagAllowExpiresDays > 0 {
			entry.ExpiresAt = time.Now().UTC().AddDate(0, 0, flagAllowExpiresDays).Format(time.RFC3339)
		}

		if err := appendAllowlistEntry(target, entry); err != nil {
			return err
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{"path": target, "added": entry})
	},
}

// rawAllowEntry mirrors the [[allow]] TOML table shape the allowlist
// package itself decodes.
type rawAllowEntry struct {
	Command          string `toml:"command,omitempty"`
	CommandPrefix    string `toml:"command_prefix,omitempty"`
	Context          string `toml:"context,omitempty"`
	Pattern          string `toml:"pattern,omitempty"`
	RiskAcknowledged bool   `toml:"risk_acknowledged,omitempty"`
	Reason           string `toml:"reason,omitempty"`
	AddedBy          string `toml:"added_by,omitempty"`
	AddedAt          string `toml:"added_at,omitempty"`
	ExpiresAt        string `toml:"expires_at,omitempty"`
}

type rawAllowFile struct {
	Allow []rawAllowEntry `toml:"allow"`
}

func appendAllowlistEntry(path string, entry rawAllowEntry) error {
	var file rawAllowFile
	if data, err := os.ReadFile(path); err == nil {
		if _, derr := toml.Decode(string(data), &file); derr != nil {
			return fmt.Errorf("parsing existing %s: %w", path, derr)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	file.Allow = append(file.Allow, entry)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
