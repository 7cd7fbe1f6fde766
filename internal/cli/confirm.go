package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dcg-project/dcg/internal/config"
	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/output"
	"github.com/dcg-project/dcg/internal/pending"
	"github.com/dcg-project/dcg/internal/tui"
	"github.com/dcg-project/dcg/internal/tui/theme"
)

func init() {
	rootCmd.AddCommand(allowOnceCmd)
	rootCmd.AddCommand(confirmCmd)
}

var allowOnceCmd = &cobra.Command{
	Use:   "allow-once <code>",
	Short: "Look up a pending exception by its short code",
	Long: `Looks up the PendingException a denied command was granted (spec.md
§4.6), without the interactive retype prompt. Re-running the exact same
command in the same directory is then allowed once (spec.md §4.8.2's
consultPending check is automatic — this command is purely informational
for an agent that needs to confirm the grant exists before retrying).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return lookupPendingCode(args[0])
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <code>",
	Short: "Interactively confirm a soft-blocked command before retrying it",
	Long: `Drives the TTY confirm prompt (spec.md §4.8.1 soft-block confirm
flow): retype the confirmation code (or the raw command, or press enter,
depending on interactive.verification), subject to interactive.timeout_seconds
and interactive.max_attempts. On success the same consultPending check
allow-once relies on lets the next identical command through.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Interactive.Enabled || !term.IsTerminal(int(os.Stdin.Fd())) {
			return lookupPendingCode(args[0])
		}
		return runInteractiveConfirm(cfg, args[0])
	},
}

func lookupPendingCode(code string) error {
	home := homeDir()
	store := pending.NewStore(pending.DefaultPath(nil, home))
	now := time.Now()
	matches, _, err := store.LookupByShortCode(code, now)
	if err != nil {
		return fmt.Errorf("looking up code %q: %w", code, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no active pending exception for code %q", code)
	}

	out := output.New(output.Format(GetOutput()))
	for _, m := range matches {
		if err := out.Write(map[string]any{
			"short_code":  m.ShortCode,
			"cwd":         m.Cwd,
			"command":     m.CommandRedacted,
			"single_use":  m.SingleUse,
			"expires_at":  m.ExpiresAt,
			"expires_in":  humanize.Time(m.ExpiresAt),
			"reused_hint": "re-run the exact command in the same directory to proceed",
		}); err != nil {
			return err
		}
	}
	return nil
}

func runInteractiveConfirm(cfg config.Config, code string) error {
	home := homeDir()
	store := pending.NewStore(pending.DefaultPath(nil, home))
	now := time.Now()
	matches, _, err := store.LookupByShortCode(code, now)
	if err != nil {
		return fmt.Errorf("looking up code %q: %w", code, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no active pending exception for code %q", code)
	}
	rec := matches[0]

	theme.SetTheme(theme.FlavorName(cfg.UI.Theme))
	decision := engine.Decision{
		Kind:          engine.KindDeny,
		RuleID:        rec.Reason,
		ResponseLevel: engine.LevelSoftBlock,
		ConfirmCode:   rec.ShortCode,
		AllowOnceCode: rec.ShortCode,
	}

	result, err := tui.RunConfirm(decision, rec.CommandRedacted, cfg.Interactive)
	if err != nil {
		return fmt.Errorf("running confirm prompt: %w", err)
	}

	out := output.New(output.Format(GetOutput()))
	switch result.Outcome {
	case tui.OutcomeConfirmed:
		return out.Write(map[string]any{
			"status":  "confirmed",
			"code":    code,
			"attempts": result.Attempts,
			"hint":    "re-run the exact command in the same directory to proceed",
		})
	default:
		return fmt.Errorf("confirm %s: %s", code, result.Outcome)
	}
}
