// Package cli implements the history command.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/history"
	"github.com/dcg-project/dcg/internal/historygit"
	"github.com/dcg-project/dcg/internal/historyindex"
	"github.com/dcg-project/dcg/internal/output"
)

var (
	flagHistoryRuleID  string
	flagHistoryPackID  string
	flagHistorySession string
	flagHistorySince   string
	flagHistoryLimit   int
	flagHistoryMaxAge  time.Duration
	flagHistoryMaxN    int
)

func init() {
	historyShowCmd.Flags().StringVar(&flagHistoryRuleID, "rule-id", "", "filter by rule_id (pack_id:name)")
	historyShowCmd.Flags().StringVar(&flagHistoryPackID, "pack-id", "", "filter by pack_id")
	historyShowCmd.Flags().StringVar(&flagHistorySession, "session", "", "filter by session_id")
	historyShowCmd.Flags().StringVar(&flagHistorySince, "since", "", "only show records at or after this time (RFC3339 or YYYY-MM-DD)")
	historyShowCmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "max results to return")

	historyGCCmd.Flags().DurationVar(&flagHistoryMaxAge, "max-age", history.DefaultMaxAge, "drop records older than this")
	historyGCCmd.Flags().IntVar(&flagHistoryMaxN, "max-entries", history.DefaultMaxEntries, "cap the log at this many most-recent records")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyGCCmd)
	historyCmd.AddCommand(historyInitCmd)
	historyCmd.AddCommand(historyCommitCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the append-only destructive-match log",
	Long: `history.jsonl (spec.md §4.7) records one line per evaluated
destructive match: rule_id, pack_id, severity, response_level,
session_id, cwd, a sha256 of the raw command (never the command
itself), and whether it was ultimately allowed. 'dcg history show'
syncs a queryable sqlite cache (internal/historyindex) over the log so
filtering doesn't mean a full linear scan on every invocation.`,
}

// historyIndexPath returns the sqlite cache path, a sibling of history.jsonl.
func historyIndexPath(home string) string {
	return filepath.Join(filepath.Dir(history.DefaultPath(home)), "history_index.sqlite")
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Query the history log",
	RunE: func(cmd *cobra.Command, args []string) error {
		home := homeDir()
		store := history.NewStore(history.DefaultPath(home))

		idx, err := historyindex.Open(historyIndexPath(home))
		if err != nil {
			return fmt.Errorf("opening history index: %w", err)
		}
		defer idx.Close()

		if _, err := historyindex.Sync(idx, store); err != nil {
			return fmt.Errorf("syncing history index: %w", err)
		}

		filter := historyindex.QueryFilter{
			RuleID:    flagHistoryRuleID,
			PackID:    flagHistoryPackID,
			SessionID: flagHistorySession,
			Limit:     flagHistoryLimit,
		}
		if flagHistorySince != "" {
			since, perr := parseSinceFlag(flagHistorySince)
			if perr != nil {
				return perr
			}
			filter.Since = since
		}

		entries, err := idx.Entries(filter)
		if err != nil {
			return fmt.Errorf("querying history index: %w", err)
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{"entries": entries, "count": len(entries)})
	},
}

func parseSinceFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: want RFC3339 or YYYY-MM-DD", s)
}

var historyGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Prune the history log by age and entry count",
	Long: `Rewrites history.jsonl, dropping records older than --max-age or
beyond the --max-entries cap (spec.md §4.7 "Maintenance"). If a git
audit trail was installed (dcg hook install-git's sibling, the
historygit.HistoryRepo), this does not touch its commits — the git
trail is an independent, append-only mirror.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home := homeDir()
		store := history.NewStore(history.DefaultPath(home))
		maint, err := store.Prune(flagHistoryMaxAge, flagHistoryMaxN, time.Now())
		if err != nil {
			return err
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"pruned_by_age": maint.PrunedAge,
			"pruned_by_cap": maint.PrunedCap,
			"parse_errors":  maint.ParseErrors,
		})
	},
}

// historyGitRepo resolves history.git_repo_path, expanding "~" and
// falling back to the default audit directory when unset.
func historyGitRepo(gitRepoPath string) (*historygit.HistoryRepo, error) {
	if gitRepoPath == "" {
		gitRepoPath = historygit.DefaultHistoryGitPath(homeDir())
	}
	return historygit.NewHistoryRepo(gitRepoPath)
}

var historyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the optional git audit-trail repo",
	Long: `Creates history.git_repo_path as a git working tree with a commit
identity, ready for 'dcg history commit' (SPEC_FULL.md's supplemented
git audit trail). Commits happen only through 'dcg history commit';
history.auto_git_commit does not trigger any.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := historyGitRepo(cfg.History.GitRepoPath)
		if err != nil {
			return err
		}
		if err := repo.Init(); err != nil {
			return err
		}
		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{"path": repo.Path, "status": "initialized"})
	},
}

var historyCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the full history log into the git audit-trail repo as one batch",
	Long: `Reads every record in history.jsonl and commits them as a single
batch file (historygit.HistoryRepo.CommitBatch). A no-op, producing no
new commit, if the log hasn't changed since the last commit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		home := homeDir()
		store := history.NewStore(history.DefaultPath(home))
		records, _, err := store.LoadAll()
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		if len(records) == 0 {
			out := output.New(output.Format(GetOutput()))
			return out.Write(map[string]any{"committed": false, "reason": "history log is empty"})
		}

		repo, err := historyGitRepo(cfg.History.GitRepoPath)
		if err != nil {
			return err
		}
		committed, path, err := repo.CommitBatch(records)
		if err != nil {
			return fmt.Errorf("committing batch: %w", err)
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{"committed": committed, "path": path, "records": len(records)})
	},
}
