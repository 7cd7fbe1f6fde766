// Package cli implements the pending-exception maintenance subcommand.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/output"
	"github.com/dcg-project/dcg/internal/pending"
)

func init() {
	pendingCmd.AddCommand(pendingGCCmd)
	rootCmd.AddCommand(pendingCmd)
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Inspect and maintain the pending-exception store",
}

var pendingGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Compact the pending-exception store, dropping consumed/expired records",
	Long: `Rewrites pending_exceptions.jsonl in place, keeping only active
grants (spec.md §4.6 "A background or on-load compaction may rewrite the
file with only active records"). Safe to run at any time; every
evaluation already does the equivalent load-and-filter pass in memory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home := homeDir()
		store := pending.NewStore(pending.DefaultPath(nil, home))
		maint, err := store.Compact(time.Now())
		if err != nil {
			return err
		}
		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"pruned_expired":  maint.PrunedExpired,
			"pruned_consumed": maint.PrunedConsumed,
			"parse_errors":    maint.ParseErrors,
		})
	},
}
