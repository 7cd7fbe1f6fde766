package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/catalog"
	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/output"
)

var (
	flagPatternsTier     string
	flagPatternsSeverity string
	flagPatternsAll      bool
)

func init() {
	patternsListCmd.Flags().StringVar(&flagPatternsTier, "tier", "", "only show patterns from packs in this tier")
	patternsListCmd.Flags().StringVar(&flagPatternsSeverity, "severity", "", "only show destructive patterns at this severity (low, medium, high, critical)")
	patternsListCmd.Flags().BoolVar(&flagPatternsAll, "all", false, "include disabled packs")

	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsTestCmd)
	rootCmd.AddCommand(patternsCmd)
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect the bundled pattern catalog",
	Long: `The catalog (spec.md §4.1) is an immutable, process-scoped registry of
packs grouped by tier. There is no runtime add/remove here: patterns
ship with dcg and are evaluated in a fixed tier-then-lexical order,
unlike an allowlist entry (see 'dcg allowlist') which only suppresses a
single rule for a specific command.`,
}

type patternRow struct {
	RuleID   string `json:"rule_id"`
	PackID   string `json:"pack_id"`
	Tier     string `json:"tier"`
	Category string `json:"category"`
	Severity string `json:"severity,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every pattern in the bundled catalog, grouped by tier",
	Long: `Lists every safe and destructive pattern in every pack, in the same
tier-then-lexical pack order the engine evaluates them in. Filter with
--tier or --severity, or include disabled packs with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		var packs []*catalog.Pack
		if flagPatternsAll {
			packs = cat.AllPacks()
		} else {
			packs = cat.EnabledPacks()
		}

		var rows []patternRow
		for _, pack := range packs {
			if flagPatternsTier != "" && !strings.EqualFold(string(pack.Tier), flagPatternsTier) {
				continue
			}
			for _, p := range pack.Safe {
				if flagPatternsSeverity != "" {
					continue
				}
				rows = append(rows, patternRow{
					RuleID:   p.RuleID(),
					PackID:   pack.PackID,
					Tier:     string(pack.Tier),
					Category: string(p.Category),
				})
			}
			for _, p := range pack.Destructive {
				if flagPatternsSeverity != "" && !strings.EqualFold(string(p.Severity), flagPatternsSeverity) {
					continue
				}
				rows = append(rows, patternRow{
					RuleID:   p.RuleID(),
					PackID:   pack.PackID,
					Tier:     string(pack.Tier),
					Category: string(p.Category),
					Severity: string(p.Severity),
					Mode:     string(p.Mode),
					Reason:   p.Reason,
				})
			}
		}

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{"patterns": rows, "count": len(rows)})
	},
}

var patternsTestCmd = &cobra.Command{
	Use:   "test <command>",
	Short: "Run a single command through the decision engine without consulting the allowlist or history",
	Long: `Evaluates a command against the catalog in isolation — no allowlist,
no pending exceptions, no history write (spec.md §1 "pattern tester"
external collaborator). Useful for checking what a pattern would do
before wiring it into a hook or pre-commit scan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Catalog and config only: no allowlist, pending store, history or
		// session store is consulted or written.
		deps := engine.Deps{Catalog: catalog.Default(), Config: cfg}
		project, err := projectPath()
		if err != nil {
			return err
		}

		req := engine.CommandRequest{RawCommand: args[0], Cwd: project, Now: time.Now()}
		d, trace := engine.Evaluate(req, deps, true)

		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"command":        args[0],
			"kind":           d.Kind,
			"rule_id":        d.RuleID,
			"severity":       d.Severity,
			"response_level": d.ResponseLevel,
			"reason":         d.Reason,
			"trace":          trace,
		})
	},
}
