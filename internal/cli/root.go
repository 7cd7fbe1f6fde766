// Package cli implements dcg's Cobra command surface: the thin external
// caller spec.md §1 describes and SPEC_FULL.md's domain stack builds out,
// sitting in front of internal/engine.
package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/output"
)

// Version information, set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global persistent flag values.
var (
	flagConfig  string
	flagOutput  string
	flagJSON    bool
	flagVerbose bool
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "dcg",
	Short: "Destructive Command Guard - a gatekeeper for destructive shell commands",
	Long: `dcg evaluates a shell command before an AI coding agent (or a human)
runs it, classifying it against a pattern catalog and returning an
allow/deny/warn decision with a stable trace.

It is invoked two ways:
  dcg hook pretooluse   reads a PreToolUse JSON envelope from stdin and
                        exits 0 (allow), 1 (deny, JSON on stdout) or 2 (warn)
  dcg <subcommand>      explicit CLI surface for configuration, history,
                        allowlisting, and ad hoc scanning`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
		return mustValidFormat()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := output.New(output.Format(GetOutput()))
		return out.Write(map[string]any{
			"version":    version,
			"commit":     commit,
			"build_date": date,
			"go_version": runtime.Version(),
		})
	},
}

// Execute runs the root command; it is cmd/dcg/main.go's sole entrypoint
// for every non-hook invocation.
func Execute() error {
	return rootCmd.Execute()
}

// GetOutput returns the configured output format: --json/--output (highest
// precedence), then the DCG_FORMAT environment override (spec.md §6
// "Environment overrides"), then text.
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "" {
		return flagOutput
	}
	if env := os.Getenv("DCG_FORMAT"); env != "" {
		return env
	}
	return "text"
}

func mustValidFormat() error {
	switch GetOutput() {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", GetOutput())
	}
}

func init() {
	log.SetReportTimestamp(false)

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path (overrides project .dcg/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output format: text, json, yaml (default text, or $DCG_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory (default: cwd)")

	rootCmd.AddCommand(versionCmd)
}
