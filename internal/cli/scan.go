package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/output"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan <files...>",
	Short: "Evaluate every line of the given files as a shell command",
	Long: `Batch evaluation over file contents treated as scripts (spec.md §1's
"pre-commit file scanner" external collaborator). Each non-blank,
non-comment line is run through the Decision Engine; the command exits
non-zero if any line evaluates to deny.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

// scanFinding is one destructive line found while scanning a file.
type scanFinding struct {
	File          string `json:"file"`
	Line          int    `json:"line"`
	Command       string `json:"command"`
	Kind          string `json:"kind"`
	RuleID        string `json:"rule_id,omitempty"`
	ResponseLevel string `json:"response_level,omitempty"`
}

func runScan(cmd *cobra.Command, files []string) error {
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
	now := time.Now()

	var findings []scanFinding
	for _, path := range files {
		lines, err := scanLines(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for lineNo, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			req := engine.CommandRequest{RawCommand: trimmed, Cwd: project, Now: now}
			d, _ := engine.Evaluate(req, deps, false)
			if d.Kind == engine.KindAllow {
				continue
			}
			findings = append(findings, scanFinding{
				File:          path,
				Line:          lineNo + 1,
				Command:       trimmed,
				Kind:          string(d.Kind),
				RuleID:        d.RuleID,
				ResponseLevel: string(d.ResponseLevel),
			})
		}
	}

	out := output.New(output.Format(GetOutput()))
	if err := out.Write(map[string]any{"findings": findings, "scanned_files": len(files)}); err != nil {
		return err
	}

	for _, f := range findings {
		if f.Kind == string(engine.KindDeny) {
			return fmt.Errorf("scan: %s:%d denies: %s", f.File, f.Line, f.Command)
		}
	}
	return nil
}

func scanLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// stagedFiles lists the files staged for commit in the git repo containing dir.
func stagedFiles(dir string) ([]string, error) {
	c := exec.Command("git", "diff", "--cached", "--name-only", "--diff-filter=ACM")
	c.Dir = dir
	var out bytes.Buffer
	c.Stdout = &out
	if err := c.Run(); err != nil {
		return nil, fmt.Errorf("listing staged files: %w", err)
	}
	var files []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
