package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dcg-project/dcg/internal/engine"
)

func init() {
	rootCmd.AddCommand(serveMCPCmd)
}

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Speak a minimal evaluate-only JSON-RPC framing over stdin/stdout",
	Long: `A stub MCP server facade (spec.md §1's "MCP server" external
collaborator is out of scope to implement fully; SPEC_FULL.md documents
the Go entrypoint it would bind, internal/engine.Evaluator).

This command does not implement the MCP handshake, capability
negotiation, or tool schema — an actual MCP facade would front
internal/engine.BoundEvaluator with that protocol. It documents the
framing by example: one JSON object per line on stdin,
{"id":..., "command":..., "cwd":...}, answered by one JSON object per
line on stdout, {"id":..., "decision": {...}}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		deps, err := buildDeps(cfg)
		if err != nil {
			return err
		}
		eval := engine.BoundEvaluator{Deps: deps}
		return runMCPLoop(os.Stdin, os.Stdout, eval)
	},
}

type mcpRequest struct {
	ID      any    `json:"id"`
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

type mcpResponse struct {
	ID       any          `json:"id"`
	Decision *mcpDecision `json:"decision,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type mcpDecision struct {
	Kind          string `json:"kind"`
	RuleID        string `json:"rule_id,omitempty"`
	Severity      string `json:"severity,omitempty"`
	ResponseLevel string `json:"response_level,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func runMCPLoop(in io.Reader, out io.Writer, eval engine.Evaluator) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req mcpRequest
		if err := json.Unmarshal(line, &req); err != nil {
			if encErr := enc.Encode(mcpResponse{Error: fmt.Sprintf("invalid request: %v", err)}); encErr != nil {
				return encErr
			}
			continue
		}
		if req.Cwd == "" {
			if cwd, err := os.Getwd(); err == nil {
				req.Cwd = cwd
			}
		}

		d, _ := eval.Evaluate(engine.CommandRequest{RawCommand: req.Command, Cwd: req.Cwd, Now: time.Now()}, false)
		resp := mcpResponse{
			ID: req.ID,
			Decision: &mcpDecision{
				Kind:          string(d.Kind),
				RuleID:        d.RuleID,
				Severity:      string(d.Severity),
				ResponseLevel: string(d.ResponseLevel),
				Reason:        d.Reason,
			},
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error("serve-mcp: reading stdin", "err", err)
		return err
	}
	return nil
}
