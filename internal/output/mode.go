package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"text/tabwriter"
)

// OutputModeKind is the process-wide text/json toggle consulted by commands
// that don't carry their own *Writer (e.g. early flag parsing, before a
// Writer can be constructed from --output).
type OutputModeKind string

const (
	OutputModeText OutputModeKind = "text"
	OutputModeJSON OutputModeKind = "json"
)

var outputMode atomic.Value

// SetOutputMode records whether global JSON mode is active.
func SetOutputMode(json bool) {
	if json {
		outputMode.Store(OutputModeJSON)
		return
	}
	outputMode.Store(OutputModeText)
}

// GetOutputMode returns the current global mode, defaulting to text when
// SetOutputMode has never been called.
func GetOutputMode() OutputModeKind {
	v, ok := outputMode.Load().(OutputModeKind)
	if !ok {
		return OutputModeText
	}
	return v
}

// IsJSON reports whether global JSON mode is active.
func IsJSON() bool {
	return GetOutputMode() == OutputModeJSON
}

// ErrorPayload is the JSON shape of a reported CLI error.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputJSONError writes an ErrorPayload to stdout as compact JSON.
func OutputJSONError(err error, code int) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(ErrorPayload{
		Error:   "error",
		Message: err.Error(),
		Details: map[string]any{"code": code},
	})
}

// OutputTable writes a left-aligned, tab-separated table to stderr, for
// text-mode output that isn't routed through a *Writer.
func OutputTable(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, joinTab(headers))
	for _, row := range rows {
		fmt.Fprintln(tw, joinTab(row))
	}
	tw.Flush()
}

// OutputList writes one item per line to stderr.
func OutputList(items []string) {
	for _, item := range items {
		fmt.Fprintln(os.Stderr, item)
	}
}

func joinTab(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += "\t"
		}
		out += f
	}
	return out
}
