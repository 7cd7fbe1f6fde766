// Command dcg is the destructive command guard: a gatekeeper invoked by
// AI coding agents before they execute a shell command.
package main

import (
	"fmt"
	"os"

	"github.com/dcg-project/dcg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
