package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanLinesReadsEveryLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.sh")
	content := "#!/bin/sh\n# a comment\n\nrm -rf /tmp/build\necho done\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := scanLines(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"#!/bin/sh", "# a comment", "", "rm -rf /tmp/build", "echo done"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestScanLinesMissingFileErrors(t *testing.T) {
	if _, err := scanLines(filepath.Join(t.TempDir(), "missing.sh")); err == nil {
		t.Fatal("expected an error reading a missing file")
	}
}
