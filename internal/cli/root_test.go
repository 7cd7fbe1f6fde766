package cli

import "testing"

func TestGetOutputPrecedence(t *testing.T) {
	origJSON, origOutput := flagJSON, flagOutput
	defer func() { flagJSON, flagOutput = origJSON, origOutput }()

	flagJSON, flagOutput = false, ""
	if got := GetOutput(); got != "text" {
		t.Errorf("default GetOutput() = %q, want text", got)
	}

	flagJSON, flagOutput = false, "yaml"
	if got := GetOutput(); got != "yaml" {
		t.Errorf("GetOutput() with --output=yaml = %q, want yaml", got)
	}

	flagJSON, flagOutput = true, "yaml"
	if got := GetOutput(); got != "json" {
		t.Errorf("--json should override --output, got %q", got)
	}
}

func TestMustValidFormat(t *testing.T) {
	origJSON, origOutput := flagJSON, flagOutput
	defer func() { flagJSON, flagOutput = origJSON, origOutput }()

	for _, format := range []string{"text", "json", "yaml"} {
		flagJSON, flagOutput = false, format
		if err := mustValidFormat(); err != nil {
			t.Errorf("mustValidFormat() with %q: %v", format, err)
		}
	}

	flagJSON, flagOutput = false, "xml"
	if err := mustValidFormat(); err == nil {
		t.Error("expected an error for an unsupported output format")
	}
}
