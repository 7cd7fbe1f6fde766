package cli

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestConfigSetThenGetRoundTrips(t *testing.T) {
	withTempHome(t)

	if err := configSetCmd.RunE(configSetCmd, []string{"history.max_entries", "250"}); err != nil {
		t.Fatal(err)
	}

	out := captureStdout(t, func() {
		if err := configGetCmd.RunE(configGetCmd, []string{"history.max_entries"}); err != nil {
			t.Fatal(err)
		}
	})

	var resp struct {
		Key   string `json:"key"`
		Value int    `json:"value"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &resp); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
	if resp.Value != 250 {
		t.Errorf("got value=%d, want 250", resp.Value)
	}
}

func TestConfigGetUnknownKeyErrors(t *testing.T) {
	withTempHome(t)
	if err := configGetCmd.RunE(configGetCmd, []string{"not.a.real.key"}); err == nil {
		t.Fatal("expected an error for an unknown config key")
	}
}
