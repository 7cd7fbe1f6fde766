package heredoc

import "testing"

func TestExtractHeredocBasic(t *testing.T) {
	text := "cat <<EOF\nrm -rf /\nEOF\n"
	out := ExtractHeredocs(text)
	if len(out) != 1 {
		t.Fatalf("expected 1 heredoc body, got %d", len(out))
	}
	if out[0].Body != "rm -rf /" {
		t.Fatalf("unexpected body %q", out[0].Body)
	}
}

func TestExtractHeredocQuotedTag(t *testing.T) {
	text := "cat <<'EOF'\ngit reset --hard\nEOF\n"
	out := ExtractHeredocs(text)
	if len(out) != 1 || out[0].Body != "git reset --hard" {
		t.Fatalf("unexpected extraction %+v", out)
	}
}

func TestExtractHereString(t *testing.T) {
	text := `mysql -u root <<< "DROP DATABASE prod;"`
	out := ExtractHeredocs(text)
	if len(out) != 1 {
		t.Fatalf("expected here-string extraction, got %d", len(out))
	}
}

func TestExtractInlineCodeBashDashC(t *testing.T) {
	out, ok := ExtractInlineCode("bash", `bash -c 'git reset --hard'`)
	if !ok {
		t.Fatalf("expected inline code extraction")
	}
	if out.Body != "git reset --hard" {
		t.Fatalf("unexpected body %q", out.Body)
	}
	if out.Source != "inline_code" {
		t.Fatalf("unexpected source %q", out.Source)
	}
}

func TestExtractInlineCodeNonInterpreterReturnsFalse(t *testing.T) {
	if _, ok := ExtractInlineCode("git", "git status"); ok {
		t.Fatalf("git is not an interpreter, expected no extraction")
	}
}

func TestWalkBoundsRecursionDepth(t *testing.T) {
	calls := 0
	var submit Submitter
	submit = func(body, source string, depth int) (Outcome, error) {
		calls++
		out, _ := Walk(body, "bash", depth, false, submit)
		return out, nil
	}
	_, warnings := Walk(`bash -c 'bash -c "bash -c \"bash -c echo\""'`, "bash", 0, false, submit)
	if len(warnings) == 0 && calls >= MaxDepth+2 {
		t.Fatalf("expected recursion bound warning, got %d calls and no warnings", calls)
	}
}

func TestWalkPropagatesDeniedSubBody(t *testing.T) {
	submit := func(body, source string, depth int) (Outcome, error) {
		if body == "git reset --hard" {
			return Outcome{Denied: true, Note: "core.git:reset-hard"}, nil
		}
		return Outcome{}, nil
	}
	out, _ := Walk(`bash -c 'git reset --hard'`, "bash", 0, false, submit)
	if !out.Denied {
		t.Fatalf("expected denied outcome to propagate")
	}
}
