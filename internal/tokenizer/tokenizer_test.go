package tokenizer

import "testing"

func words(r Result) []string {
	out := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = s.ExecWord
	}
	return out
}

func TestSegmentsSplitOnSeparators(t *testing.T) {
	cases := map[string][]string{
		"git status; ls":            {"git", "ls"},
		"make build && make test":   {"make", "make"},
		"foo || bar":                {"foo", "bar"},
		"ps aux | grep x":           {"ps", "grep"},
		"sleep 1 & echo done":       {"sleep", "echo"},
		"git status\nls -la":        {"git", "ls"},
	}
	for input, want := range cases {
		got := words(Segments(input))
		if len(got) != len(want) {
			t.Fatalf("%q: got %v, want %v", input, got, want)
		}
	}
}

func TestQuotedSeparatorsDoNotSplit(t *testing.T) {
	r := Segments(`echo "rm -rf; something"`)
	if len(r.Segments) != 1 {
		t.Fatalf("expected one segment, got %d: %+v", len(r.Segments), r.Segments)
	}
	if r.Segments[0].ExecWord != "echo" {
		t.Fatalf("expected exec word echo, got %q", r.Segments[0].ExecWord)
	}
}

func TestCommandSubstitutionProtectsInnerSeparators(t *testing.T) {
	r := Segments(`echo $(ls; pwd)`)
	if len(r.Segments) != 1 {
		t.Fatalf("expected command substitution body to not split the segment, got %d segments", len(r.Segments))
	}
}

func TestSudoWrapperStripped(t *testing.T) {
	r := Segments("sudo rm -rf /var/log")
	seg := r.Segments[0]
	if seg.ExecWord != "rm" {
		t.Fatalf("expected exec word rm, got %q", seg.ExecWord)
	}
	if len(seg.WrapperChain) != 1 || seg.WrapperChain[0] != "sudo" {
		t.Fatalf("expected wrapper chain [sudo], got %v", seg.WrapperChain)
	}
}

func TestEnvWrapperSwallowsAssignmentsAndFlags(t *testing.T) {
	r := Segments("env -i FOO=bar BAZ=qux rm -rf /tmp/x")
	seg := r.Segments[0]
	if seg.ExecWord != "rm" {
		t.Fatalf("expected exec word rm, got %q", seg.ExecWord)
	}
}

func TestLeadingAssignmentsStripped(t *testing.T) {
	r := Segments("FOO=bar BAZ=qux make deploy")
	seg := r.Segments[0]
	if seg.ExecWord != "make" {
		t.Fatalf("expected exec word make, got %q", seg.ExecWord)
	}
	if len(seg.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %v", seg.Assignments)
	}
}

func TestLeadingBackslashAndDotSlashNormalized(t *testing.T) {
	if Segments(`\git status`).Segments[0].ExecWord != "git" {
		t.Fatalf("expected backslash-escaped git to normalize")
	}
	if Segments(`./script.sh`).Segments[0].ExecWord != "script.sh" {
		t.Fatalf("expected ./script.sh to normalize to script.sh")
	}
}

func TestUnterminatedQuoteFailsOpenToSingleSegment(t *testing.T) {
	r := Segments(`echo "unterminated`)
	if !r.UnterminatedQuote {
		t.Fatalf("expected UnterminatedQuote to be set")
	}
	if len(r.Segments) != 1 {
		t.Fatalf("expected exactly one fail-open segment, got %d", len(r.Segments))
	}
}

func TestExecSpanCoversWordToSegmentEnd(t *testing.T) {
	r := Segments("sudo rm -rf /home/user")
	seg := r.Segments[0]
	span := seg.ExecSpan()
	if span != "rm -rf /home/user" {
		t.Fatalf("unexpected exec span %q", span)
	}
}

func TestWrapperLayersBoundedAtFour(t *testing.T) {
	r := Segments("time nohup command exec sudo rm -rf /")
	seg := r.Segments[0]
	if len(seg.WrapperChain) != maxWrapperLayers {
		t.Fatalf("expected %d stripped layers, got %d (%v)", maxWrapperLayers, len(seg.WrapperChain), seg.WrapperChain)
	}
}
