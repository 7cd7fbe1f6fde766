// Package heredoc extracts here-document bodies and inline interpreter
// code arguments (spec.md §4.4) so the decision engine can recursively
// evaluate what a wrapping shell would actually execute.
package heredoc

import (
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
)

// MaxDepth bounds recursive re-submission of extracted bodies (spec.md
// §4.4: "Recursion is bounded (default 4)").
const MaxDepth = 4

// interpreters maps a known interpreter's executable word to the flags it
// accepts for inline code (spec.md §4.4).
var interpreters = map[string][]string{
	"bash":    {"-c"},
	"sh":      {"-c"},
	"zsh":     {"-c"},
	"dash":    {"-c"},
	"ksh":     {"-c"},
	"python":  {"-c"},
	"python3": {"-c"},
	"node":    {"-e"},
	"perl":    {"-e"},
	"ruby":    {"-e"},
}

// IsInterpreter reports whether execWord (already basename-normalized, or
// not — both are checked) names a known interpreter capable of hosting
// inline code via -c/-e. The quick-reject filter must pass any segment
// whose command is a known interpreter regardless of trigger-keyword
// overlap, or inline destructive code smuggled through `bash -c '...'`
// would never reach the extractor (spec.md §8: "bash -c 'git reset
// --hard'" must still evaluate to Deny).
func IsInterpreter(execWord string) bool {
	base := execWord
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	_, ok := interpreters[base]
	return ok
}

// Extracted is one extracted sub-command body, ready for recursive
// re-submission to the decision engine with the parent's cwd.
type Extracted struct {
	Body   string
	Source string // "heredoc" or "inline_code"
}

var hereDocHeaderRe = regexp.MustCompile(`<<-?\s*(['"]?)([A-Za-z_][A-Za-z0-9_]*)(['"]?)`)
var hereStringRe = regexp.MustCompile(`<<<\s*(\S.*)$`)

// ExtractHeredocs finds here-document bodies in segText (the full raw
// command or segment text, since heredoc bodies span subsequent lines
// rather than staying within one ;-delimited segment).
func ExtractHeredocs(text string) []Extracted {
	var out []Extracted
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if m := hereDocHeaderRe.FindStringSubmatch(line); m != nil {
			tag := m[2]
			quoted := m[1] != "" || m[3] != ""
			var body []string
			j := i + 1
			for ; j < len(lines); j++ {
				if strings.TrimSpace(lines[j]) == tag {
					break
				}
				body = append(body, lines[j])
			}
			bodyText := strings.Join(body, "\n")
			if !quoted {
				// Unquoted tags still carry terminator semantics only;
				// we never perform shell expansion (spec.md §4.4).
				_ = quoted
			}
			out = append(out, Extracted{Body: bodyText, Source: "heredoc"})
			i = j
			continue
		}
		if m := hereStringRe.FindStringSubmatch(line); m != nil {
			out = append(out, Extracted{Body: strings.TrimSpace(m[1]), Source: "heredoc"})
		}
	}
	return out
}

// ExtractInlineCode inspects a segment's raw text for a known interpreter
// invoked with -c/-e and returns the code argument. execWord is the
// segment's already-normalized executable word (spec.md §4.2); segRaw is
// the segment's executable span.
func ExtractInlineCode(execWord, segRaw string) (Extracted, bool) {
	base := execWord
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	flags, ok := interpreters[base]
	if !ok {
		return Extracted{}, false
	}
	words, err := parseWords(segRaw)
	if err != nil || len(words) == 0 {
		return Extracted{}, false
	}
	for i, w := range words {
		for _, flag := range flags {
			if w == flag && i+1 < len(words) {
				return Extracted{Body: words[i+1], Source: "inline_code"}, true
			}
			// -cSCRIPT / -eSCRIPT forms.
			if strings.HasPrefix(w, flag) && len(w) > len(flag) {
				return Extracted{Body: w[len(flag):], Source: "inline_code"}, true
			}
		}
	}
	return Extracted{}, false
}

func parseWords(s string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false
	return p.Parse(s)
}
