// Package tokenizer splits a raw shell command into executable segments
// (spec.md §4.2), stripping wrapper prefixes and leading variable
// assignments so the decision engine can gate on the true command word.
package tokenizer

import (
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
)

// wrapperTable lists prefix commands whose first non-flag argument is the
// true command (spec.md §4.2 step 4). env additionally swallows leading
// VAR=value pairs before the real command.
var wrapperTable = map[string]struct{}{
	"sudo":          {},
	"env":           {},
	"/usr/bin/env":  {},
	"command":       {},
	"exec":          {},
	"time":          {},
	"nohup":         {},
}

const maxWrapperLayers = 4

var assignmentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// Segment is one executable unit produced by splitting a raw command on
// unquoted separators.
type Segment struct {
	// Raw is the segment's text as it appeared in the original command,
	// trimmed of leading/trailing whitespace.
	Raw string
	// Start, End are byte offsets of Raw within the original raw command.
	Start, End int
	// ExecWord is the normalized executable word (leading backslash and
	// a redundant "./" stripped).
	ExecWord string
	// ExecWordRaw is ExecWord before normalization, as it appeared in Raw.
	ExecWordRaw string
	// WrapperChain records stripped wrapper prefixes, in encounter order.
	WrapperChain []string
	// Assignments records stripped leading VAR=value tokens.
	Assignments []string
	// ExecSpanStart is the offset, relative to Raw, of the executable word — the start of the "executable span"
	// (spec.md §4.2: "the byte range from its executable word to its
	// segment terminator").
	ExecSpanStart int
	// ParseError marks a segment whose word-splitting failed (unbalanced
	// quoting inside the segment); ExecWord falls back to the first
	// whitespace-delimited token of Raw.
	ParseError bool
}

// ExecSpan returns the executable span text: from the executable word to
// the end of the segment.
func (s Segment) ExecSpan() string {
	if s.ExecSpanStart < 0 || s.ExecSpanStart > len(s.Raw) {
		return s.Raw
	}
	return s.Raw[s.ExecSpanStart:]
}

// Result is the outcome of segmenting a raw command.
type Result struct {
	Segments []Segment
	// UnterminatedQuote is set when the scanner hit EOF inside an open
	// quote; per spec.md §4.2 edge cases this fails open by returning a
	// single segment covering the whole input.
	UnterminatedQuote bool
}

// Segments splits raw into executable segments per spec.md §4.2.
func Segments(raw string) Result {
	spans, unterminated := splitUnquoted(raw)
	if unterminated {
		trimmed := strings.TrimSpace(raw)
		start := strings.Index(raw, trimmed)
		if start < 0 {
			start = 0
		}
		seg := buildSegment(trimmed, start)
		return Result{Segments: []Segment{seg}, UnterminatedQuote: true}
	}

	out := make([]Segment, 0, len(spans))
	for _, sp := range spans {
		text := raw[sp.start:sp.end]
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		offset := sp.start + strings.Index(text, trimmed)
		out = append(out, buildSegment(trimmed, offset))
	}
	return Result{Segments: out}
}

type byteSpan struct{ start, end int }

// splitUnquoted scans raw for top-level separators (;, &&, ||, |, &, and
// unquoted newline), respecting single/double quoting, backslash escapes,
// and protecting the contents of $(...) and `...` spans (whose bodies are
// recursively re-submitted by the heredoc/inline extractor, not split
// here) from being mistaken for segment boundaries.
func splitUnquoted(raw string) (spans []byteSpan, unterminated bool) {
	var quote byte
	backtick := false
	parenDepth := 0
	segStart := 0
	i := 0
	n := len(raw)

	flush := func(end int) {
		if end > segStart {
			spans = append(spans, byteSpan{segStart, end})
		}
	}

	for i < n {
		c := raw[i]

		if quote != 0 {
			if c == '\\' && quote == '"' && i+1 < n && isDoubleQuoteEscape(raw[i+1]) {
				i += 2
				continue
			}
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if backtick {
			if c == '\\' && i+1 < n {
				i += 2
				continue
			}
			if c == '`' {
				backtick = false
			}
			i++
			continue
		}

		switch {
		case c == '\\' && i+1 < n:
			i += 2
			continue
		case c == '\'' || c == '"':
			quote = c
			i++
			continue
		case c == '`':
			backtick = true
			i++
			continue
		case c == '$' && i+1 < n && raw[i+1] == '(':
			parenDepth++
			i += 2
			continue
		case parenDepth > 0 && c == '(':
			parenDepth++
			i++
			continue
		case parenDepth > 0 && c == ')':
			parenDepth--
			i++
			continue
		}

		if parenDepth > 0 {
			i++
			continue
		}

		switch c {
		case ';', '\n':
			flush(i)
			i++
			segStart = i
		case '&':
			if i+1 < n && raw[i+1] == '&' {
				flush(i)
				i += 2
			} else {
				flush(i)
				i++
			}
			segStart = i
		case '|':
			if i+1 < n && raw[i+1] == '|' {
				flush(i)
				i += 2
			} else {
				flush(i)
				i++
			}
			segStart = i
		default:
			i++
		}
	}

	flush(n)
	if quote != 0 || backtick {
		return nil, true
	}
	return spans, false
}

func isDoubleQuoteEscape(b byte) bool {
	switch b {
	case '$', '\\', '"', '`':
		return true
	default:
		return false
	}
}

// buildSegment parses one already-split segment's words, strips leading
// assignments and wrapper prefixes, and locates the executable span.
func buildSegment(text string, offsetInRaw int) Segment {
	seg := Segment{Raw: text, Start: offsetInRaw, End: offsetInRaw + len(text)}

	words, err := shellWords(text)
	if err != nil || len(words) == 0 {
		fields := strings.Fields(text)
		seg.ParseError = true
		if len(fields) > 0 {
			seg.ExecWordRaw = fields[0]
			seg.ExecWord = normalizeWord(fields[0])
		}
		seg.ExecSpanStart = indexFrom(text, seg.ExecWordRaw, 0)
		return seg
	}

	cursor := 0
	idx := 0

	for idx < len(words) && assignmentRe.MatchString(words[idx]) {
		seg.Assignments = append(seg.Assignments, words[idx])
		cursor = advancePast(text, words[idx], cursor)
		idx++
	}

	layers := 0
	for layers < maxWrapperLayers && idx < len(words) {
		w := words[idx]
		lw := strings.ToLower(w)
		if _, ok := wrapperTable[lw]; !ok {
			break
		}
		seg.WrapperChain = append(seg.WrapperChain, lw)
		cursor = advancePast(text, w, cursor)
		idx++
		layers++

		if lw == "sudo" {
			for idx < len(words) && strings.HasPrefix(words[idx], "-") {
				cursor = advancePast(text, words[idx], cursor)
				idx++
			}
		}
		if lw == "env" || lw == "/usr/bin/env" {
			for idx < len(words) && strings.HasPrefix(words[idx], "-") {
				cursor = advancePast(text, words[idx], cursor)
				idx++
			}
			for idx < len(words) && assignmentRe.MatchString(words[idx]) {
				cursor = advancePast(text, words[idx], cursor)
				idx++
			}
		}
	}

	if idx < len(words) {
		seg.ExecWordRaw = words[idx]
		seg.ExecWord = normalizeWord(words[idx])
	}
	seg.ExecSpanStart = indexFrom(text, seg.ExecWordRaw, cursor)
	return seg
}

// shellWords splits a single segment into shell words using the same
// quoting rules as the segmenter. It never panics; callers fall back to
// whitespace splitting on error.
func shellWords(text string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false
	return p.Parse(text)
}

// advancePast returns the cursor position just past the next literal
// occurrence of word in text at or after cursor, or cursor unchanged if
// word cannot be located (quoted words whose literal form differs from
// their parsed value).
func advancePast(text, word string, cursor int) int {
	i := indexFrom(text, word, cursor)
	if i < 0 {
		return cursor
	}
	return i + len(word)
}

func indexFrom(text, word string, from int) int {
	if word == "" {
		return from
	}
	if from > len(text) {
		from = len(text)
	}
	rel := strings.Index(text[from:], word)
	if rel < 0 {
		return -1
	}
	return from + rel
}

// normalizeWord strips a single leading backslash escape on the command
// word and a leading "./" (spec.md §4.2 step 5).
func normalizeWord(word string) string {
	w := word
	if strings.HasPrefix(w, "\\") && len(w) > 1 {
		w = w[1:]
	}
	if strings.HasPrefix(w, "./") && len(w) > 2 {
		w = w[2:]
	}
	return w
}
