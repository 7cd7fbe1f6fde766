package heredoc

// Submitter evaluates an extracted sub-body as a synthetic CommandRequest
// sharing the parent's cwd, returning whatever decision the engine would
// attach to it. It is implemented by internal/engine to avoid a cyclic
// dependency between heredoc and engine.
type Submitter func(body, source string, depth int) (Outcome, error)

// Outcome is the minimal shape the extractor needs back from a recursive
// evaluation; the engine's submitter copies its own engine.Outcome into it.
type Outcome struct {
	Denied bool
	Note   string
}

// Walk extracts here-docs and inline interpreter code from text/segments
// and recursively submits each body via submit, bounded by MaxDepth
// (spec.md §4.4). It returns the first denied Outcome encountered, in
// extraction order, or the zero Outcome if every extracted body was
// allowed. strictMode controls whether exceeding the recursion bound or a
// submission error fails the *sub-body* open (default) or becomes a
// synthetic Deny.
func Walk(text string, execWord string, depth int, strict bool, submit Submitter) (outcome Outcome, warnings []string) {
	if depth >= MaxDepth {
		warnings = append(warnings, "heredoc: recursion bound exceeded")
		if strict {
			return Outcome{Denied: true, Note: "heredoc recursion bound exceeded in strict mode"}, warnings
		}
		return Outcome{}, warnings
	}

	var bodies []Extracted
	bodies = append(bodies, ExtractHeredocs(text)...)
	if execWord != "" {
		if inline, ok := ExtractInlineCode(execWord, text); ok {
			bodies = append(bodies, inline)
		}
	}

	for _, b := range bodies {
		if b.Body == "" {
			continue
		}
		out, err := submit(b.Body, b.Source, depth+1)
		if err != nil {
			warnings = append(warnings, "heredoc: sub-evaluation error: "+err.Error())
			if strict {
				return Outcome{Denied: true, Note: "heredoc extraction error in strict mode"}, warnings
			}
			continue
		}
		if out.Denied {
			return out, warnings
		}
	}
	return Outcome{}, warnings
}
