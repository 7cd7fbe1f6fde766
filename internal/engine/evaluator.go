package engine

// Evaluator is the entrypoint a long-lived caller (the MCP server facade,
// out of scope to implement fully per spec.md §1) binds against instead
// of calling Evaluate directly, so it can be swapped for a test double.
type Evaluator interface {
	Evaluate(req CommandRequest, withTrace bool) (Decision, *Trace)
}

// BoundEvaluator closes Evaluate over a fixed Deps value.
type BoundEvaluator struct {
	Deps Deps
}

func (b BoundEvaluator) Evaluate(req CommandRequest, withTrace bool) (Decision, *Trace) {
	return Evaluate(req, b.Deps, withTrace)
}

var _ Evaluator = BoundEvaluator{}
