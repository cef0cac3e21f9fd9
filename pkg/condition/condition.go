// Package condition decides whether a rule's dependency holds. Dependencies
// are written as small boolean expressions over the form's current values,
// for example `country == "US"` or `newsletter:checked && email:filled`.
package condition

// Evaluator resolves a dependency expression for the field at fieldName.
type Evaluator interface {
	Eval(fieldName, expression string, ctx Context) (bool, error)
}

// Context carries the inputs an expression can reference. Values maps field
// names to their current values; Extras holds caller-supplied flags reachable
// through the `extras.` prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldName, expression string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldName, expression string, ctx Context) (bool, error) {
	return fn(fieldName, expression, ctx)
}
