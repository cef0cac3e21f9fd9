// Package rules holds the named validation methods and the vocabulary they
// share: results, parameters and the field context evaluators read from.
package rules

import (
	"context"

	"github.com/goliatone/go-formguard/pkg/dates"
	"github.com/goliatone/go-formguard/pkg/form"
)

// Result is the outcome of a single method.
type Result int

const (
	// Fail marks the value as invalid for the method.
	Fail Result = iota
	// Pass marks the value as valid for the method.
	Pass
	// Mismatch means the method does not apply: the field is optional and
	// empty. It exempts the field only when it is the field's sole rule.
	Mismatch
	// Pending means an asynchronous check was started.
	Pending
)

func (r Result) String() string {
	switch r {
	case Fail:
		return "fail"
	case Pass:
		return "pass"
	case Mismatch:
		return "dependency-mismatch"
	case Pending:
		return "pending"
	}
	return "unknown"
}

// Bool converts a predicate into a Result.
func Bool(ok bool) Result {
	if ok {
		return Pass
	}
	return Fail
}

// FieldContext is what a method sees of the field under evaluation.
type FieldContext interface {
	// Name is the field name.
	Name() string
	// Control is the first control carrying the name.
	Control() *form.Control
	// Form is the owning form.
	Form() *form.Form
	// Optional reports whether the field is empty by the required method.
	Optional() bool
	// HasRule reports whether any of the named methods applies to the field.
	HasRule(names ...string) bool
	// RuleParams returns the parameters of another method on the same field.
	RuleParams(name string) (Params, bool)
	// Lookup resolves another field by name, following wildcard indices of
	// the current field.
	Lookup(name string) []*form.Control
	// Depend evaluates a dependency parameter (bool, condition expression or
	// callback) for the current field.
	Depend(param any) bool
	// Siblings lists the concrete names that share the field's wildcard rule
	// key, the field itself included.
	Siblings() []string
	// Dates is the date facility.
	Dates() dates.Parser
}

// Func is a synchronous method.
type Func func(fc FieldContext, value any, params Params) Result

// Verdict is the settled outcome of an asynchronous check.
type Verdict struct {
	Valid bool
	// Message overrides the method message when set.
	Message string
	// Related carries messages for other fields reported by the same check.
	Related map[string]string
}

// Task runs an asynchronous check. Cancellation of ctx means the result is
// no longer wanted.
type Task func(ctx context.Context) Verdict

// AsyncFunc prepares an asynchronous check. It runs synchronously so it can
// snapshot form state; the returned Task runs in the background.
type AsyncFunc func(fc FieldContext, value any, params Params) (Task, error)

// SignatureFunc identifies an asynchronous request so a settled verdict can
// be reused while the inputs stay the same.
type SignatureFunc func(fc FieldContext, value any, params Params) string

// Method is a named validation method.
type Method struct {
	Name    string
	Func    Func
	Async   AsyncFunc
	Message string
	// Implicit methods run even when the field is empty.
	Implicit bool
	// Signature overrides the default request signature (value and
	// parameters) of an asynchronous method.
	Signature SignatureFunc
}

// DefaultSignature renders the value and parameters of a request.
func DefaultSignature(_ FieldContext, value any, params Params) string {
	return ToString(value) + "\x00" + ToString([]any(params))
}

// SignatureOf returns the request signature for m.
func (m Method) SignatureOf(fc FieldContext, value any, params Params) string {
	if m.Signature != nil {
		return m.Signature(fc, value, params)
	}
	return DefaultSignature(fc, value, params)
}
