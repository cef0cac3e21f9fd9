package normalize

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-formguard/pkg/condition"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// Rule is one normalised rule.
type Rule struct {
	Name     string
	Params   rules.Params
	Message  string
	Implicit bool
	// Array marks rules inherited from a wildcard key.
	Array bool
	// Async marks rules settled in the background.
	Async bool
}

// Key is the folded method name.
func (r Rule) Key() string {
	return rules.Key(r.Name)
}

// Canonical is the ordered rule list of a field.
type Canonical struct {
	rules   []Rule
	dynamic bool
}

// Rules returns a copy of the ordered rules.
func (c Canonical) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Len returns the number of rules.
func (c Canonical) Len() int {
	return len(c.rules)
}

// Empty reports whether the field has no rules.
func (c Canonical) Empty() bool {
	return len(c.rules) == 0
}

// Get returns a rule by method name.
func (c Canonical) Get(name string) (Rule, bool) {
	key := rules.Key(name)
	for _, r := range c.rules {
		if r.Key() == key {
			return r, true
		}
	}
	return Rule{}, false
}

// Has reports whether any of the named methods is present.
func (c Canonical) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := c.Get(n); ok {
			return true
		}
	}
	return false
}

// Names lists the method names in evaluation order.
func (c Canonical) Names() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Name
	}
	return out
}

// Dynamic reports whether the result depends on form state (dependencies or
// computed parameters) and must be recomputed on every evaluation.
func (c Canonical) Dynamic() bool {
	return c.dynamic
}

// Input is the raw material for a field: the merged scalar declaration and
// the merged declarations of matching wildcard keys.
type Input struct {
	Scalar Set
	Array  Set
}

// Result is a normalised field plus the rules whose dependency did not hold.
type Result struct {
	Canonical
	Dropped []string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithConditions sets the evaluator for string dependencies.
func WithConditions(e condition.Evaluator) Option {
	return func(n *Normalizer) {
		if e != nil {
			n.conditions = e
		}
	}
}

// WithAutoCreateRanges merges min/max into range and minlength/maxlength into
// rangelength.
func WithAutoCreateRanges(enabled bool) Option {
	return func(n *Normalizer) {
		n.autoCreateRanges = enabled
	}
}

// WithExtras exposes caller flags to dependency expressions.
func WithExtras(extras map[string]any) Option {
	return func(n *Normalizer) {
		n.extras = extras
	}
}

// Normalizer produces canonical rule lists.
type Normalizer struct {
	registry         *rules.Registry
	conditions       condition.Evaluator
	autoCreateRanges bool
	extras           map[string]any
}

// New constructs a Normalizer bound to a method registry.
func New(registry *rules.Registry, opts ...Option) *Normalizer {
	n := &Normalizer{registry: registry}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Depend evaluates a dependency for target.
func (n *Normalizer) Depend(t Target, depends any) (bool, error) {
	switch d := depends.(type) {
	case nil:
		return true, nil
	case bool:
		return d, nil
	case string:
		if n.conditions == nil {
			return false, fmt.Errorf("%w: no evaluator for dependency %q", ErrInvalidParameter, d)
		}
		ctx := condition.Context{Extras: n.extras}
		if t.Form != nil {
			ctx.Values = t.Form.Values()
		}
		return n.conditions.Eval(t.Name, d, ctx)
	case DependsFunc:
		return d(t), nil
	case func(Target) bool:
		return d(t), nil
	}
	return false, fmt.Errorf("%w: unsupported dependency %T", ErrInvalidParameter, depends)
}

// Normalize resolves dependencies and computed parameters, coerces numeric
// parameters, builds ranges and orders the rules: implicit first with
// required leading, then scalar rules, then wildcard rules, then
// asynchronous rules.
func (n *Normalizer) Normalize(t Target, in Input) (Result, error) {
	var (
		res     Result
		dynamic bool
		merged  []Rule
	)

	resolve := func(set Set, array bool) error {
		for _, e := range set {
			param := e.Param
			if dep, ok := param.(Dependent); ok {
				dynamic = true
				holds, err := n.Depend(t, dep.Depends)
				if err != nil {
					return fmt.Errorf("normalize: %s %s: %w", t.Name, e.Name, err)
				}
				if !holds {
					res.Dropped = append(res.Dropped, e.Name)
					continue
				}
				param = dep.Param
				if param == nil {
					param = true
				}
			}
			switch fn := param.(type) {
			case ParamFunc:
				dynamic = true
				param = fn(t)
			case func(Target) any:
				dynamic = true
				param = fn(t)
			}
			if b, ok := param.(bool); ok && !b {
				continue
			}
			// A concrete declaration shadows a wildcard rule of the same name.
			if containsRule(merged, e.Name) {
				continue
			}
			params, err := toParams(param)
			if err != nil {
				return fmt.Errorf("normalize: %s %s: %w", t.Name, e.Name, err)
			}
			m, known := n.registry.Lookup(e.Name)
			merged = append(merged, Rule{
				Name:     e.Name,
				Params:   params,
				Message:  e.Message,
				Implicit: e.Implicit || (known && m.Implicit),
				Async:    known && m.Async != nil,
				Array:    array,
			})
		}
		return nil
	}

	if err := resolve(in.Scalar, false); err != nil {
		return Result{}, err
	}
	if err := resolve(in.Array, true); err != nil {
		return Result{}, err
	}

	for i := range merged {
		if err := coerce(&merged[i]); err != nil {
			return Result{}, fmt.Errorf("normalize: %s: %w", t.Name, err)
		}
	}
	if n.autoCreateRanges {
		merged = autoRanges(merged)
	}

	res.Canonical = Canonical{rules: order(merged), dynamic: dynamic}
	return res, nil
}

func containsRule(list []Rule, name string) bool {
	key := rules.Key(name)
	for _, r := range list {
		if r.Key() == key {
			return true
		}
	}
	return false
}

// order is stable within each precedence band.
func order(list []Rule) []Rule {
	band := func(r Rule) int {
		switch {
		case r.Async:
			return 5
		case r.Key() == "required":
			return 0
		case r.Implicit && !r.Array:
			return 1
		case r.Implicit:
			return 2
		case !r.Array:
			return 3
		}
		return 4
	}
	out := make([]Rule, 0, len(list))
	for b := 0; b <= 5; b++ {
		for _, r := range list {
			if band(r) == b {
				out = append(out, r)
			}
		}
	}
	return out
}

func toParams(param any) (rules.Params, error) {
	switch p := param.(type) {
	case nil, bool:
		return nil, nil
	case rules.Params:
		return append(rules.Params(nil), p...), nil
	case []any:
		return rules.Params(append([]any(nil), p...)), nil
	case []string:
		out := make(rules.Params, len(p))
		for i, s := range p {
			out[i] = s
		}
		return out, nil
	case string, float64, float32, int, int64, map[string]any:
		return rules.Params{p}, nil
	}
	rv := reflect.ValueOf(param)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make(rules.Params, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return rules.Params{param}, nil
}

var (
	singleNumber = map[string]bool{"minlength": true, "maxlength": true, "min": true, "max": true}
	pairNumber   = map[string]bool{"range": true, "rangelength": true}
)

func coerce(r *Rule) error {
	key := r.Key()
	switch {
	case singleNumber[key]:
		if len(r.Params) == 0 {
			return fmt.Errorf("%w: %s needs a number", ErrInvalidParameter, r.Name)
		}
		f, ok := rules.ToFloat(r.Params[0])
		if !ok {
			return fmt.Errorf("%w: %s %v is not a number", ErrInvalidParameter, r.Name, r.Params[0])
		}
		r.Params = rules.Params{f}
	case pairNumber[key]:
		pair := r.Params
		if len(pair) == 1 {
			if s, ok := pair[0].(string); ok {
				pair = splitPair(s)
			}
		}
		if len(pair) != 2 {
			return fmt.Errorf("%w: %s needs two numbers", ErrInvalidParameter, r.Name)
		}
		lo, okLo := rules.ToFloat(pair[0])
		hi, okHi := rules.ToFloat(pair[1])
		if !okLo || !okHi {
			return fmt.Errorf("%w: %s %v is not a numeric pair", ErrInvalidParameter, r.Name, pair)
		}
		r.Params = rules.Params{lo, hi}
	}
	return nil
}

// splitPair reads "[1, 5]" or "1,5".
func splitPair(s string) rules.Params {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil
	}
	out := make(rules.Params, 2)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if f, err := strconv.ParseFloat(p, 64); err == nil {
			out[i] = f
		} else {
			out[i] = p
		}
	}
	return out
}

func autoRanges(list []Rule) []Rule {
	list = pairUp(list, "min", "max", "range")
	return pairUp(list, "minlength", "maxlength", "rangelength")
}

func pairUp(list []Rule, lo, hi, combined string) []Rule {
	if containsRule(list, combined) {
		return list
	}
	var loRule, hiRule *Rule
	for i := range list {
		switch list[i].Key() {
		case lo:
			loRule = &list[i]
		case hi:
			hiRule = &list[i]
		}
	}
	if loRule == nil || hiRule == nil || len(loRule.Params) == 0 || len(hiRule.Params) == 0 {
		return list
	}
	pair := Rule{
		Name:   combined,
		Params: rules.Params{loRule.Params[0], hiRule.Params[0]},
		Array:  loRule.Array && hiRule.Array,
	}
	out := make([]Rule, 0, len(list)-1)
	for _, r := range list {
		if k := r.Key(); k == lo || k == hi {
			continue
		}
		out = append(out, r)
	}
	return append(out, pair)
}
