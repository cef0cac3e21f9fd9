package rules_test

import (
	"time"

	"github.com/goliatone/go-formguard/pkg/dates"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// fieldCtx is a minimal FieldContext over a form.
type fieldCtx struct {
	name     string
	form     *form.Form
	rules    map[string]rules.Params
	siblings []string
	dates    dates.Parser
}

func newCtx(f *form.Form, name string) *fieldCtx {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return &fieldCtx{
		name:  name,
		form:  f,
		rules: map[string]rules.Params{},
		dates: dates.New(dates.WithClock(func() time.Time { return now })),
	}
}

func (c *fieldCtx) withRule(name string, params ...any) *fieldCtx {
	c.rules[rules.Key(name)] = rules.Params(params)
	return c
}

func (c *fieldCtx) Name() string { return c.name }
func (c *fieldCtx) Control() *form.Control { return c.form.First(c.name) }
func (c *fieldCtx) Form() *form.Form { return c.form }
func (c *fieldCtx) Dates() dates.Parser { return c.dates }
func (c *fieldCtx) Siblings() []string { return c.siblings }

func (c *fieldCtx) Optional() bool {
	return !rules.RequiredValue(c, c.form.Value(c.name))
}

func (c *fieldCtx) HasRule(names ...string) bool {
	for _, n := range names {
		if _, ok := c.rules[rules.Key(n)]; ok {
			return true
		}
	}
	return false
}

func (c *fieldCtx) RuleParams(name string) (rules.Params, bool) {
	p, ok := c.rules[rules.Key(name)]
	return p, ok
}

func (c *fieldCtx) Lookup(name string) []*form.Control {
	if len(name) > 1 && name[0] == '#' {
		if ctl := c.form.ByID(name[1:]); ctl != nil {
			return []*form.Control{ctl}
		}
		return nil
	}
	return c.form.ByName(name)
}

func (c *fieldCtx) Depend(param any) bool {
	b, ok := param.(bool)
	return !ok || b
}

func text(name, value string) *form.Control {
	return &form.Control{Name: name, Type: form.TypeText, Value: value}
}

// run evaluates a builtin against the named field's current value.
func run(reg *rules.Registry, fc *fieldCtx, method string, params ...any) rules.Result {
	m, ok := reg.Lookup(method)
	if !ok {
		panic("unknown method " + method)
	}
	return m.Func(fc, fc.form.Value(fc.name), rules.Params(params))
}
