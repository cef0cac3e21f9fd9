package validator

import (
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/dates"
	"github.com/goliatone/go-formguard/pkg/fieldpath"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/normalize"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// fieldContext is what methods see of the field under evaluation. It is
// only used while the validator lock is held.
type fieldContext struct {
	v         *Validator
	name      string
	control   *form.Control
	value     any
	canonical normalize.Canonical
	keys      []string
}

var _ rules.FieldContext = (*fieldContext)(nil)

func (v *Validator) newFieldContext(name string, canonical normalize.Canonical, value any) *fieldContext {
	return &fieldContext{
		v:         v,
		name:      name,
		control:   v.form.First(name),
		value:     value,
		canonical: canonical,
		keys:      v.matcher.Match(name),
	}
}

func (fc *fieldContext) Name() string {
	return fc.name
}

func (fc *fieldContext) Control() *form.Control {
	return fc.control
}

func (fc *fieldContext) Form() *form.Form {
	return fc.v.form
}

func (fc *fieldContext) Optional() bool {
	return !rules.RequiredValue(fc, fc.value)
}

func (fc *fieldContext) HasRule(names ...string) bool {
	return fc.canonical.Has(names...)
}

func (fc *fieldContext) RuleParams(name string) (rules.Params, bool) {
	r, ok := fc.canonical.Get(name)
	if !ok {
		return nil, false
	}
	return r.Params, true
}

// Lookup resolves another field. Wildcards in target take the indices of
// the current field, so "items.*.price" seen from "items[2][qty]" is
// "items[2][price]".
func (fc *fieldContext) Lookup(target string) []*form.Control {
	target = strings.TrimSpace(target)
	if fieldpath.IsWildcard(target) {
		for _, key := range fc.keys {
			if indices := fieldpath.Indices(key, fc.name); len(indices) > 0 {
				target = fieldpath.Expand(target, indices)
				break
			}
		}
	}
	return lookupControls(fc.v.form, target)
}

func lookupControls(f *form.Form, name string) []*form.Control {
	if name == "" {
		return nil
	}
	if id, ok := strings.CutPrefix(name, "#"); ok {
		if c := f.ByID(id); c != nil {
			return f.ByName(c.Name)
		}
		name = id
	}
	if controls := f.ByName(name); len(controls) > 0 {
		return controls
	}
	canonical := fieldpath.Canonical(name)
	for _, candidate := range []string{canonical, canonical + "[]"} {
		if controls := f.ByName(candidate); len(controls) > 0 {
			return controls
		}
	}
	for _, n := range f.Names() {
		if fieldpath.Canonical(n) == canonical {
			return f.ByName(n)
		}
	}
	return nil
}

func (fc *fieldContext) Depend(param any) bool {
	ok, err := fc.v.normalizer.Depend(fc.v.target(fc.name), param)
	if err != nil {
		fc.v.logger.Debug("dependency not evaluated", zap.String("field", fc.name), zap.Error(err))
		return false
	}
	return ok
}

// Siblings lists the fields sharing a wildcard rule key with this one.
func (fc *fieldContext) Siblings() []string {
	if len(fc.keys) == 0 {
		return []string{fc.name}
	}
	var out []string
	for _, name := range fc.v.form.Names() {
		for _, key := range fc.keys {
			if fieldpath.Compile(key).MatchString(fieldpath.Canonical(name)) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

func (fc *fieldContext) Dates() dates.Parser {
	return fc.v.dates
}
