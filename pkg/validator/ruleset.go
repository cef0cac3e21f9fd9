package validator

import (
	"github.com/goliatone/go-formguard/pkg/fieldpath"
	"github.com/goliatone/go-formguard/pkg/normalize"
)

func (v *Validator) target(name string) normalize.Target {
	return normalize.Target{Name: name, Control: v.form.First(name), Form: v.form}
}

// Rules returns the canonical rules of a field in evaluation order.
func (v *Validator) Rules(name string) (normalize.Canonical, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	res, err := v.rulesFor(name)
	if err != nil {
		return normalize.Canonical{}, err
	}
	return res.Canonical, nil
}

// AddRules merges rules into a field's static declaration. Wildcard names
// declare array rules.
func (v *Validator) AddRules(name string, decl any) error {
	set, err := normalize.Parse(decl)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return ErrDestroyed
	}
	v.declare(name, set)
	return nil
}

// RemoveRules drops methods from a field's static declaration and returns
// the removed entries. Without methods every static rule of the field is
// removed.
func (v *Validator) RemoveRules(name string, methods ...string) normalize.Set {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := fieldpath.Canonical(name)
	store := v.static
	if fieldpath.IsWildcard(name) {
		store = v.wildcard
	}
	current := store[key]

	var removed normalize.Set
	if len(methods) == 0 {
		removed = current
		delete(store, key)
	} else {
		for _, m := range methods {
			if e, ok := current.Get(m); ok {
				removed = append(removed, e)
			}
		}
		store[key] = current.Without(methods...)
		if len(store[key]) == 0 {
			delete(store, key)
		}
	}
	if _, still := v.wildcard[key]; !still && fieldpath.IsWildcard(name) {
		v.matcher.Remove(key)
	}
	v.matcher.Reset()
	v.canonical = make(map[string]normalize.Canonical)
	return removed
}

// rulesFor returns the normalised rules of a field. Results that do not
// depend on form state are cached until rules change.
func (v *Validator) rulesFor(name string) (normalize.Result, error) {
	if cached, ok := v.canonical[name]; ok {
		return normalize.Result{Canonical: cached}, nil
	}
	res, err := v.normalizer.Normalize(v.target(name), v.input(name))
	if err != nil {
		return normalize.Result{}, err
	}
	if !res.Dynamic() {
		v.canonical[name] = res.Canonical
	}
	return res, nil
}

// input merges the rule sources of a field: class tokens, attributes, data
// attributes, then static declarations, later sources overriding earlier
// ones; plus the declarations of every matching wildcard key.
func (v *Validator) input(name string) normalize.Input {
	var sources []normalize.Set
	if c := v.form.First(name); c != nil {
		sources = append(sources,
			normalize.ClassRules(c),
			normalize.AttributeRules(c, v.registry),
			normalize.DataRules(c, v.registry),
		)
	}
	sources = append(sources, v.static[fieldpath.Canonical(name)])

	var array normalize.Set
	for _, key := range v.matcher.Match(name) {
		array = normalize.Merge(array, v.wildcard[key])
	}
	return normalize.Input{Scalar: normalize.Merge(sources...), Array: array}
}
