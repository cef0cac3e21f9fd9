// Package normalize turns rule declarations from every source (class names,
// HTML attributes, data attributes, static configuration and wildcard array
// keys) into the canonical, ordered rule list a field is evaluated with.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// ErrInvalidParameter is returned when a rule parameter cannot be coerced to
// the shape its method expects.
var ErrInvalidParameter = errors.New("normalize: invalid parameter")

// Target identifies the field a declaration is normalised for.
type Target struct {
	Name    string
	Control *form.Control
	Form    *form.Form
}

// DependsFunc decides at evaluation time whether a rule applies.
type DependsFunc func(t Target) bool

// ParamFunc computes a rule parameter at evaluation time.
type ParamFunc func(t Target) any

// Dependent wraps a parameter with a dependency. Depends is a bool, a
// condition expression or a DependsFunc.
type Dependent struct {
	Param   any
	Depends any
}

// Entry is one declared rule.
type Entry struct {
	Name  string
	Param any
	// Message overrides the method message for this field.
	Message string
	// Implicit forces evaluation on empty fields.
	Implicit bool
}

// Set is an ordered rule declaration.
type Set []Entry

// Get returns the entry for a method name.
func (s Set) Get(name string) (Entry, bool) {
	key := rules.Key(name)
	for _, e := range s {
		if rules.Key(e.Name) == key {
			return e, true
		}
	}
	return Entry{}, false
}

// With returns a copy of s where entries replace same-named ones in place and
// new names are appended.
func (s Set) With(entries ...Entry) Set {
	out := append(Set(nil), s...)
	for _, e := range entries {
		key := rules.Key(e.Name)
		replaced := false
		for i := range out {
			if rules.Key(out[i].Name) == key {
				out[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}

// Without returns a copy of s minus the named methods.
func (s Set) Without(names ...string) Set {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[rules.Key(n)] = struct{}{}
	}
	var out Set
	for _, e := range s {
		if _, ok := drop[rules.Key(e.Name)]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Merge folds sets left to right: later sets override parameters but keep
// the position of the first declaration.
func Merge(sets ...Set) Set {
	var out Set
	for _, s := range sets {
		out = out.With(s...)
	}
	return out
}

// Parse reads a rule declaration. Accepted shapes:
//
//   - "required email": space-separated method names
//   - "required|min:3|in:a,b": pipe-separated methods with parameters
//   - []string{"required", "min:3"}: one method with parameters per item
//   - map[string]any{"minlength": 3}: parameters by method, sorted by name;
//     a map value {"param": 3, "depends": "..."} becomes a Dependent
//   - Set or []Entry
func Parse(decl any) (Set, error) {
	switch d := decl.(type) {
	case nil:
		return nil, nil
	case Set:
		return append(Set(nil), d...), nil
	case []Entry:
		return append(Set(nil), d...), nil
	case string:
		return parseString(d), nil
	case []string:
		out := make(Set, 0, len(d))
		for _, item := range d {
			out = out.With(parseSpec(item))
		}
		return out, nil
	case []any:
		var out Set
		for _, item := range d {
			switch v := item.(type) {
			case string:
				out = out.With(parseSpec(v))
			case Entry:
				out = out.With(v)
			case map[string]any:
				out = out.With(fromMap(v)...)
			default:
				return nil, fmt.Errorf("%w: unsupported rule item %T", ErrInvalidParameter, item)
			}
		}
		return out, nil
	case map[string]any:
		return fromMap(d), nil
	case map[string]string:
		m := make(map[string]any, len(d))
		for k, v := range d {
			m[k] = v
		}
		return fromMap(m), nil
	case map[string]bool:
		m := make(map[string]any, len(d))
		for k, v := range d {
			m[k] = v
		}
		return fromMap(m), nil
	}
	return nil, fmt.Errorf("%w: unsupported declaration %T", ErrInvalidParameter, decl)
}

// MustParse panics when Parse fails.
func MustParse(decl any) Set {
	s, err := Parse(decl)
	if err != nil {
		panic(err)
	}
	return s
}

func fromMap(m map[string]any) Set {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Set, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Name: k, Param: descriptor(m[k])})
	}
	return out
}

// descriptor reads a decoded {param, depends} map as a Dependent. Other
// values are returned unchanged.
func descriptor(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	depends, ok := m["depends"]
	if !ok {
		return v
	}
	return Dependent{Param: m["param"], Depends: depends}
}

func parseString(s string) Set {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out Set
	if strings.ContainsAny(s, "|:") {
		for _, spec := range strings.Split(s, "|") {
			if strings.TrimSpace(spec) == "" {
				continue
			}
			out = out.With(parseSpec(spec))
		}
		return out
	}
	for _, name := range strings.Fields(s) {
		out = out.With(Entry{Name: name, Param: true})
	}
	return out
}

// parseSpec reads "name" or "name:p1,p2". Pattern methods keep their
// parameter whole since commas are part of the expression.
func parseSpec(spec string) Entry {
	spec = strings.TrimSpace(spec)
	name, raw, ok := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if !ok {
		return Entry{Name: name, Param: true}
	}
	switch rules.Key(name) {
	case "regex", "notregex", "dateformat":
		return Entry{Name: name, Param: []any{raw}}
	}
	parts := strings.Split(raw, ",")
	params := make([]any, len(parts))
	for i, p := range parts {
		params[i] = strings.TrimSpace(p)
	}
	return Entry{Name: name, Param: params}
}
