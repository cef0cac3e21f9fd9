package form

import (
	"fmt"
	"sort"
	"strings"
)

// TokenField is the hidden input carrying the CSRF token in forms rendered
// by the server.
const TokenField = "_token"

// Hidden builds a hidden control for an arbitrary name/value pair.
func Hidden(name string, value any) *Control {
	return &Control{
		Name:  strings.TrimSpace(name),
		Type:  TypeHidden,
		Value: fmt.Sprint(value),
	}
}

// CSRFToken builds the hidden control carrying token. An empty name uses
// TokenField.
func CSRFToken(name, token string) *Control {
	if strings.TrimSpace(name) == "" {
		name = TokenField
	}
	return Hidden(name, token)
}

// MethodOverride builds the hidden _method control used to submit PUT,
// PATCH or DELETE through a POST form.
func MethodOverride(method string) *Control {
	return Hidden(MethodOverrideField, strings.ToUpper(strings.TrimSpace(method)))
}

// SetHidden adds hidden controls, replacing the value of existing controls
// with the same name. Empty names are ignored; later fields win.
func (f *Form) SetHidden(fields ...*Control) {
	for _, field := range fields {
		if field == nil || strings.TrimSpace(field.Name) == "" {
			continue
		}
		name := strings.TrimSpace(field.Name)
		if existing := f.ByName(name); len(existing) > 0 {
			for _, c := range existing {
				c.Value = field.Value
			}
			continue
		}
		f.Add(&Control{Name: name, Type: TypeHidden, Value: field.Value})
	}
}

// HiddenValues returns the hidden controls by name, sorted.
func (f *Form) HiddenValues() []*Control {
	var out []*Control
	for _, c := range f.Controls() {
		if c.Type == TypeHidden && strings.TrimSpace(c.Name) != "" {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Token returns the CSRF token carried by the form, if any.
func (f *Form) Token() (string, bool) {
	c := f.First(TokenField)
	if c == nil || strings.TrimSpace(c.Value) == "" {
		return "", false
	}
	return c.Value, true
}
