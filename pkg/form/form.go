// Package form models the controls of a form the validator inspects. It is a
// plain data model: it knows how to read values the way a browser would
// submit them but carries no validation state.
package form

import (
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
)

// Control types with dedicated value semantics.
const (
	TypeText            = "text"
	TypeNumber          = "number"
	TypeRange           = "range"
	TypeDate            = "date"
	TypeEmail           = "email"
	TypeURL             = "url"
	TypeCheckbox        = "checkbox"
	TypeRadio           = "radio"
	TypeSelect          = "select"
	TypeSelectMultiple  = "select-multiple"
	TypeTextarea        = "textarea"
	TypeFile            = "file"
	TypeHidden          = "hidden"
	TypeSubmit          = "submit"
	TypeReset           = "reset"
	TypeImage           = "image"
	TypeButton          = "button"
	TypeContentEditable = "contenteditable"
)

// MethodOverrideField carries the effective HTTP verb for forms that can only
// submit GET/POST.
const MethodOverrideField = "_method"

// File describes a file picked on a file control.
type File struct {
	Name string
	// Size in bytes.
	Size int64
	MIME string
	// Open returns the content. Only image dimension checks read it.
	Open func() (io.ReadCloser, error)
}

// Extension returns the lower-cased extension without the leading dot.
func (f File) Extension() string {
	ext := path.Ext(f.Name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Control is one named input of the form.
type Control struct {
	Name  string
	ID    string
	Type  string
	Value string
	// Values holds the selected options of a multi-select.
	Values   []string
	Files    []File
	Checked  bool
	Disabled bool
	Hidden   bool
	Title    string
	Classes  []string
	// Attrs holds HTML attributes such as required, minlength or pattern.
	Attrs map[string]string
	// Data holds data-* attributes keyed without the "data-" prefix.
	Data map[string]string
}

// Checkable reports whether the control is a checkbox or radio button.
func (c *Control) Checkable() bool {
	return c.Type == TypeCheckbox || c.Type == TypeRadio
}

// Selectable reports whether the control is a select element.
func (c *Control) Selectable() bool {
	return c.Type == TypeSelect || c.Type == TypeSelectMultiple
}

// IsFile reports whether the control picks files.
func (c *Control) IsFile() bool {
	return c.Type == TypeFile
}

// Submittable reports whether the control takes part in validation at all.
func (c *Control) Submittable() bool {
	switch c.Type {
	case TypeSubmit, TypeReset, TypeImage, TypeButton:
		return false
	}
	return true
}

// Attr returns an HTML attribute.
func (c *Control) Attr(name string) (string, bool) {
	if c.Attrs == nil {
		return "", false
	}
	v, ok := c.Attrs[strings.ToLower(name)]
	return v, ok
}

// DataAttr returns a data-* attribute by its suffix, matched case-insensitively.
func (c *Control) DataAttr(name string) (string, bool) {
	if c.Data == nil {
		return "", false
	}
	if v, ok := c.Data[name]; ok {
		return v, true
	}
	lower := strings.ToLower(name)
	for key, v := range c.Data {
		if strings.ToLower(key) == lower {
			return v, true
		}
	}
	return "", false
}

// HasClass reports whether the control carries the class token.
func (c *Control) HasClass(class string) bool {
	for _, token := range c.Classes {
		if token == class {
			return true
		}
	}
	return false
}

// Form groups controls with the submission target.
type Form struct {
	Action string
	Method string

	mu       sync.RWMutex
	controls []*Control
}

// New builds a form from controls in document order.
func New(action, method string, controls ...*Control) *Form {
	f := &Form{Action: action, Method: method}
	for _, c := range controls {
		if c != nil {
			f.controls = append(f.controls, c)
		}
	}
	return f
}

// Add appends a control.
func (f *Form) Add(c *Control) {
	if c == nil {
		return
	}
	f.mu.Lock()
	f.controls = append(f.controls, c)
	f.mu.Unlock()
}

// Remove drops every control with the given name and reports how many went.
func (f *Form) Remove(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.controls[:0]
	removed := 0
	for _, c := range f.controls {
		if c.Name == name {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.controls = kept
	return removed
}

// Controls returns the controls in document order.
func (f *Form) Controls() []*Control {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Control, len(f.controls))
	copy(out, f.controls)
	return out
}

// ByName returns every control sharing a name (radio groups, checkbox lists).
func (f *Form) ByName(name string) []*Control {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*Control
	for _, c := range f.controls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first control with the given name.
func (f *Form) First(name string) *Control {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.controls {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ByID returns the control with the given id.
func (f *Form) ByID(id string) *Control {
	if id == "" {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.controls {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Names lists distinct control names in document order.
func (f *Form) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := make(map[string]struct{}, len(f.controls))
	var out []string
	for _, c := range f.controls {
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c.Name)
	}
	return out
}

// SetValue assigns a text value to every non-checkable control named name and
// checks the checkable ones whose value matches.
func (f *Form) SetValue(name, value string) {
	for _, c := range f.ByName(name) {
		switch {
		case c.Checkable():
			c.Checked = c.Value == value
		case c.Type == TypeSelectMultiple:
			c.Values = []string{value}
		default:
			c.Value = value
		}
	}
}

// SetChecked toggles a checkable control identified by name and value.
func (f *Form) SetChecked(name, value string, checked bool) {
	for _, c := range f.ByName(name) {
		if c.Checkable() && c.Value == value {
			c.Checked = checked
		}
	}
}

// Value reads the current value of a named field. Checkable groups yield the
// checked value (nil when none is checked, []string for "name[]" lists);
// multi-selects yield []string; file controls yield the first file name.
func (f *Form) Value(name string) any {
	controls := f.ByName(name)
	if len(controls) == 0 {
		return nil
	}
	return ValueOf(controls)
}

// ValueOf computes the value of a group of same-named controls.
func ValueOf(controls []*Control) any {
	if len(controls) == 0 {
		return nil
	}
	first := controls[0]
	switch {
	case first.Checkable():
		var checked []string
		for _, c := range controls {
			if c.Checked {
				checked = append(checked, c.Value)
			}
		}
		if strings.HasSuffix(first.Name, "[]") {
			if len(checked) == 0 {
				return nil
			}
			return checked
		}
		if len(checked) == 0 {
			return nil
		}
		return checked[0]
	case first.Type == TypeSelectMultiple:
		if len(first.Values) == 0 {
			return nil
		}
		return append([]string(nil), first.Values...)
	case first.IsFile():
		if len(first.Files) == 0 {
			return ""
		}
		return first.Files[0].Name
	default:
		return strings.ReplaceAll(first.Value, "\r", "")
	}
}

// CheckedCount counts the checked controls of a group.
func (f *Form) CheckedCount(name string) int {
	n := 0
	for _, c := range f.ByName(name) {
		if c.Checkable() && c.Checked {
			n++
		}
	}
	return n
}

// EffectiveMethod returns the submission verb, honouring the _method override.
func (f *Form) EffectiveMethod() string {
	if override := f.First(MethodOverrideField); override != nil && strings.TrimSpace(override.Value) != "" {
		return strings.ToUpper(strings.TrimSpace(override.Value))
	}
	method := strings.ToUpper(strings.TrimSpace(f.Method))
	if method == "" {
		return "GET"
	}
	return method
}

// Serialize encodes the successful controls the way a browser would submit
// them: disabled controls, unchecked checkables, buttons and files are skipped.
func (f *Form) Serialize() url.Values {
	values := url.Values{}
	for _, c := range f.Controls() {
		if c.Name == "" || c.Disabled || !c.Submittable() || c.IsFile() {
			continue
		}
		switch {
		case c.Checkable():
			if c.Checked {
				values.Add(c.Name, c.Value)
			}
		case c.Type == TypeSelectMultiple:
			for _, v := range c.Values {
				values.Add(c.Name, v)
			}
		default:
			values.Add(c.Name, strings.ReplaceAll(c.Value, "\r", "\r\n"))
		}
	}
	return values
}

// Values flattens the current values keyed by field name; used by condition
// expressions.
func (f *Form) Values() map[string]any {
	out := make(map[string]any)
	for _, name := range f.Names() {
		out[name] = f.Value(name)
	}
	return out
}

// FromValues builds a form of text controls from submitted values, one control
// per value. Multi-valued keys become checked checkboxes.
func FromValues(action, method string, values url.Values) *Form {
	f := New(action, method)
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		vals := values[key]
		if len(vals) > 1 || strings.HasSuffix(key, "[]") {
			for _, v := range vals {
				f.Add(&Control{Name: key, Type: TypeCheckbox, Value: v, Checked: true})
			}
			continue
		}
		value := ""
		if len(vals) == 1 {
			value = vals[0]
		}
		f.Add(&Control{Name: key, Type: TypeText, Value: value})
	}
	return f
}
