package validator

import (
	"sort"

	"github.com/goliatone/go-formguard/pkg/field"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/render"
)

// eligible reports whether a control takes part in validation.
func (v *Validator) eligible(c *form.Control) bool {
	if c == nil || c.Name == "" || c.Disabled || !c.Submittable() {
		return false
	}
	return v.ignore == nil || !v.ignore(c)
}

// validatable reports whether any control named name takes part in
// validation.
func (v *Validator) validatable(name string) bool {
	for _, c := range v.form.ByName(name) {
		if v.eligible(c) {
			return true
		}
	}
	return false
}

// Elements returns the names of the fields a form validation checks: one
// entry per name among the enabled, submittable, not ignored controls that
// carry rules.
func (v *Validator) Elements() ([]string, error) {
	v.mu.Lock()
	fx := &effects{}
	names, err := v.elements(fx)
	v.mu.Unlock()
	v.run(fx)
	return names, err
}

func (v *Validator) elements(fx *effects) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, c := range v.form.Controls() {
		if seen[c.Name] || !v.eligible(c) {
			continue
		}
		res, err := v.rulesFor(c.Name)
		if err != nil {
			return nil, &RuleError{Field: c.Name, Method: "normalize", Err: err}
		}
		v.dropRules(c.Name, res.Dropped, fx)
		if res.Empty() {
			continue
		}
		seen[c.Name] = true
		out = append(out, c.Name)
	}
	return out, nil
}

// Form validates every field and reports whether the form is valid. Fields
// waiting on a remote verdict do not count as errors.
func (v *Validator) Form() (bool, error) {
	v.mu.Lock()
	fx := &effects{}
	valid, err := v.validateForm(fx)
	v.mu.Unlock()
	v.run(fx)
	return valid, err
}

func (v *Validator) validateForm(fx *effects) (bool, error) {
	if v.destroyed {
		return false, ErrDestroyed
	}
	v.resetInternals()
	names, err := v.elements(fx)
	if err != nil {
		return false, err
	}
	v.current = names
	for _, name := range names {
		if _, err := v.check(name, fx); err != nil {
			return false, err
		}
	}

	for name, msg := range v.errorMap {
		v.submitted[name] = msg
	}
	v.invalid = make(map[string]bool, len(v.errorMap))
	for name := range v.errorMap {
		v.invalid[name] = true
	}

	valid := len(v.errorList) == 0
	if !valid {
		fx.notifyInvalid(v.errorList)
	}
	v.showErrors(fx)
	return valid, nil
}

// Element validates one field. Fields of the same group that are currently
// invalid are validated with it. Ignored or disabled fields are valid and
// leave the invalid set.
func (v *Validator) Element(name string) (bool, error) {
	v.mu.Lock()
	fx := &effects{}
	valid, err := v.validateElement(name, fx)
	v.mu.Unlock()
	v.run(fx)
	return valid, err
}

func (v *Validator) validateElement(name string, fx *effects) (bool, error) {
	if v.destroyed {
		return false, ErrDestroyed
	}
	if !v.validatable(name) {
		delete(v.invalid, name)
		return true, nil
	}

	v.resetInternals()
	v.current = []string{name}
	result := true

	if group, ok := v.groups[name]; ok {
		for _, other := range v.groupMembers(group) {
			if _, known := v.invalid[other]; other == name || !known || !v.validatable(other) {
				continue
			}
			v.current = append(v.current, other)
			o, err := v.check(other, fx)
			if err != nil {
				return false, err
			}
			v.invalid[other] = o.failed()
			if o.failed() {
				result = false
			}
		}
	}

	o, err := v.check(name, fx)
	if err != nil {
		return false, err
	}
	v.invalid[name] = o.failed()
	result = result && !o.failed()
	v.showErrors(fx)
	return result, nil
}

func (v *Validator) groupMembers(group string) []string {
	var members []string
	for name, g := range v.groups {
		if g == group {
			members = append(members, name)
		}
	}
	sort.Strings(members)
	return members
}

// Valid reports the verdict of the last validation without validating
// again: no errors shown and no field marked invalid.
func (v *Validator) Valid() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.errorList) == 0 && v.numberOfInvalids() == 0
}

// NumberOfInvalids counts the fields currently marked invalid.
func (v *Validator) NumberOfInvalids() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.numberOfInvalids()
}

func (v *Validator) numberOfInvalids() int {
	n := 0
	for _, bad := range v.invalid {
		if bad {
			n++
		}
	}
	return n
}

// ShowErrors displays messages keyed by field name as if the fields had
// failed, merging them into the current errors.
func (v *Validator) ShowErrors(errs map[string]string) {
	v.mu.Lock()
	fx := &effects{}
	v.showExternal(errs, fx)
	v.mu.Unlock()
	v.run(fx)
}

// ShowServerErrors maps a server error payload onto the form's fields and
// displays it. Keys may be dotted, bracketed or JSON pointer paths. Messages
// for keys that match no field are returned as form-level errors.
func (v *Validator) ShowServerErrors(payload map[string][]string) []string {
	mapping := render.MapErrorPayload(v.form.Names(), payload)
	errs := make(map[string]string, len(mapping.Fields))
	for name, messages := range mapping.Fields {
		if len(messages) > 0 {
			errs[name] = messages[0]
		}
	}
	v.ShowErrors(errs)
	return mapping.Form
}

func (v *Validator) showExternal(errs map[string]string, fx *effects) {
	if v.destroyed {
		return
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	v.current = nil
	for _, name := range names {
		msg := errs[name]
		if st := v.state(name); st.Status() != field.Pending {
			_ = st.MarkInvalid("server", msg)
		}
		v.invalid[name] = true
		v.submitted[name] = msg
		v.putError(render.Error{Field: name, Method: "server", Message: msg, Control: v.form.First(name)})
	}
	kept := v.successList[:0]
	for _, name := range v.successList {
		if _, failed := errs[name]; !failed {
			kept = append(kept, name)
		}
	}
	v.successList = kept
	v.showErrors(fx)
}

// ResetForm aborts remote requests and returns every field to untouched,
// memos included.
func (v *Validator) ResetForm() {
	v.mu.Lock()
	fx := &effects{}
	v.resetForm(fx)
	v.mu.Unlock()
	v.run(fx)
}

func (v *Validator) resetForm(fx *effects) {
	v.coordinator.AbortAll()
	for _, st := range v.states {
		st.Reset()
	}
	for _, c := range v.form.Controls() {
		if v.pending[c.Name] {
			fx.pending([]*form.Control{c}, false)
		}
		fx.unhighlightAll([]*form.Control{c})
	}
	v.pending = make(map[string]bool)
	v.submitted = make(map[string]string)
	v.invalid = make(map[string]bool)
	v.resetInternals()
	v.current = nil
	v.formSubmitted = false
	v.cancelSubmit = false
	v.lastActive = ""
	v.showErrors(fx)
}

// Destroy resets the form, cancels background requests and disables the
// validator. Later calls return ErrDestroyed.
func (v *Validator) Destroy() {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return
	}
	fx := &effects{}
	v.resetForm(fx)
	v.destroyed = true
	v.cancel()
	v.mu.Unlock()
	v.run(fx)
}
