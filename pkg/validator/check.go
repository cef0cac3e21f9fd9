package validator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/field"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/normalize"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// outcome is the verdict of one field check.
type outcome int

const (
	outcomeValid outcome = iota
	outcomeInvalid
	// outcomePending means a remote check is settling the field.
	outcomePending
	// outcomeExempt means the sole rule did not apply.
	outcomeExempt
)

func (o outcome) failed() bool {
	return o == outcomeInvalid
}

// elementValue reads a field's value and applies the field or global
// normalizer.
func (v *Validator) elementValue(name string) any {
	controls := v.form.ByName(name)
	value := form.ValueOf(controls)
	var c *form.Control
	if len(controls) > 0 {
		c = controls[0]
	}
	if fn, ok := v.fieldNormalizers[name]; ok && fn != nil {
		return fn(value, c)
	}
	if v.normalizerFn != nil {
		return v.normalizerFn(value, c)
	}
	return value
}

// check runs a field's rules in canonical order. The first failing rule
// wins; a pending rule stops the loop without a verdict. Must be called
// with v.mu held.
func (v *Validator) check(name string, fx *effects) (outcome, error) {
	res, err := v.rulesFor(name)
	if err != nil {
		return outcomeInvalid, &RuleError{Field: name, Method: "normalize", Err: err}
	}
	v.dropRules(name, res.Dropped, fx)

	list := res.Rules()
	value := v.elementValue(name)
	fc := v.newFieldContext(name, res.Canonical, value)
	st := v.state(name)

	mismatch := false
	for _, rule := range list {
		m, ok := v.registry.Lookup(rule.Name)
		if !ok {
			return outcomeInvalid, &RuleError{Field: name, Method: rule.Name, Err: fmt.Errorf("%w: %q", rules.ErrUnknownMethod, rule.Name)}
		}

		result, message, err := v.apply(fc, m, rule, value, fx)
		if err != nil {
			return outcomeInvalid, err
		}

		if result == rules.Mismatch && len(list) == 1 {
			mismatch = true
			continue
		}
		mismatch = false

		switch result {
		case rules.Pending:
			return outcomePending, nil
		case rules.Fail:
			if message == "" {
				message = v.resolveMessage(name, fc.control, rule)
			}
			v.abortPending(name, st)
			_ = st.MarkInvalid(rule.Key(), message)
			v.addError(render.Error{Field: name, Method: rule.Name, Message: message, Control: fc.control})
			return outcomeInvalid, nil
		}
	}

	v.abortPending(name, st)
	if mismatch {
		_ = st.Clear()
		return outcomeExempt, nil
	}
	_ = st.MarkValid()
	if !res.Empty() {
		v.successList = append(v.successList, name)
	}
	return outcomeValid, nil
}

// apply runs one rule. Non-implicit rules do not apply to optional fields.
// A panic inside a method is a configuration error and is returned with the
// field and method attached.
func (v *Validator) apply(fc *fieldContext, m rules.Method, rule normalize.Rule, value any, fx *effects) (result rules.Result, message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &RuleError{Field: fc.name, Method: rule.Name, Err: cause}
		}
	}()

	if !rule.Implicit && fc.Optional() {
		return rules.Mismatch, "", nil
	}
	if m.Async != nil {
		return v.applyAsync(fc, m, rule, value, fx)
	}
	if m.Func == nil {
		return rules.Fail, "", &RuleError{Field: fc.name, Method: rule.Name, Err: rules.ErrInvalidMethod}
	}
	return m.Func(fc, value, rule.Params), "", nil
}

// applyAsync answers from the memo when the request signature is unchanged
// and otherwise starts a new request, aborting the field's previous one.
func (v *Validator) applyAsync(fc *fieldContext, m rules.Method, rule normalize.Rule, value any, fx *effects) (rules.Result, string, error) {
	name := fc.name
	st := v.state(name)
	key := rule.Key()
	prev := st.Previous(key)
	sig := m.SignatureOf(fc, value, rule.Params)

	if prev.Matches(sig) {
		switch prev.Valid {
		case field.Yes:
			v.logger.Debug("remote memo hit", zap.String("field", name), zap.String("method", rule.Name), zap.Bool("valid", true))
			return rules.Pass, "", nil
		case field.No:
			v.logger.Debug("remote memo hit", zap.String("field", name), zap.String("method", rule.Name), zap.Bool("valid", false))
			return rules.Fail, prev.Message, nil
		}
		if st.Status() == field.Pending && st.PendingMethod() == key {
			return rules.Pending, "", nil
		}
	}

	task, err := m.Async(fc, value, rule.Params)
	if err != nil {
		return rules.Fail, "", &RuleError{Field: name, Method: rule.Name, Err: err}
	}

	v.abortPending(name, st)
	last := prev.Message
	prev.SaveOriginal(v.customMessage(name, key))
	prev.Remember(sig)
	if last != "" {
		v.setMessage(name, key, last)
	}

	id := v.coordinator.Start(v.ctx, remote.Port(name), task, v.completion(name, rule))
	if err := st.BeginPending(key, id); err != nil {
		v.coordinator.Abort(remote.Port(name))
		return rules.Fail, "", &RuleError{Field: name, Method: rule.Name, Err: err}
	}
	v.pending[name] = true
	fx.pending(v.form.ByName(name), true)
	v.logger.Debug("remote validation started", zap.String("field", name), zap.String("method", rule.Name), zap.String("request_id", id))
	return rules.Pending, "", nil
}

// abortPending cancels the request a field waits on, if any.
func (v *Validator) abortPending(name string, st *field.State) {
	if st.Status() != field.Pending {
		return
	}
	v.coordinator.Abort(remote.Port(name))
	if id, ok := st.CancelPending(); ok {
		v.logger.Debug("remote validation superseded", zap.String("field", name), zap.String("request_id", id))
	}
	delete(v.pending, name)
}

// dropRules resets the visual state of a field whose dependent rules no
// longer hold, and clears an error produced by one of them.
func (v *Validator) dropRules(name string, dropped []string, fx *effects) {
	if len(dropped) == 0 {
		return
	}
	st := v.state(name)
	for _, method := range dropped {
		if st.Status() == field.Invalid && st.Method() == rules.Key(method) {
			_ = st.Clear()
			delete(v.invalid, name)
			delete(v.errorMap, name)
			break
		}
	}
	fx.unhighlightAll(v.form.ByName(name))
}

func (v *Validator) addError(e render.Error) {
	v.errorMap[e.Field] = e.Message
	v.errorList = append(v.errorList, e)
}
