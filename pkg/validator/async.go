package validator

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/field"
	"github.com/goliatone/go-formguard/pkg/normalize"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/render"
)

// completion applies the verdict of a remote request to the field that
// issued it. Verdicts for requests the field no longer waits on are dropped.
func (v *Validator) completion(name string, rule normalize.Rule) remote.DoneFunc {
	return func(c remote.Completion) {
		v.mu.Lock()
		fx := &effects{}
		v.complete(name, rule, c, fx)
		v.mu.Unlock()
		v.run(fx)
	}
}

func (v *Validator) complete(name string, rule normalize.Rule, c remote.Completion, fx *effects) {
	st, ok := v.states[name]
	if v.destroyed || !ok || !st.Owns(c.ID) {
		v.logger.Debug("stale remote verdict dropped", zap.String("field", name), zap.String("request_id", c.ID))
		return
	}

	key := rule.Key()
	prev := st.Previous(key)
	if orig, ok := prev.RestoreOriginal(); ok {
		v.restoreMessage(name, key, orig)
	}

	delete(v.pending, name)
	controls := v.form.ByName(name)
	fx.pending(controls, false)

	verdict := c.Verdict
	if verdict.Valid {
		prev.Valid = field.Yes
		_ = st.ResolvePending(c.ID, true, "")

		// Only this field's outcome is shown; the others keep what the
		// renderer already displays.
		v.resetInternals()
		v.current = []string{name}
		v.successList = append(v.successList, name)
		v.invalid[name] = false
		v.showErrors(fx)
	} else {
		message := verdict.Message
		if message == "" {
			message = v.resolveMessage(name, v.form.First(name), rule)
		}
		prev.Valid = field.No
		prev.Message = message
		_ = st.ResolvePending(c.ID, false, message)

		v.current = []string{name}
		v.invalid[name] = true
		v.putError(render.Error{Field: name, Method: rule.Name, Message: message, Control: v.form.First(name)})
		v.applyRelated(name, rule, verdict.Related)
		v.showErrors(fx)
	}
	v.logger.Debug("remote verdict applied",
		zap.String("field", name),
		zap.String("request_id", c.ID),
		zap.Bool("valid", verdict.Valid),
		zap.Int("remaining", len(v.pending)),
	)

	if !v.formSubmitted || len(v.pending) > 0 {
		return
	}
	if !verdict.Valid {
		v.formSubmitted = false
		fx.notifyInvalid(v.errorList)
		return
	}
	valid, err := v.validateForm(fx)
	switch {
	case err != nil:
		v.formSubmitted = false
		v.logger.Warn("deferred validation failed", zap.Error(err))
	case len(v.pending) > 0:
		v.logger.Debug("deferred submit waits on new requests", zap.Int("pending", len(v.pending)))
	default:
		v.formSubmitted = false
		fx.submit = valid
	}
}

// applyRelated marks the other fields a whole-form check reported.
func (v *Validator) applyRelated(name string, rule normalize.Rule, related map[string]string) {
	if len(related) == 0 {
		return
	}
	payload := make(map[string][]string, len(related))
	for key, msg := range related {
		payload[key] = []string{msg}
	}
	mapping := render.MapErrorPayload(v.form.Names(), payload)
	for other, messages := range mapping.Fields {
		if other == name || len(messages) == 0 {
			continue
		}
		if st := v.state(other); st.Status() != field.Pending {
			_ = st.MarkInvalid(rule.Key(), messages[0])
		}
		v.invalid[other] = true
		v.current = append(v.current, other)
		v.putError(render.Error{Field: other, Method: rule.Name, Message: messages[0], Control: v.form.First(other)})
	}
}

// putError sets the error of a field, replacing an earlier one in place.
func (v *Validator) putError(e render.Error) {
	if _, exists := v.errorMap[e.Field]; exists {
		for i := range v.errorList {
			if v.errorList[i].Field == e.Field {
				v.errorList[i] = e
			}
		}
		v.errorMap[e.Field] = e.Message
		return
	}
	v.addError(e)
}

func (v *Validator) resetInternals() {
	v.errorMap = make(map[string]string)
	v.errorList = nil
	v.successList = nil
}
