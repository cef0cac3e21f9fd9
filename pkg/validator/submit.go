package validator

import (
	"context"

	"go.uber.org/zap"
)

// SubmitResult is the outcome of Submit.
type SubmitResult int

const (
	// Submitted means the submit handler ran.
	Submitted SubmitResult = iota
	// Deferred means the form is valid so far but waits on remote verdicts;
	// the submit handler runs once they all pass.
	Deferred
	// Rejected means the form is invalid.
	Rejected
)

func (r SubmitResult) String() string {
	switch r {
	case Submitted:
		return "submitted"
	case Deferred:
		return "deferred"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Submit validates the form and submits it when valid. A submission that
// waits on remote verdicts is deferred: the submit handler runs after the
// last verdict arrives if the form is still valid, otherwise the invalid
// handler is notified. The error is a configuration error or the submit
// handler's.
func (v *Validator) Submit(ctx context.Context) (SubmitResult, error) {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return Rejected, ErrDestroyed
	}
	if !v.onSubmit || v.cancelSubmit {
		v.cancelSubmit = false
		v.mu.Unlock()
		return Submitted, v.handleSubmit(ctx)
	}

	fx := &effects{}
	valid, err := v.validateForm(fx)
	result := Submitted
	switch {
	case err != nil:
		result = Rejected
	case !valid:
		result = Rejected
	case len(v.pending) > 0:
		v.formSubmitted = true
		result = Deferred
		v.logger.Debug("submit deferred", zap.Int("pending", len(v.pending)))
	}
	v.mu.Unlock()
	v.run(fx)

	if err != nil || result != Submitted {
		return result, err
	}
	return Submitted, v.handleSubmit(ctx)
}

// SkipValidation makes the next Submit hand the form over without
// validating, like a cancel button.
func (v *Validator) SkipValidation() {
	v.mu.Lock()
	v.cancelSubmit = true
	v.mu.Unlock()
}

// FocusTarget returns the field that should receive focus after a failed
// validation: the last active field when it is invalid, else the first
// error.
func (v *Validator) FocusTarget() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, bad := v.errorMap[v.lastActive]; bad && v.lastActive != "" {
		return v.lastActive
	}
	if len(v.errorList) > 0 {
		return v.errorList[0].Field
	}
	return ""
}

func (v *Validator) handleSubmit(ctx context.Context) error {
	if v.submitHandler == nil {
		return nil
	}
	return v.submitHandler(ctx, v.form)
}
