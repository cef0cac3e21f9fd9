package validator

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/render"
)

// PendingMarker is implemented by renderers that show pending controls.
type PendingMarker interface {
	MarkPending(c *form.Control, pendingClass string, on bool)
}

// effects collects renderer calls and handler notifications while the lock
// is held; run delivers them after it is released.
type effects struct {
	show        bool
	errorMap    map[string]string
	errorList   []render.Error
	highlights  []*form.Control
	unhighlight []*form.Control
	pendingOn   []*form.Control
	pendingOff  []*form.Control

	invalid     bool
	invalidErrs []render.Error
	submit      bool
}

func (fx *effects) highlight(controls []*form.Control) {
	fx.highlights = append(fx.highlights, controls...)
}

func (fx *effects) unhighlightAll(controls []*form.Control) {
	fx.unhighlight = append(fx.unhighlight, controls...)
}

func (fx *effects) pending(controls []*form.Control, on bool) {
	if on {
		fx.pendingOn = append(fx.pendingOn, controls...)
		return
	}
	fx.pendingOff = append(fx.pendingOff, controls...)
}

func (fx *effects) notifyInvalid(errs []render.Error) {
	fx.invalid = true
	fx.invalidErrs = append([]render.Error(nil), errs...)
}

// showErrors queues the current errors for the renderer: invalid fields are
// highlighted and the other fields validated in this pass are unhighlighted.
func (v *Validator) showErrors(fx *effects) {
	fx.show = true
	fx.errorMap = make(map[string]string, len(v.errorMap))
	for k, msg := range v.errorMap {
		fx.errorMap[k] = msg
	}
	fx.errorList = append([]render.Error(nil), v.errorList...)
	for _, e := range v.errorList {
		fx.highlight(v.form.ByName(e.Field))
	}
	for _, name := range v.current {
		if _, bad := v.errorMap[name]; !bad {
			fx.unhighlightAll(v.form.ByName(name))
		}
	}
}

func (v *Validator) run(fx *effects) {
	if fx == nil {
		return
	}
	marker, canMark := v.renderer.(PendingMarker)
	if canMark {
		for _, c := range fx.pendingOff {
			marker.MarkPending(c, v.pendingClass, false)
		}
		for _, c := range fx.pendingOn {
			marker.MarkPending(c, v.pendingClass, true)
		}
	}
	for _, c := range fx.unhighlight {
		v.renderer.Unhighlight(c, v.errorClass, v.validClass)
	}
	for _, c := range fx.highlights {
		v.renderer.Highlight(c, v.errorClass, v.validClass)
	}
	if fx.show {
		v.renderer.ShowErrors(fx.errorMap, fx.errorList)
	}
	if fx.invalid && v.invalidHandler != nil {
		v.invalidHandler(v, fx.invalidErrs)
	}
	if fx.submit {
		if err := v.handleSubmit(v.ctx); err != nil {
			v.logger.Warn("deferred submit failed", zap.Error(err))
		}
	}
}
