package validator

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/condition"
	"github.com/goliatone/go-formguard/pkg/dates"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// Option configures a Validator.
type Option func(*Validator)

// ValueNormalizer transforms a raw value before the rules see it.
type ValueNormalizer func(value any, c *form.Control) any

// SubmitHandler performs the submission of a valid form.
type SubmitHandler func(ctx context.Context, f *form.Form) error

// InvalidHandler is notified when a validation of the whole form fails.
type InvalidHandler func(v *Validator, errs []render.Error)

// IgnoreFunc excludes controls from validation.
type IgnoreFunc func(c *form.Control) bool

// IgnoreHidden skips hidden controls and hidden inputs.
func IgnoreHidden(c *form.Control) bool {
	return c.Hidden || c.Type == form.TypeHidden
}

// WithRules declares static rules per field name. Keys containing a
// wildcard segment ("items.*.qty", "tags[]") declare array rules. Values take
// any shape normalize.Parse accepts.
func WithRules(decls map[string]any) Option {
	return func(v *Validator) {
		for name, decl := range decls {
			v.pendingDecls = append(v.pendingDecls, declaration{name: name, decl: decl})
		}
	}
}

// WithMessages overrides messages per field and method. The method "*"
// applies to every method of the field.
func WithMessages(messages map[string]map[string]string) Option {
	return func(v *Validator) {
		for name, byMethod := range messages {
			for method, msg := range byMethod {
				v.setMessage(name, method, msg)
			}
		}
	}
}

// WithGroups declares groups of fields validated together. Values list the
// member names separated by spaces.
func WithGroups(groups map[string]string) Option {
	return func(v *Validator) {
		for group, members := range groups {
			v.addGroup(group, members)
		}
	}
}

// WithIgnore replaces the filter of ignored controls. Nil validates every
// control.
func WithIgnore(fn IgnoreFunc) Option {
	return func(v *Validator) {
		v.ignore = fn
	}
}

// WithOnSubmit toggles validation on Submit. When disabled Submit hands the
// form to the submit handler without validating.
func WithOnSubmit(enabled bool) Option {
	return func(v *Validator) {
		v.onSubmit = enabled
	}
}

// WithSubmitHandler sets the submission of valid forms.
func WithSubmitHandler(fn SubmitHandler) Option {
	return func(v *Validator) {
		v.submitHandler = fn
	}
}

// WithInvalidHandler sets the invalid-form notification.
func WithInvalidHandler(fn InvalidHandler) Option {
	return func(v *Validator) {
		v.invalidHandler = fn
	}
}

// WithRenderer sets the rendering hooks.
func WithRenderer(r render.Renderer) Option {
	return func(v *Validator) {
		if r != nil {
			v.renderer = r
		}
	}
}

// WithClasses overrides the error, valid and pending classes passed to the
// renderer. Empty values keep the defaults.
func WithClasses(errorClass, validClass, pendingClass string) Option {
	return func(v *Validator) {
		if errorClass != "" {
			v.errorClass = errorClass
		}
		if validClass != "" {
			v.validClass = validClass
		}
		if pendingClass != "" {
			v.pendingClass = pendingClass
		}
	}
}

// WithNormalizer transforms every value before evaluation.
func WithNormalizer(fn ValueNormalizer) Option {
	return func(v *Validator) {
		v.normalizerFn = fn
	}
}

// WithFieldNormalizer transforms one field's value, taking precedence over
// WithNormalizer.
func WithFieldNormalizer(name string, fn ValueNormalizer) Option {
	return func(v *Validator) {
		if v.fieldNormalizers == nil {
			v.fieldNormalizers = make(map[string]ValueNormalizer)
		}
		v.fieldNormalizers[name] = fn
	}
}

// WithRegistry sets the method registry. It is cloned so later
// registrations stay local to the validator.
func WithRegistry(r *rules.Registry) Option {
	return func(v *Validator) {
		if r != nil {
			v.registry = r.Clone()
		}
	}
}

// WithMethod registers an extra method.
func WithMethod(m rules.Method) Option {
	return func(v *Validator) {
		v.extraMethods = append(v.extraMethods, m)
	}
}

// WithRemoteClient sets the client behind the remote methods.
func WithRemoteClient(c *remote.Client) Option {
	return func(v *Validator) {
		if c != nil {
			v.remote = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithTranslator resolves method messages through "validation.<method>"
// keys in locale before the registry defaults.
func WithTranslator(t render.Translator, locale string) Option {
	return func(v *Validator) {
		v.translator = t
		v.locale = locale
	}
}

// WithDates sets the date facility used by date methods.
func WithDates(p dates.Parser) Option {
	return func(v *Validator) {
		if p != nil {
			v.dates = p
		}
	}
}

// WithConditions sets the evaluator of string dependencies.
func WithConditions(e condition.Evaluator) Option {
	return func(v *Validator) {
		if e != nil {
			v.conditions = e
		}
	}
}

// WithExtras exposes caller flags to dependency expressions as extras.<key>.
func WithExtras(extras map[string]any) Option {
	return func(v *Validator) {
		v.extras = extras
	}
}

// WithAutoCreateRanges merges min/max and minlength/maxlength pairs.
func WithAutoCreateRanges(enabled bool) Option {
	return func(v *Validator) {
		v.autoCreateRanges = enabled
	}
}

// WithIgnoreTitle stops the title attribute from being used as a message.
func WithIgnoreTitle(enabled bool) Option {
	return func(v *Validator) {
		v.ignoreTitle = enabled
	}
}

// WithFocusCleanup removes a field's error when it gains focus.
func WithFocusCleanup(enabled bool) Option {
	return func(v *Validator) {
		v.focusCleanup = enabled
	}
}

// WithEventHandler replaces the default reaction to an event type. A nil
// handler disables it.
func WithEventHandler(t EventType, h EventHandler) Option {
	return func(v *Validator) {
		v.events[t] = h
	}
}

// WithContext sets the parent context of background requests. Destroy
// cancels it.
func WithContext(ctx context.Context) Option {
	return func(v *Validator) {
		if ctx != nil {
			v.parent = ctx
		}
	}
}
