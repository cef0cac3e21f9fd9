// Package validator evaluates the rules of a form's fields and aggregates
// the outcome: the check loop, the form-level verdict, deferred submission,
// event reactions and message resolution.
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/condition"
	"github.com/goliatone/go-formguard/pkg/condition/expr"
	"github.com/goliatone/go-formguard/pkg/dates"
	"github.com/goliatone/go-formguard/pkg/field"
	"github.com/goliatone/go-formguard/pkg/fieldpath"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/normalize"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// ErrDestroyed is returned by a validator after Destroy.
var ErrDestroyed = errors.New("validator: destroyed")

// RuleError attaches the field and method to a configuration error raised
// while applying a rule.
type RuleError struct {
	Field  string
	Method string
	Err    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("validator: %s: %s: %v", e.Field, e.Method, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

type declaration struct {
	name string
	decl any
}

// Validator validates one form. All methods are safe for concurrent use;
// remote completions arrive on background goroutines.
type Validator struct {
	mu sync.Mutex

	form        *form.Form
	registry    *rules.Registry
	normalizer  *normalize.Normalizer
	coordinator *remote.Coordinator
	remote      *remote.Client
	dates       dates.Parser
	conditions  condition.Evaluator
	renderer    render.Renderer
	logger      *zap.Logger
	translator  render.Translator
	locale      string

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	pendingDecls []declaration
	extraMethods []rules.Method
	extras       map[string]any

	static    map[string]normalize.Set
	wildcard  map[string]normalize.Set
	matcher   *fieldpath.Matcher
	canonical map[string]normalize.Canonical
	messages  map[string]map[string]string
	groups    map[string]string

	states  map[string]*field.State
	pending map[string]bool

	// submitted holds the last message of every field that failed on a
	// form validation or later; keyup re-validates those.
	submitted   map[string]string
	invalid     map[string]bool
	errorMap    map[string]string
	errorList   []render.Error
	successList []string
	current     []string

	formSubmitted bool
	cancelSubmit  bool
	lastActive    string
	destroyed     bool

	ignore           IgnoreFunc
	onSubmit         bool
	submitHandler    SubmitHandler
	invalidHandler   InvalidHandler
	normalizerFn     ValueNormalizer
	fieldNormalizers map[string]ValueNormalizer
	events           map[EventType]EventHandler
	errorClass       string
	validClass       string
	pendingClass     string
	autoCreateRanges bool
	ignoreTitle      bool
	focusCleanup     bool
}

// New creates a validator for f.
func New(f *form.Form, opts ...Option) (*Validator, error) {
	if f == nil {
		return nil, errors.New("validator: form is required")
	}
	v := &Validator{
		form:         f,
		registry:     rules.Builtin(),
		dates:        dates.New(),
		conditions:   expr.New(),
		renderer:     render.Nop{},
		logger:       zap.NewNop(),
		parent:       context.Background(),
		static:       make(map[string]normalize.Set),
		wildcard:     make(map[string]normalize.Set),
		matcher:      fieldpath.NewMatcher(),
		canonical:    make(map[string]normalize.Canonical),
		messages:     make(map[string]map[string]string),
		groups:       make(map[string]string),
		states:       make(map[string]*field.State),
		pending:      make(map[string]bool),
		submitted:    make(map[string]string),
		invalid:      make(map[string]bool),
		errorMap:     make(map[string]string),
		ignore:       IgnoreHidden,
		onSubmit:     true,
		events:       defaultEvents(),
		errorClass:   render.DefaultErrorClass,
		validClass:   render.DefaultValidClass,
		pendingClass: render.DefaultPendingClass,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	if v.remote == nil {
		v.remote = remote.NewClient(nil, remote.WithLogger(v.logger))
	}
	for _, m := range v.remote.Methods() {
		if !v.registry.Has(m.Name) {
			v.registry.MustRegister(m)
		}
	}
	for _, m := range v.extraMethods {
		if err := v.registry.Register(m); err != nil {
			return nil, fmt.Errorf("validator: %w", err)
		}
	}

	v.coordinator = remote.NewCoordinator(remote.WithCoordinatorLogger(v.logger))
	v.normalizer = normalize.New(v.registry,
		normalize.WithConditions(v.conditions),
		normalize.WithAutoCreateRanges(v.autoCreateRanges),
		normalize.WithExtras(v.extras),
	)
	v.ctx, v.cancel = context.WithCancel(v.parent)

	for _, d := range v.pendingDecls {
		set, err := normalize.Parse(d.decl)
		if err != nil {
			return nil, fmt.Errorf("validator: rules for %s: %w", d.name, err)
		}
		v.declare(d.name, set)
	}
	v.pendingDecls = nil
	return v, nil
}

// FormDocument returns the validated form.
func (v *Validator) FormDocument() *form.Form {
	return v.form
}

// Registry returns the validator's method registry.
func (v *Validator) Registry() *rules.Registry {
	return v.registry
}

func (v *Validator) declare(name string, set normalize.Set) {
	if fieldpath.IsWildcard(name) {
		key := fieldpath.Canonical(name)
		v.wildcard[key] = normalize.Merge(v.wildcard[key], set)
		v.matcher.Add(key)
	} else {
		key := fieldpath.Canonical(name)
		v.static[key] = normalize.Merge(v.static[key], set)
	}
	v.canonical = make(map[string]normalize.Canonical)
}

func (v *Validator) setMessage(name, method, msg string) {
	key := fieldpath.Canonical(name)
	if v.messages[key] == nil {
		v.messages[key] = make(map[string]string)
	}
	if method != "*" {
		method = rules.Key(method)
	}
	v.messages[key][method] = msg
}

func (v *Validator) addGroup(group, members string) {
	for _, name := range strings.Fields(members) {
		v.groups[name] = group
	}
}

func (v *Validator) state(name string) *field.State {
	s, ok := v.states[name]
	if !ok {
		s = field.New(name)
		v.states[name] = s
	}
	return s
}

// Status returns the validation status and message of a field.
func (v *Validator) Status(name string) (field.Status, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.states[name]
	if !ok {
		return field.Untouched, ""
	}
	return s.Status(), s.Message()
}

// ErrorMap returns the errors of the last validation keyed by field.
func (v *Validator) ErrorMap() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]string, len(v.errorMap))
	for k, msg := range v.errorMap {
		out[k] = msg
	}
	return out
}

// ErrorList returns the errors of the last validation in evaluation order.
func (v *Validator) ErrorList() []render.Error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]render.Error(nil), v.errorList...)
}

// SuccessList returns the fields that passed every rule in the last
// validation.
func (v *Validator) SuccessList() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.successList...)
}

// Pending returns the number of fields waiting on a remote verdict.
func (v *Validator) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

// InFlight returns the number of remote requests the coordinator tracks.
func (v *Validator) InFlight() int {
	return v.coordinator.Pending()
}

// Wait blocks until no remote validation is running, completion handling
// and deferred submission included.
func (v *Validator) Wait(ctx context.Context) error {
	return v.coordinator.Wait(ctx)
}
