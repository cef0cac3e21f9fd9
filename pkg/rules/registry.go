package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownMethod is returned when a rule names a method that is not
	// registered.
	ErrUnknownMethod = errors.New("rules: unknown method")
	// ErrInvalidMethod is returned when registering an incomplete method.
	ErrInvalidMethod = errors.New("rules: invalid method")
	// ErrUnsupportedStep is raised by the step method on a control type that
	// has no numeric step.
	ErrUnsupportedStep = errors.New("rules: unsupported step")
)

// Key folds a method name so "RequiredIf", "required_if" and "requiredif"
// address the same method.
func Key(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch r {
		case '_', '-', ' ':
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Registry stores methods by folded name. The zero value is not usable; use
// NewRegistry or Builtin.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Method)}
}

// Builtin creates a registry preloaded with every built-in method.
func Builtin() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register adds or replaces a method.
func (r *Registry) Register(m Method) error {
	key := Key(m.Name)
	if key == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMethod)
	}
	if m.Func == nil && m.Async == nil {
		return fmt.Errorf("%w: %q needs Func or Async", ErrInvalidMethod, m.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[key] = m
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(m Method) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// AddMethod registers a synchronous, non-implicit method.
func (r *Registry) AddMethod(name string, fn Func, message string) error {
	return r.Register(Method{Name: name, Func: fn, Message: message})
}

// Lookup returns a method by name, matched case- and separator-insensitively.
func (r *Registry) Lookup(name string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[Key(name)]
	return m, ok
}

// Get is Lookup with an error for unknown names.
func (r *Registry) Get(name string) (Method, error) {
	m, ok := r.Lookup(name)
	if !ok {
		return Method{}, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return m, nil
}

// Has reports whether a method is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Implicit reports whether the named method runs on empty fields.
func (r *Registry) Implicit(name string) bool {
	m, ok := r.Lookup(name)
	return ok && m.Implicit
}

// Message returns the default message of a method.
func (r *Registry) Message(name string) string {
	m, _ := r.Lookup(name)
	return m.Message
}

// SetMessage replaces the default message of a registered method.
func (r *Registry) SetMessage(name, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := Key(name)
	m, ok := r.methods[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	m.Message = message
	r.methods[key] = m
	return nil
}

// List returns the registered method names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for _, m := range r.methods {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Clone copies the registry so callers can customise it in isolation.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &Registry{methods: make(map[string]Method, len(r.methods))}
	for k, m := range r.methods {
		out.methods[k] = m
	}
	return out
}
