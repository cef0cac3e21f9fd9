package render

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formguard/pkg/form"
)

// Theme keys read from theme.RendererConfig.
const (
	TokenErrorClass   = "validation.error_class"
	TokenValidClass   = "validation.valid_class"
	TokenErrorElement = "validation.error_element"
	PartialErrorLabel = "validation.error_label"
)

const defaultLabelTemplate = `<{{ element }} id="{{ id }}-error" class="{{ error_class }}" for="{{ id }}">{{ message }}</{{ element }}>`

// HTMLOption configures an HTMLRenderer.
type HTMLOption func(*htmlConfig)

type htmlConfig struct {
	template     string
	errorClass   string
	validClass   string
	errorElement string
	theme        *theme.RendererConfig
}

// WithTheme reads classes, the error element and the label partial from a
// go-theme renderer configuration.
func WithTheme(cfg *theme.RendererConfig) HTMLOption {
	return func(c *htmlConfig) {
		c.theme = cfg
	}
}

// WithLabelTemplate replaces the pongo2 template of an error label. The
// template sees field, id, message, method, element and error_class.
func WithLabelTemplate(src string) HTMLOption {
	return func(c *htmlConfig) {
		if strings.TrimSpace(src) != "" {
			c.template = src
		}
	}
}

// WithErrorElement sets the tag of error labels.
func WithErrorElement(tag string) HTMLOption {
	return func(c *htmlConfig) {
		if tag = strings.TrimSpace(tag); tag != "" {
			c.errorElement = tag
		}
	}
}

// HTMLRenderer keeps an HTML error label per invalid field and the highlight
// classes per control. It is safe for concurrent use.
type HTMLRenderer struct {
	tpl          *pongo2.Template
	errorClass   string
	validClass   string
	errorElement string
	strip        *bluemonday.Policy

	mu      sync.Mutex
	labels  map[string]string
	classes map[string]map[string]bool
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer compiles the label template.
func NewHTMLRenderer(opts ...HTMLOption) (*HTMLRenderer, error) {
	cfg := &htmlConfig{
		template:     defaultLabelTemplate,
		errorClass:   DefaultErrorClass,
		validClass:   DefaultValidClass,
		errorElement: DefaultErrorElement,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.theme != nil {
		applyTheme(cfg, cfg.theme)
	}

	tpl, err := pongo2.FromString(cfg.template)
	if err != nil {
		return nil, fmt.Errorf("render: compile error label template: %w", err)
	}
	return &HTMLRenderer{
		tpl:          tpl,
		errorClass:   cfg.errorClass,
		validClass:   cfg.validClass,
		errorElement: cfg.errorElement,
		strip:        bluemonday.StrictPolicy(),
		labels:       make(map[string]string),
		classes:      make(map[string]map[string]bool),
	}, nil
}

func applyTheme(cfg *htmlConfig, t *theme.RendererConfig) {
	if v := strings.TrimSpace(t.Tokens[TokenErrorClass]); v != "" {
		cfg.errorClass = v
	}
	if v := strings.TrimSpace(t.Tokens[TokenValidClass]); v != "" {
		cfg.validClass = v
	}
	if v := strings.TrimSpace(t.Tokens[TokenErrorElement]); v != "" {
		cfg.errorElement = v
	}
	if v := strings.TrimSpace(t.Partials[PartialErrorLabel]); v != "" {
		cfg.template = v
	}
}

// ErrorClass is the class added to invalid controls.
func (r *HTMLRenderer) ErrorClass() string {
	return r.errorClass
}

// ValidClass is the class added to valid controls.
func (r *HTMLRenderer) ValidClass() string {
	return r.validClass
}

// ShowErrors renders a label for every entry of errorList.
func (r *HTMLRenderer) ShowErrors(_ map[string]string, errorList []Error) {
	rendered := make(map[string]string, len(errorList))
	for _, e := range errorList {
		label, err := r.label(e)
		if err != nil {
			label = html.EscapeString(e.Message)
		}
		rendered[e.Field] = label
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for field, label := range rendered {
		r.labels[field] = label
	}
}

func (r *HTMLRenderer) label(e Error) (string, error) {
	id := e.Field
	if e.Control != nil && e.Control.ID != "" {
		id = e.Control.ID
	}
	// Messages may carry markup from the server; labels show text only.
	message := html.UnescapeString(r.strip.Sanitize(e.Message))
	return r.tpl.Execute(pongo2.Context{
		"field":       e.Field,
		"id":          id,
		"message":     message,
		"method":      e.Method,
		"element":     r.errorElement,
		"error_class": r.errorClass,
	})
}

// Highlight adds errorClass and removes validClass. Empty classes fall back
// to the renderer's own.
func (r *HTMLRenderer) Highlight(c *form.Control, errorClass, validClass string) {
	if c == nil {
		return
	}
	add, remove := r.pick(errorClass, r.errorClass), r.pick(validClass, r.validClass)
	r.toggle(c.Name, add, remove)
}

// Unhighlight adds validClass, removes errorClass and drops the label.
func (r *HTMLRenderer) Unhighlight(c *form.Control, errorClass, validClass string) {
	if c == nil {
		return
	}
	add, remove := r.pick(validClass, r.validClass), r.pick(errorClass, r.errorClass)
	r.toggle(c.Name, add, remove)

	r.mu.Lock()
	delete(r.labels, c.Name)
	r.mu.Unlock()
}

// MarkPending toggles pendingClass while a remote check runs.
func (r *HTMLRenderer) MarkPending(c *form.Control, pendingClass string, on bool) {
	if c == nil {
		return
	}
	class := r.pick(pendingClass, DefaultPendingClass)
	if on {
		r.toggle(c.Name, class, "")
		return
	}
	r.toggle(c.Name, "", class)
}

func (r *HTMLRenderer) pick(given, fallback string) string {
	if strings.TrimSpace(given) != "" {
		return given
	}
	return fallback
}

func (r *HTMLRenderer) toggle(name, add, remove string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.classes[name]
	if !ok {
		set = make(map[string]bool)
		r.classes[name] = set
	}
	for _, cls := range strings.Fields(remove) {
		delete(set, cls)
	}
	for _, cls := range strings.Fields(add) {
		set[cls] = true
	}
}

// Label returns the rendered label of a field.
func (r *HTMLRenderer) Label(field string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	label, ok := r.labels[field]
	return label, ok
}

// Labels returns every rendered label keyed by field.
func (r *HTMLRenderer) Labels() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.labels))
	for k, v := range r.labels {
		out[k] = v
	}
	return out
}

// Classes returns the highlight classes of a control, sorted.
func (r *HTMLRenderer) Classes(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.classes[name]))
	for cls := range r.classes[name] {
		out = append(out, cls)
	}
	sort.Strings(out)
	return out
}

// Reset drops every label and class.
func (r *HTMLRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = make(map[string]string)
	r.classes = make(map[string]map[string]bool)
}
