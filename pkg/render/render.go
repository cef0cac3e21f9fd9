// Package render receives the outcome of validation: error maps, per-field
// highlight toggles and server error payloads. The default HTML renderer
// produces error labels from a pongo2 template.
package render

import (
	"github.com/goliatone/go-formguard/pkg/form"
)

const (
	DefaultErrorClass   = "error"
	DefaultValidClass   = "valid"
	DefaultPendingClass = "pending"
	DefaultErrorElement = "label"
)

// Error is one entry of the error list: a field, the method that failed and
// the resolved message.
type Error struct {
	Field   string
	Method  string
	Message string
	Control *form.Control
}

// Renderer displays validation results.
type Renderer interface {
	// ShowErrors receives the errors of the fields validated last, keyed by
	// field name, and the same errors in evaluation order.
	ShowErrors(errorMap map[string]string, errorList []Error)
	// Highlight marks a control invalid.
	Highlight(c *form.Control, errorClass, validClass string)
	// Unhighlight marks a control valid.
	Unhighlight(c *form.Control, errorClass, validClass string)
}

// Nop ignores everything.
type Nop struct{}

func (Nop) ShowErrors(map[string]string, []Error) {}

func (Nop) Highlight(*form.Control, string, string) {}

func (Nop) Unhighlight(*form.Control, string, string) {}

var _ Renderer = Nop{}
