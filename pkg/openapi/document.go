package openapi

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-formguard/pkg/normalize"
)

var (
	// ErrInvalidSource reports a missing or malformed document location.
	ErrInvalidSource = errors.New("openapi: invalid source")
	// ErrOperationNotFound is returned when an operation id is not declared.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoBody is returned when an operation has no request body schema.
	ErrNoBody = errors.New("openapi: operation has no request body")
)

// Source identifies where an OpenAPI document originated.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Document wraps the raw OpenAPI payload and its origin so the public API
// does not expose kin-openapi types.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument wraps raw, copying it.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, fmt.Errorf("openapi: source is required: %w", ErrInvalidSource)
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics if the document cannot be created.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin of the document.
func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Operation is the part of an OpenAPI operation rule derivation needs.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	ContentType string
	Body        Schema
}

// HasBody reports whether the operation declares a request body schema.
func (o Operation) HasBody() bool {
	return o.Body.Type != "" || len(o.Body.Properties) > 0
}

// Schema is the subset of JSON Schema that maps onto validation rules.
type Schema struct {
	Ref              string
	Type             string
	Format           string
	Description      string
	Required         []string
	Properties       map[string]Schema
	Items            *Schema
	Enum             []any
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MinLength        *int
	MaxLength        *int
	MinItems         *int
	MaxItems         *int
	Pattern          string
	Nullable         bool
	// Extra holds rules declared with the x-formguard-rules extension.
	Extra normalize.Set
}

// PropertyNames returns the property names sorted.
func (s Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRequired reports whether name appears in the schema's required list.
func (s Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Find returns the operation with the given id.
func Find(ops map[string]Operation, id string) (Operation, error) {
	op, ok := ops[id]
	if !ok {
		return Operation{}, fmt.Errorf("openapi: %q: %w", id, ErrOperationNotFound)
	}
	return op, nil
}

// OperationIDs lists ids sorted.
func OperationIDs(ops map[string]Operation) []string {
	ids := make([]string, 0, len(ops))
	for id := range ops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
