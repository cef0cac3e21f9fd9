package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formguard/pkg/normalize"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

// RulesExtension declares extra rules on a property schema.
const RulesExtension = "x-formguard-rules"

var bodyMediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) pkgopenapi.Parser {
	if options.MaxDepth <= 0 {
		options.MaxDepth = pkgopenapi.NewParserOptions().MaxDepth
	}
	return &Parser{options: options}
}

// Operations converts a Document into operations keyed by operationId.
// Operations without an id are keyed "method:path".
func (p *Parser) Operations(ctx context.Context, doc pkgopenapi.Document) (map[string]pkgopenapi.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}

	operations := make(map[string]pkgopenapi.Operation)
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			op, err := p.convertOperation(method, path, operation)
			if err != nil {
				return nil, err
			}
			operations[op.ID] = op
		}
	}
	if len(operations) == 0 {
		return nil, errors.New("openapi parser: no operations extracted")
	}
	return operations, nil
}

func (p *Parser) convertOperation(method, path string, operation *openapi3.Operation) (pkgopenapi.Operation, error) {
	id := operation.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	op := pkgopenapi.Operation{
		ID:      id,
		Method:  strings.ToUpper(method),
		Path:    path,
		Summary: operation.Summary,
	}
	body := operation.RequestBody
	if body == nil || body.Value == nil || len(body.Value.Content) == 0 {
		return op, nil
	}

	contentType, media := pickMedia(body.Value.Content)
	if media == nil {
		return op, nil
	}
	conv := converter{maxDepth: p.options.MaxDepth, seen: make(map[*openapi3.Schema]bool)}
	schema, err := conv.convert(media.Schema, 0)
	if err != nil {
		return pkgopenapi.Operation{}, fmt.Errorf("openapi parser: %s: %w", id, err)
	}
	op.ContentType = contentType
	op.Body = schema
	return op, nil
}

func pickMedia(content openapi3.Content) (string, *openapi3.MediaType) {
	for _, contentType := range bodyMediaTypes {
		if mt, ok := content[contentType]; ok && mt != nil {
			return contentType, mt
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if content[key] != nil {
			return key, content[key]
		}
	}
	return "", nil
}

type converter struct {
	maxDepth int
	seen     map[*openapi3.Schema]bool
}

// convert walks a schema reference. Recursive references and schemas past
// maxDepth are returned with only their Ref set.
func (c converter) convert(ref *openapi3.SchemaRef, depth int) (pkgopenapi.Schema, error) {
	if ref == nil {
		return pkgopenapi.Schema{}, nil
	}
	src := ref.Value
	if src == nil || depth > c.maxDepth || c.seen[src] {
		return pkgopenapi.Schema{Ref: ref.Ref}, nil
	}
	c.seen[src] = true
	defer delete(c.seen, src)

	schema := pkgopenapi.Schema{
		Ref:              ref.Ref,
		Type:             firstSchemaType(src.Type),
		Format:           src.Format,
		Description:      src.Description,
		Pattern:          src.Pattern,
		Nullable:         src.Nullable,
		ExclusiveMinimum: src.ExclusiveMin,
		ExclusiveMaximum: src.ExclusiveMax,
	}
	if len(src.Required) > 0 {
		schema.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		schema.Enum = append([]any(nil), src.Enum...)
	}
	if src.Min != nil {
		value := *src.Min
		schema.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		schema.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		schema.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		schema.MaxLength = &value
	}
	if src.MinItems != 0 {
		value := int(src.MinItems)
		schema.MinItems = &value
	}
	if src.MaxItems != nil {
		value := int(*src.MaxItems)
		schema.MaxItems = &value
	}

	if len(src.Properties) > 0 {
		schema.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			converted, err := c.convert(property, depth+1)
			if err != nil {
				return pkgopenapi.Schema{}, fmt.Errorf("%s: %w", name, err)
			}
			schema.Properties[name] = converted
		}
	}
	if src.Items != nil {
		items, err := c.convert(src.Items, depth+1)
		if err != nil {
			return pkgopenapi.Schema{}, fmt.Errorf("items: %w", err)
		}
		schema.Items = &items
	}
	for _, part := range src.AllOf {
		converted, err := c.convert(part, depth)
		if err != nil {
			return pkgopenapi.Schema{}, fmt.Errorf("allOf: %w", err)
		}
		mergeAllOf(&schema, converted)
	}

	if raw, ok := src.Extensions[RulesExtension]; ok && raw != nil {
		extra, err := normalize.Parse(raw)
		if err != nil {
			return pkgopenapi.Schema{}, fmt.Errorf("%s: %w", RulesExtension, err)
		}
		schema.Extra = extra
	}
	return schema, nil
}

// mergeAllOf folds an allOf member into target. Properties and required
// names accumulate; scalar constraints already set on target win.
func mergeAllOf(target *pkgopenapi.Schema, part pkgopenapi.Schema) {
	if target.Type == "" {
		target.Type = part.Type
	}
	if target.Format == "" {
		target.Format = part.Format
	}
	if target.Pattern == "" {
		target.Pattern = part.Pattern
	}
	if target.MinLength == nil {
		target.MinLength = part.MinLength
	}
	if target.MaxLength == nil {
		target.MaxLength = part.MaxLength
	}
	if target.Minimum == nil {
		target.Minimum = part.Minimum
		target.ExclusiveMinimum = part.ExclusiveMinimum
	}
	if target.Maximum == nil {
		target.Maximum = part.Maximum
		target.ExclusiveMaximum = part.ExclusiveMaximum
	}
	if len(target.Enum) == 0 {
		target.Enum = part.Enum
	}
	if target.Items == nil {
		target.Items = part.Items
	}
	for _, name := range part.Required {
		if !target.IsRequired(name) {
			target.Required = append(target.Required, name)
		}
	}
	if len(part.Properties) > 0 {
		if target.Properties == nil {
			target.Properties = make(map[string]pkgopenapi.Schema, len(part.Properties))
		}
		for name, property := range part.Properties {
			if _, exists := target.Properties[name]; !exists {
				target.Properties[name] = property
			}
		}
	}
	target.Extra = normalize.Merge(part.Extra, target.Extra)
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, t := range types.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}
