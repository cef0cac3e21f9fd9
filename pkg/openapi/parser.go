package openapi

import "context"

// Parser converts documents into operations keyed by operationId.
type Parser interface {
	Operations(ctx context.Context, doc Document) (map[string]Operation, error)
}

// ParserOptions toggles parser behaviour.
type ParserOptions struct {
	// ResolveReferences allows external $ref resolution.
	ResolveReferences bool

	// Validate runs document validation before conversion.
	Validate bool

	// MaxDepth bounds schema nesting; recursive references stop there.
	MaxDepth int
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithReferenceResolution toggles external reference resolution.
func WithReferenceResolution(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithValidation toggles document validation.
func WithValidation(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.Validate = enabled
	}
}

// WithMaxDepth bounds schema nesting.
func WithMaxDepth(depth int) ParserOption {
	return func(opts *ParserOptions) {
		if depth > 0 {
			opts.MaxDepth = depth
		}
	}
}

// NewParserOptions applies options over the defaults.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{
		ResolveReferences: true,
		MaxDepth:          8,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
