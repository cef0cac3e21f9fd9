// Package formguard validates form documents against declarative rules.
//
// The root package wires the pieces under pkg/ together: New builds a
// validator over a form, LoadConfig reads YAML or JSON settings, and
// RulesFromOpenAPI derives rule declarations from an OpenAPI operation's
// request body. ServerValidate runs the same rules server-side behind
// remote.Handler or ginremote.Middleware.
package formguard

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/fieldpath"
	"github.com/goliatone/go-formguard/pkg/form"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/rules"
	"github.com/goliatone/go-formguard/pkg/validator"
)

// Validator aliases validator.Validator for callers using the root package.
type Validator = validator.Validator

// Option configures a Validator.
type Option = validator.Option

// Settings aliases the configuration document.
type Settings = config.Settings

// SubmitResult aliases the outcome of Validator.Submit.
type SubmitResult = validator.SubmitResult

// Option re-exports.
var (
	WithRules            = validator.WithRules
	WithMessages         = validator.WithMessages
	WithGroups           = validator.WithGroups
	WithIgnore           = validator.WithIgnore
	WithOnSubmit         = validator.WithOnSubmit
	WithSubmitHandler    = validator.WithSubmitHandler
	WithInvalidHandler   = validator.WithInvalidHandler
	WithRenderer         = validator.WithRenderer
	WithClasses          = validator.WithClasses
	WithNormalizer       = validator.WithNormalizer
	WithFieldNormalizer  = validator.WithFieldNormalizer
	WithRegistry         = validator.WithRegistry
	WithMethod           = validator.WithMethod
	WithRemoteClient     = validator.WithRemoteClient
	WithLogger           = validator.WithLogger
	WithTranslator       = validator.WithTranslator
	WithDates            = validator.WithDates
	WithConditions       = validator.WithConditions
	WithExtras           = validator.WithExtras
	WithAutoCreateRanges = validator.WithAutoCreateRanges
	WithIgnoreTitle      = validator.WithIgnoreTitle
	WithFocusCleanup     = validator.WithFocusCleanup
	WithEventHandler     = validator.WithEventHandler
	WithContext          = validator.WithContext
)

// New builds a validator over f.
func New(f *form.Form, options ...Option) (*Validator, error) {
	return validator.New(f, options...)
}

// LoadConfig reads a settings file.
func LoadConfig(path string) (Settings, error) {
	return config.LoadFile(path)
}

// NewFromConfig builds a validator from settings. Extra options apply after
// the configured ones. A nil form uses the configured action and method.
func NewFromConfig(f *form.Form, settings Settings, logger *zap.Logger, options ...Option) (*Validator, error) {
	opts, err := settings.Options(logger)
	if err != nil {
		return nil, err
	}
	if f == nil {
		f = settings.Form()
	}
	return validator.New(f, append(opts, options...)...)
}

// RulesFromOpenAPI loads src and returns the rule declarations of the
// operation's request body, ready for WithRules.
func RulesFromOpenAPI(ctx context.Context, src pkgopenapi.Source, operationID string, options ...pkgopenapi.LoaderOption) (map[string]any, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return RulesFromDocument(ctx, doc, operationID)
}

// RulesFromDocument is RulesFromOpenAPI for a loaded document.
func RulesFromDocument(ctx context.Context, doc pkgopenapi.Document, operationID string, options ...pkgopenapi.ParserOption) (map[string]any, error) {
	ops, err := NewParser(options...).Operations(ctx, doc)
	if err != nil {
		return nil, err
	}
	op, err := pkgopenapi.Find(ops, operationID)
	if err != nil {
		return nil, err
	}
	if !op.HasBody() {
		return nil, fmt.Errorf("formguard: %s: %w", operationID, pkgopenapi.ErrNoBody)
	}
	out := make(map[string]any)
	for name, set := range pkgopenapi.Rules(op) {
		out[name] = set
	}
	return out, nil
}

// ServerValidate returns a remote.ValidateFunc applying decls to submitted
// values. Remote methods pass on the server so a check never calls itself.
func ServerValidate(decls map[string]any, options ...Option) remote.ValidateFunc {
	pass := func(rules.FieldContext, any, rules.Params) rules.Result { return rules.Pass }
	return func(ctx context.Context, values url.Values) (map[string][]string, error) {
		opts := []Option{
			WithContext(ctx),
			WithRules(decls),
			WithOnSubmit(false),
			WithMethod(rules.Method{Name: remote.SingleRuleMethod, Func: pass}),
			WithMethod(rules.Method{Name: remote.WholeFormMethod, Func: pass}),
		}
		v, err := validator.New(submitted(values, decls), append(opts, options...)...)
		if err != nil {
			return nil, err
		}
		defer v.Destroy()

		if _, err := v.Form(); err != nil {
			return nil, err
		}
		errs := v.ErrorMap()
		if len(errs) == 0 {
			return nil, nil
		}
		out := make(map[string][]string, len(errs))
		for name, msg := range errs {
			out[name] = []string{msg}
		}
		return out, nil
	}
}

// submitted builds a form from values plus an empty control for every
// declared field the request omitted.
func submitted(values url.Values, decls map[string]any) *form.Form {
	f := form.FromValues("", "POST", values)
	for name := range decls {
		if fieldpath.IsWildcard(name) {
			continue
		}
		canonical := fieldpath.Canonical(name)
		if len(f.ByName(canonical)) == 0 && len(f.ByName(name)) == 0 {
			f.Add(&form.Control{Name: canonical, Type: form.TypeText})
		}
	}
	return f
}
