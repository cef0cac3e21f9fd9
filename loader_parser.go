package formguard

import (
	internalLoader "github.com/goliatone/go-formguard/internal/openapi/loader"
	internalParser "github.com/goliatone/go-formguard/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

// NewLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewParser constructs a parser backed by kin-openapi.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	return internalParser.New(pkgopenapi.NewParserOptions(options...))
}
