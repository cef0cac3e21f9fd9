// Package openapi derives validation rule declarations from the request body
// schemas of OpenAPI operations.
//
// Documents are loaded through a Loader (file, fs.FS or HTTP) and converted
// by a Parser into Operation values. Rules then maps an operation's body
// schema onto the rule vocabulary understood by the rules registry, keyed by
// dotted field names with "*" for array items. The kin-openapi backed
// implementations live under internal/openapi and are constructed from the
// root formguard package.
package openapi
