package rules

import "github.com/goliatone/go-formguard/pkg/form"

// in passes when the value, or every item of an array value, is listed.
func in(_ FieldContext, value any, params Params) Result {
	allowed := params.Strings()
	items := valueStrings(value)
	if len(items) == 0 {
		return Fail
	}
	for _, item := range items {
		if !containsString(allowed, item) {
			return Fail
		}
	}
	return Pass
}

func notIn(_ FieldContext, value any, params Params) Result {
	banned := params.Strings()
	for _, item := range valueStrings(value) {
		if containsString(banned, item) {
			return Fail
		}
	}
	return Pass
}

// distinct fails when a sibling matched by the same wildcard rule key holds
// the same value.
func distinct(fc FieldContext, value any, _ Params) Result {
	mine := ToString(value)
	for _, name := range fc.Siblings() {
		if name == fc.Name() {
			continue
		}
		if ToString(form.ValueOf(fc.Form().ByName(name))) == mine {
			return Fail
		}
	}
	return Pass
}
