package rules

import (
	"strings"

	"github.com/goliatone/go-formguard/pkg/form"
)

const confirmationSuffix = "_confirmation"

func sameAs(fc FieldContext, value any, target string) Result {
	other, ok := TargetValue(fc, target)
	if !ok {
		return Fail
	}
	return Bool(ToString(value) == ToString(other))
}

func same(fc FieldContext, value any, params Params) Result {
	return sameAs(fc, value, params.String(0))
}

// confirmed compares the field with "<name>_confirmation" unless a target
// is given explicitly.
func confirmed(fc FieldContext, value any, params Params) Result {
	target := params.String(0)
	if target == "" {
		target = ConfirmationName(fc.Name())
	}
	return sameAs(fc, value, target)
}

// ConfirmationName derives the confirmation field of name, keeping bracket
// nesting: "user[password]" pairs with "user[password_confirmation]".
func ConfirmationName(name string) string {
	if strings.HasSuffix(name, "]") {
		return strings.TrimSuffix(name, "]") + confirmationSuffix + "]"
	}
	return name + confirmationSuffix
}

func different(fc FieldContext, value any, params Params) Result {
	for _, target := range params.Strings() {
		other, ok := TargetValue(fc, target)
		if ok && ToString(value) == ToString(other) {
			return Fail
		}
	}
	return Pass
}

func equalTo(fc FieldContext, value any, params Params) Result {
	controls := fc.Lookup(params.String(0))
	if len(controls) == 0 {
		return Fail
	}
	return Bool(ToString(value) == ToString(form.ValueOf(controls)))
}
