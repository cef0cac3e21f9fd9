package rules

// required passes when the value is present. A parameter acts as a
// dependency: when it does not hold the rule does not apply.
func required(fc FieldContext, value any, params Params) Result {
	if params.Len() > 0 && !fc.Depend(params.At(0)) {
		return Mismatch
	}
	return Bool(RequiredValue(fc, value))
}

// RequiredValue is the presence check shared by the required family and the
// optionality test.
func RequiredValue(fc FieldContext, value any) bool {
	if c := fc.Control(); c != nil {
		switch {
		case c.Selectable():
			return Filled(value)
		case c.Checkable():
			return Length(fc, value) > 0
		case c.IsFile():
			return len(c.Files) > 0 || Filled(value)
		}
	}
	return Filled(value)
}

func targetFilled(fc FieldContext, name string) bool {
	v, ok := TargetValue(fc, name)
	return ok && Filled(v)
}

func requiredWith(fc FieldContext, value any, params Params) Result {
	for _, name := range params.Strings() {
		if targetFilled(fc, name) {
			return Bool(RequiredValue(fc, value))
		}
	}
	return Pass
}

func requiredWithAll(fc FieldContext, value any, params Params) Result {
	if params.Len() == 0 {
		return Pass
	}
	for _, name := range params.Strings() {
		if !targetFilled(fc, name) {
			return Pass
		}
	}
	return Bool(RequiredValue(fc, value))
}

func requiredWithout(fc FieldContext, value any, params Params) Result {
	for _, name := range params.Strings() {
		if !targetFilled(fc, name) {
			return Bool(RequiredValue(fc, value))
		}
	}
	return Pass
}

func requiredWithoutAll(fc FieldContext, value any, params Params) Result {
	if params.Len() == 0 {
		return Pass
	}
	for _, name := range params.Strings() {
		if targetFilled(fc, name) {
			return Pass
		}
	}
	return Bool(RequiredValue(fc, value))
}

// requiredIf params: target field followed by the values that make this
// field required.
func requiredIf(fc FieldContext, value any, params Params) Result {
	if params.Len() < 2 {
		return Pass
	}
	target, _ := TargetValue(fc, params.String(0))
	if containsAny(params.Strings()[1:], valueStrings(target)) {
		return Bool(RequiredValue(fc, value))
	}
	return Pass
}

func requiredUnless(fc FieldContext, value any, params Params) Result {
	if params.Len() < 2 {
		return Pass
	}
	target, _ := TargetValue(fc, params.String(0))
	if containsAny(params.Strings()[1:], valueStrings(target)) {
		return Pass
	}
	return Bool(RequiredValue(fc, value))
}

func containsAny(allowed, values []string) bool {
	if len(values) == 0 {
		values = []string{""}
	}
	for _, v := range values {
		if containsString(allowed, v) {
			return true
		}
	}
	return false
}

var acceptedValues = []string{"yes", "on", "1", "true"}

func accepted(fc FieldContext, value any, _ Params) Result {
	if c := fc.Control(); c != nil && c.Checkable() {
		return Bool(fc.Form().CheckedCount(c.Name) > 0)
	}
	for _, v := range valueStrings(value) {
		if containsString(acceptedValues, lower(v)) {
			return Pass
		}
	}
	return Fail
}

func present(fc FieldContext, _ any, _ Params) Result {
	return Bool(len(fc.Form().ByName(fc.Name())) > 0)
}

func always(FieldContext, any, Params) Result {
	return Pass
}
