package rules

// RegisterBuiltins loads the built-in methods into r, replacing methods of
// the same name.
func RegisterBuiltins(r *Registry) {
	for _, m := range builtins() {
		r.MustRegister(m)
	}
}

func builtins() []Method {
	return []Method{
		{Name: "required", Func: required, Implicit: true, Message: "This field is required."},
		{Name: "required_with", Func: requiredWith, Implicit: true, Message: "This field is required when {0} is present."},
		{Name: "required_with_all", Func: requiredWithAll, Implicit: true, Message: "This field is required when {0} are present."},
		{Name: "required_without", Func: requiredWithout, Implicit: true, Message: "This field is required when {0} is not present."},
		{Name: "required_without_all", Func: requiredWithoutAll, Implicit: true, Message: "This field is required when none of {0} are present."},
		{Name: "required_if", Func: requiredIf, Implicit: true, Message: "This field is required when {0} is {1}."},
		{Name: "required_unless", Func: requiredUnless, Implicit: true, Message: "This field is required unless {0} is in {1}."},
		{Name: "filled", Func: required, Implicit: true, Message: "This field must have a value."},
		{Name: "present", Func: present, Implicit: true, Message: "This field must be present."},
		{Name: "accepted", Func: accepted, Implicit: true, Message: "This field must be accepted."},
		{Name: "confirmed", Func: confirmed, Implicit: true, Message: "The confirmation does not match."},
		{Name: "nullable", Func: always},
		{Name: "sometimes", Func: always},
		{Name: "bail", Func: always},

		{Name: "email", Func: matches(emailPattern), Message: "Please enter a valid email address."},
		{Name: "url", Func: urlMethod, Message: "Please enter a valid URL."},
		{Name: "date", Func: date, Message: "Please enter a valid date."},
		{Name: "dateISO", Func: matches(dateISOPattern), Message: "Please enter a valid date (ISO)."},
		{Name: "date_format", Func: dateFormat, Message: "Please enter a date in the format {0}."},
		{Name: "number", Func: number, Message: "Please enter a valid number."},
		{Name: "numeric", Func: matches(numericPattern), Message: "Please enter a number."},
		{Name: "integer", Func: matches(integerPattern), Message: "Please enter an integer."},
		{Name: "digits", Func: digits, Message: "Please enter only digits."},
		{Name: "digits_between", Func: digitsBetween, Message: "Please enter between {0} and {1} digits."},
		{Name: "alpha", Func: matches(alphaPattern), Message: "Please enter letters only."},
		{Name: "alpha_num", Func: matches(alphaNum), Message: "Please enter letters and numbers only."},
		{Name: "alpha_dash", Func: matches(alphaDash), Message: "Please enter letters, numbers, dashes and underscores only."},
		{Name: "boolean", Func: boolean, Message: "This field must be true or false."},
		{Name: "string", Func: stringMethod, Message: "This field must be a string."},
		{Name: "array", Func: array, Message: "This field must be an array."},
		{Name: "json", Func: jsonMethod, Message: "Please enter a valid JSON string."},
		{Name: "ip", Func: ip, Message: "Please enter a valid IP address."},
		{Name: "ipv4", Func: ipv4, Message: "Please enter a valid IPv4 address."},
		{Name: "ipv6", Func: ipv6, Message: "Please enter a valid IPv6 address."},
		{Name: "uuid", Func: uuidMethod, Message: "Please enter a valid UUID."},
		{Name: "timezone", Func: timezone, Message: "Please enter a valid time zone."},
		{Name: "regex", Func: regex, Message: "The format is invalid."},
		{Name: "not_regex", Func: notRegex, Message: "The format is invalid."},
		{Name: "starts_with", Func: startsWith, Message: "This field must start with one of: {0}."},
		{Name: "ends_with", Func: endsWith, Message: "This field must end with one of: {0}."},

		{Name: "minlength", Func: minLength, Message: "Please enter at least {0} characters."},
		{Name: "maxlength", Func: maxLength, Message: "Please enter no more than {0} characters."},
		{Name: "rangelength", Func: rangeLength, Message: "Please enter a value between {0} and {1} characters long."},
		{Name: "min", Func: minSize, Message: "Please enter a value greater than or equal to {0}."},
		{Name: "max", Func: maxSize, Message: "Please enter a value less than or equal to {0}."},
		{Name: "range", Func: between, Message: "Please enter a value between {0} and {1}."},
		{Name: "size", Func: size, Message: "This field must be {0}."},
		{Name: "between", Func: between, Message: "This field must be between {0} and {1}."},
		{Name: "gt", Func: compareSize(func(a, b float64) bool { return a > b }), Message: "This field must be greater than {0}."},
		{Name: "gte", Func: compareSize(func(a, b float64) bool { return a >= b }), Message: "This field must be greater than or equal to {0}."},
		{Name: "lt", Func: compareSize(func(a, b float64) bool { return a < b }), Message: "This field must be less than {0}."},
		{Name: "lte", Func: compareSize(func(a, b float64) bool { return a <= b }), Message: "This field must be less than or equal to {0}."},
		{Name: "step", Func: step, Message: "Please enter a multiple of {0}."},

		{Name: "same", Func: same, Message: "This field must match {0}."},
		{Name: "different", Func: different, Message: "This field must differ from {0}."},
		{Name: "equalTo", Func: equalTo, Message: "Please enter the same value again."},
		{Name: "in", Func: in, Message: "The selected value is invalid."},
		{Name: "not_in", Func: notIn, Message: "The selected value is invalid."},
		{Name: "distinct", Func: distinct, Message: "This field has a duplicate value."},

		{Name: "before", Func: compareDates(before), Message: "Please enter a date before {0}."},
		{Name: "after", Func: compareDates(after), Message: "Please enter a date after {0}."},
		{Name: "before_or_equal", Func: compareDates(beforeOrEqual), Message: "Please enter a date before or equal to {0}."},
		{Name: "after_or_equal", Func: compareDates(afterOrEqual), Message: "Please enter a date after or equal to {0}."},
		{Name: "date_equals", Func: compareDates(equalTime), Message: "Please enter a date equal to {0}."},

		{Name: "file", Func: file, Message: "Please select a file."},
		{Name: "mimes", Func: mimes, Message: "Please select a file of type: {0}."},
		{Name: "mimetypes", Func: mimetypes, Message: "Please select a file of type: {0}."},
		{Name: "image", Func: imageMethod, Message: "Please select an image."},
		{Name: "dimensions", Async: dimensions, Message: "The image has invalid dimensions."},
	}
}
