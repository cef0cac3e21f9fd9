package rules

import (
	"regexp"
	"strings"
)

var (
	delimited = regexp.MustCompile(`(?s)^/(.*)/([a-zA-Z]*)$`)
	// Modifiers with no client-side equivalent. A pattern using any of them
	// is not checked at all.
	unsupportedModifiers = "xsuXUA"
)

// regexOutcome evaluates a PHP-style "/pattern/flags" expression. The second
// return value is false when the pattern cannot be checked client-side, in
// which case the rule passes.
func regexOutcome(pattern, value string) (matched, checked bool) {
	m := delimited.FindStringSubmatch(pattern)
	if m == nil {
		return false, true
	}
	body, flags := m[1], m[2]
	if strings.ContainsAny(flags, unsupportedModifiers) {
		return false, false
	}

	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'i':
			prefix.WriteString("(?i)")
		case 'm':
			prefix.WriteString("(?m)")
		}
	}
	re, err := regexp.Compile(prefix.String() + body)
	if err != nil {
		return false, true
	}
	return re.MatchString(value), true
}

func regex(_ FieldContext, value any, params Params) Result {
	matched, checked := regexOutcome(params.String(0), ToString(value))
	if !checked {
		return Pass
	}
	return Bool(matched)
}

func notRegex(_ FieldContext, value any, params Params) Result {
	pattern := params.String(0)
	if !delimited.MatchString(pattern) {
		return Fail
	}
	matched, checked := regexOutcome(pattern, ToString(value))
	if !checked {
		return Pass
	}
	return Bool(!matched)
}
