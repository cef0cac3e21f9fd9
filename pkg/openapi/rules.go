package openapi

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-formguard/pkg/normalize"
)

// Rules maps the operation's request body onto rule declarations keyed by
// dotted field name. Nested objects contribute "parent.child" keys and array
// items contribute "parent.*" keys.
func Rules(op Operation) map[string]normalize.Set {
	out := make(map[string]normalize.Set)
	collect(out, "", op.Body, false)
	return out
}

// SchemaRules returns the rules a single property schema declares.
func SchemaRules(s Schema, required bool) normalize.Set {
	var set normalize.Set
	add := func(name string, param any) {
		set = set.With(normalize.Entry{Name: name, Param: param})
	}

	if required {
		add("required", true)
	}

	switch s.Type {
	case "integer":
		add("integer", true)
	case "number":
		add("numeric", true)
	case "boolean":
		add("boolean", true)
	case "array":
		add("array", true)
	}

	switch s.Format {
	case "email", "idn-email":
		add("email", true)
	case "uri", "url", "iri":
		add("url", true)
	case "date", "date-time":
		add("date", true)
	case "uuid":
		add("uuid", true)
	case "ipv4":
		add("ipv4", true)
	case "ipv6":
		add("ipv6", true)
	}

	if s.MinLength != nil && *s.MinLength > 0 {
		add("minlength", *s.MinLength)
	}
	if s.MaxLength != nil {
		add("maxlength", *s.MaxLength)
	}

	if s.Type == "integer" || s.Type == "number" {
		if s.Minimum != nil {
			if s.ExclusiveMinimum {
				add("gt", *s.Minimum)
			} else {
				add("min", *s.Minimum)
			}
		}
		if s.Maximum != nil {
			if s.ExclusiveMaximum {
				add("lt", *s.Maximum)
			} else {
				add("max", *s.Maximum)
			}
		}
	}

	if s.Type == "array" {
		if s.MinItems != nil && *s.MinItems > 0 {
			add("min", *s.MinItems)
		}
		if s.MaxItems != nil {
			add("max", *s.MaxItems)
		}
	}

	if s.Pattern != "" {
		add("regex", "/"+s.Pattern+"/")
	}

	if len(s.Enum) > 0 {
		values := make([]string, 0, len(s.Enum))
		for _, v := range s.Enum {
			if v == nil {
				continue
			}
			values = append(values, enumString(v))
		}
		if len(values) > 0 {
			add("in", values)
		}
	}
	return set.With(s.Extra...)
}

func collect(out map[string]normalize.Set, prefix string, s Schema, required bool) {
	// Objects are not fields; only their properties carry rules.
	if prefix != "" && s.Type != "object" && len(s.Properties) == 0 {
		if set := SchemaRules(s, required); len(set) > 0 {
			out[prefix] = set
		}
	}
	for _, name := range s.PropertyNames() {
		collect(out, join(prefix, name), s.Properties[name], s.IsRequired(name))
	}
	if s.Type == "array" && s.Items != nil {
		collect(out, join(prefix, "*"), *s.Items, false)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func enumString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}
