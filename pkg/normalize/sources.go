package normalize

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// classRules maps class tokens to the rules they declare.
var classRules = []string{"required", "email", "url", "date", "dateISO", "number", "digits"}

// ClassRules reads rules declared through class tokens such as
// class="required email".
func ClassRules(c *form.Control) Set {
	var out Set
	for _, name := range classRules {
		if c.HasClass(name) {
			out = append(out, Entry{Name: name, Param: true})
		}
	}
	return out
}

// placeholderMaxLength values browsers report for an unset maxlength.
var placeholderMaxLength = map[string]bool{"-1": true, "2147483647": true, "524288": true}

// attributeMethods are the methods an HTML attribute of the same name
// declares. Other methods are only read from data-rule-* attributes so that
// presentational attributes such as size never turn into rules.
var attributeMethods = []string{
	"required", "minlength", "maxlength", "rangelength", "min", "max", "range", "step",
	"equalTo", "email", "url", "date", "dateISO", "number", "digits",
}

// AttributeRules reads HTML attributes named after methods, the control type
// (type="email") and the pattern attribute.
func AttributeRules(c *form.Control, registry *rules.Registry) Set {
	var out Set
	for _, method := range attributeMethods {
		if !registry.Has(method) {
			continue
		}
		key := rules.Key(method)
		if key == "required" {
			if _, ok := c.Attr("required"); ok {
				out = append(out, Entry{Name: method, Param: true})
			}
			continue
		}
		raw, ok := c.Attr(strings.ToLower(method))
		if ok && key == "maxlength" && placeholderMaxLength[strings.TrimSpace(raw)] {
			ok = false
		}
		if ok && strings.TrimSpace(raw) != "" {
			out = append(out, Entry{Name: method, Param: attributeValue(c, key, raw)})
			continue
		}
		if typed := typeRule(c.Type); typed != "" && rules.Key(typed) == key {
			out = append(out, Entry{Name: method, Param: true})
		}
	}
	if pattern, ok := c.Attr("pattern"); ok && pattern != "" && registry.Has("regex") {
		out = append(out, Entry{Name: "regex", Param: []any{"/^(?:" + pattern + ")$/"}})
	}
	return out
}

func typeRule(t string) string {
	switch t {
	case form.TypeEmail:
		return "email"
	case form.TypeURL:
		return "url"
	case form.TypeNumber:
		return "number"
	case form.TypeDate:
		return "dateISO"
	}
	return ""
}

func attributeValue(c *form.Control, key, raw string) any {
	numericType := c.Type == form.TypeNumber || c.Type == form.TypeRange || c.Type == form.TypeText || c.Type == ""
	if numericType && (key == "min" || key == "max" || key == "step") {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return f
		}
	}
	return raw
}

// DataRules reads data-rule-<method> attributes. Values are decoded the way
// data attributes usually are: booleans, numbers and JSON literals become
// typed values and an empty attribute means true.
func DataRules(c *form.Control, registry *rules.Registry) Set {
	var out Set
	for _, method := range registry.List() {
		raw, ok := c.DataAttr("rule-" + method)
		if !ok {
			raw, ok = c.DataAttr("rule-" + rules.Key(method))
		}
		if !ok {
			continue
		}
		out = append(out, Entry{Name: method, Param: decodeData(raw)})
	}
	return out
}

func decodeData(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "", "true":
		return true
	case "false":
		return false
	case "null":
		return false
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return raw
}
