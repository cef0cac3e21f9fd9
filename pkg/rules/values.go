package rules

import (
	"math"
	"unicode/utf8"

	"github.com/goliatone/go-formguard/pkg/form"
)

// Filled reports whether a value counts as present for the required family:
// non-empty text, a non-empty selection, or at least one checked control.
func Filled(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return true
}

// Length measures a value the way length rules do: checked controls for
// checkables, selected options for selects, runes for text.
func Length(fc FieldContext, value any) int {
	if c := fc.Control(); c != nil {
		switch {
		case c.Checkable():
			return fc.Form().CheckedCount(c.Name)
		case c.Selectable():
			switch v := value.(type) {
			case []string:
				return len(v)
			case string:
				if v == "" {
					return 0
				}
				return 1
			}
			return 0
		}
	}
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(v)
	case []string:
		return len(v)
	case []any:
		return len(v)
	}
	return utf8.RuneCountInString(ToString(value))
}

// numericRules are the methods that make size rules compare numbers.
var numericRules = []string{"numeric", "integer", "number"}

// Numeric reports whether size rules should treat the field as a number.
func Numeric(fc FieldContext) bool {
	if c := fc.Control(); c != nil && (c.Type == form.TypeNumber || c.Type == form.TypeRange) {
		return true
	}
	return fc.HasRule(numericRules...)
}

// Size computes the measure compared by size, between, min and max: the
// number itself for numeric fields, element count for arrays, kilobytes for
// files and characters otherwise.
func Size(fc FieldContext, value any) float64 {
	if Numeric(fc) {
		if f, ok := ToFloat(value); ok {
			return f
		}
	}
	switch v := value.(type) {
	case []string:
		return float64(len(v))
	case []any:
		return float64(len(v))
	}
	if c := fc.Control(); c != nil && c.IsFile() {
		if len(c.Files) == 0 {
			return 0
		}
		return math.Floor(float64(c.Files[0].Size) / 1024)
	}
	return float64(utf8.RuneCountInString(ToString(value)))
}

// TargetValue reads the value of another field named by a rule parameter.
func TargetValue(fc FieldContext, name string) (any, bool) {
	controls := fc.Lookup(name)
	if len(controls) == 0 {
		return nil, false
	}
	return form.ValueOf(controls), true
}

// valueStrings flattens a value into its string items.
func valueStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = ToString(item)
		}
		return out
	}
	return []string{ToString(value)}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
