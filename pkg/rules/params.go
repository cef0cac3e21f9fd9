package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Params are the positional parameters of a normalised rule.
type Params []any

// Len returns the number of parameters.
func (p Params) Len() int {
	return len(p)
}

// At returns the i-th parameter or nil.
func (p Params) At(i int) any {
	if i < 0 || i >= len(p) {
		return nil
	}
	return p[i]
}

// String returns the i-th parameter as text.
func (p Params) String(i int) string {
	return ToString(p.At(i))
}

// Float returns the i-th parameter as a number.
func (p Params) Float(i int) (float64, bool) {
	return ToFloat(p.At(i))
}

// Strings renders every parameter as text.
func (p Params) Strings() []string {
	out := make([]string, len(p))
	for i, v := range p {
		out[i] = ToString(v)
	}
	return out
}

// ToString renders a parameter or value as text the way it would be typed.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = ToString(item)
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFloat reads a number from a parameter or value.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Format substitutes "{i}" and "${i}" placeholders in a message with the
// rule parameters.
func Format(message string, params Params) string {
	if message == "" || len(params) == 0 {
		return message
	}
	out := message
	for i, p := range params {
		value := ToString(p)
		index := strconv.Itoa(i)
		out = strings.ReplaceAll(out, "${"+index+"}", value)
		out = strings.ReplaceAll(out, "{"+index+"}", value)
	}
	return out
}
