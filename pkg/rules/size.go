package rules

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/goliatone/go-formguard/pkg/form"
)

func size(fc FieldContext, value any, params Params) Result {
	want, ok := params.Float(0)
	if !ok {
		return Fail
	}
	return Bool(Size(fc, value) == want)
}

func between(fc FieldContext, value any, params Params) Result {
	lo, okLo := params.Float(0)
	hi, okHi := params.Float(1)
	if !okLo || !okHi {
		return Fail
	}
	s := Size(fc, value)
	return Bool(s >= lo && s <= hi)
}

func minSize(fc FieldContext, value any, params Params) Result {
	limit, ok := params.Float(0)
	if !ok {
		return Fail
	}
	return Bool(Size(fc, value) >= limit)
}

func maxSize(fc FieldContext, value any, params Params) Result {
	limit, ok := params.Float(0)
	if !ok {
		return Fail
	}
	return Bool(Size(fc, value) <= limit)
}

func minLength(fc FieldContext, value any, params Params) Result {
	limit, ok := params.Float(0)
	if !ok {
		return Fail
	}
	return Bool(float64(Length(fc, value)) >= limit)
}

func maxLength(fc FieldContext, value any, params Params) Result {
	limit, ok := params.Float(0)
	if !ok {
		return Fail
	}
	return Bool(float64(Length(fc, value)) <= limit)
}

func rangeLength(fc FieldContext, value any, params Params) Result {
	lo, okLo := params.Float(0)
	hi, okHi := params.Float(1)
	if !okLo || !okHi {
		return Fail
	}
	n := float64(Length(fc, value))
	return Bool(n >= lo && n <= hi)
}

var digitsPattern = regexp.MustCompile(`^\d+$`)

func digitsBetween(fc FieldContext, value any, params Params) Result {
	text := ToString(value)
	if !digitsPattern.MatchString(text) {
		return Fail
	}
	lo, okLo := params.Float(0)
	hi, okHi := params.Float(1)
	if !okLo || !okHi {
		return Fail
	}
	n := float64(len(text))
	return Bool(n >= lo && n <= hi)
}

// digits also covers the Laravel "digits:n" form; without a parameter it
// only requires digits.
func digits(_ FieldContext, value any, params Params) Result {
	text := ToString(value)
	if !digitsPattern.MatchString(text) {
		return Fail
	}
	if n, ok := params.Float(0); ok {
		return Bool(float64(len(text)) == n)
	}
	return Pass
}

// compareSize backs gt, gte, lt and lte. The parameter is either a number or
// the name of a field whose size is compared.
func compareSize(cmp func(a, b float64) bool) Func {
	return func(fc FieldContext, value any, params Params) Result {
		if params.Len() == 0 {
			return Fail
		}
		if limit, ok := params.Float(0); ok {
			return Bool(cmp(Size(fc, value), limit))
		}
		target, ok := TargetValue(fc, params.String(0))
		if !ok {
			return Fail
		}
		return Bool(cmp(Size(fc, value), Size(fc, target)))
	}
}

// step panics on controls that cannot carry a numeric step; the check loop
// reports the panic as a configuration error.
func step(fc FieldContext, value any, params Params) Result {
	if c := fc.Control(); c != nil {
		switch c.Type {
		case "", form.TypeText, form.TypeNumber, form.TypeRange:
		default:
			panic(fmt.Errorf("%w on input type %q", ErrUnsupportedStep, c.Type))
		}
	}
	v, ok := ToFloat(value)
	if !ok {
		return Fail
	}
	s, ok := params.Float(0)
	if !ok || s <= 0 {
		return Fail
	}
	scale := math.Pow(10, float64(max(decimals(ToString(value)), decimals(params.String(0)))))
	vi := math.Round(v * scale)
	si := math.Round(s * scale)
	return Bool(math.Mod(vi, si) == 0)
}

func decimals(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if i := strings.IndexByte(text, 'e'); i >= 0 {
		text = text[:i]
	}
	if i := strings.IndexByte(text, '.'); i >= 0 {
		return len(text) - i - 1
	}
	return 0
}
