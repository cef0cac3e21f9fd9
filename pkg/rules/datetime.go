package rules

import "time"

// ParseTime reads the field's value as a time, honouring a date_format rule
// on the same field.
func ParseTime(fc FieldContext, value any) (time.Time, bool) {
	text := ToString(value)
	if text == "" || fc.Dates() == nil {
		return time.Time{}, false
	}
	if params, ok := fc.RuleParams("date_format"); ok && params.Len() > 0 {
		t, err := fc.Dates().Parse(text, params.String(0))
		return t, err == nil
	}
	t, err := fc.Dates().StrToTime(text)
	return t, err == nil
}

// comparisonTime resolves a date rule parameter: the value of a field with
// that name when one exists, else the parameter read as a date. empty reports
// a named field that holds no value.
func comparisonTime(fc FieldContext, param string) (t time.Time, ok, empty bool) {
	if other, found := TargetValue(fc, param); found {
		if !Filled(other) {
			return time.Time{}, false, true
		}
		t, ok = ParseTime(fc, other)
		return t, ok, false
	}
	t, err := fc.Dates().StrToTime(param)
	return t, err == nil, false
}

func date(fc FieldContext, value any, _ Params) Result {
	_, ok := ParseTime(fc, value)
	return Bool(ok)
}

func dateFormat(fc FieldContext, value any, params Params) Result {
	if fc.Dates() == nil {
		return Fail
	}
	_, err := fc.Dates().Parse(ToString(value), params.String(0))
	return Bool(err == nil)
}

func compareDates(cmp func(a, b time.Time) bool) Func {
	return func(fc FieldContext, value any, params Params) Result {
		mine, ok := ParseTime(fc, value)
		if !ok {
			return Fail
		}
		other, ok, empty := comparisonTime(fc, params.String(0))
		if empty {
			return Mismatch
		}
		if !ok {
			return Fail
		}
		return Bool(cmp(mine, other))
	}
}

func before(a, b time.Time) bool { return a.Before(b) }
func after(a, b time.Time) bool { return a.After(b) }
func beforeOrEqual(a, b time.Time) bool { return !a.After(b) }
func afterOrEqual(a, b time.Time) bool { return !a.Before(b) }
func equalTime(a, b time.Time) bool { return a.Equal(b) }
