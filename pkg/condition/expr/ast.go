package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type node interface {
	eval(s scope) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(s)
}

type andNode struct{ left, right node }

func (n andNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(s)
}

type notNode struct{ inner node }

func (n notNode) eval(s scope) (bool, error) {
	ok, err := n.inner.eval(s)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// stateNode tests a field reference, optionally with a `:state` suffix.
type stateNode struct {
	ref ref
}

func (n stateNode) eval(s scope) (bool, error) {
	value, _ := n.ref.resolve(s)
	switch n.ref.state {
	case "", "filled", "checked", "selected":
		return present(value), nil
	case "blank", "unchecked", "empty":
		return !present(value), nil
	}
	return false, fmt.Errorf("condition/expr: unknown state %q", n.ref.state)
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind literalKind
	raw  string
}

type compareNode struct {
	ref     ref
	op      tokenKind
	literal literal
}

func (n compareNode) eval(s scope) (bool, error) {
	value, _ := n.ref.resolve(s)

	switch n.literal.kind {
	case litNull:
		return n.equality(!present(value))
	case litBool:
		got, _ := coerceBool(value)
		return n.equality(got == (n.literal.raw == "true"))
	case litNumber:
		want, err := strconv.ParseFloat(n.literal.raw, 64)
		if err != nil {
			return false, fmt.Errorf("condition/expr: invalid number literal %q", n.literal.raw)
		}
		got, ok := coerceNumber(value)
		if !ok {
			if n.op == tokenNeq {
				return true, nil
			}
			return false, nil
		}
		return n.ordered(got, want)
	default:
		return n.compareStrings(value, n.literal.raw)
	}
}

func (n compareNode) equality(equal bool) (bool, error) {
	switch n.op {
	case tokenEq:
		return equal, nil
	case tokenNeq:
		return !equal, nil
	}
	return false, fmt.Errorf("condition/expr: operator %q needs a number", opString(n.op))
}

func (n compareNode) ordered(got, want float64) (bool, error) {
	switch n.op {
	case tokenEq:
		return got == want, nil
	case tokenNeq:
		return got != want, nil
	case tokenLt:
		return got < want, nil
	case tokenLte:
		return got <= want, nil
	case tokenGt:
		return got > want, nil
	case tokenGte:
		return got >= want, nil
	}
	return false, fmt.Errorf("condition/expr: unsupported operator %q", opString(n.op))
}

// compareStrings matches multi-valued fields when any value matches.
func (n compareNode) compareStrings(value any, want string) (bool, error) {
	matched := false
	for _, v := range coerceStrings(value) {
		if v == want {
			matched = true
			break
		}
	}
	return n.equality(matched)
}

func opString(kind tokenKind) string {
	switch kind {
	case tokenEq:
		return "=="
	case tokenNeq:
		return "!="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	}
	return "?"
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	}
	return present(value), true
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []string:
		if len(v) == 1 {
			return coerceNumber(v[0])
		}
	}
	return 0, false
}

func coerceStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{v}
	case []string:
		if len(v) == 0 {
			return []string{""}
		}
		return v
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = fmt.Sprint(item)
		}
		return out
	}
	return []string{fmt.Sprint(value)}
}
