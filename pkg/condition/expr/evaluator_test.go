package expr

import (
	"testing"

	"github.com/goliatone/go-formguard/pkg/condition"
)

func TestEvaluatorExpressions(t *testing.T) {
	t.Parallel()

	ctx := condition.Context{
		Values: map[string]any{
			"country":       "US",
			"age":           "21",
			"newsletter":    "yes",
			"email":         "",
			"tags[]":        []string{"go", "php"},
			"items[0][qty]": "3",
			"enabled":       "true",
			"profile": map[string]any{
				"role": "admin",
			},
		},
		Extras: map[string]any{"beta": true},
	}

	cases := []struct {
		expr string
		want bool
	}{
		{`country == "US"`, true},
		{`country == 'CA'`, false},
		{`country != US`, false},
		{`age >= 18`, true},
		{`age < 18`, false},
		{`newsletter:checked`, true},
		{`#newsletter`, true},
		{`email:blank`, true},
		{`email:filled || newsletter`, true},
		{`!(email:filled) && age > 20`, true},
		{`tags == "php"`, true},
		{`tags:filled`, true},
		{`items.0.qty == 3`, true},
		{`enabled == true`, true},
		{`missing == null`, true},
		{`profile.role == "admin"`, true},
		{`extras.beta`, true},
		{`this == "US"`, true},
		{``, true},
	}
	for _, tc := range cases {
		got, err := New().Eval("country", tc.expr, ctx)
		if err != nil {
			t.Errorf("Eval(%q) error: %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Eval(%q) = %v want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluatorErrors(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{
		`country = "US"`,
		`a & b`,
		`(a`,
		`"unterminated`,
		`== 3`,
		`a:sideways`,
	} {
		if _, err := New().Eval("x", bad, condition.Context{}); err == nil {
			t.Errorf("Eval(%q) expected error", bad)
		}
	}
}
