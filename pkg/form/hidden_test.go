package form_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/form"
)

func TestSetHiddenUpsertsControls(t *testing.T) {
	t.Parallel()

	f := form.New("/users/7", "post", form.Hidden("version", 3))
	f.SetHidden(
		form.CSRFToken("", "tok-1"),
		form.MethodOverride("put"),
		form.Hidden("version", 4),
		form.Hidden("  ", "ignored"),
	)

	var got []string
	for _, c := range f.HiddenValues() {
		got = append(got, c.Name+"="+c.Value)
	}
	if diff := cmp.Diff([]string{"_method=PUT", "_token=tok-1", "version=4"}, got); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}
	if f.EffectiveMethod() != "PUT" {
		t.Fatalf("expected PUT, got %s", f.EffectiveMethod())
	}
	if token, ok := f.Token(); !ok || token != "tok-1" {
		t.Fatalf("unexpected token %q %v", token, ok)
	}
	if got := f.Serialize().Get("_token"); got != "tok-1" {
		t.Fatalf("token not serialised, got %q", got)
	}
}
