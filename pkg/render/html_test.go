package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/render"
)

func TestHTMLRendererLabels(t *testing.T) {
	t.Parallel()

	r, err := render.NewHTMLRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	email := &form.Control{Name: "email", ID: "signup-email", Type: form.TypeEmail}

	r.ShowErrors(map[string]string{"email": "Too <b>short</b> & bad"}, []render.Error{
		{Field: "email", Method: "minlength", Message: "Too <b>short</b> & bad", Control: email},
	})
	r.Highlight(email, "", "")

	want := `<label id="signup-email-error" class="error" for="signup-email">Too short &amp; bad</label>`
	if got, _ := r.Label("email"); got != want {
		t.Fatalf("label mismatch\nwant %s\n got %s", want, got)
	}
	if diff := cmp.Diff([]string{"error"}, r.Classes("email")); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}

	r.Unhighlight(email, "", "")
	if _, ok := r.Label("email"); ok {
		t.Fatal("unhighlight should drop the label")
	}
	if diff := cmp.Diff([]string{"valid"}, r.Classes("email")); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLRendererTheme(t *testing.T) {
	t.Parallel()

	cfg := &theme.RendererConfig{
		Theme: "tailwind",
		Tokens: map[string]string{
			render.TokenErrorClass:   "border-red-500",
			render.TokenValidClass:   "border-green-500",
			render.TokenErrorElement: "p",
		},
		Partials: map[string]string{
			render.PartialErrorLabel: `<{{ element }} class="{{ error_class }}" data-method="{{ method }}">{{ message }}</{{ element }}>`,
		},
	}
	r, err := render.NewHTMLRenderer(render.WithTheme(cfg))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if r.ErrorClass() != "border-red-500" || r.ValidClass() != "border-green-500" {
		t.Fatalf("classes = %q %q", r.ErrorClass(), r.ValidClass())
	}

	r.ShowErrors(nil, []render.Error{{Field: "age", Method: "min", Message: "Too young."}})
	want := `<p class="border-red-500" data-method="min">Too young.</p>`
	if diff := cmp.Diff(map[string]string{"age": want}, r.Labels()); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLRendererRejectsBrokenTemplate(t *testing.T) {
	t.Parallel()

	if _, err := render.NewHTMLRenderer(render.WithLabelTemplate("{% if %}")); err == nil {
		t.Fatal("expected template compile error")
	}
}
