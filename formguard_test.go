package formguard_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/normalize"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
	"github.com/goliatone/go-formguard/pkg/remote"
)

var usersFixture = filepath.Join("internal", "openapi", "testdata", "users.yaml")

func TestRulesFromOpenAPI(t *testing.T) {
	t.Parallel()

	got, err := formguard.RulesFromOpenAPI(context.Background(), pkgopenapi.SourceFromFile(usersFixture), "createUser")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}

	want := map[string]any{
		"email": normalize.Set{{Name: "required", Param: true}, {Name: "email", Param: true}},
		"username": normalize.Set{
			{Name: "required", Param: true},
			{Name: "minlength", Param: 3},
			{Name: "maxlength", Param: 20},
			{Name: "regex", Param: "/^[a-z0-9_]+$/"},
			{Name: "remote", Param: []any{"/check-username"}},
		},
		"age":          normalize.Set{{Name: "required", Param: true}, {Name: "integer", Param: true}, {Name: "min", Param: 18.0}},
		"role":         normalize.Set{{Name: "in", Param: []string{"admin", "member"}}},
		"website":      normalize.Set{{Name: "url", Param: true}},
		"address.city": normalize.Set{{Name: "required", Param: true}},
		"address.zip":  normalize.Set{{Name: "regex", Param: "/^[0-9]{5}$/"}},
		"tags":         normalize.Set{{Name: "array", Param: true}, {Name: "max", Param: 5}},
		"tags.*":       normalize.Set{{Name: "maxlength", Param: 12}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestRulesFromOpenAPIErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := pkgopenapi.SourceFromFile(usersFixture)
	if _, err := formguard.RulesFromOpenAPI(ctx, src, "deleteUser"); !errors.Is(err, pkgopenapi.ErrOperationNotFound) {
		t.Fatalf("missing operation error = %v", err)
	}
	if _, err := formguard.RulesFromOpenAPI(ctx, src, "listUsers"); !errors.Is(err, pkgopenapi.ErrNoBody) {
		t.Fatalf("bodiless operation error = %v", err)
	}
}

func TestDerivedRulesDriveValidator(t *testing.T) {
	t.Parallel()

	decls, err := formguard.RulesFromOpenAPI(context.Background(), pkgopenapi.SourceFromFile(usersFixture), "createUser")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	delete(decls, "username")

	f := form.FromValues("/users", "POST", url.Values{
		"email":         {"ada@example.com"},
		"age":           {"17"},
		"role":          {"owner"},
		"address[city]": {""},
		"address[zip]":  {"1234"},
	})
	v, err := formguard.New(f, formguard.WithRules(decls))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(v.Destroy)

	valid, err := v.Form()
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if valid {
		t.Fatalf("form should be invalid")
	}
	want := map[string]string{
		"age":           "Please enter a value greater than or equal to 18.",
		"role":          "The selected value is invalid.",
		"address[city]": "This field is required.",
		"address[zip]":  "The format is invalid.",
	}
	if diff := cmp.Diff(want, v.ErrorMap()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestServerValidate(t *testing.T) {
	t.Parallel()

	validate := formguard.ServerValidate(map[string]any{
		"email":    "required|email",
		"username": "required|remote:/check",
		"nickname": "remote:/check",
	})

	got, err := validate(context.Background(), url.Values{"email": {"nope"}, "nickname": {"ada"}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := map[string][]string{
		"email":    {"Please enter a valid email address."},
		"username": {"This field is required."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	got, err = validate(context.Background(), url.Values{"email": {"ada@example.com"}, "username": {"ada"}})
	if err != nil || got != nil {
		t.Fatalf("valid submission = %v, %v", got, err)
	}
}

func TestServerValidateBehindHandler(t *testing.T) {
	t.Parallel()

	validate := formguard.ServerValidate(map[string]any{"email": "required|email", "name": "required"})
	srv := httptest.NewServer(remote.Handler(validate, nil))
	t.Cleanup(srv.Close)

	post := func(values url.Values) string {
		t.Helper()
		resp, err := http.PostForm(srv.URL, values)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.TrimSpace(string(body))
	}

	got := post(url.Values{remote.MarkerField: {"email"}, "email": {"nope"}})
	if diff := cmp.Diff(`{"email":["Please enter a valid email address."]}`, got); diff != "" {
		t.Fatalf("reply mismatch (-want +got):\n%s", diff)
	}
	if got := post(url.Values{remote.MarkerField: {"email"}, "email": {"ada@example.com"}}); got != "true" {
		t.Fatalf("valid reply = %q", got)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "signup.yaml")
	doc := "action: /signup\nmethod: post\nrules:\n  email: required|email\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	settings, err := formguard.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := formguard.NewFromConfig(nil, settings, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(v.Destroy)

	f := v.FormDocument()
	if f.Action != "/signup" {
		t.Fatalf("action = %q", f.Action)
	}
	f.Add(&form.Control{Name: "email", Type: form.TypeText, Value: "nope"})
	if ok, err := v.Element("email"); err != nil || ok {
		t.Fatalf("element = %v, %v", ok, err)
	}
}
