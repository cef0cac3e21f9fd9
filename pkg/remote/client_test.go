package remote_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/dates"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/rules"
)

type fieldCtx struct {
	name string
	form *form.Form
}

func (f fieldCtx) Name() string { return f.name }
func (f fieldCtx) Control() *form.Control { return f.form.First(f.name) }
func (f fieldCtx) Form() *form.Form { return f.form }
func (f fieldCtx) Optional() bool { return false }
func (f fieldCtx) HasRule(...string) bool { return false }
func (f fieldCtx) RuleParams(string) (rules.Params, bool) { return nil, false }
func (f fieldCtx) Lookup(name string) []*form.Control { return f.form.ByName(name) }
func (f fieldCtx) Depend(any) bool { return true }
func (f fieldCtx) Siblings() []string { return []string{f.name} }
func (f fieldCtx) Dates() dates.Parser { return dates.New() }

type recorded struct {
	Method string
	Path   string
	Values url.Values
	CSRF   string
	XHR    string
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) handler(reply string, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseForm()
		values := req.Form
		if req.Method != http.MethodGet {
			values = req.PostForm
		}
		r.mu.Lock()
		r.calls = append(r.calls, recorded{
			Method: req.Method,
			Path:   req.URL.Path,
			Values: values,
			CSRF:   req.Header.Get(remote.DefaultCSRFHeader),
			XHR:    req.Header.Get("X-Requested-With"),
		})
		r.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

func TestSingleRuleSendsValueAndData(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(`"taken"`, http.StatusOK))
	defer srv.Close()

	f := form.New("", "", &form.Control{Name: "username", Type: form.TypeText, Value: "bob"})
	client := remote.NewClient(&remote.HTTPTransport{Client: srv.Client()})
	method := client.SingleRule()

	params := rules.Params{map[string]any{
		"url":  srv.URL + "/check-username",
		"type": "post",
		"data": map[string]any{"scope": "signup"},
	}}
	task, err := method.Async(fieldCtx{name: "username", form: f}, "bob", params)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	verdict := task(context.Background())
	if diff := cmp.Diff(rules.Verdict{Message: "taken"}, verdict); diff != "" {
		t.Fatalf("verdict mismatch (-want +got):\n%s", diff)
	}

	want := []recorded{{
		Method: http.MethodPost,
		Path:   "/check-username",
		Values: url.Values{"username": {"bob"}, "scope": {"signup"}},
		XHR:    "XMLHttpRequest",
	}}
	if diff := cmp.Diff(want, rec.all()); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}

	sigA := method.SignatureOf(fieldCtx{name: "username", form: f}, "bob", params)
	sigB := method.SignatureOf(fieldCtx{name: "username", form: f}, "alice", params)
	if sigA == sigB {
		t.Fatalf("signatures should differ by value")
	}
}

func TestSingleRuleNeedsURL(t *testing.T) {
	t.Parallel()

	f := form.New("", "", &form.Control{Name: "username", Type: form.TypeText})
	_, err := remote.NewClient(nil).SingleRule().Async(fieldCtx{name: "username", form: f}, "bob", nil)
	if err == nil {
		t.Fatal("expected an error without url")
	}
}

func TestWholeFormPostsSerializedForm(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	srv := httptest.NewServer(rec.handler("<html><h1>Server Error</h1></html>", http.StatusInternalServerError))
	defer srv.Close()

	f := form.New(srv.URL+"/users/7", "post",
		&form.Control{Name: form.MethodOverrideField, Type: form.TypeHidden, Value: "put"},
		&form.Control{Name: "email", Type: form.TypeEmail, Value: "a@b.c"},
		&form.Control{Name: "name", Type: form.TypeText, Value: "Ann"},
	)
	client := remote.NewClient(&remote.HTTPTransport{Client: srv.Client()}, remote.WithCSRFToken("tok"))
	task, err := client.WholeForm().Async(fieldCtx{name: "email", form: f}, "a@b.c", rules.Params{true})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	verdict := task(context.Background())
	if diff := cmp.Diff(rules.Verdict{Message: "Server Error"}, verdict); diff != "" {
		t.Fatalf("verdict mismatch (-want +got):\n%s", diff)
	}

	want := []recorded{{
		Method: http.MethodPut,
		Path:   "/users/7",
		Values: url.Values{
			form.MethodOverrideField: {"put"},
			"email":                  {"a@b.c"},
			"name":                   {"Ann"},
			remote.MarkerField:       {"email"},
			remote.ValidateAllField:  {"true"},
		},
		CSRF: "tok",
		XHR:  "XMLHttpRequest",
	}}
	if diff := cmp.Diff(want, rec.all()); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestWholeFormGetSkipsCSRF(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	srv := httptest.NewServer(rec.handler("true", http.StatusOK))
	defer srv.Close()

	f := form.New(srv.URL+"/search", "", &form.Control{Name: "q", Type: form.TypeText, Value: "go"})
	client := remote.NewClient(&remote.HTTPTransport{Client: srv.Client()}, remote.WithCSRFToken("tok"))
	task, err := client.WholeForm().Async(fieldCtx{name: "q", form: f}, "go", nil)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if verdict := task(context.Background()); !verdict.Valid {
		t.Fatalf("expected valid verdict, got %+v", verdict)
	}
	calls := rec.all()
	if len(calls) != 1 || calls[0].Method != http.MethodGet || calls[0].CSRF != "" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if got := calls[0].Values.Get(remote.ValidateAllField); got != "false" {
		t.Fatalf("validate all = %q", got)
	}
}

func TestWholeFormUsesFormToken(t *testing.T) {
	t.Parallel()

	var got []remote.Request
	transport := remote.TransportFunc(func(_ context.Context, req remote.Request) (*remote.Response, error) {
		got = append(got, req)
		return &remote.Response{StatusCode: http.StatusOK, Body: []byte("true")}, nil
	})

	f := form.New("/users", "post", &form.Control{Name: "email", Type: form.TypeEmail, Value: "a@b.c"})
	f.SetHidden(form.CSRFToken("", "form-token"))
	task, err := remote.NewClient(transport).WholeForm().Async(fieldCtx{name: "email", form: f}, "a@b.c", nil)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if verdict := task(context.Background()); !verdict.Valid {
		t.Fatalf("expected valid verdict, got %+v", verdict)
	}
	if len(got) != 1 || got[0].Header.Get(remote.DefaultCSRFHeader) != "form-token" {
		t.Fatalf("expected the form token header, got %+v", got)
	}
}

func TestTransportAbortsOnCancel(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err := (&remote.HTTPTransport{Client: srv.Client()}).Do(ctx, remote.Request{URL: srv.URL})
	if err == nil {
		t.Fatal("expected aborted request to fail")
	}
}
