package remote_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/remote"
)

func fakeValidate(ctx context.Context, values url.Values) (map[string][]string, error) {
	errs := map[string][]string{}
	if values.Get("email") == "" {
		errs["email"] = []string{"The email field is required."}
	}
	if values.Get("name") == "" {
		errs["name"] = []string{"The name field is required."}
	}
	if _, ok := values[remote.MarkerField]; ok {
		return nil, errors.New("marker leaked into validation")
	}
	return errs, nil
}

func post(t *testing.T, h http.Handler, values url.Values) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, string(body)
}

func TestHandlerAnswersMarkedRequests(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "created")
	})
	h := remote.Handler(fakeValidate, next)

	type answer struct {
		Code int
		Body string
	}
	cases := map[string]struct {
		values url.Values
		want   answer
	}{
		"pass through": {
			values: url.Values{"email": {"a@b.c"}},
			want:   answer{Code: http.StatusCreated, Body: "created"},
		},
		"own field only": {
			values: url.Values{remote.MarkerField: {"email"}, "name": {"Ann"}},
			want:   answer{Code: http.StatusOK, Body: `{"email":["The email field is required."]}`},
		},
		"own field valid": {
			values: url.Values{remote.MarkerField: {"email"}, "email": {"a@b.c"}},
			want:   answer{Code: http.StatusOK, Body: "true"},
		},
		"validate all": {
			values: url.Values{remote.MarkerField: {"email"}, remote.ValidateAllField: {"true"}, "email": {"a@b.c"}},
			want:   answer{Code: http.StatusOK, Body: `{"name":["The name field is required."]}`},
		},
	}
	for name, tc := range cases {
		code, body := post(t, h, tc.values)
		if diff := cmp.Diff(tc.want, answer{Code: code, Body: body}); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestHandlerRoundTripWithClientDecoder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(remote.Handler(fakeValidate, nil))
	defer srv.Close()

	resp, err := (&remote.HTTPTransport{Client: srv.Client()}).Do(context.Background(), remote.Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Values: url.Values{remote.MarkerField: {"name"}, "email": {"a@b.c"}},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	verdict := remote.DecodeForm("name", resp, nil)
	if verdict.Valid || verdict.Message != "The name field is required." {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
}
