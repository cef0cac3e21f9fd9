package rules_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/rules"
)

func TestRequiredFamily(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	f := form.New("", "",
		text("name", ""),
		text("country", "US"),
		text("state", ""),
		&form.Control{Name: "agree", Type: form.TypeCheckbox, Value: "1"},
	)

	cases := []struct {
		field  string
		method string
		params []any
		want   rules.Result
	}{
		{"name", "required", nil, rules.Fail},
		{"country", "required", nil, rules.Pass},
		{"name", "required", []any{false}, rules.Mismatch},
		{"state", "required_if", []any{"country", "US", "CA"}, rules.Fail},
		{"state", "required_if", []any{"country", "MX"}, rules.Pass},
		{"state", "required_unless", []any{"country", "US"}, rules.Pass},
		{"state", "required_with", []any{"country"}, rules.Fail},
		{"state", "required_with", []any{"name"}, rules.Pass},
		{"state", "required_without", []any{"name"}, rules.Fail},
		{"state", "required_without_all", []any{"name", "country"}, rules.Pass},
		{"state", "required_with_all", []any{"name", "country"}, rules.Pass},
		{"agree", "required", nil, rules.Fail},
		{"agree", "accepted", nil, rules.Fail},
	}
	for _, tc := range cases {
		got := run(reg, newCtx(f, tc.field), tc.method, tc.params...)
		if got != tc.want {
			t.Errorf("%s %s%v = %v want %v", tc.field, tc.method, tc.params, got, tc.want)
		}
	}

	f.SetChecked("agree", "1", true)
	if got := run(reg, newCtx(f, "agree"), "accepted"); got != rules.Pass {
		t.Fatalf("accepted after check: %v", got)
	}
}

func TestSizeRulesFollowFieldType(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	f := form.New("", "",
		text("title", "hello"),
		text("age", "17"),
		&form.Control{Name: "qty", Type: form.TypeNumber, Value: "3"},
		&form.Control{Name: "tags[]", Type: form.TypeCheckbox, Value: "a", Checked: true},
		&form.Control{Name: "tags[]", Type: form.TypeCheckbox, Value: "b", Checked: true},
		&form.Control{Name: "doc", Type: form.TypeFile, Files: []form.File{{Name: "a.pdf", Size: 3000}}},
	)

	cases := []struct {
		name   string
		fc     *fieldCtx
		method string
		params []any
		want   rules.Result
	}{
		{"string length", newCtx(f, "title"), "min", []any{5}, rules.Pass},
		{"string length too long", newCtx(f, "title"), "max", []any{4}, rules.Fail},
		{"numeric rule compares value", newCtx(f, "age").withRule("numeric"), "min", []any{18}, rules.Fail},
		{"text without numeric rule compares length", newCtx(f, "age"), "min", []any{2}, rules.Pass},
		{"number input", newCtx(f, "qty"), "between", []any{1, 5}, rules.Pass},
		{"array count", newCtx(f, "tags[]"), "size", []any{2}, rules.Pass},
		{"file kilobytes", newCtx(f, "doc"), "max", []any{2}, rules.Pass},
		{"file kilobytes over", newCtx(f, "doc"), "max", []any{1}, rules.Fail},
		{"rangelength", newCtx(f, "title"), "rangelength", []any{2, 4}, rules.Fail},
		{"checked count", newCtx(f, "tags[]"), "minlength", []any{2}, rules.Pass},
		{"gt field", newCtx(f, "qty"), "gt", []any{2}, rules.Pass},
		{"step", newCtx(f, "qty"), "step", []any{2}, rules.Fail},
		{"decimal step", newCtx(f, "qty"), "step", []any{1.5}, rules.Pass},
	}
	for _, tc := range cases {
		if got := run(reg, tc.fc, tc.method, tc.params...); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestRegexDelimitersAndModifiers(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	f := form.New("", "", text("code", "ABC"))
	fc := newCtx(f, "code")

	cases := []struct {
		pattern string
		want    rules.Result
	}{
		{"/^[a-z]+$/", rules.Fail},
		{"/^[a-z]+$/i", rules.Pass},
		{"^[a-z]+$", rules.Fail},
		// Modifiers with no client-side equivalent skip the check entirely,
		// so even a non-matching pattern passes.
		{"/^[0-9]+$/x", rules.Pass},
		{"/^[0-9]+$/u", rules.Pass},
	}
	for _, tc := range cases {
		if got := run(reg, fc, "regex", tc.pattern); got != tc.want {
			t.Errorf("regex %q = %v want %v", tc.pattern, got, tc.want)
		}
	}
	if got := run(reg, fc, "not_regex", "/^[0-9]+$/"); got != rules.Pass {
		t.Fatalf("not_regex: %v", got)
	}
}

func TestMembershipAndComparison(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	f := form.New("", "",
		text("password", "secret1"),
		text("password_confirmation", "secret2"),
		&form.Control{Name: "again", ID: "again", Type: form.TypeText, Value: "secret1"},
		&form.Control{Name: "langs", Type: form.TypeSelectMultiple, Values: []string{"go", "php"}},
	)

	if got := run(reg, newCtx(f, "password"), "confirmed"); got != rules.Fail {
		t.Fatalf("confirmed with differing values: %v", got)
	}
	f.SetValue("password_confirmation", "secret1")
	if got := run(reg, newCtx(f, "password"), "confirmed"); got != rules.Pass {
		t.Fatalf("confirmed with equal values: %v", got)
	}
	if got := run(reg, newCtx(f, "password"), "equalTo", "#again"); got != rules.Pass {
		t.Fatalf("equalTo: %v", got)
	}
	if got := run(reg, newCtx(f, "password"), "different", "again"); got != rules.Fail {
		t.Fatalf("different: %v", got)
	}
	if got := run(reg, newCtx(f, "langs"), "in", "go", "php", "js"); got != rules.Pass {
		t.Fatalf("in subset: %v", got)
	}
	if got := run(reg, newCtx(f, "langs"), "in", "go"); got != rules.Fail {
		t.Fatalf("in not subset: %v", got)
	}
	if got := run(reg, newCtx(f, "langs"), "not_in", "rust"); got != rules.Pass {
		t.Fatalf("not_in: %v", got)
	}
	if rules.ConfirmationName("user[password]") != "user[password_confirmation]" {
		t.Fatalf("bracket confirmation name")
	}
}

func TestDistinctAcrossSiblings(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	f := form.New("", "",
		text("items[0][sku]", "A"),
		text("items[1][sku]", "B"),
		text("items[2][sku]", "A"),
	)
	siblings := []string{"items[0][sku]", "items[1][sku]", "items[2][sku]"}

	fc := newCtx(f, "items[0][sku]")
	fc.siblings = siblings
	if got := run(reg, fc, "distinct"); got != rules.Fail {
		t.Fatalf("duplicate sku: %v", got)
	}
	fc = newCtx(f, "items[1][sku]")
	fc.siblings = siblings
	if got := run(reg, fc, "distinct"); got != rules.Pass {
		t.Fatalf("unique sku: %v", got)
	}
}

func TestDateRules(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	f := form.New("", "",
		text("start", "31/01/2024"),
		text("end", "01/02/2024"),
		text("when", "2024-03-20"),
		text("bogus", "someday"),
		text("finish", ""),
	)

	start := newCtx(f, "start").withRule("date_format", "d/m/Y")
	if got := run(reg, start, "date_format", "d/m/Y"); got != rules.Pass {
		t.Fatalf("date_format: %v", got)
	}
	if got := run(reg, start, "before", "end"); got != rules.Pass {
		t.Fatalf("before field: %v", got)
	}
	if got := run(reg, newCtx(f, "when"), "after", "today"); got != rules.Pass {
		t.Fatalf("after today: %v", got)
	}
	if got := run(reg, newCtx(f, "when"), "before_or_equal", "2024-03-20"); got != rules.Pass {
		t.Fatalf("before_or_equal: %v", got)
	}
	if got := run(reg, newCtx(f, "when"), "before", "finish"); got != rules.Mismatch {
		t.Fatalf("empty compared field should be a dependency mismatch: %v", got)
	}
	if got := run(reg, newCtx(f, "bogus"), "after", "today"); got != rules.Fail {
		t.Fatalf("unparseable value should fail closed: %v", got)
	}
	if got := run(reg, newCtx(f, "bogus"), "date"); got != rules.Fail {
		t.Fatalf("date: %v", got)
	}
}

func TestFormatRules(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	cases := []struct {
		method string
		value  string
		params []any
		want   rules.Result
	}{
		{"email", "ada@example.com", nil, rules.Pass},
		{"email", "ada@", nil, rules.Fail},
		{"url", "https://example.com/x", nil, rules.Pass},
		{"url", "example.com", nil, rules.Fail},
		{"number", "-1,234.5", nil, rules.Pass},
		{"numeric", "1e3", nil, rules.Pass},
		{"integer", "1.5", nil, rules.Fail},
		{"digits", "0123", nil, rules.Pass},
		{"digits", "0123", []any{3}, rules.Fail},
		{"digits_between", "0123", []any{2, 4}, rules.Pass},
		{"alpha_dash", "a-b_c1", nil, rules.Pass},
		{"alpha", "abc1", nil, rules.Fail},
		{"boolean", "1", nil, rules.Pass},
		{"json", `{"a":1}`, nil, rules.Pass},
		{"json", `{a:1}`, nil, rules.Fail},
		{"ipv4", "10.0.0.1", nil, rules.Pass},
		{"ipv6", "10.0.0.1", nil, rules.Fail},
		{"uuid", "123e4567-e89b-12d3-a456-426614174000", nil, rules.Pass},
		{"timezone", "UTC", nil, rules.Pass},
		{"timezone", "Mars/Olympus", nil, rules.Fail},
		{"starts_with", "foobar", []any{"bar", "foo"}, rules.Pass},
		{"ends_with", "foobar", []any{"foo"}, rules.Fail},
		{"dateISO", "2024-01-31", nil, rules.Pass},
	}
	for _, tc := range cases {
		f := form.New("", "", text("field", tc.value))
		if got := run(reg, newCtx(f, "field"), tc.method, tc.params...); got != tc.want {
			t.Errorf("%s(%q) = %v want %v", tc.method, tc.value, got, tc.want)
		}
	}
}

func TestFileRules(t *testing.T) {
	t.Parallel()

	reg := rules.Builtin()
	f := form.New("", "",
		&form.Control{Name: "avatar", Type: form.TypeFile, Files: []form.File{{Name: "me.PNG", MIME: "image/png"}}},
		&form.Control{Name: "doc", Type: form.TypeFile, Files: []form.File{{Name: "cv.pdf", MIME: "application/pdf"}}},
	)

	if got := run(reg, newCtx(f, "avatar"), "image"); got != rules.Pass {
		t.Fatalf("image: %v", got)
	}
	if got := run(reg, newCtx(f, "doc"), "image"); got != rules.Fail {
		t.Fatalf("pdf as image: %v", got)
	}
	if got := run(reg, newCtx(f, "doc"), "mimes", "pdf", "doc"); got != rules.Pass {
		t.Fatalf("mimes: %v", got)
	}
	if got := run(reg, newCtx(f, "avatar"), "mimetypes", "image/*"); got != rules.Pass {
		t.Fatalf("mimetypes wildcard: %v", got)
	}
}

func TestDimensionsRunsAsync(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 200, 100))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	payload := buf.Bytes()
	open := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	f := form.New("", "", &form.Control{Name: "banner", Type: form.TypeFile, Files: []form.File{{Name: "b.png", Open: open}}})

	m, ok := rules.Builtin().Lookup("dimensions")
	if !ok || m.Async == nil {
		t.Fatalf("dimensions should be asynchronous")
	}

	cases := []struct {
		params []any
		want   bool
	}{
		{[]any{"min_width=100", "max_height=100"}, true},
		{[]any{"width=150"}, false},
		{[]any{"ratio=2/1"}, true},
		{[]any{"ratio=3/2"}, false},
	}
	for _, tc := range cases {
		task, err := m.Async(newCtx(f, "banner"), nil, rules.Params(tc.params))
		if err != nil {
			t.Fatalf("prepare %v: %v", tc.params, err)
		}
		if got := task(context.Background()).Valid; got != tc.want {
			t.Errorf("dimensions %v = %v want %v", tc.params, got, tc.want)
		}
	}

	if _, err := m.Async(newCtx(f, "banner"), nil, rules.Params{"depth=3"}); err == nil {
		t.Fatalf("expected error for unknown constraint")
	}
}
