package form_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/form"
)

func TestValueOfCheckableGroups(t *testing.T) {
	t.Parallel()

	f := form.New("/save", "post",
		&form.Control{Name: "color", Type: form.TypeRadio, Value: "red"},
		&form.Control{Name: "color", Type: form.TypeRadio, Value: "blue", Checked: true},
		&form.Control{Name: "tags[]", Type: form.TypeCheckbox, Value: "a", Checked: true},
		&form.Control{Name: "tags[]", Type: form.TypeCheckbox, Value: "b"},
		&form.Control{Name: "tags[]", Type: form.TypeCheckbox, Value: "c", Checked: true},
		&form.Control{Name: "agree", Type: form.TypeCheckbox, Value: "1"},
	)

	if got := f.Value("color"); got != "blue" {
		t.Fatalf("color value: got %v", got)
	}
	if diff := cmp.Diff([]string{"a", "c"}, f.Value("tags[]")); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if got := f.Value("agree"); got != nil {
		t.Fatalf("unchecked checkbox should have nil value, got %v", got)
	}
	if got := f.CheckedCount("tags[]"); got != 2 {
		t.Fatalf("checked count: got %d", got)
	}
}

func TestValueStripsCarriageReturns(t *testing.T) {
	t.Parallel()

	f := form.New("", "", &form.Control{Name: "bio", Type: form.TypeTextarea, Value: "a\r\nb"})
	if got := f.Value("bio"); got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}

func TestSerializeSkipsUnsuccessfulControls(t *testing.T) {
	t.Parallel()

	f := form.New("/save", "post",
		&form.Control{Name: "name", Type: form.TypeText, Value: "Ada"},
		&form.Control{Name: "secret", Type: form.TypeText, Value: "x", Disabled: true},
		&form.Control{Name: "go", Type: form.TypeSubmit, Value: "Send"},
		&form.Control{Name: "avatar", Type: form.TypeFile, Files: []form.File{{Name: "a.png"}}},
		&form.Control{Name: "news", Type: form.TypeCheckbox, Value: "yes"},
		&form.Control{Name: "langs", Type: form.TypeSelectMultiple, Values: []string{"go", "php"}},
	)

	want := url.Values{"name": {"Ada"}, "langs": {"go", "php"}}
	if diff := cmp.Diff(want, f.Serialize()); diff != "" {
		t.Fatalf("serialize mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectiveMethodHonoursOverride(t *testing.T) {
	t.Parallel()

	f := form.New("/items/1", "post", &form.Control{Name: form.MethodOverrideField, Type: form.TypeHidden, Value: "put"})
	if got := f.EffectiveMethod(); got != "PUT" {
		t.Fatalf("got %q", got)
	}
	if got := form.New("", "").EffectiveMethod(); got != "GET" {
		t.Fatalf("default method: got %q", got)
	}
}

func TestFromValuesBuildsControls(t *testing.T) {
	t.Parallel()

	f := form.FromValues("/x", "post", url.Values{"email": {"a@b.c"}, "tags[]": {"x", "y"}})
	if diff := cmp.Diff([]string{"email", "tags[]"}, f.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "y"}, f.Value("tags[]")); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestFileExtension(t *testing.T) {
	t.Parallel()

	if got := (form.File{Name: "Photo.JPEG"}).Extension(); got != "jpeg" {
		t.Fatalf("got %q", got)
	}
}
