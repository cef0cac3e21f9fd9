package field_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/field"
)

type snapshot struct {
	Status  string
	Message string
	Method  string
}

func snap(s *field.State) snapshot {
	return snapshot{Status: s.Status().String(), Message: s.Message(), Method: s.Method()}
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	s := field.New("username")
	if diff := cmp.Diff(snapshot{Status: "untouched"}, snap(s)); diff != "" {
		t.Fatalf("initial mismatch (-want +got):\n%s", diff)
	}

	if err := s.MarkInvalid("required", "This field is required."); err != nil {
		t.Fatalf("mark invalid: %v", err)
	}
	if err := s.BeginPending("remote", "req-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.BeginPending("remote", "req-2"); !errors.Is(err, field.ErrInvalidTransition) {
		t.Fatalf("pending to pending should fail, got %v", err)
	}
	if err := s.MarkValid(); !errors.Is(err, field.ErrInvalidTransition) {
		t.Fatalf("mark valid while pending should fail, got %v", err)
	}

	id, ok := s.CancelPending()
	if !ok || id != "req-1" {
		t.Fatalf("cancel returned %q %v", id, ok)
	}
	if diff := cmp.Diff(snapshot{Status: "invalid", Message: "This field is required.", Method: "required"}, snap(s)); diff != "" {
		t.Fatalf("after cancel mismatch (-want +got):\n%s", diff)
	}

	if err := s.BeginPending("remote", "req-2"); err != nil {
		t.Fatalf("begin again: %v", err)
	}
	if s.Owns("req-1") || !s.Owns("req-2") {
		t.Fatalf("ownership should follow the latest request")
	}
	if err := s.ResolvePending("req-1", true, ""); !errors.Is(err, field.ErrStale) {
		t.Fatalf("stale completion should be rejected, got %v", err)
	}
	if err := s.ResolvePending("req-2", false, "taken"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(snapshot{Status: "invalid", Message: "taken", Method: "remote"}, snap(s)); diff != "" {
		t.Fatalf("after resolve mismatch (-want +got):\n%s", diff)
	}

	if err := s.MarkValid(); err != nil {
		t.Fatalf("mark valid: %v", err)
	}
	if diff := cmp.Diff(snapshot{Status: "valid"}, snap(s)); diff != "" {
		t.Fatalf("valid mismatch (-want +got):\n%s", diff)
	}
}

func TestPreviousMemo(t *testing.T) {
	t.Parallel()

	s := field.New("username")
	p := s.Previous("remote")
	if p != s.Previous("remote") {
		t.Fatalf("memo should be created once per method")
	}

	p.Remember("bob|/check")
	if !p.Matches("bob|/check") || p.Settled("bob|/check") {
		t.Fatalf("remembered signature should match without a verdict")
	}
	p.SaveOriginal("Please fix this field.")
	p.SaveOriginal("ignored")
	p.Valid, p.Message = field.No, "taken"

	if !p.Settled("bob|/check") || p.Settled("alice|/check") {
		t.Fatalf("settled should depend on the signature")
	}
	msg, ok := p.RestoreOriginal()
	if !ok || msg != "Please fix this field." {
		t.Fatalf("restore returned %q %v", msg, ok)
	}
	if _, ok := p.RestoreOriginal(); ok {
		t.Fatalf("original should restore once per cycle")
	}

	s.Reset()
	if s.Previous("remote").Matches("bob|/check") {
		t.Fatalf("reset should drop the memo")
	}
	if got := s.Status(); got != field.Untouched {
		t.Fatalf("status after reset = %v", got)
	}
}
