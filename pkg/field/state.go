// Package field holds the validation state machine of a single form field:
// its status, current message, the request it waits on and the memo of
// previous asynchronous verdicts.
package field

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidTransition is returned when a transition is not allowed from
	// the current status.
	ErrInvalidTransition = errors.New("field: invalid transition")
	// ErrStale is returned when a completion names a request the field no
	// longer waits on.
	ErrStale = errors.New("field: stale completion")
)

// Status is the validation status of a field.
type Status int

const (
	Untouched Status = iota
	Valid
	Invalid
	Pending
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Pending:
		return "pending"
	}
	return "untouched"
}

// Tristate is a cached verdict that may not be known yet.
type Tristate int

const (
	Unknown Tristate = iota
	Yes
	No
)

// TristateOf converts a settled verdict.
func TristateOf(valid bool) Tristate {
	if valid {
		return Yes
	}
	return No
}

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "true"
	case No:
		return "false"
	}
	return "null"
}

// Previous memoises the last asynchronous check of one method.
type Previous struct {
	// Old is the signature (value plus parameters) of the last request.
	Old   string
	Valid Tristate
	// Message is the failure message the last request settled with.
	Message string
	// OriginalMessage is the configured message saved before the request
	// started so it can be restored once the request settles.
	OriginalMessage string
	hasOriginal     bool
}

// Matches reports whether sig is the signature of the last request.
func (p *Previous) Matches(sig string) bool {
	return p != nil && p.Old == sig
}

// Settled reports whether a verdict is cached for sig.
func (p *Previous) Settled(sig string) bool {
	return p.Matches(sig) && p.Valid != Unknown
}

// Remember records a new request signature and forgets the cached verdict.
func (p *Previous) Remember(sig string) {
	p.Old = sig
	p.Valid = Unknown
	p.Message = ""
}

// SaveOriginal stores the configured message once per request cycle.
func (p *Previous) SaveOriginal(message string) {
	if p.hasOriginal {
		return
	}
	p.OriginalMessage = message
	p.hasOriginal = true
}

// RestoreOriginal returns the saved message and ends the cycle.
func (p *Previous) RestoreOriginal() (string, bool) {
	if !p.hasOriginal {
		return "", false
	}
	p.hasOriginal = false
	return p.OriginalMessage, true
}

// State is the validation state of one field. Methods are safe for
// concurrent use.
type State struct {
	name string

	mu            sync.Mutex
	status        Status
	before        Status
	message       string
	method        string
	pendingID     string
	pendingMethod string
	previous      map[string]*Previous
}

// New creates an untouched field state.
func New(name string) *State {
	return &State{name: name}
}

// Name returns the field name.
func (s *State) Name() string {
	return s.name
}

// Status returns the current status.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Message returns the current error message, empty unless invalid.
func (s *State) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Method returns the method that produced the current error.
func (s *State) Method() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

// PendingMethod returns the method of the request the field waits on.
func (s *State) PendingMethod() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingMethod
}

// Previous returns the memo of a method, creating it on first use.
func (s *State) Previous(method string) *Previous {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previous == nil {
		s.previous = make(map[string]*Previous)
	}
	p, ok := s.previous[method]
	if !ok {
		p = &Previous{}
		s.previous[method] = p
	}
	return p
}

// MarkValid settles the field as valid. A pending field must be resolved or
// cancelled first.
func (s *State) MarkValid() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Pending {
		return fmt.Errorf("%w: %s is pending", ErrInvalidTransition, s.name)
	}
	s.status, s.message, s.method = Valid, "", ""
	return nil
}

// MarkInvalid settles the field as invalid with the failing method and
// message.
func (s *State) MarkInvalid(method, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Pending {
		return fmt.Errorf("%w: %s is pending", ErrInvalidTransition, s.name)
	}
	s.status, s.message, s.method = Invalid, message, method
	return nil
}

// BeginPending enters the pending status for request id. Any earlier
// request must have been cancelled.
func (s *State) BeginPending(method, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Pending {
		return fmt.Errorf("%w: %s already waits on %s", ErrInvalidTransition, s.name, s.pendingID)
	}
	if id == "" {
		return fmt.Errorf("%w: %s: empty request id", ErrInvalidTransition, s.name)
	}
	s.before = s.status
	s.status = Pending
	s.pendingID, s.pendingMethod = id, method
	return nil
}

// Owns reports whether the field waits on request id.
func (s *State) Owns(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == Pending && id != "" && s.pendingID == id
}

// ResolvePending leaves the pending status with the verdict of request id.
func (s *State) ResolvePending(id string, valid bool, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Pending || s.pendingID != id {
		return fmt.Errorf("%w: %s request %s", ErrStale, s.name, id)
	}
	method := s.pendingMethod
	s.pendingID, s.pendingMethod = "", ""
	if valid {
		s.status, s.message, s.method = Valid, "", ""
		return nil
	}
	s.status, s.message, s.method = Invalid, message, method
	return nil
}

// CancelPending abandons the current request and returns to the status the
// field had before it. It returns the abandoned request id.
func (s *State) CancelPending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Pending {
		return "", false
	}
	id := s.pendingID
	s.status = s.before
	s.pendingID, s.pendingMethod = "", ""
	return id, true
}

// Clear returns a settled field to untouched and keeps its memo.
func (s *State) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Pending {
		return fmt.Errorf("%w: %s is pending", ErrInvalidTransition, s.name)
	}
	s.status, s.message, s.method = Untouched, "", ""
	return nil
}

// Reset returns the field to untouched and drops its memo.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.before = Untouched, Untouched
	s.message, s.method = "", ""
	s.pendingID, s.pendingMethod = "", ""
	s.previous = nil
}
