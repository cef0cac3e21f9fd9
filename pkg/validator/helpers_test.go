package validator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/validator"
)

func text(name, value string) *form.Control {
	return &form.Control{Name: name, ID: name, Type: form.TypeText, Value: value}
}

func radio(name, value string, checked bool) *form.Control {
	return &form.Control{Name: name, Type: form.TypeRadio, Value: value, Checked: checked}
}

func mustValidator(t *testing.T, f *form.Form, opts ...validator.Option) *validator.Validator {
	t.Helper()
	v, err := validator.New(f, opts...)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	t.Cleanup(v.Destroy)
	return v
}

func wait(t *testing.T, v *validator.Validator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

// recorder keeps the highlight state per field and the last error map.
type recorder struct {
	mu          sync.Mutex
	highlighted map[string]int
	pending     map[string]bool
	shown       map[string]string
	shows       int
}

func newRecorder() *recorder {
	return &recorder{highlighted: map[string]int{}, pending: map[string]bool{}}
}

func (r *recorder) ShowErrors(errorMap map[string]string, _ []render.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = errorMap
	r.shows++
}

func (r *recorder) Highlight(c *form.Control, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highlighted[c.Name]++
}

func (r *recorder) Unhighlight(c *form.Control, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.highlighted, c.Name)
}

func (r *recorder) MarkPending(c *form.Control, _ string, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[c.Name] = on
}

func (r *recorder) isHighlighted(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.highlighted[name] > 0
}

func (r *recorder) isPending(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[name]
}

// server is a scripted remote endpoint. Each call blocks until released
// unless the server is open.
type server struct {
	mu      sync.Mutex
	calls   []remote.Request
	reply   func(req remote.Request) *remote.Response
	gate    chan struct{}
	aborted int
}

func newServer(reply func(req remote.Request) *remote.Response) *server {
	return &server{reply: reply}
}

func (s *server) gated() *server {
	s.gate = make(chan struct{})
	return s
}

func (s *server) release() {
	close(s.gate)
}

func (s *server) Do(ctx context.Context, req remote.Request) (*remote.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			s.mu.Lock()
			s.aborted++
			s.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	return s.reply(req), nil
}

func (s *server) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *server) abortCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

func body(status int, text string) *remote.Response {
	return &remote.Response{StatusCode: status, Body: []byte(text)}
}

func withServer(s *server, opts ...remote.ClientOption) validator.Option {
	return validator.WithRemoteClient(remote.NewClient(s, opts...))
}
