// Package remote coordinates asynchronous validation requests. Every request
// runs on a port derived from the field it validates; starting a request on a
// busy port aborts the previous one so at most one request per field is in
// flight and a superseded response can never reach field state.
package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// ErrAborted is reported by transports when a request was superseded.
var ErrAborted = errors.New("remote: request aborted")

// Port returns the abort port of a field.
func Port(field string) string {
	return "validate" + field
}

// Completion is delivered once for every request that ran to completion
// without being aborted.
type Completion struct {
	ID      string
	Port    string
	Verdict rules.Verdict
	// Remaining is the number of requests still in flight once this one is
	// accounted for.
	Remaining int
}

// DoneFunc receives completions. Completions are delivered one at a time.
type DoneFunc func(Completion)

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger for request lifecycle events.
func WithCoordinatorLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type request struct {
	id     string
	port   string
	cancel context.CancelFunc
}

// Coordinator owns the in-flight requests of a form.
type Coordinator struct {
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[string]*request
	pending  int
	busy     int
	idle     chan struct{}

	// deliver serialises completions. A request leaves the pending count
	// while holding it so a completion that observes zero remaining
	// requests sees every other verdict already applied.
	deliver sync.Mutex
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		logger:   zap.NewNop(),
		inflight: make(map[string]*request),
		idle:     closedChan(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Start runs task on port in the background and returns the request id. An
// in-flight request on the same port is aborted first. done is not called
// for requests that are aborted.
func (c *Coordinator) Start(parent context.Context, port string, task rules.Task, done DoneFunc) string {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	req := &request{id: uuid.NewString(), port: port, cancel: cancel}

	c.mu.Lock()
	c.abortLocked(port)
	c.inflight[port] = req
	c.pending++
	if c.busy == 0 {
		c.idle = make(chan struct{})
	}
	c.busy++
	c.mu.Unlock()

	c.logger.Debug("remote request started", zap.String("port", port), zap.String("request_id", req.id))
	go c.run(ctx, req, task, done)
	return req.id
}

func (c *Coordinator) run(ctx context.Context, req *request, task rules.Task, done DoneFunc) {
	defer c.release()

	verdict := task(ctx)

	c.deliver.Lock()
	defer c.deliver.Unlock()

	c.mu.Lock()
	current, ok := c.inflight[req.port]
	if !ok || current.id != req.id {
		c.mu.Unlock()
		c.logger.Debug("remote response dropped", zap.String("port", req.port), zap.String("request_id", req.id))
		return
	}
	delete(c.inflight, req.port)
	c.decrementLocked()
	remaining := c.pending
	c.mu.Unlock()
	req.cancel()

	c.logger.Debug("remote request completed",
		zap.String("port", req.port),
		zap.String("request_id", req.id),
		zap.Bool("valid", verdict.Valid),
		zap.Int("remaining", remaining),
	)
	if done != nil {
		done(Completion{ID: req.id, Port: req.port, Verdict: verdict, Remaining: remaining})
	}
}

func (c *Coordinator) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy--
	if c.busy == 0 {
		close(c.idle)
	}
}

// Abort cancels the request in flight on port. It reports whether one was
// running.
func (c *Coordinator) Abort(port string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abortLocked(port)
}

// AbortAll cancels every request in flight.
func (c *Coordinator) AbortAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for port := range c.inflight {
		c.abortLocked(port)
	}
}

func (c *Coordinator) abortLocked(port string) bool {
	req, ok := c.inflight[port]
	if !ok {
		return false
	}
	delete(c.inflight, port)
	req.cancel()
	c.decrementLocked()
	c.logger.Debug("remote request aborted", zap.String("port", port), zap.String("request_id", req.id))
	return true
}

func (c *Coordinator) decrementLocked() {
	if c.pending == 0 {
		c.logger.Warn("remote pending count already zero")
		return
	}
	c.pending--
}

// Pending returns the number of requests in flight.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// InFlight returns the id of the request running on port.
func (c *Coordinator) InFlight(port string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.inflight[port]
	if !ok {
		return "", false
	}
	return req.id, true
}

// Wait blocks until every started request finished running, completion
// callbacks included, or ctx is done. It must not be called from a
// completion callback.
func (c *Coordinator) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		idle := c.idle
		busy := c.busy
		c.mu.Unlock()
		if busy == 0 {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
