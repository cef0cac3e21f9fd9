package remote_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/rules"
)

type collector struct {
	mu   sync.Mutex
	seen []remote.Completion
}

func (c *collector) done(comp remote.Completion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, comp)
}

func (c *collector) completions() []remote.Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]remote.Completion(nil), c.seen...)
}

func waitIdle(t *testing.T, c *remote.Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestCoordinatorSupersedesRequestOnSamePort(t *testing.T) {
	t.Parallel()

	c := remote.NewCoordinator()
	got := &collector{}
	firstAborted := make(chan struct{})
	release := make(chan struct{})

	port := remote.Port("username")
	if port != "validateusername" {
		t.Fatalf("port = %q", port)
	}

	firstID := c.Start(context.Background(), port, func(ctx context.Context) rules.Verdict {
		<-ctx.Done()
		close(firstAborted)
		return rules.Verdict{Valid: true}
	}, got.done)
	if c.Pending() != 1 {
		t.Fatalf("pending after first start = %d", c.Pending())
	}

	secondID := c.Start(context.Background(), port, func(ctx context.Context) rules.Verdict {
		<-release
		return rules.Verdict{Message: "taken"}
	}, got.done)
	if c.Pending() != 1 {
		t.Fatalf("pending after second start = %d", c.Pending())
	}
	if id, ok := c.InFlight(port); !ok || id != secondID || id == firstID {
		t.Fatalf("in flight = %q %v", id, ok)
	}

	select {
	case <-firstAborted:
	case <-time.After(5 * time.Second):
		t.Fatal("first request was not cancelled")
	}
	close(release)
	waitIdle(t, c)

	want := []remote.Completion{{ID: secondID, Port: port, Verdict: rules.Verdict{Message: "taken"}}}
	if diff := cmp.Diff(want, got.completions()); diff != "" {
		t.Fatalf("completions mismatch (-want +got):\n%s", diff)
	}
	if c.Pending() != 0 {
		t.Fatalf("pending after completion = %d", c.Pending())
	}
}

func TestCoordinatorAbortCountsOnce(t *testing.T) {
	t.Parallel()

	c := remote.NewCoordinator()
	got := &collector{}
	block := func(ctx context.Context) rules.Verdict {
		<-ctx.Done()
		return rules.Verdict{}
	}

	c.Start(context.Background(), remote.Port("a"), block, got.done)
	c.Start(context.Background(), remote.Port("b"), block, got.done)
	if c.Pending() != 2 {
		t.Fatalf("pending = %d", c.Pending())
	}

	if !c.Abort(remote.Port("a")) {
		t.Fatal("abort should report the running request")
	}
	if c.Abort(remote.Port("a")) {
		t.Fatal("second abort should find nothing")
	}
	if c.Pending() != 1 {
		t.Fatalf("pending after abort = %d", c.Pending())
	}

	c.AbortAll()
	waitIdle(t, c)
	if c.Pending() != 0 {
		t.Fatalf("pending after abort all = %d", c.Pending())
	}
	if n := len(got.completions()); n != 0 {
		t.Fatalf("aborted requests delivered %d completions", n)
	}
}

func TestCoordinatorReportsRemaining(t *testing.T) {
	t.Parallel()

	c := remote.NewCoordinator()
	got := &collector{}
	releaseA := make(chan struct{})

	c.Start(context.Background(), remote.Port("a"), func(context.Context) rules.Verdict {
		<-releaseA
		return rules.Verdict{Valid: true}
	}, got.done)
	c.Start(context.Background(), remote.Port("b"), func(context.Context) rules.Verdict {
		return rules.Verdict{Valid: true}
	}, got.done)

	deadline := time.After(5 * time.Second)
	for len(got.completions()) == 0 {
		select {
		case <-deadline:
			t.Fatal("b never completed")
		case <-time.After(time.Millisecond):
		}
	}
	close(releaseA)
	waitIdle(t, c)

	var remaining []int
	for _, comp := range got.completions() {
		remaining = append(remaining, comp.Remaining)
	}
	if diff := cmp.Diff([]int{1, 0}, remaining); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestCoordinatorWaitHonoursContext(t *testing.T) {
	t.Parallel()

	c := remote.NewCoordinator()
	c.Start(context.Background(), remote.Port("slow"), func(ctx context.Context) rules.Verdict {
		<-ctx.Done()
		return rules.Verdict{}
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.Wait(ctx); err == nil {
		t.Fatal("wait should time out while a request hangs")
	}
	c.AbortAll()
	waitIdle(t, c)
}
