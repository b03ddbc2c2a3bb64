package gateway

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/prereview/internal/types"
)

func startQueue(t *testing.T, maxConcurrent int64, process Processor) *Queue {
	t.Helper()
	q := NewQueue(maxConcurrent, process)
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func TestQueueBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	q := startQueue(t, 2, func(context.Context, *Run) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		running.Add(-1)
		return nil
	})

	for i := range 6 {
		id := types.ReviewRequestID(fmt.Sprintf("rr-%d", i))
		if err := q.Enqueue(NewRun(id, "process", nil)); err != nil {
			t.Fatal(err)
		}
	}

	if !q.WaitIdle(2 * time.Second) {
		t.Fatal("queue did not drain")
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency %d exceeds 2", p)
	}
	if p := peak.Load(); p < 2 {
		t.Errorf("expected distinct review requests to run in parallel, peak was %d", p)
	}
}

func TestQueueRunsOneReviewRequestInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	var overlapping atomic.Bool
	var busy atomic.Bool

	q := startQueue(t, 4, func(_ context.Context, run *Run) error {
		if !busy.CompareAndSwap(false, true) {
			overlapping.Store(true)
		}
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		order = append(order, run.Reaction)
		mu.Unlock()
		busy.Store(false)
		return nil
	})

	id := types.NewReviewRequestID()
	want := []string{"process", "notify", "categorize"}
	for _, reaction := range want {
		if err := q.Enqueue(NewRun(id, reaction, nil)); err != nil {
			t.Fatal(err)
		}
	}

	if !q.WaitIdle(2 * time.Second) {
		t.Fatal("queue did not drain")
	}
	if overlapping.Load() {
		t.Error("runs for one review request overlapped")
	}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestQueueRejectsFullLane(t *testing.T) {
	release := make(chan struct{})
	q := startQueue(t, 1, func(ctx context.Context, _ *Run) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	defer close(release)

	id := types.NewReviewRequestID()
	var full error
	for range laneBuffer + 2 {
		if err := q.Enqueue(NewRun(id, "process", nil)); err != nil {
			full = err
			break
		}
	}
	if !errors.Is(full, ErrLaneFull) {
		t.Fatalf("expected ErrLaneFull, got %v", full)
	}

	if err := q.Enqueue(NewRun(types.NewReviewRequestID(), "process", nil)); err != nil {
		t.Errorf("other review requests should still be accepted: %v", err)
	}
}

func TestQueueNotStarted(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Enqueue(NewRun("x", "process", nil)); !errors.Is(err, ErrQueueNotStarted) {
		t.Fatalf("expected ErrQueueNotStarted, got %v", err)
	}
}

func TestQueueRejectsAfterStop(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(context.Background())
	q.Stop()
	if err := q.Enqueue(NewRun("x", "process", nil)); !errors.Is(err, ErrQueueNotStarted) {
		t.Fatalf("expected ErrQueueNotStarted, got %v", err)
	}
}

func TestQueueWithoutProcessorDrains(t *testing.T) {
	q := startQueue(t, 1, nil)
	if err := q.Enqueue(NewRun("no-proc", "process", nil)); err != nil {
		t.Fatal(err)
	}
	if !q.WaitIdle(time.Second) {
		t.Fatal("queue did not drain")
	}
}

func TestQueueKeepsDrainingAfterFailure(t *testing.T) {
	var calls atomic.Int32
	q := startQueue(t, 1, func(context.Context, *Run) error {
		if calls.Add(1) == 1 {
			return errors.New("store down")
		}
		return nil
	})

	id := types.NewReviewRequestID()
	for range 2 {
		if err := q.Enqueue(NewRun(id, "process", nil)); err != nil {
			t.Fatal(err)
		}
	}
	if !q.WaitIdle(time.Second) {
		t.Fatal("queue did not drain")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 runs, got %d", n)
	}
}

func TestQueueRetiresDrainedLanes(t *testing.T) {
	var calls atomic.Int32
	q := startQueue(t, 4, func(context.Context, *Run) error {
		calls.Add(1)
		return nil
	})

	before := runtime.NumGoroutine()
	for i := range 500 {
		id := types.ReviewRequestID(fmt.Sprintf("rr-%d", i))
		if err := q.Enqueue(NewRun(id, "process", nil)); err != nil {
			t.Fatal(err)
		}
	}
	if !q.WaitIdle(5 * time.Second) {
		t.Fatal("queue did not drain")
	}

	if n := calls.Load(); n != 500 {
		t.Errorf("expected 500 runs, got %d", n)
	}
	if n := q.lanesOpen(); n != 0 {
		t.Errorf("expected every lane retired, %d still open", n)
	}
	// Lane goroutines return right after retiring; allow the scheduler a moment.
	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before+5 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > before+5 {
		t.Errorf("lane goroutines leaked: %d before, %d after", before, after)
	}

	// A retired id gets a fresh lane.
	if err := q.Enqueue(NewRun("rr-0", "process", nil)); err != nil {
		t.Fatal(err)
	}
	if !q.WaitIdle(time.Second) {
		t.Fatal("queue did not drain")
	}
	if n := calls.Load(); n != 501 {
		t.Errorf("expected 501 runs, got %d", n)
	}
}
