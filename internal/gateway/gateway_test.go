package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/state"
	"github.com/user/prereview/internal/types"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (r *recorder) handle(_ context.Context, reaction string, id types.ReviewRequestID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reaction+" "+string(id))
	return r.fail[reaction]
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newGateway(t *testing.T, rec *recorder) (*Gateway, *state.EventLog) {
	t.Helper()
	log := state.NewEventLog(t.TempDir())
	gw := New(log, rec.handle)
	gw.SetRetryPolicy(fastPolicy(3))
	gw.Subscribe(events.OfTypes(events.TypeReceived), "process")
	gw.Subscribe(events.OfTypes(events.TypeAccepted), "notify")
	gw.Start(context.Background())
	t.Cleanup(gw.Stop)
	return gw, log
}

func TestGatewayDispatchesSubscribedEvents(t *testing.T) {
	rec := &recorder{}
	gw, log := newGateway(t, rec)
	ctx := context.Background()
	id := types.NewReviewRequestID()

	for _, event := range []events.Event{
		events.Received{ReviewRequestID: id},
		events.Categorized{ReviewRequestID: id},
		events.Accepted{ReviewRequestID: id},
	} {
		if err := gw.Append(ctx, event); err != nil {
			t.Fatal(err)
		}
	}

	if !gw.Queue.WaitIdle(2 * time.Second) {
		t.Fatal("timed out waiting for reactions")
	}

	calls := rec.snapshot()
	want := []string{"process " + string(id), "notify " + string(id)}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}

	history, err := gw.Read(ctx, events.ForReviewRequest(id))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Errorf("expected 3 events, got %d", len(history))
	}

	count, err := log.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 stored events, got %d", count)
	}
}

func TestGatewayRetriesRetryableFailures(t *testing.T) {
	id := types.NewReviewRequestID()
	rec := &recorder{fail: map[string]error{
		"process": types.NewFailedToProcessReceivedReviewRequest(id, types.ErrPreprintIsUnavailable, true),
		"notify":  types.NewFailedToNotifyCommunitySlack(id, types.ErrUnknownReviewRequest, false),
	}}
	gw, _ := newGateway(t, rec)
	ctx := context.Background()

	if err := gw.Append(ctx, events.Received{ReviewRequestID: id}); err != nil {
		t.Fatal(err)
	}
	if err := gw.Append(ctx, events.Accepted{ReviewRequestID: id}); err != nil {
		t.Fatal(err)
	}
	if !gw.Queue.WaitIdle(2 * time.Second) {
		t.Fatal("timed out waiting for reactions")
	}

	var process, notify int
	for _, call := range rec.snapshot() {
		switch call {
		case "process " + string(id):
			process++
		case "notify " + string(id):
			notify++
		}
	}
	if process != 3 {
		t.Errorf("expected 3 process attempts, got %d", process)
	}
	if notify != 1 {
		t.Errorf("expected 1 notify attempt, got %d", notify)
	}
}

func TestGatewayAppendFailure(t *testing.T) {
	rec := &recorder{}
	mem := state.NewMemoryLog()
	mem.FailAppend = errors.New("disk full")
	gw := New(mem, rec.handle)
	gw.Subscribe(events.OfTypes(events.TypeReceived), "process")
	gw.Start(context.Background())
	defer gw.Stop()

	if err := gw.Append(context.Background(), events.Received{ReviewRequestID: "x"}); err == nil {
		t.Fatal("expected append error")
	}
	gw.Queue.WaitIdle(time.Second)
	if len(rec.snapshot()) != 0 {
		t.Error("no reaction should run for an event that was not recorded")
	}
}

func TestGatewayEnqueueAndTail(t *testing.T) {
	rec := &recorder{}
	gw, _ := newGateway(t, rec)
	ctx := context.Background()

	if err := gw.Enqueue("abc", "process"); err != nil {
		t.Fatal(err)
	}
	if !gw.Queue.WaitIdle(2 * time.Second) {
		t.Fatal("timed out")
	}
	if calls := rec.snapshot(); len(calls) != 1 || calls[0] != "process abc" {
		t.Errorf("unexpected calls %v", calls)
	}

	if err := gw.Append(ctx, events.Categorized{ReviewRequestID: "abc"}); err != nil {
		t.Fatal(err)
	}
	tail, err := gw.Tail(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 1 || tail[0].Type != string(events.TypeCategorized) {
		t.Errorf("unexpected tail %+v", tail)
	}
}
