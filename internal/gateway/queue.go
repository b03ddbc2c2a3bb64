package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/prereview/internal/types"
)

// laneBuffer is how many runs a single review request may have waiting.
const laneBuffer = 100

var (
	// ErrQueueNotStarted is returned by Enqueue before Start or after Stop.
	ErrQueueNotStarted = errors.New("queue not started")
	// ErrLaneFull is returned when a review request already has laneBuffer
	// runs waiting.
	ErrLaneFull = errors.New("lane full")
)

// Processor executes one dequeued run.
type Processor func(context.Context, *Run) error

// lane holds the waiting runs of one review request. A lane is drained by
// its own goroutine, so runs for the same review request never overlap.
// A lane lives only while it has work.
type lane struct {
	id   types.ReviewRequestID
	runs chan *Run
}

// Queue serializes runs per review request and bounds how many run at
// once across all review requests.
type Queue struct {
	process Processor
	slots   *semaphore.Weighted

	// outstanding counts runs that were accepted and have not finished.
	outstanding atomic.Int64

	mu     sync.Mutex
	lanes  map[types.ReviewRequestID]*lane
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue returns a Queue running at most maxConcurrent runs at a time.
func NewQueue(maxConcurrent int64, process Processor) *Queue {
	return &Queue{
		process: process,
		slots:   semaphore.NewWeighted(maxConcurrent),
		lanes:   make(map[types.ReviewRequestID]*lane),
	}
}

func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels in-flight runs and waits for every lane goroutine to exit.
// Runs still waiting in a lane are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.cancel != nil {
		q.cancel()
	}
	for id, l := range q.lanes {
		close(l.runs)
		delete(q.lanes, id)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue places run at the back of its review request's lane. It never
// blocks: a full lane is reported as ErrLaneFull.
func (q *Queue) Enqueue(run *Run) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx == nil || q.ctx.Err() != nil {
		return ErrQueueNotStarted
	}

	l := q.lanes[run.ReviewRequestID]
	if l == nil {
		l = &lane{id: run.ReviewRequestID, runs: make(chan *Run, laneBuffer)}
		q.lanes[l.id] = l
		q.wg.Add(1)
		go q.drain(q.ctx, l)
	}

	q.outstanding.Add(1)
	select {
	case l.runs <- run:
		return nil
	default:
		q.outstanding.Add(-1)
		return fmt.Errorf("review request %s: %w", run.ReviewRequestID, ErrLaneFull)
	}
}

// drain runs the lane until it is empty, then retires it. Enqueue sends
// while holding q.mu, so an empty lane seen under the lock stays empty and
// the next run for the id starts a fresh lane.
func (q *Queue) drain(ctx context.Context, l *lane) {
	defer q.wg.Done()
	for {
		select {
		case run, ok := <-l.runs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				q.outstanding.Add(-1)
				continue
			}
			q.execute(ctx, run)
		default:
			if q.retire(l) {
				return
			}
		}
	}
}

func (q *Queue) retire(l *lane) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(l.runs) > 0 {
		return false
	}
	if q.lanes[l.id] == l {
		delete(q.lanes, l.id)
	}
	return true
}

// lanesOpen counts lanes that still have a goroutine attached.
func (q *Queue) lanesOpen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

func (q *Queue) execute(ctx context.Context, run *Run) {
	defer q.outstanding.Add(-1)

	if err := q.slots.Acquire(ctx, 1); err != nil {
		return
	}
	defer q.slots.Release(1)

	if q.process == nil {
		return
	}
	if err := q.process(ctx, run); err != nil {
		slog.Error("run failed",
			"run_id", string(run.ID),
			"review_request_id", string(run.ReviewRequestID),
			"reaction", run.Reaction,
			"attempts", run.Attempts,
			"error", err,
		)
	}
}

// WaitIdle polls until every accepted run has finished and every lane has
// been retired. It reports false if timeout elapses first.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for q.outstanding.Load() > 0 || q.lanesOpen() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		<-ticker.C
	}
	return true
}
