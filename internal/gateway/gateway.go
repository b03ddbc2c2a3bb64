package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// Handler runs the named reaction for a review request.
type Handler func(ctx context.Context, reaction string, id types.ReviewRequestID) error

type subscription struct {
	filter   events.Filter
	reaction string
}

// Gateway is an events.Log that dispatches reactions for the events
// appended through it. Appended events are matched against subscription
// filters and each match becomes a Run in the review request's lane.
type Gateway struct {
	log     events.Log
	handler Handler
	Queue   *Queue
	retry   *RetryPolicy

	mu            sync.RWMutex
	subscriptions []subscription

	ctx    context.Context
	cancel context.CancelFunc
}

var _ events.Log = (*Gateway)(nil)

// New creates a Gateway around log with the given concurrency limit for
// simultaneous run processing.
func New(log events.Log, handler Handler, maxConcurrent ...int64) *Gateway {
	var concurrency int64 = 2
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	g := &Gateway{
		log:     log,
		handler: handler,
		retry:   DefaultRetryPolicy(),
	}
	g.Queue = NewQueue(concurrency, g.process)
	return g
}

// SetRetryPolicy replaces the default retry policy. Call before Start.
func (g *Gateway) SetRetryPolicy(p *RetryPolicy) {
	g.retry = p
}

// Subscribe runs reaction for every appended event matching filter.
func (g *Gateway) Subscribe(filter events.Filter, reaction string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptions = append(g.subscriptions, subscription{filter: filter, reaction: reaction})
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.Queue.Start(g.ctx)
}

// Stop cancels the gateway context, stops the queue, and waits for any
// outstanding work to finish.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.Queue.Stop()
}

// Append records the event and enqueues the reactions subscribed to it.
// A reaction that cannot be enqueued is logged and does not fail the append.
func (g *Gateway) Append(ctx context.Context, event events.Event) error {
	if err := g.log.Append(ctx, event); err != nil {
		return err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, sub := range g.subscriptions {
		if !sub.filter.Matches(event) {
			continue
		}
		run := NewRun(event.AggregateID(), sub.reaction, event)
		if err := g.Queue.Enqueue(run); err != nil {
			slog.WarnContext(ctx, "reaction not dispatched",
				"review_request_id", string(run.ReviewRequestID),
				"reaction", sub.reaction,
				"event_type", string(event.Type()),
				"error", err,
			)
		}
	}
	return nil
}

func (g *Gateway) Read(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	return g.log.Read(ctx, filter)
}

// Tail lists the most recent envelopes of the underlying log.
func (g *Gateway) Tail(ctx context.Context, limit int) ([]*types.Event, error) {
	tailer, ok := g.log.(events.Tailer)
	if !ok {
		return nil, fmt.Errorf("event log %T cannot be tailed", g.log)
	}
	return tailer.Tail(ctx, limit)
}

// Enqueue schedules a reaction for a review request outside of an append,
// e.g. from a scheduled sweep.
func (g *Gateway) Enqueue(id types.ReviewRequestID, reaction string) error {
	return g.Queue.Enqueue(NewRun(id, reaction, nil))
}

// process runs the reaction under the retry policy.
func (g *Gateway) process(ctx context.Context, run *Run) error {
	started := time.Now()
	run.StartedAt = &started
	run.Status = RunStatusRunning

	err := g.retry.Execute(ctx, func() error {
		run.Attempts++
		return g.handler(ctx, run.Reaction, run.ReviewRequestID)
	}, func(attempt int, err error) {
		slog.WarnContext(ctx, "reaction failed, retrying",
			"run_id", string(run.ID),
			"review_request_id", string(run.ReviewRequestID),
			"reaction", run.Reaction,
			"attempt", attempt,
			"delay", g.retry.NextDelay(attempt).String(),
			"error", err,
		)
	})

	ended := time.Now()
	run.EndedAt = &ended
	run.Error = err
	if err != nil {
		run.Status = RunStatusFailed
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	run.Status = RunStatusComplete
	slog.DebugContext(ctx, "reaction complete",
		"run_id", string(run.ID),
		"review_request_id", string(run.ReviewRequestID),
		"reaction", run.Reaction,
		"attempts", run.Attempts,
	)
	return nil
}
