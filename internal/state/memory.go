package state

import (
	"context"
	"sync"
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// MemoryLog is an in-memory event log. It is safe for concurrent use.
type MemoryLog struct {
	mu     sync.RWMutex
	events []events.Event
	at     []time.Time

	// FailAppend and FailRead, when set, are returned by the respective
	// operations instead of touching the log.
	FailAppend error
	FailRead   error
}

// NewMemoryLog creates a log pre-populated with the given history.
func NewMemoryLog(history ...events.Event) *MemoryLog {
	l := &MemoryLog{}
	for _, event := range history {
		l.events = append(l.events, event)
		l.at = append(l.at, time.Now().UTC())
	}
	return l
}

func (l *MemoryLog) Append(_ context.Context, event events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.FailAppend != nil {
		return &types.StoreError{Op: "append", Err: l.FailAppend}
	}
	l.events = append(l.events, event)
	l.at = append(l.at, time.Now().UTC())
	return nil
}

func (l *MemoryLog) Read(_ context.Context, filter events.Filter) ([]events.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.FailRead != nil {
		return nil, &types.StoreError{Op: "read", Err: l.FailRead}
	}
	return events.Apply(filter, l.events), nil
}

func (l *MemoryLog) Tail(_ context.Context, limit int) ([]*types.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := max(len(l.events)-limit, 0)
	out := make([]*types.Event, 0, len(l.events)-start)
	for i := start; i < len(l.events); i++ {
		envelope, err := events.Encode(l.events[i], l.at[i])
		if err != nil {
			return nil, &types.StoreError{Op: "tail", Err: err}
		}
		envelope.Seq = int64(i + 1)
		out = append(out, envelope)
	}
	return out, nil
}

// Events returns a copy of every event in append order.
func (l *MemoryLog) Events() []events.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]events.Event(nil), l.events...)
}
