package events

import (
	"context"

	"github.com/user/prereview/internal/types"
)

// Log is the append-only, totally ordered event log shared by all review
// requests. Read returns matching events in append order.
type Log interface {
	Append(ctx context.Context, event Event) error
	Read(ctx context.Context, filter Filter) ([]Event, error)
}

// Tailer is implemented by logs that can list their most recent envelopes.
type Tailer interface {
	Tail(ctx context.Context, limit int) ([]*types.Event, error)
}

// ReadAll returns the whole log.
func ReadAll(ctx context.Context, log Log) ([]Event, error) {
	return log.Read(ctx, Filter{})
}
