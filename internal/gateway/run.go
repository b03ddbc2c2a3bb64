package gateway

import (
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run tracks a single execution of a reaction for a review request.
type Run struct {
	ID              types.RunID
	ReviewRequestID types.ReviewRequestID
	Reaction        string
	Event           events.Event // nil when enqueued directly
	Status          RunStatus
	Attempts        int
	CreatedAt       time.Time
	StartedAt       *time.Time
	EndedAt         *time.Time
	Error           error
}

// NewRun creates a Run in the Queued state.
func NewRun(id types.ReviewRequestID, reaction string, event events.Event) *Run {
	return &Run{
		ID:              types.NewRunID(),
		ReviewRequestID: id,
		Reaction:        reaction,
		Event:           event,
		Status:          RunStatusQueued,
		CreatedAt:       time.Now(),
	}
}
