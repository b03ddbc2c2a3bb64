package reactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/user/prereview/internal/types"
)

// Enqueuer schedules a reaction run for a review request.
type Enqueuer interface {
	Enqueue(id types.ReviewRequestID, reaction string) error
}

// RedriveReceived enqueues KindProcessReceived for every received review
// request that is still awaiting a decision. Runs whose earlier attempts
// failed with a retryable error are picked up again this way.
func (r *Reactor) RedriveReceived(ctx context.Context, queue Enqueuer) error {
	ids, err := r.queries.FindReceivedReviewRequestsAwaitingDecision(ctx)
	if err != nil {
		return fmt.Errorf("find received review requests: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.Info("re-driving received review requests", "count", len(ids))
	var failures []error
	for _, id := range ids {
		if err := queue.Enqueue(id, KindProcessReceived); err != nil {
			failures = append(failures, fmt.Errorf("review request %s: %w", id, err))
		}
	}
	return errors.Join(failures...)
}
