package reactions

import (
	"context"
	"errors"
	"log/slog"

	"github.com/user/prereview/internal/commands/accept"
	"github.com/user/prereview/internal/commands/reject"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// ProcessReceivedReviewRequest resolves the preprint of a received review
// request and accepts or rejects it. An unavailable preprint server aborts
// the reaction with a retryable error.
func (r *Reactor) ProcessReceivedReviewRequest(ctx context.Context, id types.ReviewRequestID) error {
	if err := r.processReceivedReviewRequest(ctx, id); err != nil {
		cause, retryable := classify(ctx, KindProcessReceived, id, err)
		return types.NewFailedToProcessReceivedReviewRequest(id, cause, retryable)
	}
	return nil
}

func (r *Reactor) processReceivedReviewRequest(ctx context.Context, id types.ReviewRequestID) error {
	received, err := r.queries.GetReceivedReviewRequest(ctx, id)
	if err != nil {
		return err
	}

	preprint, err := r.preprints.ResolvePreprintID(ctx, received.PreprintID)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "accepting review request",
			"review_request_id", string(id),
			"preprint_id", preprint.String(),
		)
		return accept.Execute(ctx, r.log, accept.Command{
			ReviewRequestID: id,
			AcceptedAt:      r.now(),
			PreprintID:      preprint,
			Requester:       received.Requester,
		})
	case errors.Is(err, types.ErrNotAPreprint):
		return r.reject(ctx, id, events.ReasonNotAPreprint)
	case errors.Is(err, types.ErrPreprintIsNotFound):
		return r.reject(ctx, id, events.ReasonUnknownPreprint)
	default:
		return err
	}
}

func (r *Reactor) reject(ctx context.Context, id types.ReviewRequestID, reason events.RejectionReason) error {
	slog.InfoContext(ctx, "rejecting review request",
		"review_request_id", string(id),
		"reason", string(reason),
	)
	return reject.Execute(ctx, r.log, reject.Command{
		ReviewRequestID: id,
		RejectedAt:      r.now(),
		Reason:          reason,
	})
}
