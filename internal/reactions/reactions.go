// Package reactions holds the process managers that react to review request
// events by calling external collaborators and issuing further commands.
//
// Every failure reachable from a reaction is reported as exactly one
// reaction error (types.FailedToNotifyCommunitySlackError or
// types.FailedToProcessReceivedReviewRequestError) whose Retryable method
// tells the caller whether running the reaction again may help.
package reactions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/queries"
	"github.com/user/prereview/internal/types"
)

// PreprintResolver resolves requester supplied references to preprints.
type PreprintResolver interface {
	// ResolvePreprintID returns types.ErrNotAPreprint,
	// types.ErrPreprintIsNotFound or types.ErrPreprintIsUnavailable when the
	// reference cannot be resolved.
	ResolvePreprintID(ctx context.Context, id types.IndeterminatePreprintID) (types.PreprintID, error)

	GetPreprint(ctx context.Context, id types.PreprintID) (*types.Preprint, error)
}

// ShareRequest is what gets announced on the community Slack.
type ShareRequest struct {
	ReviewRequestID types.ReviewRequestID
	Preprint        *types.Preprint
	Author          *types.Requester
	Published       time.Time
}

// CommunitySlack posts review requests to the community Slack. Failures are
// reported as types.ErrFailedToSharePreprintReviewRequest.
type CommunitySlack interface {
	SharePreprintReviewRequest(ctx context.Context, request ShareRequest) (types.CommunitySlackMessage, error)
}

// Reactor runs reactions against an event log.
type Reactor struct {
	log       events.Log
	queries   *queries.Service
	preprints PreprintResolver
	slack     CommunitySlack
	now       func() time.Time
}

func NewReactor(log events.Log, preprints PreprintResolver, slack CommunitySlack) *Reactor {
	return &Reactor{
		log:       log,
		queries:   queries.NewService(log),
		preprints: preprints,
		slack:     slack,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// knownCauses are the errors a reaction passes through to its caller.
// Anything else is logged and replaced by an opaque reaction error.
var knownCauses = []error{
	types.ErrUnknownReviewRequest,
	types.ErrReviewRequestHasBeenAccepted,
	types.ErrReviewRequestHasBeenRejected,
	types.ErrReviewRequestWasAlreadySharedOnTheCommunitySlack,
	types.ErrNotAPreprint,
	types.ErrPreprintIsNotFound,
	types.ErrPreprintIsUnavailable,
	types.ErrFailedToSharePreprintReviewRequest,
}

// terminalCauses will fail the same way on every attempt.
var terminalCauses = []error{
	types.ErrUnknownReviewRequest,
	types.ErrReviewRequestHasBeenAccepted,
	types.ErrReviewRequestHasBeenRejected,
	types.ErrReviewRequestWasAlreadySharedOnTheCommunitySlack,
	types.ErrNotAPreprint,
	types.ErrPreprintIsNotFound,
}

// classify returns the cause to expose and whether the failure is
// retryable.
func classify(ctx context.Context, reaction string, id types.ReviewRequestID, err error) (error, bool) {
	var (
		command *types.UnableToHandleCommandError
		query   *types.UnableToQueryError
	)
	switch {
	case errors.As(err, &command), errors.As(err, &query):
		return err, true
	}
	for _, terminal := range terminalCauses {
		if errors.Is(err, terminal) {
			return err, false
		}
	}
	for _, known := range knownCauses {
		if errors.Is(err, known) {
			return err, true
		}
	}

	slog.ErrorContext(ctx, "unexpected reaction failure",
		"reaction", reaction,
		"review_request_id", string(id),
		"error", err,
	)
	return nil, true
}
