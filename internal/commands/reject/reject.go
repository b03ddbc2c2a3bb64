// Package reject rejects received review requests.
package reject

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/user/prereview/internal/commands"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

type Command struct {
	ReviewRequestID types.ReviewRequestID
	RejectedAt      time.Time
	Reason          events.RejectionReason
}

// State is NotReceived, NotRejected, HasBeenAccepted or HasBeenRejected.
type State interface{ isState() }

type NotReceived struct{}
type NotRejected struct{}
type HasBeenAccepted struct{}
type HasBeenRejected struct{}

func (NotReceived) isState()     {}
func (NotRejected) isState()     {}
func (HasBeenAccepted) isState() {}
func (HasBeenRejected) isState() {}

func Filter(id types.ReviewRequestID) events.Filter {
	return events.ForReviewRequest(id, events.TypeReceived, events.TypeAccepted, events.TypeRejected)
}

// Fold requires a Received event, then takes the latest of Accepted and
// Rejected.
func Fold(history []events.Event, id types.ReviewRequestID) State {
	scoped := events.Apply(Filter(id), history)

	received := false
	var latest State = NotRejected{}
	for _, event := range scoped {
		switch event.(type) {
		case events.Received:
			received = true
		case events.Accepted:
			latest = HasBeenAccepted{}
		case events.Rejected:
			latest = HasBeenRejected{}
		}
	}
	if !received {
		return NotReceived{}
	}
	return latest
}

func Decide(state State, command Command) (fn.Option[events.Event], error) {
	switch state.(type) {
	case NotReceived:
		return commands.Fail(types.ErrUnknownReviewRequest)
	case NotRejected:
		return commands.Emit(events.Rejected{
			ReviewRequestID: command.ReviewRequestID,
			RejectedAt:      command.RejectedAt,
			Reason:          command.Reason,
		})
	case HasBeenAccepted:
		return commands.Fail(types.ErrReviewRequestHasBeenAccepted)
	case HasBeenRejected:
		return commands.Nothing()
	default:
		return commands.Fail(fmt.Errorf("unexpected reject state %T", state))
	}
}

func Execute(ctx context.Context, log events.Log, command Command) error {
	return commands.Handle(ctx, log, Filter(command.ReviewRequestID),
		func(history []events.Event) State { return Fold(history, command.ReviewRequestID) },
		Decide, command)
}
