// Package accept accepts received review requests into the system.
package accept

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
	AcceptedAt      time.Time
	PreprintID      types.PreprintID
	Requester       *types.Requester
}

// State is NotAccepted, HasBeenAccepted or HasBeenRejected.
type State interface{ isState() }

type NotAccepted struct{}
type HasBeenAccepted struct{}
type HasBeenRejected struct{}

func (NotAccepted) isState()     {}
func (HasBeenAccepted) isState() {}
func (HasBeenRejected) isState() {}

func Filter(id types.ReviewRequestID) events.Filter {
	return events.ForReviewRequest(id, events.TypeAccepted, events.TypeRejected)
}

// Fold takes the latest of Accepted and Rejected.
func Fold(history []events.Event, id types.ReviewRequestID) State {
	scoped := events.Apply(Filter(id), history)
	if len(scoped) == 0 {
		return NotAccepted{}
	}
	switch scoped[len(scoped)-1].(type) {
	case events.Accepted:
		return HasBeenAccepted{}
	case events.Rejected:
		return HasBeenRejected{}
	}
	return NotAccepted{}
}

// Decide accepts a request unless it has already been accepted (no-op) or
// rejected (conflict).
func Decide(state State, command Command) (fn.Option[events.Event], error) {
	switch state.(type) {
	case NotAccepted:
		return commands.Emit(events.Accepted{
			ReviewRequestID: command.ReviewRequestID,
			AcceptedAt:      command.AcceptedAt,
			PreprintID:      command.PreprintID,
			Requester:       command.Requester,
		})
	case HasBeenAccepted:
		return commands.Nothing()
	case HasBeenRejected:
		return commands.Fail(types.ErrReviewRequestHasBeenRejected)
	default:
		return commands.Fail(fmt.Errorf("unexpected accept state %T", state))
	}
}

func Execute(ctx context.Context, log events.Log, command Command) error {
	return commands.Handle(ctx, log, Filter(command.ReviewRequestID),
		func(history []events.Event) State { return Fold(history, command.ReviewRequestID) },
		Decide, command)
}
