// Package receive records review requests arriving from external sources.
package receive

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
	ReceivedAt      time.Time
	PreprintID      types.IndeterminatePreprintID
	Requester       *types.Requester
	ReceivedFrom    string
}

// State is NotReceived or HasBeenReceived.
type State interface{ isState() }

type NotReceived struct{}
type HasBeenReceived struct{}

func (NotReceived) isState()     {}
func (HasBeenReceived) isState() {}

func Filter(id types.ReviewRequestID) events.Filter {
	return events.ForReviewRequest(id, events.TypeReceived)
}

func Fold(history []events.Event, id types.ReviewRequestID) State {
	if len(events.Apply(Filter(id), history)) > 0 {
		return HasBeenReceived{}
	}
	return NotReceived{}
}

func Decide(state State, command Command) (fn.Option[events.Event], error) {
	switch state.(type) {
	case NotReceived:
		return commands.Emit(events.Received{
			ReviewRequestID: command.ReviewRequestID,
			ReceivedAt:      command.ReceivedAt,
			PreprintID:      command.PreprintID,
			Requester:       command.Requester,
			ReceivedFrom:    command.ReceivedFrom,
		})
	case HasBeenReceived:
		return commands.Nothing()
	default:
		return commands.Fail(fmt.Errorf("unexpected receive state %T", state))
	}
}

// Execute receives a review request. Receiving the same request again is a
// no-op.
func Execute(ctx context.Context, log events.Log, command Command) error {
	return commands.Handle(ctx, log, Filter(command.ReviewRequestID),
		func(history []events.Event) State { return Fold(history, command.ReviewRequestID) },
		Decide, command)
}
