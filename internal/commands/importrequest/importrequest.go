// Package importrequest records review requests imported directly by a
// PREreviewer.
package importrequest

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
	PublishedAt     time.Time
	PreprintID      types.PreprintID
	Requester       *types.Requester
}

// State is NotImported or HasBeenImported.
type State interface{ isState() }

type NotImported struct{}
type HasBeenImported struct{}

func (NotImported) isState()     {}
func (HasBeenImported) isState() {}

// Filter includes Received: a request that entered through the receive path
// must not be imported a second time.
func Filter(id types.ReviewRequestID) events.Filter {
	return events.ForReviewRequest(id, events.TypeImported, events.TypeReceived)
}

func Fold(history []events.Event, id types.ReviewRequestID) State {
	if len(events.Apply(Filter(id), history)) > 0 {
		return HasBeenImported{}
	}
	return NotImported{}
}

func Decide(state State, command Command) (fn.Option[events.Event], error) {
	switch state.(type) {
	case NotImported:
		return commands.Emit(events.Imported{
			ReviewRequestID: command.ReviewRequestID,
			PublishedAt:     command.PublishedAt,
			PreprintID:      command.PreprintID,
			Requester:       command.Requester,
		})
	case HasBeenImported:
		return commands.Nothing()
	default:
		return commands.Fail(fmt.Errorf("unexpected import state %T", state))
	}
}

// Execute imports a review request for a PREreviewer.
func Execute(ctx context.Context, log events.Log, command Command) error {
	return commands.Handle(ctx, log, Filter(command.ReviewRequestID),
		func(history []events.Event) State { return Fold(history, command.ReviewRequestID) },
		Decide, command)
}
