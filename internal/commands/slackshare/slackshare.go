// Package slackshare records that a review request was announced on the
// community Slack.
package slackshare

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/user/prereview/internal/commands"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

type Command struct {
	ReviewRequestID  types.ReviewRequestID
	ChannelID        string
	MessageTimestamp string
}

// State is NotShared or HasBeenShared.
type State interface{ isState() }

type NotShared struct{}

// HasBeenShared carries the message of the latest share.
type HasBeenShared struct {
	ChannelID        string
	MessageTimestamp string
}

func (NotShared) isState()     {}
func (HasBeenShared) isState() {}

func Filter(id types.ReviewRequestID) events.Filter {
	return events.ForReviewRequest(id, events.TypeSharedOnCommunitySlack)
}

func Fold(history []events.Event, id types.ReviewRequestID) State {
	scoped := events.Apply(Filter(id), history)
	if len(scoped) == 0 {
		return NotShared{}
	}
	last, ok := scoped[len(scoped)-1].(events.SharedOnCommunitySlack)
	if !ok {
		return NotShared{}
	}
	return HasBeenShared{ChannelID: last.ChannelID, MessageTimestamp: last.MessageTimestamp}
}

// Decide records the share. Repeating it with the same message is a no-op;
// a different message is a conflict.
func Decide(state State, command Command) (fn.Option[events.Event], error) {
	switch s := state.(type) {
	case NotShared:
		return commands.Emit(events.SharedOnCommunitySlack{
			ReviewRequestID:  command.ReviewRequestID,
			ChannelID:        command.ChannelID,
			MessageTimestamp: command.MessageTimestamp,
		})
	case HasBeenShared:
		if s.ChannelID == command.ChannelID && s.MessageTimestamp == command.MessageTimestamp {
			return commands.Nothing()
		}
		return commands.Fail(types.ErrReviewRequestWasAlreadySharedOnTheCommunitySlack)
	default:
		return commands.Fail(fmt.Errorf("unexpected share state %T", state))
	}
}

func Execute(ctx context.Context, log events.Log, command Command) error {
	return commands.Handle(ctx, log, Filter(command.ReviewRequestID),
		func(history []events.Event) State { return Fold(history, command.ReviewRequestID) },
		Decide, command)
}
