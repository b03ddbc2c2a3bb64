// Package categorize records language, keywords and topics of a review
// request.
package categorize

import (
	"context"
	"fmt"
	"slices"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/user/prereview/internal/commands"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

type Command struct {
	ReviewRequestID types.ReviewRequestID
	Language        string
	Keywords        []string
	Topics          []string
}

// State is NotCategorized or HasBeenCategorized.
type State interface{ isState() }

type NotCategorized struct{}

// HasBeenCategorized carries the latest categorization.
type HasBeenCategorized struct {
	Language string
	Keywords []string
	Topics   []string
}

func (NotCategorized) isState()     {}
func (HasBeenCategorized) isState() {}

func Filter(id types.ReviewRequestID) events.Filter {
	return events.ForReviewRequest(id, events.TypeCategorized)
}

func Fold(history []events.Event, id types.ReviewRequestID) State {
	scoped := events.Apply(Filter(id), history)
	if len(scoped) == 0 {
		return NotCategorized{}
	}
	last, ok := scoped[len(scoped)-1].(events.Categorized)
	if !ok {
		return NotCategorized{}
	}
	return HasBeenCategorized{Language: last.Language, Keywords: last.Keywords, Topics: last.Topics}
}

// Decide records a categorization unless the latest one is identical.
func Decide(state State, command Command) (fn.Option[events.Event], error) {
	next := events.Categorized{
		ReviewRequestID: command.ReviewRequestID,
		Language:        command.Language,
		Keywords:        command.Keywords,
		Topics:          command.Topics,
	}
	switch s := state.(type) {
	case NotCategorized:
		return commands.Emit(next)
	case HasBeenCategorized:
		if s.Language == command.Language &&
			slices.Equal(s.Keywords, command.Keywords) &&
			slices.Equal(s.Topics, command.Topics) {
			return commands.Nothing()
		}
		return commands.Emit(next)
	default:
		return commands.Fail(fmt.Errorf("unexpected categorize state %T", state))
	}
}

func Execute(ctx context.Context, log events.Log, command Command) error {
	return commands.Handle(ctx, log, Filter(command.ReviewRequestID),
		func(history []events.Event) State { return Fold(history, command.ReviewRequestID) },
		Decide, command)
}
