package commands

import (
	"context"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// Decider is a pure decision function. None means the command is already
// satisfied.
type Decider[S, C any] func(state S, command C) (fn.Option[events.Event], error)

// Handle rehydrates the state from the log, decides the command and appends
// the resulting event, if any. Log failures are reported as
// UnableToHandleCommandError; decision errors are returned unchanged.
func Handle[S, C any](
	ctx context.Context,
	log events.Log,
	filter events.Filter,
	fold func([]events.Event) S,
	decide Decider[S, C],
	command C,
) error {
	history, err := log.Read(ctx, filter)
	if err != nil {
		return &types.UnableToHandleCommandError{Cause: err}
	}

	next, err := decide(fold(history), command)
	if err != nil {
		return err
	}

	var appendErr error
	next.WhenSome(func(event events.Event) {
		slog.DebugContext(ctx, "recording event",
			"review_request_id", string(event.AggregateID()),
			"event_type", string(event.Type()),
		)
		appendErr = log.Append(ctx, event)
	})
	if appendErr != nil {
		return &types.UnableToHandleCommandError{Cause: appendErr}
	}
	return nil
}

// Emit is a convenience for deciders returning a new event.
func Emit(event events.Event) (fn.Option[events.Event], error) {
	return fn.Some(event), nil
}

// Nothing is a convenience for deciders whose command is already satisfied.
func Nothing() (fn.Option[events.Event], error) {
	return fn.None[events.Event](), nil
}

// Fail is a convenience for deciders rejecting a command.
func Fail(err error) (fn.Option[events.Event], error) {
	return fn.None[events.Event](), err
}
