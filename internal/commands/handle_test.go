package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"

	"github.com/user/prereview/internal/commands"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/state"
	"github.com/user/prereview/internal/types"
)

func countFold(history []events.Event) int { return len(history) }

func TestHandleAppendsDecidedEvent(t *testing.T) {
	log := state.NewMemoryLog()
	id := types.NewReviewRequestID()

	decide := func(n int, _ struct{}) (fn.Option[events.Event], error) {
		if n > 0 {
			return commands.Nothing()
		}
		return commands.Emit(events.Received{ReviewRequestID: id})
	}

	for i := 0; i < 3; i++ {
		err := commands.Handle(context.Background(), log, events.ForReviewRequest(id), countFold, decide, struct{}{})
		require.NoError(t, err)
	}
	require.Len(t, log.Events(), 1)
}

func TestHandleReturnsDecisionErrorsUnchanged(t *testing.T) {
	log := state.NewMemoryLog()
	decide := func(int, struct{}) (fn.Option[events.Event], error) {
		return commands.Fail(types.ErrUnknownReviewRequest)
	}

	err := commands.Handle(context.Background(), log, events.Filter{}, countFold, decide, struct{}{})
	require.ErrorIs(t, err, types.ErrUnknownReviewRequest)

	var infra *types.UnableToHandleCommandError
	require.False(t, errors.As(err, &infra))
	require.Empty(t, log.Events())
}

func TestHandleWrapsLogFailures(t *testing.T) {
	emit := func(int, struct{}) (fn.Option[events.Event], error) {
		return commands.Emit(events.Received{ReviewRequestID: "x"})
	}

	readFailure := state.NewMemoryLog()
	readFailure.FailRead = errors.New("disk on fire")
	err := commands.Handle(context.Background(), readFailure, events.Filter{}, countFold, emit, struct{}{})
	var infra *types.UnableToHandleCommandError
	require.ErrorAs(t, err, &infra)

	appendFailure := state.NewMemoryLog()
	appendFailure.FailAppend = errors.New("read-only filesystem")
	err = commands.Handle(context.Background(), appendFailure, events.Filter{}, countFold, emit, struct{}{})
	require.ErrorAs(t, err, &infra)
	var storeErr *types.StoreError
	require.ErrorAs(t, err, &storeErr)
}
