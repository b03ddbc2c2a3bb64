package accept

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/events/eventstest"
	"github.com/user/prereview/internal/state"
	"github.com/user/prereview/internal/types"
)

func TestFold(t *testing.T) {
	id := types.NewReviewRequestID()

	tests := []struct {
		name    string
		history []events.Event
		want    State
	}{
		{name: "empty", want: NotAccepted{}},
		{name: "received only", history: []events.Event{events.Received{ReviewRequestID: id}}, want: NotAccepted{}},
		{name: "accepted", history: []events.Event{events.Accepted{ReviewRequestID: id}}, want: HasBeenAccepted{}},
		{name: "rejected", history: []events.Event{events.Rejected{ReviewRequestID: id}}, want: HasBeenRejected{}},
		{
			name: "latest wins",
			history: []events.Event{
				events.Accepted{ReviewRequestID: id},
				events.Rejected{ReviewRequestID: id},
			},
			want: HasBeenRejected{},
		},
		{
			name:    "other aggregate",
			history: []events.Event{events.Accepted{ReviewRequestID: types.NewReviewRequestID()}},
			want:    NotAccepted{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Fold(tc.history, id))
		})
	}
}

func TestDecide(t *testing.T) {
	command := Command{
		ReviewRequestID: types.NewReviewRequestID(),
		AcceptedAt:      time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		PreprintID:      types.PreprintID{Server: "biorxiv", Value: "10.1101/2024.05.01.591234"},
	}

	next, err := Decide(NotAccepted{}, command)
	require.NoError(t, err)
	require.Equal(t, events.Accepted{
		ReviewRequestID: command.ReviewRequestID,
		AcceptedAt:      command.AcceptedAt,
		PreprintID:      command.PreprintID,
	}, next.UnwrapOr(nil))

	next, err = Decide(HasBeenAccepted{}, command)
	require.NoError(t, err)
	require.True(t, next.IsNone())

	next, err = Decide(HasBeenRejected{}, command)
	require.ErrorIs(t, err, types.ErrReviewRequestHasBeenRejected)
	require.True(t, next.IsNone())
}

func TestExecuteWithoutPriorReceive(t *testing.T) {
	log := state.NewMemoryLog()
	command := Command{ReviewRequestID: types.NewReviewRequestID(), AcceptedAt: time.Now().UTC()}

	require.NoError(t, Execute(context.Background(), log, command))
	require.NoError(t, Execute(context.Background(), log, command))
	require.Len(t, log.Events(), 1)
}

func TestExecuteAfterRejectFails(t *testing.T) {
	id := types.NewReviewRequestID()
	log := state.NewMemoryLog(
		events.Received{ReviewRequestID: id},
		events.Rejected{ReviewRequestID: id, Reason: events.ReasonNotAPreprint},
	)

	err := Execute(context.Background(), log, Command{ReviewRequestID: id})
	require.ErrorIs(t, err, types.ErrReviewRequestHasBeenRejected)
	require.Len(t, log.Events(), 2)
}

func TestFoldIgnoresOtherAggregates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		history := eventstest.History(3).Draw(t, "history")
		id := eventstest.ReviewRequestID(3).Draw(t, "id")
		other := eventstest.ReviewRequestID(3).Draw(t, "other")
		if id == other {
			return
		}
		if Fold(history, id) != Fold(eventstest.WithoutAggregate(history, other), id) {
			t.Fatalf("events of %s changed the state of %s", other, id)
		}
	})
}
