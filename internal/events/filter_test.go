package events_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/events/eventstest"
	"github.com/user/prereview/internal/types"
)

func TestFilterMatchesTypeAndAggregate(t *testing.T) {
	id := types.ReviewRequestID("a")
	other := types.ReviewRequestID("b")
	filter := events.ForReviewRequest(id, events.TypeAccepted, events.TypeRejected)

	require.True(t, filter.Matches(events.Accepted{ReviewRequestID: id}))
	require.True(t, filter.Matches(events.Rejected{ReviewRequestID: id}))
	require.False(t, filter.Matches(events.Received{ReviewRequestID: id}))
	require.False(t, filter.Matches(events.Accepted{ReviewRequestID: other}))

	scoped, ok := filter.ReviewRequestID()
	require.True(t, ok)
	require.Equal(t, id, scoped)
}

func TestFilterWithoutTypesMatchesEveryType(t *testing.T) {
	filter := events.Filter{}
	for _, event := range []events.Event{
		events.Received{}, events.Imported{}, events.Accepted{},
		events.Rejected{}, events.Categorized{}, events.SharedOnCommunitySlack{},
	} {
		require.True(t, filter.Matches(event), "%T", event)
	}

	_, ok := filter.ReviewRequestID()
	require.False(t, ok)
}

func TestFilterPreprintPredicate(t *testing.T) {
	preprint := types.PreprintID{Server: "biorxiv", Value: "10.1101/1234"}
	filter := events.Filter{
		Predicates: map[string]string{events.FieldPreprintID: preprint.String()},
	}

	require.True(t, filter.Matches(events.Accepted{PreprintID: preprint}))
	require.True(t, filter.Matches(events.Imported{PreprintID: preprint}))
	require.False(t, filter.Matches(events.Accepted{PreprintID: types.PreprintID{Server: "arxiv", Value: "10.1101/1234"}}))
	require.False(t, filter.Matches(events.Rejected{}))
}

// An event of another review request never passes a scoped filter, so
// adding or removing such events leaves the filtered history unchanged.
func TestFilterIgnoresOtherAggregates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		history := eventstest.History(3).Draw(t, "history")
		id := eventstest.ReviewRequestID(3).Draw(t, "id")
		filter := events.ForReviewRequest(id, events.AllTypes...)

		scoped := events.Apply(filter, history)
		for _, event := range scoped {
			if event.AggregateID() != id {
				t.Fatalf("filter for %s let through %T of %s", id, event, event.AggregateID())
			}
		}

		var own []events.Event
		for _, event := range history {
			if event.AggregateID() == id {
				own = append(own, event)
			}
		}
		if len(own) != len(scoped) {
			t.Fatalf("expected %d events, got %d", len(own), len(scoped))
		}
	})
}
