// Package eventstest provides rapid generators for review request events.
package eventstest

import (
	"time"

	"pgregory.net/rapid"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ReviewRequestID draws one of n fixed ids so that generated histories
// interleave several aggregates.
func ReviewRequestID(n int) *rapid.Generator[types.ReviewRequestID] {
	n = min(n, len(aggregateIDs))
	return rapid.Custom(func(t *rapid.T) types.ReviewRequestID {
		i := rapid.IntRange(0, n-1).Draw(t, "aggregate")
		return types.ReviewRequestID(aggregateIDs[i])
	})
}

var aggregateIDs = []string{
	"4e1f0c4a-0000-4000-8000-000000000001",
	"4e1f0c4a-0000-4000-8000-000000000002",
	"4e1f0c4a-0000-4000-8000-000000000003",
	"4e1f0c4a-0000-4000-8000-000000000004",
}

func Time() *rapid.Generator[time.Time] {
	return rapid.Custom(func(t *rapid.T) time.Time {
		return epoch.Add(time.Duration(rapid.IntRange(0, 10_000).Draw(t, "minutes")) * time.Minute)
	})
}

func PreprintID() *rapid.Generator[types.PreprintID] {
	return rapid.Custom(func(t *rapid.T) types.PreprintID {
		return types.PreprintID{
			Server: rapid.SampledFrom([]string{"biorxiv", "medrxiv", "arxiv"}).Draw(t, "server"),
			Value:  "10.1101/" + rapid.StringMatching(`[0-9]{4}`).Draw(t, "suffix"),
		}
	})
}

// Event draws any event kind for one of the first n aggregates.
func Event(n int) *rapid.Generator[events.Event] {
	return rapid.Custom(func(t *rapid.T) events.Event {
		id := ReviewRequestID(n).Draw(t, "review_request_id")
		switch rapid.SampledFrom(events.AllTypes).Draw(t, "type") {
		case events.TypeReceived:
			return events.Received{
				ReviewRequestID: id,
				ReceivedAt:      Time().Draw(t, "received_at"),
				PreprintID:      types.IndeterminatePreprintID{Value: PreprintID().Draw(t, "preprint").Value},
			}
		case events.TypeImported:
			return events.Imported{
				ReviewRequestID: id,
				PublishedAt:     Time().Draw(t, "published_at"),
				PreprintID:      PreprintID().Draw(t, "preprint"),
			}
		case events.TypeAccepted:
			return events.Accepted{
				ReviewRequestID: id,
				AcceptedAt:      Time().Draw(t, "accepted_at"),
				PreprintID:      PreprintID().Draw(t, "preprint"),
			}
		case events.TypeRejected:
			return events.Rejected{
				ReviewRequestID: id,
				RejectedAt:      Time().Draw(t, "rejected_at"),
				Reason:          rapid.SampledFrom([]events.RejectionReason{events.ReasonNotAPreprint, events.ReasonUnknownPreprint}).Draw(t, "reason"),
			}
		case events.TypeCategorized:
			return events.Categorized{
				ReviewRequestID: id,
				Language:        rapid.SampledFrom([]string{"en", "es", "pt"}).Draw(t, "language"),
				Keywords:        []string{rapid.StringMatching(`[a-z]{3,8}`).Draw(t, "keyword")},
				Topics:          []string{rapid.StringMatching(`T[0-9]{3}`).Draw(t, "topic")},
			}
		default:
			return events.SharedOnCommunitySlack{
				ReviewRequestID:  id,
				ChannelID:        rapid.SampledFrom([]string{"C01", "C02"}).Draw(t, "channel"),
				MessageTimestamp: rapid.SampledFrom([]string{"1700000000.000100", "1700000000.000200"}).Draw(t, "ts"),
			}
		}
	})
}

// History draws an interleaved history over the first n aggregates.
func History(n int) *rapid.Generator[[]events.Event] {
	return rapid.SliceOfN(Event(n), 0, 30)
}

// WithoutAggregate drops every event of the given review request.
func WithoutAggregate(history []events.Event, id types.ReviewRequestID) []events.Event {
	out := make([]events.Event, 0, len(history))
	for _, e := range history {
		if e.AggregateID() != id {
			out = append(out, e)
		}
	}
	return out
}

// ID returns the i-th fixed aggregate id used by the generators.
func ID(i int) types.ReviewRequestID {
	return types.ReviewRequestID(aggregateIDs[i])
}
