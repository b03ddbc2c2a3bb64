package events

import (
	"slices"

	"github.com/user/prereview/internal/types"
)

// Field names understood by Filter predicates.
const (
	FieldReviewRequestID = "review_request_id"
	FieldPreprintID      = "preprint_id"
)

// Filter selects events by type and by field equality. An empty Types list
// matches every type; every predicate must hold for an event to match.
type Filter struct {
	Types      []Type
	Predicates map[string]string
}

// ForReviewRequest returns a filter for the given event types of one review
// request.
func ForReviewRequest(id types.ReviewRequestID, eventTypes ...Type) Filter {
	return Filter{
		Types:      eventTypes,
		Predicates: map[string]string{FieldReviewRequestID: string(id)},
	}
}

// OfTypes returns a filter for the given event types across all review
// requests.
func OfTypes(eventTypes ...Type) Filter {
	return Filter{Types: eventTypes}
}

// Matches reports whether the event satisfies the filter.
func (f Filter) Matches(event Event) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, event.Type()) {
		return false
	}
	for field, want := range f.Predicates {
		got, ok := fieldValue(event, field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ReviewRequestID returns the review request the filter is scoped to, if any.
// Stores use it to push the predicate down.
func (f Filter) ReviewRequestID() (types.ReviewRequestID, bool) {
	id, ok := f.Predicates[FieldReviewRequestID]
	return types.ReviewRequestID(id), ok
}

// Apply returns the events matching the filter, preserving log order.
func Apply(f Filter, history []Event) []Event {
	matched := make([]Event, 0, len(history))
	for _, event := range history {
		if f.Matches(event) {
			matched = append(matched, event)
		}
	}
	return matched
}

func fieldValue(event Event, field string) (string, bool) {
	switch field {
	case FieldReviewRequestID:
		return string(event.AggregateID()), true
	case FieldPreprintID:
		switch e := event.(type) {
		case Received:
			return e.PreprintID.String(), true
		case Imported:
			return e.PreprintID.String(), true
		case Accepted:
			return e.PreprintID.String(), true
		}
	}
	return "", false
}
