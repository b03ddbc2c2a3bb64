package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/prereview/internal/types"
)

// Encode wraps a domain event in a persistable envelope. The store assigns
// Seq on append.
func Encode(event Event, at time.Time) (*types.Event, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.Type(), err)
	}
	return &types.Event{
		ID:              types.NewEventID(),
		Type:            string(event.Type()),
		ReviewRequestID: event.AggregateID(),
		At:              at,
		Payload:         payload,
	}, nil
}

// Decode turns an envelope back into its domain event.
func Decode(envelope *types.Event) (Event, error) {
	switch Type(envelope.Type) {
	case TypeReceived:
		return decodeAs[Received](envelope)
	case TypeImported:
		return decodeAs[Imported](envelope)
	case TypeAccepted:
		return decodeAs[Accepted](envelope)
	case TypeRejected:
		return decodeAs[Rejected](envelope)
	case TypeCategorized:
		return decodeAs[Categorized](envelope)
	case TypeSharedOnCommunitySlack:
		return decodeAs[SharedOnCommunitySlack](envelope)
	default:
		return nil, fmt.Errorf("unknown event type %q", envelope.Type)
	}
}

func decodeAs[E Event](envelope *types.Event) (Event, error) {
	var event E
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal %s (seq %d): %w", envelope.Type, envelope.Seq, err)
	}
	return event, nil
}
