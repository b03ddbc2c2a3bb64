package events

import (
	"time"

	"github.com/user/prereview/internal/types"
)

// Type is the persisted tag of a domain event.
type Type string

const (
	TypeReceived               Type = "ReviewRequestWasReceived"
	TypeImported               Type = "ReviewRequestForAPreprintWasImported"
	TypeAccepted               Type = "ReviewRequestWasAccepted"
	TypeRejected               Type = "ReviewRequestWasRejected"
	TypeCategorized            Type = "ReviewRequestWasCategorized"
	TypeSharedOnCommunitySlack Type = "ReviewRequestWasSharedOnTheCommunitySlack"
)

// AllTypes lists every known event type in declaration order.
var AllTypes = []Type{
	TypeReceived,
	TypeImported,
	TypeAccepted,
	TypeRejected,
	TypeCategorized,
	TypeSharedOnCommunitySlack,
}

// Event is the sealed interface of all review request events.
type Event interface {
	// Type returns the persisted tag of the event.
	Type() Type

	// AggregateID returns the review request the event belongs to.
	AggregateID() types.ReviewRequestID

	// isEvent seals the interface.
	isEvent()
}

// Compile-time verification that all event kinds implement Event.
var (
	_ Event = Received{}
	_ Event = Imported{}
	_ Event = Accepted{}
	_ Event = Rejected{}
	_ Event = Categorized{}
	_ Event = SharedOnCommunitySlack{}
)

// RejectionReason is the closed set of reasons a received request can be
// rejected for.
type RejectionReason string

const (
	ReasonNotAPreprint    RejectionReason = "not-a-preprint"
	ReasonUnknownPreprint RejectionReason = "unknown-preprint"
)

// Received records that a review request arrived from an external source.
type Received struct {
	ReviewRequestID types.ReviewRequestID         `json:"review_request_id"`
	ReceivedAt      time.Time                     `json:"received_at"`
	PreprintID      types.IndeterminatePreprintID `json:"preprint_id"`
	Requester       *types.Requester              `json:"requester,omitempty"`
	ReceivedFrom    string                        `json:"received_from,omitempty"`
}

// Imported records a review request imported directly by a PREreviewer,
// bypassing the receive step.
type Imported struct {
	ReviewRequestID types.ReviewRequestID `json:"review_request_id"`
	PublishedAt     time.Time             `json:"published_at"`
	PreprintID      types.PreprintID      `json:"preprint_id"`
	Requester       *types.Requester      `json:"requester,omitempty"`
}

// Accepted records that a review request was accepted into the system. The
// preprint id is the resolved one.
type Accepted struct {
	ReviewRequestID types.ReviewRequestID `json:"review_request_id"`
	AcceptedAt      time.Time             `json:"accepted_at"`
	PreprintID      types.PreprintID      `json:"preprint_id"`
	Requester       *types.Requester      `json:"requester,omitempty"`
}

// Rejected records that a received review request was turned away.
type Rejected struct {
	ReviewRequestID types.ReviewRequestID `json:"review_request_id"`
	RejectedAt      time.Time             `json:"rejected_at"`
	Reason          RejectionReason       `json:"reason"`
}

// Categorized records the language, keywords and topics assigned to a
// review request. A later one replaces an earlier one.
type Categorized struct {
	ReviewRequestID types.ReviewRequestID `json:"review_request_id"`
	Language        string                `json:"language,omitempty"`
	Keywords        []string              `json:"keywords"`
	Topics          []string              `json:"topics"`
}

// SharedOnCommunitySlack records the Slack message announcing a review
// request to the community.
type SharedOnCommunitySlack struct {
	ReviewRequestID  types.ReviewRequestID `json:"review_request_id"`
	ChannelID        string                `json:"channel_id"`
	MessageTimestamp string                `json:"message_timestamp"`
}

func (Received) Type() Type               { return TypeReceived }
func (Imported) Type() Type               { return TypeImported }
func (Accepted) Type() Type               { return TypeAccepted }
func (Rejected) Type() Type               { return TypeRejected }
func (Categorized) Type() Type            { return TypeCategorized }
func (SharedOnCommunitySlack) Type() Type { return TypeSharedOnCommunitySlack }

func (e Received) AggregateID() types.ReviewRequestID               { return e.ReviewRequestID }
func (e Imported) AggregateID() types.ReviewRequestID               { return e.ReviewRequestID }
func (e Accepted) AggregateID() types.ReviewRequestID               { return e.ReviewRequestID }
func (e Rejected) AggregateID() types.ReviewRequestID               { return e.ReviewRequestID }
func (e Categorized) AggregateID() types.ReviewRequestID            { return e.ReviewRequestID }
func (e SharedOnCommunitySlack) AggregateID() types.ReviewRequestID { return e.ReviewRequestID }

func (Received) isEvent()               {}
func (Imported) isEvent()               {}
func (Accepted) isEvent()               {}
func (Rejected) isEvent()               {}
func (Categorized) isEvent()            {}
func (SharedOnCommunitySlack) isEvent() {}
