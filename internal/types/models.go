// internal/types/models.go
package types

import (
	"encoding/json"
	"time"
)

// Event is the persisted envelope of a domain event. Seq is the position in
// the log's total order and is assigned by the store on append.
type Event struct {
	ID              EventID         `json:"id"`
	Seq             int64           `json:"seq"`
	Type            string          `json:"type"`
	ReviewRequestID ReviewRequestID `json:"review_request_id,omitempty"`
	At              time.Time       `json:"at"`
	Payload         json.RawMessage `json:"payload"`
}

// PreprintID identifies a preprint on a known server. Two ids denote the same
// preprint iff they are equal as values.
type PreprintID struct {
	Server string `json:"server"`
	Value  string `json:"value"`
}

func (p PreprintID) String() string {
	return p.Server + ":" + p.Value
}

// IsZero reports whether the id is unset.
func (p PreprintID) IsZero() bool {
	return p == PreprintID{}
}

// IndeterminatePreprintID is a preprint reference as it arrived from a
// requester: a DOI or URL that may or may not point to a known preprint.
type IndeterminatePreprintID struct {
	Server string `json:"server,omitempty"`
	Value  string `json:"value"`
}

func (p IndeterminatePreprintID) String() string {
	if p.Server == "" {
		return p.Value
	}
	return p.Server + ":" + p.Value
}

type Requester struct {
	Name  string `json:"name,omitempty"`
	ORCID string `json:"orcid,omitempty"`
}

// Preprint is the display metadata of a resolved preprint. Title and
// Abstract are markdown.
type Preprint struct {
	ID       PreprintID `json:"id"`
	Title    string     `json:"title"`
	Abstract string     `json:"abstract,omitempty"`
	Language string     `json:"language,omitempty"`
	Authors  []string   `json:"authors,omitempty"`
	URL      string     `json:"url"`
}

// CommunitySlackMessage locates a message posted to the community Slack.
type CommunitySlackMessage struct {
	ChannelID        string `json:"channel_id"`
	MessageTimestamp string `json:"message_timestamp"`
}
