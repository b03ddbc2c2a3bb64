// internal/types/ids.go
package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type ReviewRequestID string
type EventID string
type RunID string

func NewReviewRequestID() ReviewRequestID {
	return ReviewRequestID(uuid.New().String())
}

func NewEventID() EventID {
	return EventID(uuid.New().String())
}

func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// ParseReviewRequestID accepts a bare UUID or a "urn:uuid:" URN and returns
// the canonical lower-case form.
func ParseReviewRequestID(s string) (ReviewRequestID, error) {
	id, err := uuid.Parse(strings.TrimPrefix(strings.TrimSpace(s), "urn:uuid:"))
	if err != nil {
		return "", fmt.Errorf("parse review request id %q: %w", s, err)
	}
	return ReviewRequestID(id.String()), nil
}
