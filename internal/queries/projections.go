package queries

import (
	"slices"
	"time"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// RecentLimit is the number of entries returned by
// GetFiveMostRecentReviewRequests.
const RecentLimit = 5

type RecentReviewRequest struct {
	ID         types.ReviewRequestID `json:"id"`
	Published  time.Time             `json:"published"`
	Topics     []string              `json:"topics"`
	PreprintID types.PreprintID      `json:"preprint_id"`
}

type PublishedReviewRequest struct {
	Author     *types.Requester      `json:"author,omitempty"`
	PreprintID types.PreprintID      `json:"preprint_id"`
	ID         types.ReviewRequestID `json:"id"`
	Published  time.Time             `json:"published"`
}

type ReceivedReviewRequest struct {
	ID         types.ReviewRequestID         `json:"id"`
	PreprintID types.IndeterminatePreprintID `json:"preprint_id"`
	Requester  *types.Requester              `json:"requester,omitempty"`
	ReceivedAt time.Time                     `json:"received_at"`
}

// DoesAPreprintHaveAReviewRequest reports whether any accepted or imported
// review request targets the preprint.
func DoesAPreprintHaveAReviewRequest(history []events.Event, preprint types.PreprintID) bool {
	for _, event := range history {
		switch e := event.(type) {
		case events.Accepted:
			if e.PreprintID == preprint {
				return true
			}
		case events.Imported:
			if e.PreprintID == preprint {
				return true
			}
		}
	}
	return false
}

// FindReviewRequestsNeedingCategorization returns the accepted or imported
// review requests with no categorization after their latest acceptance or
// import, in order of first appearance.
func FindReviewRequestsNeedingCategorization(history []events.Event) []types.ReviewRequestID {
	var order []types.ReviewRequestID
	pending := make(map[types.ReviewRequestID]bool)

	for _, event := range history {
		id := event.AggregateID()
		switch event.(type) {
		case events.Accepted, events.Imported:
			if _, seen := pending[id]; !seen {
				order = append(order, id)
			}
			pending[id] = true
		case events.Categorized:
			if _, seen := pending[id]; seen {
				pending[id] = false
			}
		}
	}

	out := make([]types.ReviewRequestID, 0, len(order))
	for _, id := range order {
		if pending[id] {
			out = append(out, id)
		}
	}
	return out
}

// GetFiveMostRecentReviewRequests returns the most recently published review
// requests that have been both accepted (or imported) and categorized,
// newest first. Equal timestamps keep log order.
func GetFiveMostRecentReviewRequests(history []events.Event) []RecentReviewRequest {
	type entry struct {
		RecentReviewRequest
		position    int
		categorized bool
	}
	entries := make(map[types.ReviewRequestID]*entry)
	get := func(id types.ReviewRequestID) *entry {
		e, ok := entries[id]
		if !ok {
			e = &entry{RecentReviewRequest: RecentReviewRequest{ID: id}, position: -1}
			entries[id] = e
		}
		return e
	}

	for i, event := range history {
		switch e := event.(type) {
		case events.Accepted:
			r := get(e.ReviewRequestID)
			r.Published, r.PreprintID, r.position = e.AcceptedAt, e.PreprintID, i
		case events.Imported:
			r := get(e.ReviewRequestID)
			r.Published, r.PreprintID, r.position = e.PublishedAt, e.PreprintID, i
		case events.Categorized:
			r := get(e.ReviewRequestID)
			r.Topics, r.categorized = e.Topics, true
		}
	}

	eligible := make([]*entry, 0, len(entries))
	for _, e := range entries {
		if e.position >= 0 && e.categorized {
			eligible = append(eligible, e)
		}
	}
	slices.SortFunc(eligible, func(a, b *entry) int {
		if c := b.Published.Compare(a.Published); c != 0 {
			return c
		}
		return a.position - b.position
	})

	out := make([]RecentReviewRequest, 0, min(len(eligible), RecentLimit))
	for _, e := range eligible[:min(len(eligible), RecentLimit)] {
		out = append(out, e.RecentReviewRequest)
	}
	return out
}

// GetPublishedReviewRequest combines the latest receipt and acceptance of a
// review request. Both are required.
func GetPublishedReviewRequest(history []events.Event, id types.ReviewRequestID) (PublishedReviewRequest, error) {
	var (
		received *events.Received
		accepted *events.Accepted
	)
	for _, event := range history {
		if event.AggregateID() != id {
			continue
		}
		switch e := event.(type) {
		case events.Received:
			received = &e
		case events.Accepted:
			accepted = &e
		}
	}
	if received == nil || accepted == nil {
		return PublishedReviewRequest{}, types.ErrUnknownReviewRequest
	}

	author := accepted.Requester
	if author == nil {
		author = received.Requester
	}
	return PublishedReviewRequest{
		Author:     author,
		PreprintID: accepted.PreprintID,
		ID:         id,
		Published:  accepted.AcceptedAt,
	}, nil
}

// GetReceivedReviewRequest returns the latest receipt of a review request
// that is still awaiting a decision. A decision recorded after that receipt
// is reported as ErrReviewRequestHasBeenAccepted or
// ErrReviewRequestHasBeenRejected, acceptance taking precedence.
func GetReceivedReviewRequest(history []events.Event, id types.ReviewRequestID) (ReceivedReviewRequest, error) {
	var (
		received *events.Received
		accepted bool
		rejected bool
	)
	for _, event := range history {
		if event.AggregateID() != id {
			continue
		}
		switch e := event.(type) {
		case events.Received:
			received, accepted, rejected = &e, false, false
		case events.Accepted:
			accepted = received != nil
		case events.Rejected:
			rejected = received != nil
		}
	}

	switch {
	case received == nil:
		return ReceivedReviewRequest{}, types.ErrUnknownReviewRequest
	case accepted:
		return ReceivedReviewRequest{}, types.ErrReviewRequestHasBeenAccepted
	case rejected:
		return ReceivedReviewRequest{}, types.ErrReviewRequestHasBeenRejected
	}
	return ReceivedReviewRequest{
		ID:         id,
		PreprintID: received.PreprintID,
		Requester:  received.Requester,
		ReceivedAt: received.ReceivedAt,
	}, nil
}

// GetPreprintForReviewRequest returns the resolved preprint of the latest
// acceptance or import of a review request.
func GetPreprintForReviewRequest(history []events.Event, id types.ReviewRequestID) (types.PreprintID, error) {
	var (
		preprint types.PreprintID
		found    bool
	)
	for _, event := range history {
		if event.AggregateID() != id {
			continue
		}
		switch e := event.(type) {
		case events.Accepted:
			preprint, found = e.PreprintID, true
		case events.Imported:
			preprint, found = e.PreprintID, true
		}
	}
	if !found {
		return types.PreprintID{}, types.ErrUnknownReviewRequest
	}
	return preprint, nil
}

// FindReceivedReviewRequestsAwaitingDecision returns the review requests
// for which GetReceivedReviewRequest succeeds, in order of first receipt.
func FindReceivedReviewRequestsAwaitingDecision(history []events.Event) []types.ReviewRequestID {
	var order []types.ReviewRequestID
	awaiting := make(map[types.ReviewRequestID]bool)

	for _, event := range history {
		id := event.AggregateID()
		switch event.(type) {
		case events.Received:
			if _, seen := awaiting[id]; !seen {
				order = append(order, id)
			}
			awaiting[id] = true
		case events.Accepted, events.Rejected:
			if _, seen := awaiting[id]; seen {
				awaiting[id] = false
			}
		}
	}

	out := make([]types.ReviewRequestID, 0, len(order))
	for _, id := range order {
		if awaiting[id] {
			out = append(out, id)
		}
	}
	return out
}
