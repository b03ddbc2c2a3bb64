package queries

import (
	"context"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

// Service runs the projections against an event log.
type Service struct {
	log events.Log
}

func NewService(log events.Log) *Service {
	return &Service{log: log}
}

func (s *Service) read(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	history, err := s.log.Read(ctx, filter)
	if err != nil {
		return nil, &types.UnableToQueryError{Cause: err}
	}
	return history, nil
}

func (s *Service) DoesAPreprintHaveAReviewRequest(ctx context.Context, preprint types.PreprintID) (bool, error) {
	filter := events.OfTypes(events.TypeAccepted, events.TypeImported)
	filter.Predicates = map[string]string{events.FieldPreprintID: preprint.String()}

	history, err := s.read(ctx, filter)
	if err != nil {
		return false, err
	}
	return DoesAPreprintHaveAReviewRequest(history, preprint), nil
}

func (s *Service) FindReviewRequestsNeedingCategorization(ctx context.Context) ([]types.ReviewRequestID, error) {
	history, err := s.read(ctx, events.OfTypes(events.TypeAccepted, events.TypeImported, events.TypeCategorized))
	if err != nil {
		return nil, err
	}
	return FindReviewRequestsNeedingCategorization(history), nil
}

func (s *Service) GetFiveMostRecentReviewRequests(ctx context.Context) ([]RecentReviewRequest, error) {
	history, err := s.read(ctx, events.OfTypes(events.TypeAccepted, events.TypeImported, events.TypeCategorized))
	if err != nil {
		return nil, err
	}
	return GetFiveMostRecentReviewRequests(history), nil
}

func (s *Service) GetPublishedReviewRequest(ctx context.Context, id types.ReviewRequestID) (PublishedReviewRequest, error) {
	history, err := s.read(ctx, events.ForReviewRequest(id, events.TypeReceived, events.TypeAccepted))
	if err != nil {
		return PublishedReviewRequest{}, err
	}
	return GetPublishedReviewRequest(history, id)
}

func (s *Service) GetReceivedReviewRequest(ctx context.Context, id types.ReviewRequestID) (ReceivedReviewRequest, error) {
	history, err := s.read(ctx, events.ForReviewRequest(id, events.TypeReceived, events.TypeAccepted, events.TypeRejected))
	if err != nil {
		return ReceivedReviewRequest{}, err
	}
	return GetReceivedReviewRequest(history, id)
}

func (s *Service) GetPreprintForReviewRequest(ctx context.Context, id types.ReviewRequestID) (types.PreprintID, error) {
	history, err := s.read(ctx, events.ForReviewRequest(id, events.TypeAccepted, events.TypeImported))
	if err != nil {
		return types.PreprintID{}, err
	}
	return GetPreprintForReviewRequest(history, id)
}

func (s *Service) FindReceivedReviewRequestsAwaitingDecision(ctx context.Context) ([]types.ReviewRequestID, error) {
	history, err := s.read(ctx, events.OfTypes(events.TypeReceived, events.TypeAccepted, events.TypeRejected))
	if err != nil {
		return nil, err
	}
	return FindReceivedReviewRequestsAwaitingDecision(history), nil
}
