package categorize

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/queries"
	"github.com/user/prereview/internal/state"
	"github.com/user/prereview/internal/types"
)

type fakePreprints struct {
	missing map[types.PreprintID]bool
}

func (f *fakePreprints) GetPreprint(_ context.Context, id types.PreprintID) (*types.Preprint, error) {
	if f.missing[id] {
		return nil, types.ErrPreprintIsNotFound
	}
	return &types.Preprint{ID: id, Title: "Title of " + id.Value}, nil
}

type fakeClassifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeClassifier) Categorize(_ context.Context, preprint *types.Preprint) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return Result{Language: "en", Keywords: []string{"k"}, Topics: []string{preprint.ID.Server}}, nil
}

func TestSweepCategorizesPendingRequests(t *testing.T) {
	ctx := context.Background()
	a, b, c := types.NewReviewRequestID(), types.NewReviewRequestID(), types.NewReviewRequestID()
	pa := types.PreprintID{Server: "biorxiv", Value: "10.1101/a"}
	pb := types.PreprintID{Server: "arxiv", Value: "10.48550/b"}
	log := state.NewMemoryLog(
		events.Accepted{ReviewRequestID: a, PreprintID: pa},
		events.Imported{ReviewRequestID: b, PreprintID: pb},
		events.Received{ReviewRequestID: c},
	)
	classifier := &fakeClassifier{}

	sweep := NewSweep(log, &fakePreprints{}, classifier, 2)
	require.NoError(t, sweep.Run(ctx))
	require.Equal(t, 2, classifier.calls)

	pending, err := queries.NewService(log).FindReviewRequestsNeedingCategorization(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	// Nothing left to do.
	require.NoError(t, sweep.Run(ctx))
	require.Equal(t, 2, classifier.calls)
}

func TestSweepKeepsGoingAfterFailure(t *testing.T) {
	ctx := context.Background()
	a, b := types.NewReviewRequestID(), types.NewReviewRequestID()
	gone := types.PreprintID{Server: "biorxiv", Value: "10.1101/gone"}
	log := state.NewMemoryLog(
		events.Accepted{ReviewRequestID: a, PreprintID: gone},
		events.Accepted{ReviewRequestID: b, PreprintID: types.PreprintID{Server: "biorxiv", Value: "10.1101/ok"}},
	)

	sweep := NewSweep(log, &fakePreprints{missing: map[types.PreprintID]bool{gone: true}}, &fakeClassifier{}, 1)
	err := sweep.Run(ctx)
	require.ErrorIs(t, err, types.ErrPreprintIsNotFound)

	pending, err := queries.NewService(log).FindReviewRequestsNeedingCategorization(ctx)
	require.NoError(t, err)
	require.Equal(t, []types.ReviewRequestID{a}, pending)
}

func TestSweepReadFailure(t *testing.T) {
	log := state.NewMemoryLog()
	log.FailRead = errors.New("io error")

	err := NewSweep(log, &fakePreprints{}, &fakeClassifier{}, 1).Run(context.Background())
	var queryErr *types.UnableToQueryError
	require.ErrorAs(t, err, &queryErr)
}
