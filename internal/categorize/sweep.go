package categorize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	categorizecmd "github.com/user/prereview/internal/commands/categorize"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/queries"
	"github.com/user/prereview/internal/types"
)

// PreprintSource returns preprint metadata.
type PreprintSource interface {
	GetPreprint(ctx context.Context, id types.PreprintID) (*types.Preprint, error)
}

// Classifier categorizes a preprint.
type Classifier interface {
	Categorize(ctx context.Context, preprint *types.Preprint) (Result, error)
}

// Sweep categorizes every review request that needs it.
type Sweep struct {
	log         events.Log
	queries     *queries.Service
	preprints   PreprintSource
	classifier  Classifier
	concurrency int
}

func NewSweep(log events.Log, preprints PreprintSource, classifier Classifier, concurrency int) *Sweep {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Sweep{
		log:         log,
		queries:     queries.NewService(log),
		preprints:   preprints,
		classifier:  classifier,
		concurrency: concurrency,
	}
}

// Run categorizes the pending review requests. A failure for one request
// does not stop the others; all failures are returned joined.
func (s *Sweep) Run(ctx context.Context) error {
	ids, err := s.queries.FindReviewRequestsNeedingCategorization(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	slog.InfoContext(ctx, "categorizing review requests", "count", len(ids))

	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := s.One(gctx, id); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				slog.WarnContext(gctx, "categorization failed",
					"review_request_id", string(id),
					"error", err,
				)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(failures...)
}

// One categorizes a single review request.
func (s *Sweep) One(ctx context.Context, id types.ReviewRequestID) error {
	preprintID, err := s.queries.GetPreprintForReviewRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("review request %s: %w", id, err)
	}
	preprint, err := s.preprints.GetPreprint(ctx, preprintID)
	if err != nil {
		return fmt.Errorf("review request %s: %w", id, err)
	}
	result, err := s.classifier.Categorize(ctx, preprint)
	if err != nil {
		return fmt.Errorf("review request %s: %w", id, err)
	}

	return categorizecmd.Execute(ctx, s.log, categorizecmd.Command{
		ReviewRequestID: id,
		Language:        result.Language,
		Keywords:        result.Keywords,
		Topics:          result.Topics,
	})
}
