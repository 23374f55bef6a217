package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/pagination"
)

// EventPublisher emits review lifecycle events. Implemented by
// event.Publisher; publishing is best effort and failures never block the
// operation that triggered them.
type EventPublisher interface {
	ReviewApproved(ctx context.Context, review *domain.Review) error
	ReviewIngested(ctx context.Context, review *domain.Review) error
}

// StatsCache caches per-listing review statistics.
type StatsCache interface {
	Get(ctx context.Context, listingID int64) (*domain.ReviewStatistics, error)
	Set(ctx context.Context, listingID int64, stats *domain.ReviewStatistics) error
	Invalidate(ctx context.Context, listingID int64) error
}

// ReviewService implements the review management operations of the
// dashboard.
type ReviewService struct {
	reviews repository.ReviewRepository
	cache   StatsCache
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewReviewService creates a ReviewService. cache and events may be nil.
func NewReviewService(reviews repository.ReviewRepository, cache StatsCache, events EventPublisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		cache:   cache,
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of reviews plus a hasMore flag. The flag comes from
// a single-row probe at the next offset rather than a COUNT, so its cost
// stays constant as the table grows.
func (s *ReviewService) List(ctx context.Context, filter repository.ReviewFilter, page pagination.Params) ([]domain.Review, bool, error) {
	reviews, err := s.reviews.List(ctx, filter, page.Offset, page.Limit)
	if err != nil {
		return nil, false, err
	}

	for i := range reviews {
		s.repairRating(ctx, &reviews[i])
	}

	probe := page.Probe()
	next, err := s.reviews.List(ctx, filter, probe.Offset, probe.Limit)
	if err != nil {
		return nil, false, fmt.Errorf("probe next page: %w", err)
	}

	return reviews, len(next) > 0, nil
}

// repairRating backfills a missing overall rating from the category mean.
// The persisted value is deterministic, so a lost write just means the next
// read repairs again. Persistence failures are logged and the computed
// value is still served.
func (s *ReviewService) repairRating(ctx context.Context, review *domain.Review) {
	if !review.NeedsRatingRepair() {
		return
	}
	mean, ok := review.CategoryMean()
	if !ok {
		return
	}

	review.Rating = &mean
	if err := s.reviews.RepairRating(ctx, review.ID, mean); err != nil {
		s.logger.WarnContext(ctx, "failed to persist repaired rating",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Approve marks a review as published and returns it together with the
// recomputed statistics of its listing. Approving an already-published
// review succeeds and changes nothing.
func (s *ReviewService) Approve(ctx context.Context, id int64) (*domain.Review, *domain.ReviewStatistics, error) {
	review, err := s.reviews.Approve(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, review.ListingID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate stats cache",
				slog.Int64("listing_id", review.ListingID),
				slog.String("error", err.Error()),
			)
		}
	}

	stats, err := s.Stats(ctx, review.ListingID)
	if err != nil {
		return nil, nil, fmt.Errorf("recompute listing stats: %w", err)
	}

	if s.events != nil {
		if err := s.events.ReviewApproved(ctx, review); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review.approved",
				slog.Int64("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return review, stats, nil
}

// Stats returns the per-listing aggregate over published reviews, cached
// for a short TTL. Cache errors degrade to a database read.
func (s *ReviewService) Stats(ctx context.Context, listingID int64) (*domain.ReviewStatistics, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, listingID)
		if err != nil {
			s.logger.WarnContext(ctx, "stats cache read failed",
				slog.Int64("listing_id", listingID),
				slog.String("error", err.Error()),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.reviews.Stats(ctx, listingID, s.now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listingID, stats); err != nil {
			s.logger.WarnContext(ctx, "stats cache write failed",
				slog.Int64("listing_id", listingID),
				slog.String("error", err.Error()),
			)
		}
	}

	return stats, nil
}

// Channels returns the distinct channel tags present across all reviews,
// published or not.
func (s *ReviewService) Channels(ctx context.Context) ([]string, error) {
	return s.reviews.Channels(ctx)
}

// ForListing returns a listing's reviews, newest first. Unpublished reviews
// are included only when publishedOnly is false; ratings are repaired on
// the way out like in List.
func (s *ReviewService) ForListing(ctx context.Context, listingID int64, publishedOnly bool) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByListing(ctx, listingID, publishedOnly)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		s.repairRating(ctx, &reviews[i])
	}
	return reviews, nil
}

// RecurringIssue finds the weakest review category of a listing's published
// reviews, or nil when there is no category data.
func (s *ReviewService) RecurringIssue(ctx context.Context, listingID int64) (*domain.RecurringIssue, error) {
	reviews, err := s.reviews.ListByListing(ctx, listingID, true)
	if err != nil {
		return nil, err
	}
	return domain.FindRecurringIssue(reviews), nil
}
