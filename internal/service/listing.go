package service

import (
	"context"
	"log/slog"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
)

// ListingCatalog is the booking-channel API that owns the property catalog.
// Implemented by hostaway.Client.
type ListingCatalog interface {
	Listings(ctx context.Context, match string) ([]domain.Listing, error)
	Listing(ctx context.Context, id int64) (*domain.Listing, error)
}

// ListingDetail is one listing with its review aggregate.
type ListingDetail struct {
	Listing        *domain.Listing
	Stats          *domain.ReviewStatistics
	RecurringIssue *domain.RecurringIssue
}

// ListingService composes the remote property catalog with locally stored
// review data.
type ListingService struct {
	catalog ListingCatalog
	reviews repository.ReviewRepository
	stats   *ReviewService
	logger  *slog.Logger
}

// NewListingService creates a ListingService.
func NewListingService(catalog ListingCatalog, reviews repository.ReviewRepository, stats *ReviewService, logger *slog.Logger) *ListingService {
	return &ListingService{
		catalog: catalog,
		reviews: reviews,
		stats:   stats,
		logger:  logger,
	}
}

// List returns the catalog decorated with each listing's published review
// count and average rating. A listing with no published reviews carries a
// nil average, never a zero.
func (s *ListingService) List(ctx context.Context, match string) ([]domain.ListingSummary, error) {
	listings, err := s.catalog.Listings(ctx, match)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ListingSummary, 0, len(listings))
	for _, listing := range listings {
		avg, err := s.reviews.AverageRating(ctx, listing.ID)
		if err != nil {
			return nil, err
		}
		count, err := s.reviews.CountByListing(ctx, listing.ID, true)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.ListingSummary{
			Listing:       listing,
			AverageRating: avg,
			ReviewsCount:  count,
		})
	}

	return summaries, nil
}

// Get returns one listing with its statistics and weakest review category.
func (s *ListingService) Get(ctx context.Context, id int64) (*ListingDetail, error) {
	listing, err := s.catalog.Listing(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := s.stats.Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	issue, err := s.stats.RecurringIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ListingDetail{
		Listing:        listing,
		Stats:          stats,
		RecurringIssue: issue,
	}, nil
}
