package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/places"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
)

// PlaceDetailsFetcher is the Places API surface the sync job needs.
// Implemented by places.Client.
type PlaceDetailsFetcher interface {
	Details(ctx context.Context, placeID string) (*places.PlaceDetails, error)
}

// MappingSyncResult is the outcome of syncing one listing-to-place mapping.
type MappingSyncResult struct {
	ListingID   int64  `json:"listingId"`
	ListingName string `json:"listingName"`
	PlaceName   string `json:"placeName,omitempty"`
	Fetched     int    `json:"fetched"`
	Ingested    int    `json:"ingested"`
	Skipped     int    `json:"skipped"`
	Error       string `json:"error,omitempty"`
}

// SyncReport summarizes one sync run across all mappings.
type SyncReport struct {
	Mappings int                 `json:"mappings"`
	Ingested int                 `json:"ingested"`
	Skipped  int                 `json:"skipped"`
	Failed   int                 `json:"failed"`
	Results  []MappingSyncResult `json:"results"`
}

// SyncService pulls Google reviews into the local store. Each configured
// listing maps to one Google place; the Places API only exposes the most
// recent reviews, so runs are incremental and dedup makes them idempotent.
type SyncService struct {
	mappings repository.MappingRepository
	reviews  repository.ReviewRepository
	places   PlaceDetailsFetcher
	cache    StatsCache
	events   EventPublisher
	logger   *slog.Logger
}

// NewSyncService creates a SyncService. cache and events may be nil.
func NewSyncService(
	mappings repository.MappingRepository,
	reviews repository.ReviewRepository,
	placesClient PlaceDetailsFetcher,
	cache StatsCache,
	events EventPublisher,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		mappings: mappings,
		reviews:  reviews,
		places:   placesClient,
		cache:    cache,
		events:   events,
		logger:   logger,
	}
}

// Run syncs every mapping concurrently and returns a per-mapping report. A
// failing mapping never aborts the others; its error lands in the report
// instead.
func (s *SyncService) Run(ctx context.Context) (*SyncReport, error) {
	mappings, err := s.mappings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load place mappings: %w", err)
	}

	results := make([]MappingSyncResult, len(mappings))

	var wg sync.WaitGroup
	for i, mapping := range mappings {
		wg.Add(1)
		go func(i int, mapping domain.ListingPlaceMapping) {
			defer wg.Done()
			results[i] = s.syncMapping(ctx, mapping)
		}(i, mapping)
	}
	wg.Wait()

	report := &SyncReport{Mappings: len(mappings), Results: results}
	for _, r := range results {
		report.Ingested += r.Ingested
		report.Skipped += r.Skipped
		if r.Error != "" {
			report.Failed++
		}
	}

	s.logger.InfoContext(ctx, "place sync completed",
		slog.Int("mappings", report.Mappings),
		slog.Int("ingested", report.Ingested),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
	)

	return report, nil
}

func (s *SyncService) syncMapping(ctx context.Context, mapping domain.ListingPlaceMapping) MappingSyncResult {
	result := MappingSyncResult{
		ListingID:   mapping.ListingID,
		ListingName: mapping.ListingName,
	}

	details, err := s.places.Details(ctx, mapping.GooglePlaceID)
	if err != nil {
		s.logger.ErrorContext(ctx, "place details fetch failed",
			slog.String("place_id", mapping.GooglePlaceID),
			slog.String("error", err.Error()),
		)
		result.Error = err.Error()
		return result
	}

	result.PlaceName = details.Name
	result.Fetched = len(details.Reviews)

	if details.Name != mapping.PlaceName {
		if err := s.mappings.UpdatePlaceName(ctx, mapping.ID, details.Name); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh place name",
				slog.Int64("mapping_id", mapping.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	for _, placeReview := range details.Reviews {
		review := toIngestedReview(placeReview, mapping)

		inserted, err := s.reviews.InsertIngested(ctx, review)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if !inserted {
			result.Skipped++
			continue
		}

		result.Ingested++
		if s.events != nil {
			if err := s.events.ReviewIngested(ctx, review); err != nil {
				s.logger.WarnContext(ctx, "failed to publish review.ingested",
					slog.Int64("review_id", review.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if result.Ingested > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx, mapping.ListingID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate stats cache",
				slog.Int64("listing_id", mapping.ListingID),
				slog.String("error", err.Error()),
			)
		}
	}

	return result
}

// toIngestedReview converts a Places API review into a stored review. The
// API carries no stable review ID, so identity is a digest of the author
// name and submission timestamp, which survives re-fetches of the same
// review. Ratings are doubled to fit the 10-point scale the dashboard uses,
// and every ingested review starts unpublished.
func toIngestedReview(placeReview places.Review, mapping domain.ListingPlaceMapping) *domain.Review {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", placeReview.AuthorName, placeReview.Time)))
	uid := hex.EncodeToString(digest[:])
	rating := placeReview.Rating * 2

	return &domain.Review{
		GoogleUID:      &uid,
		Type:           domain.ReviewTypeGuestToHost,
		Rating:         &rating,
		PublicReview:   placeReview.Text,
		ReviewCategory: []domain.ReviewCategory{},
		SubmittedAt:    time.Unix(placeReview.Time, 0).UTC(),
		GuestName:      placeReview.AuthorName,
		ListingName:    mapping.ListingName,
		ListingID:      mapping.ListingID,
		Channel:        domain.ChannelGoogle,
		IsPublished:    false,
	}
}
