package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/places"
)

func shoreditchMapping() domain.ListingPlaceMapping {
	return domain.ListingPlaceMapping{
		ID:            1,
		ListingID:     101,
		GooglePlaceID: "ChIJshoreditch",
		ListingName:   "2B N1 A - 29 Shoreditch Heights",
		PlaceName:     "Flex Living Shoreditch",
	}
}

func TestSyncServiceRunIngestsNewReviews(t *testing.T) {
	mappings := new(mockMappingRepo)
	reviews := new(mockReviewRepo)
	placesClient := new(mockPlaces)
	cache := new(mockStatsCache)
	events := new(mockPublisher)
	svc := NewSyncService(mappings, reviews, placesClient, cache, events, slog.Default())

	mappings.On("List", mock.Anything).Return([]domain.ListingPlaceMapping{shoreditchMapping()}, nil).Once()
	placesClient.On("Details", mock.Anything, "ChIJshoreditch").Return(&places.PlaceDetails{
		Name:   "Flex Living Shoreditch",
		Rating: 4.6,
		Reviews: []places.Review{
			{AuthorName: "Maria Lopez", Rating: 5, Text: "Great place near the park.", Time: 1714554000},
		},
	}, nil).Once()

	wantDigest := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", "Maria Lopez", 1714554000)))
	wantUID := hex.EncodeToString(wantDigest[:])

	reviews.On("InsertIngested", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.GoogleUID != nil && *r.GoogleUID == wantUID &&
			r.Rating != nil && *r.Rating == 10.0 &&
			r.Channel == domain.ChannelGoogle &&
			!r.IsPublished &&
			r.ListingID == 101 &&
			r.GuestName == "Maria Lopez" &&
			r.SubmittedAt.Equal(time.Unix(1714554000, 0).UTC())
	})).Return(true, nil).Once()
	events.On("ReviewIngested", mock.Anything, mock.Anything).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, int64(101)).Return(nil).Once()

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mappings)
	assert.Equal(t, 1, report.Ingested)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Failed)
	mappings.AssertExpectations(t)
	reviews.AssertExpectations(t)
	events.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSyncServiceRunSkipsDuplicates(t *testing.T) {
	mappings := new(mockMappingRepo)
	reviews := new(mockReviewRepo)
	placesClient := new(mockPlaces)
	svc := NewSyncService(mappings, reviews, placesClient, nil, nil, slog.Default())

	mappings.On("List", mock.Anything).Return([]domain.ListingPlaceMapping{shoreditchMapping()}, nil).Once()
	placesClient.On("Details", mock.Anything, "ChIJshoreditch").Return(&places.PlaceDetails{
		Name: "Flex Living Shoreditch",
		Reviews: []places.Review{
			{AuthorName: "Maria Lopez", Rating: 5, Time: 1714554000},
			{AuthorName: "James Kirk", Rating: 4, Time: 1714640400},
		},
	}, nil).Once()

	reviews.On("InsertIngested", mock.Anything, mock.Anything).Return(false, nil).Twice()

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Ingested)
	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Failed)
}

func TestSyncServiceRunRefreshesPlaceName(t *testing.T) {
	mappings := new(mockMappingRepo)
	reviews := new(mockReviewRepo)
	placesClient := new(mockPlaces)
	svc := NewSyncService(mappings, reviews, placesClient, nil, nil, slog.Default())

	mapping := shoreditchMapping()
	mapping.PlaceName = "Old Name"
	mappings.On("List", mock.Anything).Return([]domain.ListingPlaceMapping{mapping}, nil).Once()
	placesClient.On("Details", mock.Anything, "ChIJshoreditch").
		Return(&places.PlaceDetails{Name: "Flex Living Shoreditch"}, nil).Once()
	mappings.On("UpdatePlaceName", mock.Anything, int64(1), "Flex Living Shoreditch").Return(nil).Once()

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	mappings.AssertExpectations(t)
}

func TestSyncServiceRunIsolatesMappingFailures(t *testing.T) {
	mappings := new(mockMappingRepo)
	reviews := new(mockReviewRepo)
	placesClient := new(mockPlaces)
	svc := NewSyncService(mappings, reviews, placesClient, nil, nil, slog.Default())

	camden := domain.ListingPlaceMapping{
		ID: 2, ListingID: 102, GooglePlaceID: "ChIJcamden",
		ListingName: "1B C2 - 15 Camden Lock", PlaceName: "Flex Living Camden",
	}
	mappings.On("List", mock.Anything).
		Return([]domain.ListingPlaceMapping{shoreditchMapping(), camden}, nil).Once()

	placesClient.On("Details", mock.Anything, "ChIJshoreditch").
		Return(nil, errors.New("OVER_QUERY_LIMIT")).Once()
	placesClient.On("Details", mock.Anything, "ChIJcamden").Return(&places.PlaceDetails{
		Name:    "Flex Living Camden",
		Reviews: []places.Review{{AuthorName: "Ana", Rating: 3, Time: 1714726800}},
	}, nil).Once()
	reviews.On("InsertIngested", mock.Anything, mock.Anything).Return(true, nil).Once()

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Mappings)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 1, report.Failed)

	var failed *MappingSyncResult
	for i := range report.Results {
		if report.Results[i].Error != "" {
			failed = &report.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, int64(101), failed.ListingID)
	assert.Contains(t, failed.Error, "OVER_QUERY_LIMIT")
}

func TestSyncServiceRunSecondPassIsIdempotent(t *testing.T) {
	mappings := new(mockMappingRepo)
	reviews := new(mockReviewRepo)
	placesClient := new(mockPlaces)
	svc := NewSyncService(mappings, reviews, placesClient, nil, nil, slog.Default())

	details := &places.PlaceDetails{
		Name:    "Flex Living Shoreditch",
		Reviews: []places.Review{{AuthorName: "Maria Lopez", Rating: 5, Time: 1714554000}},
	}
	mappings.On("List", mock.Anything).Return([]domain.ListingPlaceMapping{shoreditchMapping()}, nil).Twice()
	placesClient.On("Details", mock.Anything, "ChIJshoreditch").Return(details, nil).Twice()
	reviews.On("InsertIngested", mock.Anything, mock.Anything).Return(true, nil).Once()
	reviews.On("InsertIngested", mock.Anything, mock.Anything).Return(false, nil).Once()

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Ingested)
	assert.Zero(t, second.Ingested)
	assert.Equal(t, 1, second.Skipped)
}
