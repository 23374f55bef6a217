package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
	apperrors "github.com/astrozeneka/review-dashboard-flex-living/pkg/errors"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/pagination"
)

func newReviewService(repo *mockReviewRepo, cache StatsCache, events EventPublisher) *ReviewService {
	return NewReviewService(repo, cache, events, slog.Default())
}

func ratedReview(id int64, rating float64) domain.Review {
	return domain.Review{
		ID:        id,
		Type:      domain.ReviewTypeGuestToHost,
		Rating:    &rating,
		ListingID: 101,
		Channel:   "hostaway",
	}
}

func TestReviewServiceListHasMore(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	filter := repository.ReviewFilter{Sort: domain.SortDateDesc}
	page := pagination.Params{Offset: 0, Limit: 2}

	repo.On("List", mock.Anything, filter, 0, 2).
		Return([]domain.Review{ratedReview(1, 8), ratedReview(2, 9)}, nil).Once()
	repo.On("List", mock.Anything, filter, 2, 1).
		Return([]domain.Review{ratedReview(3, 7)}, nil).Once()

	reviews, hasMore, err := svc.List(context.Background(), filter, page)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.True(t, hasMore)
	repo.AssertExpectations(t)
}

func TestReviewServiceListLastPage(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	filter := repository.ReviewFilter{}
	repo.On("List", mock.Anything, filter, 10, 5).
		Return([]domain.Review{ratedReview(11, 6)}, nil).Once()
	repo.On("List", mock.Anything, filter, 15, 1).
		Return([]domain.Review{}, nil).Once()

	reviews, hasMore, err := svc.List(context.Background(), filter, pagination.Params{Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.False(t, hasMore)
	repo.AssertExpectations(t)
}

func TestReviewServiceListRepairsMissingRating(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	broken := domain.Review{
		ID:   1,
		Type: domain.ReviewTypeGuestToHost,
		ReviewCategory: []domain.ReviewCategory{
			{Category: "cleanliness", Rating: 6},
			{Category: "communication", Rating: 8},
		},
	}

	filter := repository.ReviewFilter{}
	repo.On("List", mock.Anything, filter, 0, 12).Return([]domain.Review{broken}, nil).Once()
	repo.On("List", mock.Anything, filter, 12, 1).Return([]domain.Review{}, nil).Once()
	repo.On("RepairRating", mock.Anything, int64(1), 7.0).Return(nil).Once()

	reviews, _, err := svc.List(context.Background(), filter, pagination.DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, reviews[0].Rating)
	assert.Equal(t, 7.0, *reviews[0].Rating)
	repo.AssertExpectations(t)
}

func TestReviewServiceListServesRepairedValueWhenPersistFails(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	broken := domain.Review{
		ID:             1,
		ReviewCategory: []domain.ReviewCategory{{Category: "location", Rating: 10}},
	}

	filter := repository.ReviewFilter{}
	repo.On("List", mock.Anything, filter, 0, 12).Return([]domain.Review{broken}, nil).Once()
	repo.On("List", mock.Anything, filter, 12, 1).Return([]domain.Review{}, nil).Once()
	repo.On("RepairRating", mock.Anything, int64(1), 10.0).Return(errors.New("connection reset")).Once()

	reviews, _, err := svc.List(context.Background(), filter, pagination.DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, reviews[0].Rating)
	assert.Equal(t, 10.0, *reviews[0].Rating)
	repo.AssertExpectations(t)
}

func TestReviewServiceHostToGuestWithoutCategoriesStaysUnrated(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	hostReview := domain.Review{ID: 2, Type: domain.ReviewTypeHostToGuest}

	filter := repository.ReviewFilter{}
	repo.On("List", mock.Anything, filter, 0, 12).Return([]domain.Review{hostReview}, nil).Once()
	repo.On("List", mock.Anything, filter, 12, 1).Return([]domain.Review{}, nil).Once()

	reviews, _, err := svc.List(context.Background(), filter, pagination.DefaultParams())
	require.NoError(t, err)
	assert.Nil(t, reviews[0].Rating)
	repo.AssertNotCalled(t, "RepairRating", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestReviewServiceApprove(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := new(mockStatsCache)
	events := new(mockPublisher)
	svc := newReviewService(repo, cache, events)

	approved := ratedReview(42, 8)
	approved.IsPublished = true
	stats := &domain.ReviewStatistics{AverageRating: 8, ReviewsCount: 1}

	repo.On("Approve", mock.Anything, int64(42)).Return(&approved, nil).Once()
	cache.On("Invalidate", mock.Anything, int64(101)).Return(nil).Once()
	cache.On("Get", mock.Anything, int64(101)).Return(nil, nil).Once()
	repo.On("Stats", mock.Anything, int64(101), mock.AnythingOfType("time.Time")).Return(stats, nil).Once()
	cache.On("Set", mock.Anything, int64(101), stats).Return(nil).Once()
	events.On("ReviewApproved", mock.Anything, &approved).Return(nil).Once()

	review, gotStats, err := svc.Approve(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, review.IsPublished)
	assert.Equal(t, stats, gotStats)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestReviewServiceApproveNotFound(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	repo.On("Approve", mock.Anything, int64(999)).
		Return(nil, apperrors.NotFound("review", "999")).Once()

	_, _, err := svc.Approve(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestReviewServiceApprovePublishFailureDoesNotFail(t *testing.T) {
	repo := new(mockReviewRepo)
	events := new(mockPublisher)
	svc := newReviewService(repo, nil, events)

	approved := ratedReview(42, 8)
	repo.On("Approve", mock.Anything, int64(42)).Return(&approved, nil).Once()
	repo.On("Stats", mock.Anything, int64(101), mock.AnythingOfType("time.Time")).
		Return(&domain.ReviewStatistics{}, nil).Once()
	events.On("ReviewApproved", mock.Anything, &approved).Return(errors.New("broker down")).Once()

	_, _, err := svc.Approve(context.Background(), 42)
	assert.NoError(t, err)
	events.AssertExpectations(t)
}

func TestReviewServiceStatsCacheHit(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := new(mockStatsCache)
	svc := newReviewService(repo, cache, nil)

	cached := &domain.ReviewStatistics{AverageRating: 9.2, ReviewsCount: 7}
	cache.On("Get", mock.Anything, int64(101)).Return(cached, nil).Once()

	stats, err := svc.Stats(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, cached, stats)
	repo.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestReviewServiceStatsCacheErrorFallsBack(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := new(mockStatsCache)
	svc := newReviewService(repo, cache, nil)

	fresh := &domain.ReviewStatistics{ReviewsCount: 3}
	cache.On("Get", mock.Anything, int64(101)).Return(nil, errors.New("redis timeout")).Once()
	repo.On("Stats", mock.Anything, int64(101), mock.AnythingOfType("time.Time")).Return(fresh, nil).Once()
	cache.On("Set", mock.Anything, int64(101), fresh).Return(nil).Once()

	stats, err := svc.Stats(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, fresh, stats)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestReviewServiceChannels(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	repo.On("Channels", mock.Anything).Return([]string{"google", "hostaway"}, nil).Once()

	channels, err := svc.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"google", "hostaway"}, channels)
}

func TestReviewServiceRecurringIssue(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := newReviewService(repo, nil, nil)

	reviews := []domain.Review{
		{ID: 1, ReviewCategory: []domain.ReviewCategory{
			{Category: "cleanliness", Rating: 9},
			{Category: "wifi", Rating: 4},
		}},
		{ID: 2, ReviewCategory: []domain.ReviewCategory{
			{Category: "wifi", Rating: 6},
		}},
	}
	repo.On("ListByListing", mock.Anything, int64(101), true).Return(reviews, nil).Once()

	issue, err := svc.RecurringIssue(context.Background(), 101)
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.Equal(t, "wifi", issue.Category)
	assert.Equal(t, 5.0, issue.AverageRating)
}
