package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
)

// ReviewFetcher is the API surface the feed pulls pages from. Implemented
// by Client.
type ReviewFetcher interface {
	FetchReviews(ctx context.Context, filters Filters, offset, limit int) (*ReviewPage, error)
}

// DefaultPageSize matches the server's default page size.
const DefaultPageSize = 12

// State is a point-in-time snapshot of the feed. ListingAverages carries the
// per-listing display averages refreshed by approvals.
type State struct {
	Filters         Filters
	Reviews         []domain.Review
	Offset          int
	HasMore         bool
	Loading         bool
	ListingAverages map[int64]float64
}

// Feed is the paging state machine behind the dashboard's review list.
//
// Filter changes restart the feed from offset zero; scrolling appends pages.
// Each restart bumps a generation counter, and a page response is applied
// only if the generation it was requested under is still current, so a slow
// first page can never clobber the results of a newer filter set. A
// single-flight guard keeps repeated scroll triggers from issuing
// overlapping fetches.
type Feed struct {
	api      ReviewFetcher
	pageSize int
	logger   *slog.Logger

	mu         sync.Mutex
	filters    Filters
	reviews    []domain.Review
	offset     int
	hasMore    bool
	loading    bool
	generation uint64
	averages   map[int64]float64
}

// NewFeed creates a Feed. The feed is empty until the first SetFilters or
// LoadMore call.
func NewFeed(api ReviewFetcher, pageSize int, logger *slog.Logger) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{
		api:      api,
		pageSize: pageSize,
		logger:   logger,
		reviews:  []domain.Review{},
		hasMore:  true,
		averages: map[int64]float64{},
	}
}

// Snapshot returns the current feed state. The review slice is copied so
// callers can render it without holding the feed.
func (f *Feed) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	reviews := make([]domain.Review, len(f.reviews))
	copy(reviews, f.reviews)
	averages := make(map[int64]float64, len(f.averages))
	for id, avg := range f.averages {
		averages[id] = avg
	}
	return State{
		Filters:         f.filters,
		Reviews:         reviews,
		Offset:          f.offset,
		HasMore:         f.hasMore,
		Loading:         f.loading,
		ListingAverages: averages,
	}
}

// SetFilters replaces the filter set and reloads the feed from the start.
// The list is cleared immediately so rows from the old filter set can never
// survive into the new one, even if the reload fails.
func (f *Feed) SetFilters(ctx context.Context, filters Filters) error {
	f.mu.Lock()
	f.filters = filters
	f.reviews = []domain.Review{}
	f.offset = 0
	f.hasMore = true
	f.generation++
	gen := f.generation
	f.loading = true
	f.mu.Unlock()

	page, err := f.api.FetchReviews(ctx, filters, 0, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		// A newer filter change superseded this fetch.
		return nil
	}
	f.loading = false

	if err != nil {
		f.logger.Warn("review feed reload failed", slog.String("error", err.Error()))
		return err
	}

	f.reviews = page.Result
	f.offset = len(page.Result)
	f.hasMore = page.HasMore
	return nil
}

// LoadMore appends the next page. It is a no-op while a fetch is in flight
// or when the feed is exhausted, so scroll handlers can call it freely.
// Fetch failures are swallowed after logging: the list the user already has
// stays intact and the next scroll retries.
func (f *Feed) LoadMore(ctx context.Context) {
	f.mu.Lock()
	if f.loading || !f.hasMore {
		f.mu.Unlock()
		return
	}
	f.loading = true
	gen := f.generation
	filters := f.filters
	offset := f.offset
	f.mu.Unlock()

	page, err := f.api.FetchReviews(ctx, filters, offset, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		return
	}
	f.loading = false

	if err != nil {
		f.logger.Warn("review feed page fetch failed",
			slog.Int("offset", offset),
			slog.String("error", err.Error()),
		)
		return
	}

	f.reviews = append(f.reviews, page.Result...)
	f.offset += len(page.Result)
	f.hasMore = page.HasMore
}

// ApplyApproval merges an approval response into the feed: the updated
// review is spliced over the entry with the same ID, and the listing's
// displayed average is refreshed from the returned statistics. A review
// that scrolled out of the current filter set is simply not present, and
// the splice half is a no-op.
func (f *Feed) ApplyApproval(result *ApprovalResult) {
	if result == nil || result.Result == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	review := result.Result
	if result.ListingStats != nil {
		f.averages[review.ListingID] = result.ListingStats.AverageRating
	}
	for i := range f.reviews {
		if f.reviews[i].ID == review.ID {
			f.reviews[i] = *review
			return
		}
	}
}
