// Package http wires the dashboard API onto chi. Success envelopes follow
// the shape the dashboard frontend consumes; errors go through
// httputil.WriteError.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/httputil"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/pagination"
)

// ReviewService is the review operations surface the handlers call.
// Implemented by service.ReviewService.
type ReviewService interface {
	List(ctx context.Context, filter repository.ReviewFilter, page pagination.Params) ([]domain.Review, bool, error)
	Approve(ctx context.Context, id int64) (*domain.Review, *domain.ReviewStatistics, error)
	Channels(ctx context.Context) ([]string, error)
	ForListing(ctx context.Context, listingID int64, publishedOnly bool) ([]domain.Review, error)
}

// ReviewHandler serves the review management endpoints.
type ReviewHandler struct {
	reviews ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(reviews ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

type reviewPageResponse struct {
	Status  string          `json:"status"`
	Result  []domain.Review `json:"result"`
	HasMore bool            `json:"hasMore"`
}

type approveResponse struct {
	Status       string                   `json:"status"`
	Message      string                   `json:"message"`
	Result       *domain.Review           `json:"result"`
	ListingStats *domain.ReviewStatistics `json:"listingStats"`
}

type channelsResponse struct {
	Channels []string `json:"channels"`
}

// List handles GET /reviews. All filter dimensions are optional and
// unrecognized values fall back to their defaults rather than erroring, so
// a stale frontend never breaks the page.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	page := pagination.FromRequest(r)

	reviews, hasMore, err := h.reviews.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviewPageResponse{
		Status:  "success",
		Result:  reviews,
		HasMore: hasMore,
	})
}

// Approve handles POST /reviews/{id}/approve. The response carries the
// recomputed listing statistics so the dashboard can update in place.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, stats, err := h.reviews.Approve(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, approveResponse{
		Status:       "success",
		Message:      "review approved",
		Result:       review,
		ListingStats: stats,
	})
}

// Channels handles GET /reviews/channels.
func (h *ReviewHandler) Channels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.reviews.Channels(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, channelsResponse{Channels: channels})
}

func filterFromQuery(r *http.Request) repository.ReviewFilter {
	q := r.URL.Query()

	filter := repository.ReviewFilter{
		Channel:     q.Get("channel"),
		ListingName: q.Get("propertyName"),
		Sort:        domain.ParseSortOption(q.Get("sortingCriteria")),
	}

	switch q.Get("status") {
	case "published":
		filter.Publication = repository.PublicationPublished
	case "pending":
		filter.Publication = repository.PublicationPending
	}

	if raw := q.Get("rating"); raw != "" && raw != "all" {
		if bucket, err := strconv.Atoi(raw); err == nil {
			filter.RatingBucket = bucket
		}
	}

	return filter
}
