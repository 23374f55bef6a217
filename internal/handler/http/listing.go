package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/service"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/httputil"
)

// ListingService is the catalog surface the handlers call. Implemented by
// service.ListingService.
type ListingService interface {
	List(ctx context.Context, match string) ([]domain.ListingSummary, error)
	Get(ctx context.Context, id int64) (*service.ListingDetail, error)
}

// ListingHandler serves the property catalog endpoints.
type ListingHandler struct {
	listings ListingService
	reviews  ReviewService
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(listings ListingService, reviews ReviewService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, reviews: reviews, logger: logger}
}

type listingsResponse struct {
	Success  bool                    `json:"success"`
	Count    int                     `json:"count"`
	Listings []domain.ListingSummary `json:"listings"`
}

type listingDetailResponse struct {
	Status         string                   `json:"status"`
	Result         *domain.Listing          `json:"result"`
	Stats          *domain.ReviewStatistics `json:"stats"`
	RecurringIssue *domain.RecurringIssue   `json:"recurringIssue"`
}

type listingReviewsResponse struct {
	Status string          `json:"status"`
	Result []domain.Review `json:"result"`
}

// List handles GET /listings. An optional match query narrows the catalog
// by listing name.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.listings.List(r.Context(), r.URL.Query().Get("match"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listingsResponse{
		Success:  true,
		Count:    len(summaries),
		Listings: summaries,
	})
}

// Get handles GET /listings/{id}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	detail, err := h.listings.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listingDetailResponse{
		Status:         "success",
		Result:         detail.Listing,
		Stats:          detail.Stats,
		RecurringIssue: detail.RecurringIssue,
	})
}

// Reviews handles GET /listings/{id}/reviews. This feeds the public
// property page, so only published reviews come back.
func (h *ListingHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	reviews, err := h.reviews.ForListing(r.Context(), id, true)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listingReviewsResponse{
		Status: "success",
		Result: reviews,
	})
}
