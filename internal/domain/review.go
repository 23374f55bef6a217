package domain

import (
	"time"
)

// Review type tags, matching the labels used by the booking channel.
const (
	ReviewTypeGuestToHost = "guest-to-host"
	ReviewTypeHostToGuest = "host-to-guest"
)

// ChannelGoogle tags reviews ingested from the places API sync job.
const ChannelGoogle = "google"

// ReviewCategory is one per-category sub-rating on the 10-point scale.
type ReviewCategory struct {
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

// Review is one guest review. Ratings use a 10-point scale (5-star display
// buckets map onto even values). Rating is nullable: rows imported without an
// overall rating carry only category ratings until the repair pass fills the
// mean in.
type Review struct {
	ID             int64            `json:"id"`
	HostawayID     *int64           `json:"hostawayId"`
	GoogleUID      *string          `json:"googleReviewUid,omitempty"`
	Type           string           `json:"type"`
	Rating         *float64         `json:"rating"`
	PublicReview   string           `json:"publicReview"`
	ReviewCategory []ReviewCategory `json:"reviewCategory"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	GuestName      string           `json:"guestName"`
	ListingName    string           `json:"listingName"`
	ListingID      int64            `json:"listingId"`
	Channel        string           `json:"channel"`
	IsPublished    bool             `json:"isPublished"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// CategoryMean returns the arithmetic mean of the category ratings and true,
// or 0 and false when no category ratings exist. The mean is deterministic for
// fixed inputs, which makes the repair write idempotent.
func (r *Review) CategoryMean() (float64, bool) {
	if len(r.ReviewCategory) == 0 {
		return 0, false
	}
	var sum float64
	for _, c := range r.ReviewCategory {
		sum += c.Rating
	}
	return sum / float64(len(r.ReviewCategory)), true
}

// NeedsRatingRepair reports whether the review is missing its overall rating
// but carries category ratings it can be reconstructed from.
func (r *Review) NeedsRatingRepair() bool {
	return r.Rating == nil && len(r.ReviewCategory) > 0
}

// RatingBucketBounds maps a 5-star display bucket to its half-open interval
// (low, high] on the stored 10-point scale: bucket r selects ratings in
// (2r-2, 2r]. A stored rating of exactly 8 falls in bucket 4, not 5.
func RatingBucketBounds(bucket int) (low, high float64, ok bool) {
	if bucket < 1 || bucket > 5 {
		return 0, 0, false
	}
	return float64(2*bucket - 2), float64(2 * bucket), true
}

// HistogramKeys are the discrete stored-rating values the statistics
// histogram counts, one per display bucket.
var HistogramKeys = [5]int{2, 4, 6, 8, 10}

// ReviewStatistics is the derived per-listing aggregate over published
// reviews. Averages over empty windows are 0, never null; callers must treat
// 0 as "no data" when the corresponding count is also 0.
type ReviewStatistics struct {
	AverageRating         float64     `json:"averageRating"`         // trailing 90 days
	PreviousAverageRating float64     `json:"previousAverageRating"` // the 90 days before that
	AllTimeAverageRating  float64     `json:"allTimeAverageRating"`
	ReviewsCount          int         `json:"reviewsCount"`
	Histogram             map[int]int `json:"histogram"` // keyed by {2,4,6,8,10}
}

// RecurringIssue identifies the weakest review category for a listing: the
// category with the lowest average rating over its published reviews.
type RecurringIssue struct {
	Category      string  `json:"category"`
	AverageRating float64 `json:"averageRating"`
}

// SortOption is one of the four enumerated review sort keys.
type SortOption string

const (
	SortDateDesc   SortOption = "date_desc"
	SortDateAsc    SortOption = "date_asc"
	SortRatingDesc SortOption = "rating_desc"
	SortRatingAsc  SortOption = "rating_asc"
)

// ParseSortOption maps a raw query value to a SortOption. Unrecognized or
// absent values default to newest-first.
func ParseSortOption(raw string) SortOption {
	switch SortOption(raw) {
	case SortDateAsc, SortRatingDesc, SortRatingAsc:
		return SortOption(raw)
	default:
		return SortDateDesc
	}
}

// FindRecurringIssue scans the given reviews' category ratings and returns
// the category with the lowest average, or nil when no category data exists.
func FindRecurringIssue(reviews []Review) *RecurringIssue {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range reviews {
		for _, c := range r.ReviewCategory {
			sums[c.Category] += c.Rating
			counts[c.Category]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	var worst *RecurringIssue
	for category, count := range counts {
		avg := sums[category] / float64(count)
		if worst == nil || avg < worst.AverageRating || (avg == worst.AverageRating && category < worst.Category) {
			worst = &RecurringIssue{Category: category, AverageRating: avg}
		}
	}
	return worst
}
