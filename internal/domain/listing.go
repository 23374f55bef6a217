package domain

import "time"

// Listing is a bookable unit fetched from the upstream catalog API. The
// catalog owns this data; only the fields the dashboard renders are kept.
type Listing struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// ListingSummary is a Listing enriched with local review aggregates for the
// dashboard's listing table.
type ListingSummary struct {
	Listing
	AverageRating *float64 `json:"averageRating"`
	ReviewsCount  int      `json:"reviewsCount"`
}

// ListingPlaceMapping associates an internal listing with an external place
// identifier used by the sync job. PlaceName is a mutable cache of the
// place's display name, refreshed on every sync.
type ListingPlaceMapping struct {
	ID            int64     `json:"id"`
	ListingID     int64     `json:"listingId"`
	GooglePlaceID string    `json:"googlePlaceId"`
	ListingName   string    `json:"listingName,omitempty"`
	PlaceName     string    `json:"placeName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
