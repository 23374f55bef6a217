// Package places fetches review material from the Google Places Details
// API. The API exposes at most five recent reviews per place, so sync runs
// are incremental by nature and rely on dedup downstream.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/astrozeneka/review-dashboard-flex-living/pkg/httpclient"
)

const channelName = "google"

// Config holds the connection settings for the Places API.
type Config struct {
	BaseURL string        `env:"PLACES_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/place"`
	APIKey  string        `env:"PLACES_API_KEY"`
	Timeout time.Duration `env:"PLACES_TIMEOUT" envDefault:"10s"`
}

// Review is one review as returned by the Places Details API. Rating uses
// the API's native 1-5 star scale and Time is epoch seconds.
type Review struct {
	AuthorName              string  `json:"author_name"`
	Rating                  float64 `json:"rating"`
	Text                    string  `json:"text"`
	Time                    int64   `json:"time"`
	RelativeTimeDescription string  `json:"relative_time_description"`
	ProfilePhotoURL         string  `json:"profile_photo_url"`
}

// PlaceDetails is the subset of the Details response the sync job uses.
type PlaceDetails struct {
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Reviews          []Review `json:"reviews"`
}

type detailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Result       PlaceDetails `json:"result"`
}

// Client is a Places Details API client with retry and circuit breaking.
type Client struct {
	cfg    Config
	http   *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// NewClient creates a Places API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Timeout
	base := httpclient.New(httpCfg)
	return &Client{
		cfg:    cfg,
		http:   httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("places"), logger),
		logger: logger,
	}
}

// Details fetches the name, aggregate rating, and recent reviews of a place.
func (c *Client) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "name,rating,user_ratings_total,reviews")
	params.Set("key", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + "/details/json?" + params.Encode()

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("places details request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, channelName)
	}

	var payload detailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}

	// The Places API signals errors in the body with a 200 status.
	if payload.Status != "OK" {
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("places details %s: %s (%s)", placeID, payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("places details %s: %s", placeID, payload.Status)
	}

	return &payload.Result, nil
}
