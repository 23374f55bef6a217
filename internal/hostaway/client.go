// Package hostaway talks to the booking-channel API that owns the property
// catalog. Listings are never stored locally; every catalog read goes
// through this client.
package hostaway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/httpclient"
)

const channelName = "hostaway"

// Config holds the connection settings for the Hostaway API.
type Config struct {
	BaseURL   string        `env:"HOSTAWAY_BASE_URL" envDefault:"https://api.hostaway.com/v1"`
	APIKey    string        `env:"HOSTAWAY_API_KEY"`
	AccountID string        `env:"HOSTAWAY_ACCOUNT_ID"`
	Timeout   time.Duration `env:"HOSTAWAY_TIMEOUT" envDefault:"10s"`
}

// Client is a Hostaway API client with retry and circuit breaking.
type Client struct {
	cfg    Config
	http   *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// NewClient creates a Hostaway client. The underlying HTTP client retries
// transient failures; the breaker trips when the channel is persistently
// down so catalog reads fail fast instead of piling up.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Timeout
	base := httpclient.New(httpCfg)
	return &Client{
		cfg:    cfg,
		http:   httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("hostaway"), logger),
		logger: logger,
	}
}

type listingPayload struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type listingsResponse struct {
	Status string           `json:"status"`
	Result []listingPayload `json:"result"`
}

type listingResponse struct {
	Status string         `json:"status"`
	Result listingPayload `json:"result"`
}

// Listings fetches the property catalog. A non-empty match narrows the
// result to listings whose name contains the term.
func (c *Client) Listings(ctx context.Context, match string) ([]domain.Listing, error) {
	endpoint := c.cfg.BaseURL + "/listings"
	if match != "" {
		endpoint += "?match=" + url.QueryEscape(match)
	}

	var payload listingsResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("hostaway listings: unexpected status %q", payload.Status)
	}

	listings := make([]domain.Listing, 0, len(payload.Result))
	for _, p := range payload.Result {
		listings = append(listings, toListing(p))
	}
	return listings, nil
}

// Listing fetches a single listing by its channel ID.
func (c *Client) Listing(ctx context.Context, id int64) (*domain.Listing, error) {
	endpoint := fmt.Sprintf("%s/listings/%d", c.cfg.BaseURL, id)

	var payload listingResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("hostaway listing %d: unexpected status %q", id, payload.Status)
	}

	listing := toListing(payload.Result)
	return &listing, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create hostaway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("hostaway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, channelName)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode hostaway response: %w", err)
	}
	return nil
}

func toListing(p listingPayload) domain.Listing {
	return domain.Listing{
		ID:      p.ID,
		Name:    p.Name,
		Address: p.Address,
		City:    p.City,
		Country: p.Country,
		Picture: p.ThumbnailURL,
	}
}
