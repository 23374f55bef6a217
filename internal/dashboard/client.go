// Package dashboard holds the client-side view of the review feed: a typed
// API client plus the paging state machine behind the manager dashboard's
// infinite scroll.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/httpclient"
)

// Filters are the review feed filter dimensions as the UI exposes them.
// Empty strings and a zero rating mean "all".
type Filters struct {
	Status       string
	Channel      string
	PropertyName string
	Rating       int
	Sorting      string
}

// ReviewPage is one page of the review feed.
type ReviewPage struct {
	Status  string          `json:"status"`
	Result  []domain.Review `json:"result"`
	HasMore bool            `json:"hasMore"`
}

// ApprovalResult is the server's response to an approval.
type ApprovalResult struct {
	Status       string                   `json:"status"`
	Message      string                   `json:"message"`
	Result       *domain.Review           `json:"result"`
	ListingStats *domain.ReviewStatistics `json:"listingStats"`
}

// Client is a typed client for the dashboard API.
type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
}

// NewClient creates a dashboard API client. token is the bearer token of the
// logged-in host.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpclient.New(httpclient.DefaultConfig()),
	}
}

// FetchReviews loads one page of the review feed.
func (c *Client) FetchReviews(ctx context.Context, filters Filters, offset, limit int) (*ReviewPage, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	if filters.Status != "" {
		params.Set("status", filters.Status)
	}
	if filters.Channel != "" {
		params.Set("channel", filters.Channel)
	}
	if filters.PropertyName != "" {
		params.Set("propertyName", filters.PropertyName)
	}
	if filters.Rating > 0 {
		params.Set("rating", strconv.Itoa(filters.Rating))
	}
	if filters.Sorting != "" {
		params.Set("sortingCriteria", filters.Sorting)
	}

	var page ReviewPage
	if err := c.getJSON(ctx, "/api/v1/reviews?"+params.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Approve publishes a review and returns the updated review together with
// its listing's recomputed stats.
func (c *Client) Approve(ctx context.Context, reviewID int64) (*ApprovalResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/reviews/%d/approve", c.baseURL, reviewID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create approve request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("approve review %d: %w", reviewID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "dashboard")
	}

	var result ApprovalResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode approval response: %w", err)
	}
	return &result, nil
}

// Channels loads the channel filter options.
func (c *Client) Channels(ctx context.Context) ([]string, error) {
	var payload struct {
		Channels []string `json:"channels"`
	}
	if err := c.getJSON(ctx, "/api/v1/reviews/channels", &payload); err != nil {
		return nil, err
	}
	return payload.Channels, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("dashboard request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "dashboard")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode dashboard response: %w", err)
	}
	return nil
}
