package httpclient

import (
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/astrozeneka/review-dashboard-flex-living/pkg/errors"
)

// ParseResponseError reads the body of a non-2xx upstream response and
// translates it into an appropriate AppError. Channel APIs return
// free-form error bodies, so the raw body (capped at 1 MB) is preserved in
// the error message for the logs.
//
// The caller should only invoke this when resp.StatusCode indicates an
// error. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, channel string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Upstream(channel, fmt.Errorf("status %d (failed to read body: %w)", resp.StatusCode, err))
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFound(channel+" resource", string(bodyBytes))
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Upstream(channel, fmt.Errorf("credentials rejected (status %d)", resp.StatusCode))
	case http.StatusTooManyRequests:
		return apperrors.Upstream(channel, fmt.Errorf("rate limited (status %d)", resp.StatusCode))
	default:
		return apperrors.Upstream(channel, fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes)))
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
// Client errors should not trip retries: the request itself was invalid.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
