package pagination

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the request does not name one.
const DefaultLimit = 12

// Params holds offset pagination parameters extracted from query strings.
type Params struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DefaultParams returns the pagination defaults.
func DefaultParams() Params {
	return Params{
		Offset: 0,
		Limit:  DefaultLimit,
	}
}

// FromRequest extracts offset/limit parameters from an HTTP request.
// Invalid or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if offset := r.URL.Query().Get("offset"); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil && v >= 0 {
			p.Offset = v
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= 100 {
			p.Limit = v
		}
	}

	return p
}

// Next returns the parameters of the page after p.
func (p Params) Next() Params {
	return Params{Offset: p.Offset + p.Limit, Limit: p.Limit}
}

// Probe returns the parameters used to detect whether another page exists:
// a single-row fetch positioned just past the current page. Fetching one row
// instead of counting keeps the check cheap on large review tables.
func (p Params) Probe() Params {
	return Params{Offset: p.Offset + p.Limit, Limit: 1}
}
