package common

import (
	"net/http"
	"strconv"
)

// Pagination limits shared by the list endpoints.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageParams represents cursor pagination parameters
type PageParams struct {
	Limit  int
	Cursor string
}

// ExtractPageParams reads limit and cursor query parameters, clamping the
// limit to [1, MaxPageLimit]
func ExtractPageParams(r *http.Request) PageParams {
	params := PageParams{
		Limit:  DefaultPageLimit,
		Cursor: r.URL.Query().Get("cursor"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			if limit > MaxPageLimit {
				limit = MaxPageLimit
			}
			params.Limit = limit
		}
	}

	return params
}
