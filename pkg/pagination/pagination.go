package pagination

import (
	"net/http"
	"strconv"
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: 20,
		Offset:  0,
	}
}

// Normalize clamps raw page/perPage values to valid bounds, falling back to
// the defaults for non-positive values and capping per_page at 100.
func Normalize(page, perPage int) Params {
	p := DefaultParams()
	if page > 0 {
		p.Page = page
	}
	if perPage > 0 && perPage <= 100 {
		p.PerPage = perPage
	}
	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// FromRequest extracts pagination parameters from an HTTP request.
// Invalid or out-of-range values fall back to the defaults; per_page is
// capped at 100.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if perPage := r.URL.Query().Get("per_page"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 100 {
			p.PerPage = v
		}
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Result wraps a paginated response. HasMore reports whether pages remain
// after the current one, which keeps page boundary logic out of clients.
type Result[T any] struct {
	Items       []T  `json:"items"`
	TotalCount  int  `json:"total_count"`
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	TotalPages  int  `json:"total_pages"`
	HasMore     bool `json:"has_more"`
}

// NewResult creates a paginated result from items, the total match count, and
// the requested page/perPage.
func NewResult[T any](items []T, totalCount, page, perPage int) Result[T] {
	totalPages := 0
	if perPage > 0 {
		totalPages = totalCount / perPage
		if totalCount%perPage > 0 {
			totalPages++
		}
	}

	if items == nil {
		items = []T{}
	}

	return Result[T]{
		Items:       items,
		TotalCount:  totalCount,
		CurrentPage: page,
		PerPage:     perPage,
		TotalPages:  totalPages,
		HasMore:     page < totalPages,
	}
}
