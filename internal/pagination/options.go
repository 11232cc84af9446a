// Package pagination parses list options, composes SQL filters and builds
// page envelopes for list endpoints.
package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"lagimmo/api/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxOffset bounds (page-1)*limit so the offset cannot overflow.
	MaxOffset = math.MaxInt32

	SortAsc  = "ASC"
	SortDesc = "DESC"
)

type Options struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

func (o Options) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Defaults returns the options used when the caller sends nothing.
func Defaults() Options {
	return Options{Page: DefaultPage, Limit: DefaultLimit, SortOrder: SortDesc}
}

// ParseOptions reads page, limit, search, sortBy and sortOrder from a query
// string. Absent values take defaults; present but invalid values are rejected.
func ParseOptions(q url.Values) (Options, error) {
	opts := Defaults()

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Options{}, validation.New("page", "page must be a positive integer")
		}
		opts.Page = page
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Options{}, validation.New("limit", "limit must be a positive integer")
		}
		if limit > MaxLimit {
			return Options{}, validation.New("limit", "limit must be at most "+strconv.Itoa(MaxLimit))
		}
		opts.Limit = limit
	}

	if opts.Page-1 > MaxOffset/opts.Limit {
		return Options{}, validation.New("page", "page is too large")
	}

	opts.Search = strings.TrimSpace(q.Get("search"))
	opts.SortBy = strings.TrimSpace(q.Get("sortBy"))

	if raw := q.Get("sortOrder"); raw != "" {
		order := strings.ToUpper(strings.TrimSpace(raw))
		if order != SortAsc && order != SortDesc {
			return Options{}, validation.New("sortOrder", "sortOrder must be one of: ASC, DESC")
		}
		opts.SortOrder = order
	}

	return opts, nil
}

// Page is the envelope returned by paginated list endpoints.
type Page[T any] struct {
	Items           []T  `json:"items"`
	Total           int  `json:"total"`
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

func NewPage[T any](items []T, total int, opts Options) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if opts.Limit > 0 {
		totalPages = (total + opts.Limit - 1) / opts.Limit
	}
	return Page[T]{
		Items:           items,
		Total:           total,
		Page:            opts.Page,
		Limit:           opts.Limit,
		TotalPages:      totalPages,
		HasNextPage:     opts.Page < totalPages,
		HasPreviousPage: opts.Page > 1,
	}
}
