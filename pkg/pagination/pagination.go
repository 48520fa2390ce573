package pagination

import "strconv"

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows a list call can request.
	MaxPageSize = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Meta mirrors the pagination block the Kasir backend returns with lists.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Normalize enforces a 1-based page and the default/maximum page size.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	p.PageSize = NormalizePageSize(p.PageSize)
	return p
}

// NormalizePageSize enforces the configured default and maximum sizes.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// ParseParams reads page/pageSize query values, ignoring malformed input.
func ParseParams(page, pageSize string) Params {
	p := Params{}
	if v, err := strconv.Atoi(page); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(pageSize); err == nil {
		p.PageSize = v
	}
	return p.Normalize()
}

// TotalPages computes the page count for total rows at the given size.
func TotalPages(total, pageSize int) int {
	pageSize = NormalizePageSize(pageSize)
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
