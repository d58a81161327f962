// Package pagination normalises page/limit query parameters and shapes paged
// results.
package pagination

import "strconv"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a normalised page request. Page starts at 1.
type Params struct {
	Page  int
	Limit int
}

// Parse reads raw page and limit values. Missing or malformed values fall back
// to page 1 and DefaultLimit; limit is clamped to MaxLimit.
func Parse(page, limit string) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n >= 1 {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes a page within a result set.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of items plus its metadata.
type Page[T any] struct {
	Meta Meta `json:"meta"`
	Data []T  `json:"data"`
}

// New wraps items that were already limited by the store.
func New[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{
		Meta: Meta{Total: total, Page: p.Page, PerPage: p.Limit, TotalPages: totalPages},
		Data: items,
	}
}

// Slice pages an in-memory result set.
func Slice[T any](items []T, p Params) Page[T] {
	total := len(items)
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)
	return New(items[start:end], total, p)
}
