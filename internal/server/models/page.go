package models

import "math"

// Page is one slice of an ordered listing plus the markers a client needs to
// link to neighbouring pages. Page numbers start at 1; NextPage and PrevPage
// are 0 when there is no such page.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
	NextPage int   `json:"next_page"`
	PrevPage int   `json:"prev_page"`
}

// Offset is the number of rows to skip for page at perPage rows each. It
// saturates at math.MaxInt instead of wrapping.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// PageCount is how many pages total rows fill at perPage rows each.
func PageCount(total int64, perPage int) int64 {
	if total <= 0 || perPage < 1 {
		return 0
	}
	n := total / int64(perPage)
	if total%int64(perPage) != 0 {
		n++
	}
	return n
}

// NewPage fills in the navigation markers from the total row count.
// A page past the end keeps its number and simply has no items.
func NewPage[T any](items []T, page, perPage int, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	p := &Page[T]{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasPrev: page > 1,
		HasNext: int64(page) < PageCount(total, perPage),
	}
	if p.HasNext {
		p.NextPage = page + 1
	}
	if p.HasPrev {
		p.PrevPage = page - 1
	}
	return p
}
