package models

import "net/url"

// ListingQuery captures the upstream query policy for one pipeline run.
type ListingQuery struct {
	OrderBy   string
	Statuses  []string
	FirstPage int
	LastPage  int
	Overrides url.Values
}

// Pages returns the inclusive page range, never empty.
func (q ListingQuery) Pages() []int {
	first := q.FirstPage
	if first < 1 {
		first = 1
	}
	last := q.LastPage
	if last < first {
		last = first
	}
	pages := make([]int, 0, last-first+1)
	for page := first; page <= last; page++ {
		pages = append(pages, page)
	}
	return pages
}
