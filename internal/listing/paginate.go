package listing

import "strconv"

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Number     int  `json:"page"`
	NumPages   int  `json:"num_pages"`
	Total      int  `json:"total"`
	PerPage    int  `json:"per_page"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_previous"`
	NextNumber int  `json:"next_page,omitempty"`
	PrevNumber int  `json:"previous_page,omitempty"`
}

// ParsePage reads a page query value. Anything that is not a positive
// integer becomes page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate slices items into pages of perPage. A page past the end is
// clamped to the last page; an empty list still has one (empty) page.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = len(items)
		if perPage == 0 {
			perPage = 1
		}
	}
	total := len(items)
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	lo := (page - 1) * perPage
	hi := min(lo+perPage, total)

	p := Page[T]{
		Items:    append([]T{}, items[lo:hi]...),
		Number:   page,
		NumPages: pages,
		Total:    total,
		PerPage:  perPage,
		HasNext:  page < pages,
		HasPrev:  page > 1,
	}
	if p.HasNext {
		p.NextNumber = page + 1
	}
	if p.HasPrev {
		p.PrevNumber = page - 1
	}
	return p
}
