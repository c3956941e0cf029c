package search

import (
	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

// Query is one search request.
type Query struct {
	Text    string                 `json:"q"`
	Filters trademark.FilterParams `json:"filters"`
	Offset  int                    `json:"offset"`
	Limit   int                    `json:"limit"`
}

// ResultPage is one page of ranked matches.  Results is the contiguous slice
// of the full ranked match set starting at Offset; Total counts that whole
// set.
type ResultPage struct {
	Total   int64             `json:"total"`
	Offset  int               `json:"offset"`
	Limit   int               `json:"limit"`
	Results []trademark.Match `json:"results"`

	// Approximate is set when the candidate fetch hit the safety cap, so Total
	// and Results cover only the capped candidate set.
	Approximate bool `json:"approximate,omitempty"`
	// Fallback is set when in-process fuzzy matches were merged into a
	// keyword result.
	Fallback bool  `json:"fallback,omitempty"`
	Route    Route `json:"route"`
}

// ClampPage forces offset to be >= 0 and limit into [1, maxLimit].
func ClampPage(offset, limit, maxLimit int) (int, int) {
	if maxLimit < 1 {
		maxLimit = 1
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

// Assemble pages a fully ranked match set.  It never returns more than the
// clamped limit, and an offset past the end yields an empty page with the
// full Total.
func Assemble(ranked []trademark.Match, offset, limit, maxLimit int) *ResultPage {
	offset, limit = ClampPage(offset, limit, maxLimit)
	page := &ResultPage{
		Total:   int64(len(ranked)),
		Offset:  offset,
		Limit:   limit,
		Results: []trademark.Match{},
	}
	if offset >= len(ranked) {
		return page
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	page.Results = append(page.Results, ranked[offset:end]...)
	return page
}
