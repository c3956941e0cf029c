package search

import (
	"fmt"
	"strings"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

// Route is the retrieval path chosen for a query.
type Route int

const (
	// RouteMatchAll serves an empty query from the index, ordered by
	// application number.
	RouteMatchAll Route = iota
	// RouteInitialConsonant serves a consonant-only query ("ㅅㅌㅂㅅ") by
	// fetching filtered candidates and matching them in-process.
	RouteInitialConsonant
	// RouteKeyword serves any other query from the index, with an in-process
	// fallback when the index finds too little.
	RouteKeyword
)

var routeNames = map[Route]string{
	RouteMatchAll:         "match_all",
	RouteInitialConsonant: "initial_consonant",
	RouteKeyword:          "keyword",
}

func (r Route) String() string {
	if s, ok := routeNames[r]; ok {
		return s
	}
	return fmt.Sprintf("route(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Route) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Route) UnmarshalText(b []byte) error {
	for route, name := range routeNames {
		if name == string(b) {
			*r = route
			return nil
		}
	}
	return fmt.Errorf("search: unknown route %q", string(b))
}

// Classify picks the route for a query text.
func Classify(text string) Route {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return RouteMatchAll
	case trademark.IsAllInitialConsonants(text):
		return RouteInitialConsonant
	default:
		return RouteKeyword
	}
}
