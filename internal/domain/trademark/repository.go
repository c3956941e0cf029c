package trademark

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/trademark-search/pkg/errors"
)

// DistinctField names a column whose distinct values can be listed.
type DistinctField string

const (
	DistinctStatus      DistinctField = "registerStatus"
	DistinctProductCode DistinctField = "asignProductMainCodeList"
)

// DefaultIndexedMinSimilarity is the trigram similarity above which the
// indexed path accepts a name as a fuzzy hit.
const DefaultIndexedMinSimilarity = 0.3

// TextCondition is the text part of an indexed search.  A record satisfies it
// when a name contains Query, a name is at least MinSimilarity similar to
// Query, the application number contains Query, or one of the registration
// numbers equals Query.
type TextCondition struct {
	Query         string
	MinSimilarity float64
}

// NewTextCondition returns nil for an empty query, meaning "match all".
func NewTextCondition(query string, minSimilarity float64) *TextCondition {
	if query == "" {
		return nil
	}
	if minSimilarity <= 0 {
		minSimilarity = DefaultIndexedMinSimilarity
	}
	return &TextCondition{Query: query, MinSimilarity: minSimilarity}
}

// Score is the indexed relevance of t: the best Similarity over its names.
func (c *TextCondition) Score(t *Trademark) float64 {
	best := 0.0
	for _, name := range t.Names() {
		if s := Similarity(name, c.Query); s > best {
			best = s
		}
	}
	return best
}

// Evaluate reports whether t satisfies the condition together with its
// score.  It is the in-process rendering used by stores without a query
// engine; a nil condition matches everything with score 0.
func (c *TextCondition) Evaluate(t *Trademark) (float64, bool) {
	if c == nil {
		return 0, true
	}
	score := c.Score(t)
	if score >= c.MinSimilarity {
		return score, true
	}
	q := strings.ToLower(c.Query)
	if strings.Contains(strings.ToLower(t.ApplicationNumber), q) {
		return score, true
	}
	for _, rn := range t.RegistrationNumber {
		if rn == c.Query {
			return score, true
		}
	}
	return score, false
}

// SortMatches orders ms in place.  Scored results go by descending score and
// then ascending application number; unscored ones by application number
// alone.
func SortMatches(ms []Match, scored bool) {
	sort.SliceStable(ms, func(i, j int) bool {
		if scored && ms[i].Score != ms[j].Score {
			return ms[i].Score > ms[j].Score
		}
		return ms[i].Trademark.ApplicationNumber < ms[j].Trademark.ApplicationNumber
	})
}

// ErrNotFound builds the error returned when no record has the given
// application number.
func ErrNotFound(applicationNumber string) error {
	return errors.New(errors.CodeTrademarkNotFound, "trademark not found").
		WithDetail("applicationNumber=" + applicationNumber)
}

// Repository is the storage contract of the search engine.
type Repository interface {
	// IndexedSearch returns one page of records satisfying cond and preds,
	// ordered by score desc then application number asc (application number
	// only when cond is nil), together with the total match count.  The bool
	// reports that the backend ranked a bounded window instead of every
	// match, so total is a lower bound.
	IndexedSearch(ctx context.Context, cond *TextCondition, preds Predicates, offset, limit int) ([]Match, int64, bool, error)

	// FetchCandidates returns up to limit records satisfying preds, in no
	// particular order.  The bool reports whether more records existed.
	FetchCandidates(ctx context.Context, preds Predicates, limit int) ([]*Trademark, bool, error)

	// ListDistinct returns the sorted distinct non-empty values of field.
	ListDistinct(ctx context.Context, field DistinctField) ([]string, error)

	// FindByApplicationNumber returns errors.CodeTrademarkNotFound when absent.
	FindByApplicationNumber(ctx context.Context, applicationNumber string) (*Trademark, error)

	// Upsert inserts or replaces records keyed by application number.
	Upsert(ctx context.Context, records []*Trademark) error

	Ping(ctx context.Context) error
}
