package trademark

import "sort"

// Scanner evaluates an indexed search over records fed one at a time.  Stores
// without a query engine (memory, badger) stream their records through it.
type Scanner struct {
	cond    *TextCondition
	preds   Predicates
	matches []Match
}

// NewScanner returns a Scanner for cond (nil matches all) and preds.
func NewScanner(cond *TextCondition, preds Predicates) *Scanner {
	return &Scanner{cond: cond, preds: preds}
}

// Add evaluates t and keeps it when it matches.
func (s *Scanner) Add(t *Trademark) {
	if !s.preds.Matches(t) {
		return
	}
	score, ok := s.cond.Evaluate(t)
	if !ok {
		return
	}
	s.matches = append(s.matches, Match{Trademark: t, Score: score})
}

// Page sorts the kept matches and returns the requested window and the total.
func (s *Scanner) Page(offset, limit int) ([]Match, int64) {
	SortMatches(s.matches, s.cond != nil)
	total := int64(len(s.matches))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.matches) || limit <= 0 {
		return []Match{}, total
	}
	end := offset + limit
	if end > len(s.matches) {
		end = len(s.matches)
	}
	out := make([]Match, end-offset)
	copy(out, s.matches[offset:end])
	return out, total
}

// DistinctSet accumulates distinct values of a field.
type DistinctSet map[string]struct{}

// Add records the values of field held by t.
func (d DistinctSet) Add(t *Trademark, field DistinctField) {
	switch field {
	case DistinctStatus:
		if t.RegisterStatus != "" {
			d[t.RegisterStatus] = struct{}{}
		}
	case DistinctProductCode:
		for _, c := range t.ProductMainCodes {
			if c != "" {
				d[c] = struct{}{}
			}
		}
	}
}

// Sorted returns the values in ascending order.
func (d DistinctSet) Sorted() []string {
	out := make([]string, 0, len(d))
	for v := range d {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
