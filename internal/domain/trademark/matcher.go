package trademark

import "strings"

// Match thresholds for Matches.
const (
	DefaultMatchThreshold  = 0.6
	FallbackMatchThreshold = 0.3
)

// Matches decides whether text fuzzily matches query.  Checks run cheapest
// first: plain containment, containment in the initial-consonant rendering of
// text, then Similarity against threshold.  An empty text or query never
// matches.
func Matches(text, query string, threshold float64) bool {
	if text == "" || query == "" {
		return false
	}
	lt, lq := strings.ToLower(text), strings.ToLower(query)
	if strings.Contains(lt, lq) {
		return true
	}
	if strings.Contains(strings.ToLower(ExtractInitials(text)), lq) {
		return true
	}
	return Similarity(text, query) >= threshold
}

// MatchScore ranks text against query for the in-process path.  It takes the
// better of the direct similarity and the similarity of the initial-consonant
// rendering, so "ㅅㅌㅂㅅ" scores against "스타벅스" as a containment.
func MatchScore(text, query string) float64 {
	s := Similarity(text, query)
	if s >= ContainmentScore {
		return s
	}
	if is := Similarity(ExtractInitials(text), query); is > s {
		return is
	}
	return s
}

// MatchRecord applies Matches to the record's name fields.
func MatchRecord(t *Trademark, query string, threshold float64) bool {
	for _, name := range t.Names() {
		if Matches(name, query, threshold) {
			return true
		}
	}
	return false
}

// ScoreRecord is the best MatchScore over the record's name fields.
func ScoreRecord(t *Trademark, query string) float64 {
	best := 0.0
	for _, name := range t.Names() {
		if s := MatchScore(name, query); s > best {
			best = s
		}
	}
	return best
}
