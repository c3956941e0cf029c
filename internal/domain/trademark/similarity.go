package trademark

import "strings"

// ContainmentScore is the similarity assigned when the text contains the
// query outright.
const ContainmentScore = 0.9

// Similarity scores how well a matches b in [0, 1].
//
// When a contains b (case-insensitively) the score is ContainmentScore,
// otherwise it is the trigram Jaccard index of the two strings.  The measure
// is asymmetric: Similarity("스타벅스커피", "스타벅스") is 0.9 while the
// reverse falls through to the trigram comparison.
func Similarity(a, b string) float64 {
	if b == "" {
		return 0
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if strings.Contains(la, lb) {
		return ContainmentScore
	}
	return trigramSimilarity(la, lb)
}

// trigramSimilarity is |T(a) ∩ T(b)| / |T(a) ∪ T(b)| over rune trigrams.
// Strings shorter than three runes have no trigrams; they score 1 when equal
// and 0 otherwise.
func trigramSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 3 || len(rb) < 3 {
		if a == b && a != "" {
			return 1
		}
		return 0
	}
	ta, tb := trigrams(ra), trigrams(rb)
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigrams(r []rune) map[string]struct{} {
	set := make(map[string]struct{}, len(r)-2)
	for i := 0; i+3 <= len(r); i++ {
		set[string(r[i:i+3])] = struct{}{}
	}
	return set
}
