package trademark

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	syllableFirst       = 0xAC00 // 가
	syllableLast        = 0xD7A3 // 힣
	syllablesPerInitial = 588    // 21 medials × 28 finals
)

// initialConsonants is the 19-symbol alphabet of syllable-initial consonants,
// indexed by (syllable − 0xAC00) / 588.
var initialConsonants = []rune("ㄱㄲㄴㄷㄸㄹㅁㅂㅃㅅㅆㅇㅈㅉㅊㅋㅌㅍㅎ")

func isInitialConsonant(r rune) bool {
	for _, c := range initialConsonants {
		if c == r {
			return true
		}
	}
	return false
}

// IsAllInitialConsonants reports whether s is non-empty and made up solely of
// initial-consonant symbols, e.g. "ㅅㅌㅂㅅ".
func IsAllInitialConsonants(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isInitialConsonant(r) {
			return false
		}
	}
	return true
}

// ExtractInitials replaces every precomposed Hangul syllable in s with its
// initial consonant and passes all other runes through.  The result has the
// same number of runes as s.
func ExtractInitials(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= syllableFirst && r <= syllableLast {
			r = initialConsonants[(r-syllableFirst)/syllablesPerInitial]
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize trims s and recomposes it to NFC so that decomposed jamo input
// ("ᄉ" + "ᅳ") is seen as the precomposed syllable ("스").
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
