// Package similarity holds the string and numeric helpers shared by the
// scorers: accent-insensitive matching, subject keyword overlap and the
// normalization curves used to map raw counts into [0,1].
package similarity

import (
	"math"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RelatedThreshold is the keyword overlap above which two subjects are related.
const RelatedThreshold = 0.30

var stopWords = map[string]bool{
	"de": true, "la": true, "el": true, "los": true, "las": true, "del": true,
	"al": true, "y": true, "e": true, "o": true, "u": true, "en": true,
	"a": true, "un": true, "una": true, "unos": true, "unas": true,
	"para": true, "por": true, "con": true, "sin": true, "sus": true,
	"que": true, "como": true, "sobre": true, "entre": true, "hacia": true,
	"the": true, "and": true, "for": true, "iii": true,
}

// Normalize lowercases s and strips diacritics, so "Cálculo" becomes "calculo".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// FuzzyMatch reports whether either string contains the other, ignoring case
// and accents.
func FuzzyMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// MatchesAny reports whether s fuzzy-matches at least one candidate.
func MatchesAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if FuzzyMatch(s, c) {
			return true
		}
	}
	return false
}

// Keywords extracts the significant tokens of a subject name.
func Keywords(s string) []string {
	words := strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var keywords []string
	for _, word := range words {
		if len([]rune(word)) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// SubjectOverlap returns the share of candidate keywords found in other.
func SubjectOverlap(candidate, other string) float64 {
	candTokens := Keywords(candidate)
	if len(candTokens) == 0 {
		return 0
	}
	otherTokens := Keywords(other)
	if len(otherTokens) == 0 {
		return 0
	}

	matched := 0
	for _, ct := range candTokens {
		for _, ot := range otherTokens {
			if ct == ot || strings.Contains(ct, ot) || strings.Contains(ot, ct) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(candTokens))
}

// Related reports whether candidate shares enough keywords with other.
func Related(candidate, other string) bool {
	return SubjectOverlap(candidate, other) > RelatedThreshold
}

// RelatedCount counts the subjects related to candidate.
func RelatedCount(candidate string, subjects []string) int {
	count := 0
	for _, s := range subjects {
		if Related(candidate, s) {
			count++
		}
	}
	return count
}

// ArrayOverlap returns the share of a that fuzzy-matches some element of b.
func ArrayOverlap(a, b []string) float64 {
	if len(a) == 0 {
		return 0
	}
	matched := 0
	for _, x := range a {
		if MatchesAny(x, b) {
			matched++
		}
	}
	return float64(matched) / float64(len(a))
}

// Jaccard calculates the Jaccard similarity between two normalized sets.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set1 := make(map[string]bool)
	for _, s := range a {
		set1[Normalize(s)] = true
	}
	set2 := make(map[string]bool)
	for _, s := range b {
		set2[Normalize(s)] = true
	}

	intersection := 0
	for s := range set1 {
		if set2[s] {
			intersection++
		}
	}

	union := len(set1)
	for s := range set2 {
		if !set1[s] {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeRange maps v from [min,max] into [0,1].
func NormalizeRange(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return Clamp01((v - min) / (max - min))
}

// Confidence grows from 0 towards 1 as the number of observations increases.
func Confidence(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1 - 1/(1+float64(n)/10)
}

// Freshness is 1.0 for content younger than 30 days, decays linearly to 0.5
// at 180 days and stays at 0.5 after that.
func Freshness(age time.Duration) float64 {
	days := age.Hours() / 24
	switch {
	case days < 30:
		return 1.0
	case days >= 180:
		return 0.5
	default:
		return 1.0 - 0.5*(days-30)/150
	}
}
