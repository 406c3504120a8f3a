package engine

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// similarity is the SequenceMatcher ratio of two normalized names, 2*M/T where M is
// the number of matched characters and T the total length of both strings.
// Returns a value between 0.0 (nothing in common) and 1.0 (identical).
func similarity(candidate, word string) float64 {
	if candidate == word {
		return 1.0
	}
	m := difflib.NewMatcher(strings.Split(candidate, ""), strings.Split(word, ""))
	return m.Ratio()
}

// closestName returns the name in names with the highest ratio against word, or
// ok=false when none reaches cutoff. Ties go to the lexically greater name so the
// choice does not depend on directory order.
func closestName(word string, names []string, cutoff float64) (best string, score float64, ok bool) {
	if word == "" {
		return "", 0, false
	}
	for _, name := range names {
		s := similarity(name, word)
		if s < cutoff {
			continue
		}
		if !ok || s > score || (s == score && name > best) {
			best, score, ok = name, s, true
		}
	}
	return best, score, ok
}
