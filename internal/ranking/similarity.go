package ranking

import (
	"strings"

	"perlentaucher/internal/textutil"
)

// TitleSimilarity scores how well result matches search in [0, 1].
//
// Exact (case and outer whitespace folded) is 1.0. A result that starts with
// the search title is 0.95, contains it 0.85, and a result contained in the
// search title 0.80. Otherwise the Jaccard index over significant words is
// used, boosted by 1.5 when every significant search word appears in the
// result (or 1.3 when every search word does), capped at 1.0.
func TitleSimilarity(search, result string) float64 {
	searchLower := strings.ToLower(strings.TrimSpace(search))
	resultLower := strings.ToLower(strings.TrimSpace(result))

	if searchLower == resultLower {
		return 1.0
	}
	if strings.Contains(resultLower, searchLower) {
		if strings.HasPrefix(resultLower, searchLower) {
			return 0.95
		}
		return 0.85
	}
	if strings.Contains(searchLower, resultLower) {
		return 0.80
	}

	searchSignificant := textutil.SignificantWords(search)
	resultSignificant := textutil.SignificantWords(result)

	searchWords := searchSignificant
	if len(searchWords) == 0 {
		searchWords = textutil.Words(searchLower)
	}
	resultWords := resultSignificant
	if len(resultWords) == 0 {
		resultWords = textutil.Words(resultLower)
	}
	if len(searchWords) == 0 || len(resultWords) == 0 {
		return 0
	}

	jaccard := searchWords.Jaccard(resultWords)
	switch {
	case len(searchSignificant) > 0 && searchSignificant.SubsetOf(resultWords):
		jaccard = min(1.0, jaccard*1.5)
	case searchWords.SubsetOf(resultWords):
		jaccard = min(1.0, jaccard*1.3)
	}
	return jaccard
}

// Contained reports whether either title contains the other, ignoring case
// and outer whitespace.
func Contained(search, result string) bool {
	s := strings.ToLower(strings.TrimSpace(search))
	r := strings.ToLower(strings.TrimSpace(result))
	return strings.Contains(r, s) || strings.Contains(s, r)
}
