package textutil

import "strings"

// stopWords are German and English function words ignored by title matching.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"die", "der", "das", "den", "dem", "des", "ein", "eine", "einer", "einem", "einen", "eines",
		"und", "oder", "aber", "doch", "sondern", "sowie", "wie", "als", "wenn", "ob", "dass",
		"the", "a", "an", "and", "or", "but", "if", "of", "to", "in", "on", "at", "for", "with",
		"von", "zu", "auf", "für", "mit", "über", "unter", "durch", "bei", "nach", "vor",
		"am", "im", "zum", "zur", "vom", "beim", "ins", "ans", "durchs", "übers", "unters",
	} {
		stopWords[w] = struct{}{}
	}
}

// WordSet is a set of lowercase whitespace-separated words.
type WordSet map[string]struct{}

// Words splits text on whitespace after lowercasing it.
func Words(text string) WordSet {
	fields := strings.Fields(strings.ToLower(text))
	set := make(WordSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// SignificantWords returns the words of text minus stop words and single
// characters.
func SignificantWords(text string) WordSet {
	set := Words(text)
	for w := range set {
		if _, stop := stopWords[w]; stop || len([]rune(w)) < 2 {
			delete(set, w)
		}
	}
	return set
}

// IsStopWord reports whether w (any case) is ignored by title matching.
func IsStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

// SubsetOf reports whether every word of s is also in other.
func (s WordSet) SubsetOf(other WordSet) bool {
	for w := range s {
		if _, ok := other[w]; !ok {
			return false
		}
	}
	return true
}

// Jaccard returns |s ∩ other| / |s ∪ other|, or 0 when both are empty.
func (s WordSet) Jaccard(other WordSet) float64 {
	if len(s) == 0 && len(other) == 0 {
		return 0
	}
	intersection := 0
	for w := range s {
		if _, ok := other[w]; ok {
			intersection++
		}
	}
	union := len(s) + len(other) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
