package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var typographicReplacer = strings.NewReplacer(
	// double quotes
	"\u201E", `"`, "\u201C", `"`, "\u201D", `"`, "\u201F", `"`, "\u2033", `"`, "\u2036", `"`,
	// single quotes and primes
	"\u2018", "'", "\u2019", "'", "\u201A", "'", "\u201B", "'", "\u2032", "'", "\u2035", "'",
	"\u275D", "'", "\u275E", "'",
	// dashes
	"\u2014", "-", "\u2015", "-", "\u2013", "-", "\u2212", "-",
	"\u2026", "...",
	// space variants
	"\u00A0", " ", "\u2000", " ", "\u2001", " ", "\u2002", " ", "\u2003", " ", "\u2004", " ",
	"\u2005", " ", "\u2006", " ", "\u2007", " ", "\u2008", " ", "\u2009", " ",
	// zero width
	"\u200B", "", "\uFEFF", "",
)

// NormalizeSearchTitle folds a title into the ASCII form sent to the search
// catalog. The result is never used for display or file names. Applying it
// twice yields the same string.
func NormalizeSearchTitle(title string) string {
	if title == "" {
		return title
	}
	folded := typographicReplacer.Replace(title)

	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripMarks, folded); err == nil {
		folded = stripped
	}

	if !isASCII(folded) {
		folded = unidecode.Unidecode(folded)
	}
	return strings.Join(strings.Fields(folded), " ")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
