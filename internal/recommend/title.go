package recommend

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"perlentaucher/internal/services"
)

// titlePatterns are tried in order; the first capture group is the title.
var titlePatterns = []*regexp.Regexp{
	// German low-high quotes: „Titel“ (any closing double quote)
	regexp.MustCompile(`\x{201E}(.+?)[\x{201C}\x{201D}\x{201F}\x{2033}\x{2036}"]`),
	// straight quotes
	regexp.MustCompile(`"([^"]+?)"`),
	// any remaining opening/closing pair, single quotes included
	regexp.MustCompile(`[\x{201E}\x{201C}\x{201D}\x{201F}\x{2033}\x{2036}"\x{2018}\x{2019}\x{201A}\x{201B}]([^\x{201C}\x{201D}\x{201F}\x{2033}\x{2036}"\x{2018}\x{2019}\x{201A}\x{201B}]+?)[\x{201C}\x{201D}\x{201F}\x{2033}\x{2036}"\x{2018}\x{2019}\x{201A}\x{201B}]`),
}

var yearPattern = regexp.MustCompile(`\((\d{4})\)`)

// ExtractTitle returns the quoted title inside a feed headline such as
// `Director – „Movie“ (2010)`. It fails with services.ErrTitleExtraction when
// no quoted span exists.
func ExtractTitle(headline string) (string, error) {
	for _, pattern := range titlePatterns {
		if m := pattern.FindStringSubmatch(headline); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				return title, nil
			}
		}
	}
	return "", services.Wrap(services.ErrTitleExtraction, "recommend", "extract title", headline, nil)
}

// ExtractYear returns the first parenthesized four digit year in text when
// it lies in [1900, now.Year()+10].
func ExtractYear(text string, now time.Time) (int, bool) {
	m := yearPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if year < 1900 || year > now.Year()+10 {
		return 0, false
	}
	return year, true
}
