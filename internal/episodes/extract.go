package episodes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"perlentaucher/internal/mediathek"
)

// Key identifies an episode within a series.
type Key struct {
	Season  int
	Episode int
}

// Label renders the key as S##E##.
func (k Key) Label() string {
	return fmt.Sprintf("S%02dE%02d", k.Season, k.Episode)
}

func (k Key) String() string { return k.Label() }

// Less orders keys by season, then episode.
func (k Key) Less(other Key) bool {
	if k.Season != other.Season {
		return k.Season < other.Season
	}
	return k.Episode < other.Episode
}

type rule struct {
	name    string
	pattern *regexp.Regexp
	// fixedSeason is used when the pattern carries no season group.
	fixedSeason int
	// contextSeason looks for "Staffel N" elsewhere before falling back to fixedSeason.
	contextSeason bool
	// requires is an extra lowercase substring the text must contain.
	requires string
}

var contextSeasonPattern = regexp.MustCompile(`(?i)(?:staffel|saison|season)\s+(\d+)`)

// Ordered: the first matching rule wins. nxm only accepts an x separator so
// sizes ("1.5 GB") and dates ("12.03.2027") are not read as episodes.
var rules = []rule{
	{name: "sxxexx", pattern: regexp.MustCompile(`\b[Ss]\s*(\d+)\s*[Ee]\s*(\d+)`)},
	{name: "staffel-episode", pattern: regexp.MustCompile(`(?i)(?:staffel|season)\s+(\d+)[\s,]*episode\s+(\d+)`)},
	{name: "staffel-fraction", pattern: regexp.MustCompile(`(?i)(?:saison|staffel)\s+(\d+)\s*\((\d+)/\d+\)`)},
	{name: "return-fraction", pattern: regexp.MustCompile(`\((\d+)/\d+\)`), fixedSeason: 3, requires: "return"},
	{name: "folge", pattern: regexp.MustCompile(`[Ff]olge\s+(\d+)`), fixedSeason: 1, contextSeason: true},
	{name: "episode", pattern: regexp.MustCompile(`[Ee]pisode\s+(\d+)`), fixedSeason: 1, contextSeason: true},
	{name: "nxm", pattern: regexp.MustCompile(`\b(\d{1,2})[xX](\d{1,3})\b`)},
	{name: "fraction", pattern: regexp.MustCompile(`\((\d+)/\d+\)`), fixedSeason: 1, contextSeason: true},
	{name: "teil", pattern: regexp.MustCompile(`(?i)(?:episode|teil|folge)\s+(\d+)`), fixedSeason: 1, contextSeason: true},
}

// Extract parses season and episode numbers from the candidate's combined
// title, topic and description. The second result is false when nothing
// recognizable is present.
func Extract(c mediathek.Candidate) (Key, bool) {
	return ExtractText(c.Title + " " + c.Topic + " " + c.Description)
}

// ExtractText applies the pattern cascade to free text.
func ExtractText(text string) (Key, bool) {
	key, _, ok := extract(text)
	return key, ok
}

// Rule reports which pattern matched text, or "" when none did.
func Rule(text string) string {
	_, name, _ := extract(text)
	return name
}

func extract(text string) (Key, string, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.requires != "" && !strings.Contains(lower, r.requires) {
			continue
		}
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) == 3 {
			return Key{Season: atoi(m[1]), Episode: atoi(m[2])}, r.name, true
		}
		season := r.fixedSeason
		if r.contextSeason {
			if sm := contextSeasonPattern.FindStringSubmatch(text); sm != nil {
				season = atoi(sm[1])
			}
		}
		return Key{Season: season, Episode: atoi(m[1])}, r.name, true
	}
	return Key{}, "", false
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
