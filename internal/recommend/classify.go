package recommend

import (
	"strings"
	"time"

	"perlentaucher/internal/feed"
	"perlentaucher/internal/metadata"
)

// Classifier decides which feed entries are recommendations worth resolving.
type Classifier struct {
	RequiredTag     string
	ExcludedMarkers []string
}

// IsGenuineRecommendation requires the qualifying tag and rejects entries
// carrying any tag that contains an excluded marker.
func (c Classifier) IsGenuineRecommendation(entry feed.Entry) bool {
	required := strings.ToLower(strings.TrimSpace(c.RequiredTag))
	found := false
	tags := make([]string, 0, len(entry.Tags))
	for _, tag := range entry.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if tag == required {
			found = true
		}
	}
	if !found {
		return false
	}
	for _, tag := range tags {
		for _, marker := range c.ExcludedMarkers {
			if marker != "" && strings.Contains(tag, strings.ToLower(marker)) {
				return false
			}
		}
	}
	return true
}

var seriesTitleWords = []string{"serie", "series", "staffel", "folge", "episode"}

// IsSeries decides in three tiers: a series tag wins outright, then a movie
// or tv content type from metadata, then series words in the title.
func IsSeries(entry feed.Entry, contentType metadata.ContentType) bool {
	for _, tag := range entry.Tags {
		tag = strings.ToLower(tag)
		if strings.Contains(tag, "tv-serie") || strings.Contains(tag, "serie") {
			return true
		}
	}
	switch contentType {
	case metadata.ContentTV:
		return true
	case metadata.ContentMovie:
		return false
	}
	title := strings.ToLower(entry.Title)
	for _, word := range seriesTitleWords {
		if strings.Contains(title, word) {
			return true
		}
	}
	return false
}

// Recommendation is the resolved view of a feed entry.
type Recommendation struct {
	Entry          feed.Entry
	ExtractedTitle string
	Year           int
	HasYear        bool
	IsSeries       bool
}

// Extract builds a Recommendation from entry. The series flag is left for
// the caller, which may consult metadata first.
func Extract(entry feed.Entry, now time.Time) (Recommendation, error) {
	title, err := ExtractTitle(entry.Title)
	if err != nil {
		return Recommendation{Entry: entry}, err
	}
	rec := Recommendation{Entry: entry, ExtractedTitle: title}
	rec.Year, rec.HasYear = ExtractYear(entry.Title, now)
	return rec, nil
}
