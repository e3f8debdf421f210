package ranking

import (
	"regexp"
	"strconv"
	"strings"

	"perlentaucher/internal/config"
	"perlentaucher/internal/language"
	"perlentaucher/internal/mediathek"
)

// Weights are the additive score terms and the two similarity floors.
type Weights struct {
	Similarity      float64
	ProviderID      float64
	YearExact       float64
	YearNear        float64
	YearFar         float64
	SizePerGiB      float64
	LanguageMatch   float64
	LanguageAny     float64
	AudioMatch      float64
	AudioAny        float64
	DiscardBelow    float64
	RejectBestBelow float64
}

// WeightsFromConfig maps the [scoring] section onto Weights.
func WeightsFromConfig(s config.Scoring) Weights {
	return Weights{
		Similarity:      s.SimilarityWeight,
		ProviderID:      s.ProviderIDWeight,
		YearExact:       s.YearExactWeight,
		YearNear:        s.YearNearWeight,
		YearFar:         s.YearFarWeight,
		SizePerGiB:      s.SizeWeightPerGiB,
		LanguageMatch:   s.LanguageMatchWeight,
		LanguageAny:     s.LanguageAnyWeight,
		AudioMatch:      s.AudioMatchWeight,
		AudioAny:        s.AudioAnyWeight,
		DiscardBelow:    s.DiscardBelow,
		RejectBestBelow: s.RejectBestBelow,
	}
}

// DefaultWeights returns the tuned defaults.
func DefaultWeights() Weights {
	return WeightsFromConfig(config.DefaultScoring())
}

// Preferences are the user's language and audio description choices.
type Preferences struct {
	Language language.Preference
	Audio    language.AudioPreference
}

// Query describes what is being searched for. Year zero means unknown.
type Query struct {
	Title      string
	Year       int
	ProviderID string
}

// Breakdown lists the individual score terms for one candidate.
type Breakdown struct {
	Similarity float64
	Title      float64
	ProviderID float64
	Year       float64
	Size       float64
	Language   float64
	Audio      float64
}

// Total sums all terms.
func (b Breakdown) Total() float64 {
	return b.Title + b.ProviderID + b.Year + b.Size + b.Language + b.Audio
}

const bytesPerGiB = 1 << 30

var candidateYearPattern = regexp.MustCompile(`\((\d{4})\)`)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// Scorer computes additive candidate scores.
type Scorer struct {
	Weights     Weights
	Preferences Preferences
}

// Score returns the total score of c for q.
func (s Scorer) Score(c mediathek.Candidate, q Query) float64 {
	return s.Explain(c, q).Total()
}

// Explain returns the per-term score of c for q.
func (s Scorer) Explain(c mediathek.Candidate, q Query) Breakdown {
	w := s.Weights
	var b Breakdown

	if q.Title != "" {
		b.Similarity = TitleSimilarity(q.Title, c.Title)
		b.Title = b.Similarity * w.Similarity
	}

	text := strings.ToLower(c.Title + " " + c.Topic + " " + c.Description)
	if q.ProviderID != "" && providerIDMatches(q.ProviderID, text) {
		b.ProviderID = w.ProviderID
	}

	if q.Year > 0 {
		if m := candidateYearPattern.FindStringSubmatch(c.Title + " " + c.Topic + " " + c.Description); m != nil {
			found, _ := strconv.Atoi(m[1])
			diff := abs(found - q.Year)
			switch {
			case diff == 0:
				b.Year = w.YearExact
			case diff == 1:
				b.Year = w.YearNear
			case diff == 2:
				b.Year = w.YearFar
			}
		}
	}

	if c.SizeBytes > 0 {
		b.Size = float64(c.SizeBytes) / bytesPerGiB * w.SizePerGiB
	}

	detectText := language.Text(c.Title, c.Description, c.Topic)
	switch {
	case s.Preferences.Language == language.Any:
		b.Language = w.LanguageAny
	case s.Preferences.Language.Matches(language.Detect(detectText)):
		b.Language = w.LanguageMatch
	}

	switch {
	case s.Preferences.Audio == language.AudioAny:
		b.Audio = w.AudioAny
	case s.Preferences.Audio.Matches(language.HasAudioDescription(detectText)):
		b.Audio = w.AudioMatch
	}
	return b
}

// ProviderIDVariants lists the spellings under which a provider id such as
// "[tmdbid-603]" may appear in catalog text: the bare id, "tt…" style
// suffixes, the trailing number and type-N, type:N and type N forms.
func ProviderIDVariants(providerID string) []string {
	clean := strings.ToLower(strings.Trim(strings.TrimSpace(providerID), "[]"))
	m := trailingDigits.FindStringSubmatch(clean)
	if m == nil {
		return nil
	}
	number := m[1]
	variants := []string{clean, number}
	if kind, suffix, ok := strings.Cut(clean, "-"); ok {
		if suffix != number {
			variants = append(variants, suffix)
		}
		variants = append(variants, kind+"-"+number, kind+":"+number, kind+" "+number)
	}
	return variants
}

func providerIDMatches(providerID, text string) bool {
	for _, variant := range ProviderIDVariants(providerID) {
		if variant != "" && strings.Contains(text, variant) {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
