package language

import "strings"

// Preference is the requested audio language.
type Preference string

const (
	German  Preference = "deutsch"
	English Preference = "englisch"
	Any     Preference = "egal"
)

// AudioPreference is the requested audio-description handling.
type AudioPreference string

const (
	AudioWith    AudioPreference = "mit"
	AudioWithout AudioPreference = "ohne"
	AudioAny     AudioPreference = "egal"
)

type alias struct {
	pref  Preference
	words []string
}

var preferenceAliases = []alias{
	{German, []string{"deutsch", "german", "de", "deu", "ger"}},
	{English, []string{"englisch", "english", "en", "eng"}},
	{Any, []string{"egal", "any", "beliebig", ""}},
}

var byAlias map[string]Preference

func init() {
	byAlias = make(map[string]Preference)
	for _, a := range preferenceAliases {
		for _, w := range a.words {
			byAlias[w] = a.pref
		}
	}
}

// ParsePreference maps a CLI or config value to a Preference.
func ParsePreference(value string) (Preference, bool) {
	pref, ok := byAlias[strings.ToLower(strings.TrimSpace(value))]
	return pref, ok
}

// ParseAudioPreference maps mit/ohne/egal (and English spellings) to an AudioPreference.
func ParseAudioPreference(value string) (AudioPreference, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mit", "with", "yes", "ja":
		return AudioWith, true
	case "ohne", "without", "no", "nein":
		return AudioWithout, true
	case "egal", "any", "":
		return AudioAny, true
	default:
		return "", false
	}
}

var englishMarkers = []string{
	"omdt", "omdt.", "om u", "original mit deutschen untertiteln",
	"originalfassung", "englisch", "english", "ov ", " o.v.",
	"original version",
}

var germanMarkers = []string{
	"dt.", "deutsch", "df", "deutsche fassung",
	"synchronfassung", "synchronisiert",
}

var audioDescriptionMarkers = []string{
	"audiodeskription", "audio-deskription", "hörfilm",
	"hörfassung", "ad ", " mit ad", "audiodeskriptive",
}

// Text joins candidate fields into the lowercase haystack the detectors scan.
func Text(title, description, topic string) string {
	return strings.ToLower(title + " " + description + " " + topic)
}

// Detect returns English only when English markers are present and German
// markers are absent. Everything else is German.
func Detect(text string) Preference {
	text = strings.ToLower(text)
	if containsAny(text, englishMarkers) && !containsAny(text, germanMarkers) {
		return English
	}
	return German
}

// HasAudioDescription reports whether text announces an audio-described version.
func HasAudioDescription(text string) bool {
	return containsAny(strings.ToLower(text), audioDescriptionMarkers)
}

// Matches reports whether a detected language satisfies the preference.
// Any never matches so callers can score it separately.
func (p Preference) Matches(detected Preference) bool {
	return p != Any && p == detected
}

// Matches reports whether the presence of audio description satisfies the preference.
func (p AudioPreference) Matches(hasAD bool) bool {
	switch p {
	case AudioWith:
		return hasAD
	case AudioWithout:
		return !hasAD
	default:
		return false
	}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
