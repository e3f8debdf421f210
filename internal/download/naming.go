package download

import (
	"fmt"
	"path/filepath"
	"strings"

	"perlentaucher/internal/episodes"
	"perlentaucher/internal/textutil"
)

// Naming carries the library-facing identity of a download.
type Naming struct {
	Title      string
	Year       int
	ProviderID string
}

// Extension picks the container suffix from the video URL.
func Extension(videoURL string) string {
	if strings.HasSuffix(strings.ToLower(videoURL), ".mkv") {
		return "mkv"
	}
	return "mp4"
}

func (n Naming) base() []string {
	parts := []string{textutil.SanitizeFileName(n.Title)}
	if n.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", n.Year))
	}
	return parts
}

// MovieFileName renders "Title (Year) [providerId].ext".
func (n Naming) MovieFileName(videoURL string) string {
	parts := n.base()
	if n.ProviderID != "" {
		parts = append(parts, n.ProviderID)
	}
	return strings.Join(parts, " ") + "." + Extension(videoURL)
}

// SeriesDir is the per-series folder "Title (Year)" below root.
func (n Naming) SeriesDir(root string) string {
	return filepath.Join(root, strings.Join(n.base(), " "))
}

// EpisodeFileName renders "Title (Year) - S01E02 [providerId].ext". A key
// with season zero renders as "- E02"; a nil key omits the episode part.
func (n Naming) EpisodeFileName(key *episodes.Key, videoURL string) string {
	parts := n.base()
	switch {
	case key == nil:
	case key.Season > 0:
		parts = append(parts, "- "+key.Label())
	default:
		parts = append(parts, fmt.Sprintf("- E%02d", key.Episode))
	}
	if n.ProviderID != "" {
		parts = append(parts, n.ProviderID)
	}
	return strings.Join(parts, " ") + "." + Extension(videoURL)
}
