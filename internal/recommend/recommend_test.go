package recommend_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"perlentaucher/internal/config"
	"perlentaucher/internal/feed"
	"perlentaucher/internal/metadata"
	"perlentaucher/internal/recommend"
	"perlentaucher/internal/services"
)

var now = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		headline string
		want     string
	}{
		{"Christopher Nolan – „Inception“ (2010)", "Inception"},
		{"Teaser \"Traumdiebe\" – „Inception“ (2010)", "Inception"},
		{"Regie – „Der Himmel über Berlin” (1987)", "Der Himmel über Berlin"},
		{"Regie – „Das Boot\" (1981)", "Das Boot"},
		{`Regie - "Paterson" (2016)`, "Paterson"},
		{"Regie – “Stalker” (1979)", "Stalker"},
		{"Regie – ‘Le Samouraï’", "Le Samouraï"},
	}
	for _, tt := range tests {
		got, err := recommend.ExtractTitle(tt.headline)
		if err != nil {
			t.Fatalf("ExtractTitle(%q): %v", tt.headline, err)
		}
		if got != tt.want {
			t.Errorf("ExtractTitle(%q) = %q, want %q", tt.headline, got, tt.want)
		}
	}
}

func TestExtractTitleFails(t *testing.T) {
	_, err := recommend.ExtractTitle("Ein Film ohne Anführungszeichen (2001)")
	if !errors.Is(err, services.ErrTitleExtraction) {
		t.Fatalf("expected ErrTitleExtraction, got %v", err)
	}
}

func TestExtractYear(t *testing.T) {
	for year := 1900; year <= now.Year()+10; year += 7 {
		got, ok := recommend.ExtractYear(fmt.Sprintf("Regie – „Film“ (%d)", year), now)
		if !ok || got != year {
			t.Fatalf("ExtractYear(%d) = %d,%v", year, got, ok)
		}
	}
	for _, text := range []string{"„Film“ (1899)", fmt.Sprintf("„Film“ (%d)", now.Year()+11), "„Film“", "„Film“ 2001"} {
		if _, ok := recommend.ExtractYear(text, now); ok {
			t.Errorf("ExtractYear(%q) should fail", text)
		}
	}
}

func TestIsGenuineRecommendation(t *testing.T) {
	c := recommend.Classifier{RequiredTag: "mediathekperlen", ExcludedMarkers: config.DefaultExcludedMarkers}
	tests := []struct {
		name string
		tags []string
		want bool
	}{
		{"qualifying tag", []string{"Mediathekperlen", "Drama"}, true},
		{"missing tag", []string{"Drama"}, false},
		{"meta post", []string{"Mediathekperlen", "In eigener Sache"}, false},
		{"announcement", []string{"Mediathekperlen", "Ankündigungen"}, false},
		{"blog", []string{"Mediathekperlen", "Blogparade"}, false},
		{"no tags", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsGenuineRecommendation(feed.Entry{Tags: tt.tags}); got != tt.want {
				t.Fatalf("IsGenuineRecommendation(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestIsSeries(t *testing.T) {
	tests := []struct {
		name        string
		entry       feed.Entry
		contentType metadata.ContentType
		want        bool
	}{
		{"series tag wins over movie metadata", feed.Entry{Title: "„X“", Tags: []string{"TV-Serien"}}, metadata.ContentMovie, true},
		{"metadata tv", feed.Entry{Title: "„X“"}, metadata.ContentTV, true},
		{"metadata movie beats title words", feed.Entry{Title: "„Die Folge“"}, metadata.ContentMovie, false},
		{"title keyword", feed.Entry{Title: "„Babylon Berlin“ Staffel 1"}, metadata.ContentUnknown, true},
		{"plain movie", feed.Entry{Title: "„Inception“ (2010)"}, metadata.ContentUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recommend.IsSeries(tt.entry, tt.contentType); got != tt.want {
				t.Fatalf("IsSeries = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractScenario(t *testing.T) {
	entry := feed.Entry{ID: "1", Title: "Christopher Nolan – „Inception“ (2010)", Tags: []string{"Mediathekperlen"}}
	rec, err := recommend.Extract(entry, now)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.ExtractedTitle != "Inception" || !rec.HasYear || rec.Year != 2010 {
		t.Fatalf("unexpected recommendation %+v", rec)
	}
	if recommend.IsSeries(entry, metadata.ContentUnknown) {
		t.Fatal("Inception is not a series")
	}
}
