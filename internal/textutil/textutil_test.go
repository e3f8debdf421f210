package textutil_test

import (
	"testing"

	"perlentaucher/internal/textutil"
)

func TestNormalizeSearchTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dalíland", "Daliland"},
		{"\u201eDas Boot\u201c", `"Das Boot"`},
		{"Tod\u2013Leben", "Tod-Leben"},
		{"Warten…", "Warten..."},
		{"Die  Blechtrommel", "Die Blechtrommel"},
		{"Am\u00e9lie\u200b", "Amelie"},
		{"Es war einmal in Amerika’s", "Es war einmal in Amerika's"},
		{"Die Straße", "Die Strasse"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := textutil.NormalizeSearchTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeSearchTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSearchTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Dalíland", "„Das Boot“ — Director’s Cut…", "Crème brûlée  au lait", "北京", "Ærø Ø",
	}
	for _, in := range inputs {
		once := textutil.NormalizeSearchTitle(in)
		twice := textutil.NormalizeSearchTitle(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	got := textutil.SanitizeFileName(`AC/DC: Live? "Wien" <1> | *`)
	want := `AC_DC_ Live_ _Wien_ _1_ _ _`
	if got != want {
		t.Fatalf("SanitizeFileName = %q, want %q", got, want)
	}
	if got := textutil.SanitizeFileName("Schöne Grüße (2020)"); got != "Schöne Grüße (2020)" {
		t.Fatalf("umlauts should survive, got %q", got)
	}
}

func TestSignificantWords(t *testing.T) {
	words := textutil.SignificantWords("Der Name der Rose X")
	if len(words) != 2 {
		t.Fatalf("expected 2 significant words, got %v", words)
	}
	for _, w := range []string{"name", "rose"} {
		if _, ok := words[w]; !ok {
			t.Fatalf("missing %q in %v", w, words)
		}
	}
	if !textutil.IsStopWord("Über") {
		t.Fatal("über should be a stop word")
	}
}

func TestWordSetJaccard(t *testing.T) {
	a := textutil.Words("das leben der anderen")
	b := textutil.Words("das leben")
	if got := b.Jaccard(a); got != 0.5 {
		t.Fatalf("Jaccard = %v, want 0.5", got)
	}
	if !b.SubsetOf(a) {
		t.Fatal("b should be a subset of a")
	}
	if got := (textutil.WordSet{}).Jaccard(textutil.WordSet{}); got != 0 {
		t.Fatalf("empty Jaccard = %v", got)
	}
}
