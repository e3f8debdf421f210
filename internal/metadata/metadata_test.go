package metadata_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"perlentaucher/internal/logging"
	"perlentaucher/internal/metadata"
)

type fakeProvider struct {
	name    string
	tag     string
	matches map[metadata.Kind]metadata.Match
	err     error
	calls   []metadata.Kind
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Tag() string  { return f.tag }

func (f *fakeProvider) Lookup(_ context.Context, _ string, _ int, kind metadata.Kind) (metadata.Match, bool, error) {
	f.calls = append(f.calls, kind)
	if f.err != nil {
		return metadata.Match{}, false, f.err
	}
	m, ok := f.matches[kind]
	return m, ok, nil
}

func TestResolvePrefersFirstProviderMovie(t *testing.T) {
	primary := &fakeProvider{name: "tmdb", tag: "tmdbid", matches: map[metadata.Kind]metadata.Match{
		metadata.KindMovie: {ID: "27205", Year: 2010},
		metadata.KindTV:    {ID: "1"},
	}}
	fallback := &fakeProvider{name: "omdb", tag: "imdbid"}
	r := metadata.NewResolver(logging.NewNop(), primary, fallback)

	got := r.Resolve(context.Background(), "Inception", 0)
	want := metadata.Metadata{Year: 2010, ProviderID: "[tmdbid-27205]", ContentType: metadata.ContentMovie}
	if got != want {
		t.Fatalf("Resolve = %+v, want %+v", got, want)
	}
	if len(fallback.calls) != 0 {
		t.Fatal("fallback should not be queried after a match")
	}
}

func TestResolveFallsBackToTVThenSecondProvider(t *testing.T) {
	primary := &fakeProvider{name: "tmdb", tag: "tmdbid", err: errors.New("boom")}
	fallback := &fakeProvider{name: "omdb", tag: "imdbid", matches: map[metadata.Kind]metadata.Match{
		metadata.KindTV: {ID: "tt5753856"},
	}}
	r := metadata.NewResolver(logging.NewNop(), primary, fallback)

	got := r.Resolve(context.Background(), "Dark", 2017)
	if got.ContentType != metadata.ContentTV || got.ProviderID != "[imdbid-tt5753856]" || got.Year != 2017 {
		t.Fatalf("unexpected metadata %+v", got)
	}
	if len(primary.calls) != 2 {
		t.Fatalf("primary should be asked for movie and tv, got %v", primary.calls)
	}
}

func TestResolveWithoutProviders(t *testing.T) {
	r := metadata.NewResolver(logging.NewNop(), nil)
	if r.Enabled() {
		t.Fatal("resolver without providers should be disabled")
	}
	got := r.Resolve(context.Background(), "X", 1999)
	if got.ContentType != metadata.ContentUnknown || got.Year != 1999 || got.HasProviderID() {
		t.Fatalf("unexpected metadata %+v", got)
	}
}

func TestRetryable(t *testing.T) {
	cases := map[error]bool{
		&metadata.StatusError{Status: http.StatusTooManyRequests}:  true,
		&metadata.StatusError{Status: http.StatusBadGateway}:       true,
		&metadata.StatusError{Status: http.StatusNotFound}:         false,
		context.Canceled:                                           false,
		errors.New("connection reset"):                             true,
	}
	for err, want := range cases {
		if got := metadata.Retryable(err); got != want {
			t.Errorf("Retryable(%v) = %v, want %v", err, got, want)
		}
	}
}
