package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"perlentaucher/internal/config"
	"perlentaucher/internal/download"
	"perlentaucher/internal/feed"
	"perlentaucher/internal/mediathek"
	"perlentaucher/internal/metadata"
	"perlentaucher/internal/notifications"
	"perlentaucher/internal/services"
	"perlentaucher/internal/state"
	"perlentaucher/internal/workflow"
)

type fakeFeed struct {
	entries []feed.Entry
	err     error
}

func (f fakeFeed) Fetch(context.Context, feed.Options) ([]feed.Entry, error) {
	return f.entries, f.err
}

type fakeCatalog struct {
	mu          sync.Mutex
	movies      map[string][]mediathek.Candidate
	series      map[string][]mediathek.Candidate
	err         error
	searches    int
	seriesCalls int
}

func (c *fakeCatalog) Search(_ context.Context, title string) ([]mediathek.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches++
	return c.movies[title], c.err
}

func (c *fakeCatalog) SearchSeries(_ context.Context, title string) ([]mediathek.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seriesCalls++
	return c.series[title], c.err
}

type memStore struct {
	mu      sync.Mutex
	records map[string]state.Record
}

func newMemStore() *memStore { return &memStore{records: map[string]state.Record{}} }

func (s *memStore) LoadAll() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.records))
	for id := range s.records {
		out[id] = struct{}{}
	}
	return out
}

func (s *memStore) Save(_ context.Context, id string, rec state.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = rec
}

func (s *memStore) get(id string) (state.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Notify(context.Context, notifications.Message) error { return nil }

func (n *recordingNotifier) has(event notifications.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

type fixedMetadata metadata.Metadata

func (m fixedMetadata) Resolve(context.Context, string, int) metadata.Metadata {
	return metadata.Metadata(m)
}

type harness struct {
	cfg      *config.Config
	fs       afero.Fs
	catalog  *fakeCatalog
	store    *memStore
	notifier *recordingNotifier
	media    *httptest.Server
	feed     fakeFeed
	meta     metadata.Lookup
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write([]byte(strings.Repeat("v", 4096)))
	})
	mux.HandleFunc("/missing/", http.NotFound)
	media := httptest.NewServer(mux)
	t.Cleanup(media.Close)

	cfg := config.Default()
	cfg.Paths.DownloadDir = "/downloads"
	cfg.Paths.SeriesDir = "/series"
	return &harness{
		cfg:      &cfg,
		fs:       afero.NewMemMapFs(),
		catalog:  &fakeCatalog{movies: map[string][]mediathek.Candidate{}, series: map[string][]mediathek.Candidate{}},
		store:    newMemStore(),
		notifier: &recordingNotifier{},
		media:    media,
	}
}

func (h *harness) runner(opts ...workflow.Option) *workflow.Runner {
	fetcher := download.NewFetcher(h.fs, 5*time.Second, 1024, nil)
	orch := download.NewOrchestrator(download.Options{
		DownloadDir: h.cfg.Paths.DownloadDir,
		SeriesDir:   h.cfg.EffectiveSeriesDir(),
		DryRun:      h.cfg.Download.DryRun,
	}, fetcher, h.store, nil, download.WithFs(h.fs))
	return workflow.New(h.cfg, workflow.Deps{
		Feed:         h.feed,
		Metadata:     h.meta,
		Catalog:      h.catalog,
		Store:        h.store,
		Notifier:     h.notifier,
		Orchestrator: orch,
		Fs:           h.fs,
	}, nil, append([]workflow.Option{
		workflow.WithClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }),
	}, opts...)...)
}

func recommendation(id, headline string, tags ...string) feed.Entry {
	return feed.Entry{
		ID:    id,
		Title: headline,
		Link:  "https://example.org/" + id,
		Tags:  append([]string{"Mediathekperlen"}, tags...),
	}
}

func TestRunDownloadsMovie(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "Christopher Nolan – „Inception“ (2010)")}}
	h.catalog.movies["Inception"] = []mediathek.Candidate{
		{Title: "Inception", Topic: "Spielfilm", Channel: "ARD", SizeBytes: 4096, VideoURL: h.media.URL + "/ok/inception.mp4"},
		{Title: "Inception - Making of", Topic: "Doku", Channel: "ARD", SizeBytes: 10, VideoURL: h.media.URL + "/ok/making.mp4"},
	}

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Downloaded != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	rec, ok := h.store.get("e1")
	if !ok || rec.Status != services.StatusDownloadSuccess {
		t.Fatalf("record = %+v, %v", rec, ok)
	}
	if rec.Filename != "Inception (2010).mp4" {
		t.Errorf("filename = %q", rec.Filename)
	}
	if exists, _ := afero.Exists(h.fs, "/downloads/Inception (2010).mp4"); !exists {
		t.Error("movie file missing")
	}
	if !h.notifier.has(notifications.EventDownloadSucceeded) || !h.notifier.has(notifications.EventRunCompleted) {
		t.Errorf("events = %v", h.notifier.events)
	}
}

func TestRunUsesMetadataForNaming(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "„Inception“")}}
	h.meta = fixedMetadata{Year: 2010, ProviderID: "[tmdbid-27205]", ContentType: metadata.ContentMovie}
	h.catalog.movies["Inception"] = []mediathek.Candidate{
		{Title: "Inception", VideoURL: h.media.URL + "/ok/inception.mkv"},
	}

	if _, err := h.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, _ := h.store.get("e1")
	if rec.Filename != "Inception (2010) [tmdbid-27205].mkv" {
		t.Errorf("filename = %q", rec.Filename)
	}
}

func TestRunRecordsNonRecommendationsAndTitleFailures(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{
		{ID: "meta", Title: "In eigener Sache", Tags: []string{"Blog"}},
		recommendation("noquote", "Ein Film ohne Anführungszeichen"),
	}}

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec, _ := h.store.get("meta"); rec.Status != services.StatusSkipped || rec.MovieTitle != "In eigener Sache" {
		t.Errorf("meta record = %+v", rec)
	}
	if rec, _ := h.store.get("noquote"); rec.Status != services.StatusTitleExtractionFailed {
		t.Errorf("noquote record = %+v", rec)
	}
	if summary.Skipped != 1 || summary.TitleFailures != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if h.catalog.searches != 0 {
		t.Errorf("searches = %d, want 0", h.catalog.searches)
	}
}

func TestRunIsIdempotentAfterNotFound(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "„Nirgendwo“ (1999)")}}

	first, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.NotFound != 1 {
		t.Fatalf("first summary = %+v", first)
	}
	if rec, _ := h.store.get("e1"); rec.Status != services.StatusNotFound || rec.MovieTitle != "Nirgendwo" {
		t.Fatalf("record = %+v", rec)
	}
	if !h.notifier.has(notifications.EventNotFound) {
		t.Errorf("events = %v", h.notifier.events)
	}

	second, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.AlreadyProcessed != 1 || h.catalog.searches != 1 {
		t.Errorf("second summary = %+v, searches = %d", second, h.catalog.searches)
	}
}

func TestRunForceReprocesses(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "„Nirgendwo“")}}
	h.store.Save(context.Background(), "e1", state.Record{Status: services.StatusNotFound})

	if _, err := h.runner(workflow.WithForce(true)).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.catalog.searches != 1 {
		t.Errorf("searches = %d, want 1", h.catalog.searches)
	}
}

func TestRunRejectsWeakBestMatch(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "„Alpha Beta Gamma Delta Epsilon Zeta“")}}
	h.catalog.movies["Alpha Beta Gamma Delta Epsilon Zeta"] = []mediathek.Candidate{
		{Title: "Alpha Omega Sigma Tau", VideoURL: h.media.URL + "/ok/other.mp4"},
	}

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.NotFound != 1 || summary.Downloaded != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if !h.notifier.has(notifications.EventNoRelevantMatch) {
		t.Errorf("events = %v", h.notifier.events)
	}
}

func TestRunDefersOnSearchNetworkError(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "„Inception“")}}
	h.catalog.err = services.Wrap(services.ErrNetwork, "mediathek", "search", "unreachable", nil)

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Deferred != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if _, ok := h.store.get("e1"); ok {
		t.Error("deferred entry must not be recorded")
	}
}

func TestRunRecordsDownloadFailure(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "„Inception“")}}
	h.catalog.movies["Inception"] = []mediathek.Candidate{
		{Title: "Inception", VideoURL: h.media.URL + "/missing/inception.mp4"},
	}

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if rec, _ := h.store.get("e1"); rec.Status != services.StatusDownloadFailed {
		t.Errorf("record = %+v", rec)
	}
	if !h.notifier.has(notifications.EventDownloadFailed) {
		t.Errorf("events = %v", h.notifier.events)
	}
}

func TestRunSkipsSeriesWhenDisabled(t *testing.T) {
	h := newHarness(t)
	h.cfg.Preferences.SeriesMode = "keine"
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("s1", "„Dark“", "TV-Serien")}}

	if _, err := h.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, _ := h.store.get("s1")
	if rec.Status != services.StatusSkipped || !rec.IsSeries || rec.MovieTitle != "Dark" {
		t.Errorf("record = %+v", rec)
	}
	if h.catalog.searches+h.catalog.seriesCalls != 0 {
		t.Error("skipped series must not be searched")
	}
}

func TestRunDownloadsFirstEpisode(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("s1", "„Dark“", "TV-Serien")}}
	h.catalog.movies["Dark"] = []mediathek.Candidate{
		{Title: "Dark (S01/E01)", Topic: "Dark", VideoURL: h.media.URL + "/ok/dark1.mp4"},
	}

	if _, err := h.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, _ := h.store.get("s1")
	if rec.Status != services.StatusDownloadSuccess || !rec.IsSeries {
		t.Errorf("record = %+v", rec)
	}
	if h.catalog.seriesCalls != 0 {
		t.Error("first-episode mode must use the movie search")
	}
}

func TestRunDownloadsWholeSeason(t *testing.T) {
	h := newHarness(t)
	h.cfg.Preferences.SeriesMode = "staffel"
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("s1", "„Dark“", "TV-Serien")}}
	h.catalog.series["Dark"] = []mediathek.Candidate{
		{Title: "Dark - Folge 2 (S01/E02)", Topic: "Dark", VideoURL: h.media.URL + "/ok/dark2.mp4"},
		{Title: "Dark - Folge 1 (S01/E01)", Topic: "Dark", VideoURL: h.media.URL + "/ok/dark1.mp4"},
		{Title: "Dark - Folge 4 (S01/E04)", Topic: "Dark", VideoURL: h.media.URL + "/missing/dark4.mp4"},
	}

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Downloaded != 1 {
		t.Errorf("summary = %+v", summary)
	}
	for _, id := range []string{"s1_S01E01", "s1_S01E02"} {
		if rec, _ := h.store.get(id); rec.Status != services.StatusDownloadSuccess {
			t.Errorf("%s record = %+v", id, rec)
		}
	}
	if rec, _ := h.store.get("s1_S01E04"); rec.Status != services.StatusDownloadFailed {
		t.Errorf("S01E04 record = %+v", rec)
	}
	rollup, _ := h.store.get("s1")
	if rollup.Status != services.StatusDownloadSuccess || !rollup.IsSeries {
		t.Errorf("roll-up = %+v", rollup)
	}
	if strings.Join(rollup.Episodes, ",") != "S01E01,S01E02,S01E04" {
		t.Errorf("roll-up episodes = %v", rollup.Episodes)
	}
	if !h.notifier.has(notifications.EventSeasonCompleted) {
		t.Errorf("events = %v", h.notifier.events)
	}
}

func TestRunDryRunLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	h.cfg.Download.DryRun = true
	h.feed = fakeFeed{entries: []feed.Entry{
		recommendation("e1", "„Inception“"),
		recommendation("e2", "„Nirgendwo“"),
	}}
	h.catalog.movies["Inception"] = []mediathek.Candidate{
		{Title: "Inception", VideoURL: h.media.URL + "/ok/inception.mp4"},
	}

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.DryRun || summary.Downloaded != 1 || summary.NotFound != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(h.store.LoadAll()) != 0 {
		t.Error("dry run wrote state")
	}
	if len(h.notifier.events) != 0 {
		t.Errorf("dry run notified: %v", h.notifier.events)
	}
	if exists, _ := afero.Exists(h.fs, "/downloads/Inception.mp4"); exists {
		t.Error("dry run wrote a file")
	}
}

func TestRunFailsOnUnwritableRoot(t *testing.T) {
	h := newHarness(t)
	h.fs = afero.NewReadOnlyFs(afero.NewMemMapFs())
	h.feed = fakeFeed{entries: []feed.Entry{recommendation("e1", "„Inception“")}}

	_, err := h.runner().Run(context.Background())
	if !errors.Is(err, services.ErrUnwritableRoot) {
		t.Fatalf("err = %v, want ErrUnwritableRoot", err)
	}
	if h.catalog.searches != 0 {
		t.Error("run continued after root check failed")
	}
}

func TestRunSurvivesFeedFailure(t *testing.T) {
	h := newHarness(t)
	h.feed = fakeFeed{err: services.Wrap(services.ErrNetwork, "feed", "fetch", "down", nil)}

	summary, err := h.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FeedErr == nil || summary.Entries != 0 {
		t.Errorf("summary = %+v", summary)
	}
}
