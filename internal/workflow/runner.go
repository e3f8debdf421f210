package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"

	"perlentaucher/internal/config"
	"perlentaucher/internal/download"
	"perlentaucher/internal/feed"
	"perlentaucher/internal/language"
	"perlentaucher/internal/logging"
	"perlentaucher/internal/mediathek"
	"perlentaucher/internal/metadata"
	"perlentaucher/internal/metadata/omdb"
	"perlentaucher/internal/metadata/tmdb"
	"perlentaucher/internal/notifications"
	"perlentaucher/internal/ranking"
	"perlentaucher/internal/recommend"
	"perlentaucher/internal/services"
	"perlentaucher/internal/state"
)

// SeriesMode selects what happens to series recommendations.
type SeriesMode string

const (
	SeriesFirstEpisode SeriesMode = "erste"
	SeriesWholeSeason  SeriesMode = "staffel"
	SeriesSkip         SeriesMode = "keine"
)

// FeedSource supplies feed entries.
type FeedSource interface {
	Fetch(ctx context.Context, opts feed.Options) ([]feed.Entry, error)
}

// StateStore is the ledger surface the runner needs.
type StateStore interface {
	LoadAll() map[string]struct{}
	Save(ctx context.Context, id string, rec state.Record)
}

// Deps are the collaborators of a run. Metadata and Notifier may be nil.
type Deps struct {
	Feed         FeedSource
	Metadata     metadata.Lookup
	Catalog      mediathek.Searcher
	Store        StateStore
	Notifier     notifications.Service
	Orchestrator *download.Orchestrator
	Fs           afero.Fs
}

// Runner executes one pass over the feed.
type Runner struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger

	classifier  recommend.Classifier
	scorer      ranking.Scorer
	seriesMode  SeriesMode
	force       bool
	concurrency int
	now         func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithForce ignores existing state records for this run.
func WithForce(force bool) Option {
	return func(r *Runner) { r.force = force }
}

// WithClock overrides the time source used for year plausibility checks.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New builds a runner over explicit collaborators.
func New(cfg *config.Config, deps Deps, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(&config.Config{})
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	prefLanguage, _ := language.ParsePreference(cfg.Preferences.Language)
	prefAudio, _ := language.ParseAudioPreference(cfg.Preferences.AudioDescription)
	r := &Runner{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "workflow"),
		classifier: recommend.Classifier{
			RequiredTag:     cfg.Feed.RequiredTag,
			ExcludedMarkers: cfg.Feed.ExcludedMarkers,
		},
		scorer: ranking.Scorer{
			Weights:     ranking.WeightsFromConfig(cfg.Scoring),
			Preferences: ranking.Preferences{Language: prefLanguage, Audio: prefAudio},
		},
		seriesMode:  SeriesMode(strings.ToLower(strings.TrimSpace(cfg.Preferences.SeriesMode))),
		concurrency: cfg.Download.Concurrency,
		now:         time.Now,
	}
	if r.seriesMode == "" {
		r.seriesMode = SeriesFirstEpisode
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildOptions carries front-end hooks for NewFromConfig.
type BuildOptions struct {
	Progress   download.ProgressFunc
	HTTPClient *http.Client
	Runner     []Option
}

// NewFromConfig wires every collaborator from configuration. Metadata
// providers are only enabled when their API key is present.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, build BuildOptions) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := build.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.Search.TimeoutSeconds) * time.Second}
	}

	var providers []metadata.Provider
	if key := strings.TrimSpace(cfg.TMDB.APIKey); key != "" {
		client, err := tmdb.New(key, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithHTTPClient(httpClient))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "tmdb client", "invalid tmdb settings", err)
		}
		providers = append(providers, client)
	}
	if key := strings.TrimSpace(cfg.OMDb.APIKey); key != "" {
		client, err := omdb.New(key, cfg.OMDb.BaseURL, omdb.WithHTTPClient(httpClient))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "omdb client", "invalid omdb settings", err)
		}
		providers = append(providers, client)
	}

	statePath := cfg.Paths.StateFile
	if cfg.Paths.StateDisabled {
		statePath = ""
	}
	store := state.Open(statePath, logger)

	fsys := afero.NewOsFs()
	fetcher := download.NewFetcher(fsys, time.Duration(cfg.Download.TimeoutSeconds)*time.Second, cfg.Download.ChunkSize, logger)
	orchestrator := download.NewOrchestrator(download.Options{
		DownloadDir: cfg.Paths.DownloadDir,
		SeriesDir:   cfg.EffectiveSeriesDir(),
		DryRun:      cfg.Download.DryRun,
	}, fetcher, store, logger, download.WithFs(fsys), download.WithProgress(build.Progress))

	deps := Deps{
		Feed:     feed.NewSource(cfg.Feed.URL, logger, feed.WithHTTPClient(httpClient)),
		Metadata: metadata.NewResolver(logger, providers...),
		Catalog: mediathek.NewClient(mediathek.Options{
			APIURL:           cfg.Search.APIURL,
			Timeout:          time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
			ResultSize:       cfg.Search.ResultSize,
			SeriesResultSize: cfg.Search.SeriesResultSize,
			HTTPClient:       httpClient,
		}, logger),
		Store:        store,
		Notifier:     notifications.NewService(cfg),
		Orchestrator: orchestrator,
		Fs:           fsys,
	}
	if len(providers) == 0 {
		logger.Info("metadata lookup disabled; set tmdb.api_key or omdb.api_key to enable provider ids")
	}
	return New(cfg, deps, logger, build.Runner...), nil
}

func (r *Runner) describe() string {
	return fmt.Sprintf("language=%s audio=%s series=%s", r.scorer.Preferences.Language, r.scorer.Preferences.Audio, r.seriesMode)
}
