package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"perlentaucher/internal/episodes"
	"perlentaucher/internal/fileutil"
	"perlentaucher/internal/logging"
	"perlentaucher/internal/mediathek"
	"perlentaucher/internal/services"
	"perlentaucher/internal/state"
)

// Recorder persists processing outcomes. *state.Store satisfies it.
type Recorder interface {
	Save(ctx context.Context, id string, rec state.Record)
}

// Options configures target directories and dry-run behaviour.
type Options struct {
	DownloadDir string
	SeriesDir   string
	DryRun      bool
}

// Job is a resolved entry ready for download.
type Job struct {
	EntryID   string
	Naming    Naming
	Candidate mediathek.Candidate
}

// SeasonJob is a series entry with its episode plan.
type SeasonJob struct {
	EntryID string
	Naming  Naming
	Plan    []episodes.Planned
}

// Result is the outcome of one download. Err is nil on success and carries
// a services marker otherwise. Season downloads fill Episodes and Labels.
type Result struct {
	EntryID  string
	Title    string
	Path     string
	Bytes    int64
	Existing bool
	DryRun   bool
	IsSeries bool
	Err      error

	Episodes []Result
	Labels   []string
}

// OK reports success.
func (r Result) OK() bool { return r.Err == nil }

// Succeeded counts successful episodes of a season result.
func (r Result) Succeeded() int {
	n := 0
	for _, ep := range r.Episodes {
		if ep.OK() {
			n++
		}
	}
	return n
}

// Orchestrator turns resolved candidates into files and state records.
type Orchestrator struct {
	fs       afero.Fs
	fetcher  *Fetcher
	recorder Recorder
	logger   *slog.Logger
	opts     Options
	progress ProgressFunc
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithFs replaces the filesystem used for existence checks and directories.
// It should match the fetcher's filesystem.
func WithFs(fsys afero.Fs) OrchestratorOption {
	return func(o *Orchestrator) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithProgress registers a progress listener for every download.
func WithProgress(fn ProgressFunc) OrchestratorOption {
	return func(o *Orchestrator) { o.progress = fn }
}

// NewOrchestrator builds an orchestrator. recorder may be nil.
func NewOrchestrator(opts Options, fetcher *Fetcher, recorder Recorder, logger *slog.Logger, options ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.SeriesDir == "" {
		opts.SeriesDir = opts.DownloadDir
	}
	o := &Orchestrator{
		fs:       afero.NewOsFs(),
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "download"),
		opts:     opts,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// MoviePath returns the target path for a movie job.
func (o *Orchestrator) MoviePath(job Job) string {
	return filepath.Join(o.opts.DownloadDir, job.Naming.MovieFileName(job.Candidate.VideoURL))
}

// EpisodePath returns the target path for an episode of job's series.
func (o *Orchestrator) EpisodePath(naming Naming, key *episodes.Key, videoURL string) string {
	return filepath.Join(naming.SeriesDir(o.opts.SeriesDir), naming.EpisodeFileName(key, videoURL))
}

// DownloadMovie fetches a movie into the download root and records the outcome.
func (o *Orchestrator) DownloadMovie(ctx context.Context, job Job) Result {
	res := o.fetch(ctx, job.Naming.Title, o.MoviePath(job), job.Candidate)
	res.EntryID = job.EntryID
	o.record(ctx, job.EntryID, job.Naming.Title, false, nil, res)
	return res
}

// DownloadFirstEpisode fetches the best-ranked candidate of a series into
// its series folder. The episode label comes from the candidate text when
// recognizable.
func (o *Orchestrator) DownloadFirstEpisode(ctx context.Context, job Job) Result {
	var key *episodes.Key
	if k, ok := episodes.Extract(job.Candidate); ok {
		key = &k
	}
	res := o.fetch(ctx, job.Naming.Title, o.EpisodePath(job.Naming, key, job.Candidate.VideoURL), job.Candidate)
	res.EntryID = job.EntryID
	res.IsSeries = true
	if key != nil {
		res.Labels = []string{key.Label()}
	}
	o.record(ctx, job.EntryID, job.Naming.Title, true, nil, res)
	return res
}

// DownloadSeason fetches every planned episode in order, one at a time. Each
// episode gets its own record under "<entry>_S##E##"; the entry itself gets a
// roll-up record that is successful when at least one episode succeeded and
// lists every planned episode label. Result.Labels holds only the episodes
// that succeeded. Cancellation stops the season and skips the roll-up.
func (o *Orchestrator) DownloadSeason(ctx context.Context, job SeasonJob) Result {
	logger := logging.WithContext(ctx, o.logger)
	rollup := Result{EntryID: job.EntryID, Title: job.Naming.Title, IsSeries: true, DryRun: o.opts.DryRun}
	planned := make([]string, 0, len(job.Plan))
	for _, p := range job.Plan {
		planned = append(planned, p.Key.Label())
	}

	for i, ep := range job.Plan {
		if err := ctx.Err(); err != nil {
			rollup.Err = services.Wrap(services.ErrCancelled, "download", "season", "season download cancelled", err)
			return rollup
		}
		key := ep.Key
		label := key.Label()
		episodeID := fmt.Sprintf("%s_%s", job.EntryID, label)
		episodeTitle := fmt.Sprintf("%s %s", job.Naming.Title, label)
		logger.Info("episode download starting",
			logging.String(logging.FieldEpisodeLabel, label),
			logging.Int(logging.FieldEpisodeIndex, i+1),
			logging.Int(logging.FieldEpisodeCount, len(job.Plan)),
			logging.Bool("fallback_numbering", ep.Assigned))

		path := o.EpisodePath(job.Naming, &key, ep.Scored.Candidate.VideoURL)
		res := o.fetch(ctx, episodeTitle, path, ep.Scored.Candidate)
		res.EntryID = episodeID
		res.IsSeries = true
		res.Labels = []string{label}
		o.record(ctx, episodeID, episodeTitle, false, nil, res)
		rollup.Episodes = append(rollup.Episodes, res)

		if errors.Is(res.Err, services.ErrCancelled) {
			rollup.Err = res.Err
			return rollup
		}
		if res.OK() {
			rollup.Labels = append(rollup.Labels, label)
			rollup.Bytes += res.Bytes
		}
	}

	if len(job.Plan) > 0 {
		rollup.Path = job.Naming.SeriesDir(o.opts.SeriesDir)
	}
	if rollup.Succeeded() == 0 {
		rollup.Err = services.Wrap(services.ErrDownloadFailed, "download", "season",
			fmt.Sprintf("no episode of %d downloaded", len(job.Plan)), nil)
	}
	o.record(ctx, job.EntryID, job.Naming.Title, true, planned, rollup)
	return rollup
}

func (o *Orchestrator) fetch(ctx context.Context, title, path string, c mediathek.Candidate) Result {
	logger := logging.WithContext(ctx, o.logger)
	res := Result{Title: title, Path: path, DryRun: o.opts.DryRun}

	exists, size, err := fileutil.Exists(o.fs, path)
	if err != nil {
		res.Err = services.Wrap(services.ErrDownloadFailed, "download", "stat target", "cannot inspect target path", err)
		return res
	}
	if exists {
		logger.Info("target already present, skipping transfer",
			logging.String("path", path),
			logging.String("size", fmt.Sprintf("%.1f MB", float64(size)/bytesPerMB)))
		res.Existing = true
		res.Bytes = size
		return res
	}
	if o.opts.DryRun {
		logger.Info("dry run: would download",
			logging.String("title", c.Title),
			logging.String("url", c.VideoURL),
			logging.String("path", path))
		return res
	}
	if c.VideoURL == "" {
		res.Err = services.Wrap(services.ErrDownloadFailed, "download", "fetch", "candidate has no video url", nil)
		return res
	}
	if err := o.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		res.Err = services.Wrap(services.ErrDownloadFailed, "download", "create directory", "target directory not writable", err)
		return res
	}

	logger.Info("download starting",
		logging.String("title", c.Title),
		logging.String("path", path))
	res.Bytes, res.Err = o.fetcher.Fetch(ctx, c.VideoURL, path, title, o.progress)
	switch {
	case res.Err == nil:
		logger.Info("download completed",
			logging.String("path", path),
			logging.Int64("bytes", res.Bytes))
	case errors.Is(res.Err, services.ErrCancelled):
		logger.Info("download cancelled", logging.String("path", path))
	default:
		logging.ErrorWithContext(logger, "download failed", "download_failed",
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "check the video url and free disk space"),
			logging.String(logging.FieldImpact, "entry is recorded as download_failed"),
			logging.Error(res.Err))
	}
	return res
}

// record commits the outcome unless the run is a dry run or the task was
// cancelled.
func (o *Orchestrator) record(ctx context.Context, id, title string, isSeries bool, labels []string, res Result) {
	if o.recorder == nil || o.opts.DryRun {
		return
	}
	status := services.StatusDownloadSuccess
	if res.Err != nil {
		var ok bool
		if status, ok = services.OutcomeStatus(res.Err); !ok {
			return
		}
	}
	rec := state.Record{
		Status:     status,
		MovieTitle: title,
		IsSeries:   isSeries,
		Episodes:   labels,
	}
	if res.Path != "" && len(res.Episodes) == 0 {
		rec.Filename = filepath.Base(res.Path)
	}
	o.recorder.Save(ctx, id, rec)
}
