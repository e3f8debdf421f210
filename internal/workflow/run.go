package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"perlentaucher/internal/download"
	"perlentaucher/internal/episodes"
	"perlentaucher/internal/feed"
	"perlentaucher/internal/fileutil"
	"perlentaucher/internal/logging"
	"perlentaucher/internal/metadata"
	"perlentaucher/internal/notifications"
	"perlentaucher/internal/ranking"
	"perlentaucher/internal/recommend"
	"perlentaucher/internal/services"
	"perlentaucher/internal/state"
)

const (
	statusDryRun    = "dry_run"
	statusCancelled = "cancelled"
)

// Run processes the feed once. Entries are resolved sequentially; downloads
// run on a bounded pool and Run waits for all of them. Only an unwritable
// download root aborts the run; every other failure is confined to its entry.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	summary := Summary{RunID: runID, DryRun: r.cfg.Download.DryRun}

	if !r.cfg.Download.DryRun {
		for _, dir := range r.roots() {
			if err := fileutil.EnsureWritableDir(r.deps.Fs, dir); err != nil {
				logging.ErrorWithContext(logger, "download root not writable", "root_unwritable",
					logging.String("dir", dir),
					logging.Alert("download_root"),
					logging.String(logging.FieldErrorHint, "check paths.download_dir and paths.series_dir permissions"),
					logging.Error(err))
				return summary, services.Wrap(services.ErrUnwritableRoot, "workflow", "prepare roots",
					fmt.Sprintf("cannot write to %s", dir), err)
			}
		}
	}

	logger.Info("run starting",
		logging.String("feed", r.cfg.Feed.URL),
		logging.String("download_dir", r.cfg.Paths.DownloadDir),
		logging.Bool("dry_run", r.cfg.Download.DryRun),
		logging.Bool("force", r.force),
		logging.String("preferences", r.describe()))

	entries, err := r.deps.Feed.Fetch(ctx, feed.Options{
		Limit:    r.cfg.Feed.Limit,
		Lookback: time.Duration(r.cfg.Feed.LookbackDays) * 24 * time.Hour,
	})
	if err != nil {
		summary.FeedErr = err
		logging.ErrorWithContext(logger, "feed unavailable", "feed_failed",
			logging.String(logging.FieldErrorHint, "check feed.url and network connectivity"),
			logging.String(logging.FieldImpact, "no entries processed this run"),
			logging.Error(err))
	}
	summary.Entries = len(entries)

	processed := map[string]struct{}{}
	if !r.force && r.deps.Store != nil {
		processed = r.deps.Store.LoadAll()
	}

	queue := download.NewQueue(ctx, r.concurrency)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if _, done := processed[entry.ID]; done {
			summary.AlreadyProcessed++
			logger.Debug("entry already processed", logging.String(logging.FieldEntryID, entry.ID))
			continue
		}
		r.processEntry(services.WithEntryID(ctx, entry.ID), entry, queue, &summary)
	}

	for _, res := range queue.Wait() {
		switch {
		case errors.Is(res.Err, services.ErrCancelled):
			summary.Cancelled++
			summary.addDownload(res, statusCancelled)
		case res.Err != nil:
			summary.Failed++
			status, _ := services.OutcomeStatus(res.Err)
			summary.addDownload(res, status)
		case res.DryRun && !res.Existing:
			summary.Downloaded++
			summary.addDownload(res, statusDryRun)
		default:
			summary.Downloaded++
			summary.addDownload(res, services.StatusDownloadSuccess)
		}
	}
	summary.Duration = time.Since(started)

	logger.Info("run finished",
		logging.Int("entries", summary.Entries),
		logging.Int("downloaded", summary.Downloaded),
		logging.Int("not_found", summary.NotFound),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("already_processed", summary.AlreadyProcessed),
		logging.Int("deferred", summary.Deferred),
		logging.Duration("duration", summary.Duration))

	if summary.Entries > summary.AlreadyProcessed {
		r.publish(ctx, notifications.EventRunCompleted, notifications.Payload{
			"downloaded": summary.Downloaded,
			"not_found":  summary.NotFound,
			"failed":     summary.Failed,
			"skipped":    summary.Skipped + summary.TitleFailures,
			"duration":   summary.Duration,
		})
	}
	if err := ctx.Err(); err != nil {
		return summary, services.Wrap(services.ErrCancelled, "workflow", "run", "run interrupted", err)
	}
	return summary, nil
}

func (r *Runner) roots() []string {
	roots := []string{r.cfg.Paths.DownloadDir}
	if series := r.cfg.EffectiveSeriesDir(); series != r.cfg.Paths.DownloadDir {
		roots = append(roots, series)
	}
	return roots
}

// entryContext carries the resolved view of one entry through the search
// and download steps.
type entryContext struct {
	entry    feed.Entry
	rec      recommend.Recommendation
	meta     metadata.Metadata
	isSeries bool
	naming   download.Naming
	query    ranking.Query
}

func (r *Runner) processEntry(ctx context.Context, entry feed.Entry, queue *download.Queue, summary *Summary) {
	logger := logging.WithContext(ctx, r.logger)

	if !r.classifier.IsGenuineRecommendation(entry) {
		logger.Debug("not a recommendation", logging.String("title", entry.Title))
		r.save(ctx, entry.ID, state.Record{Status: services.StatusSkipped, MovieTitle: entry.Title})
		summary.Skipped++
		summary.add(Outcome{EntryID: entry.ID, Title: entry.Title, Status: services.StatusSkipped})
		return
	}

	rec, err := recommend.Extract(entry, r.now())
	if err != nil {
		logging.WarnWithContext(logger, "no title in headline", "title_extraction_failed",
			logging.String("headline", entry.Title),
			logging.String(logging.FieldImpact, "entry is recorded and not retried"),
			logging.Error(err))
		r.save(ctx, entry.ID, state.Record{Status: services.StatusTitleExtractionFailed, MovieTitle: entry.Title})
		summary.TitleFailures++
		summary.add(Outcome{EntryID: entry.ID, Title: entry.Title, Status: services.StatusTitleExtractionFailed, Err: err})
		return
	}

	ec := r.resolve(ctx, rec)
	logger.Info("recommendation resolved",
		logging.String("title", rec.ExtractedTitle),
		logging.Int("year", ec.query.Year),
		logging.String("provider_id", ec.meta.ProviderID),
		logging.Bool("series", ec.isSeries))

	if !ec.isSeries {
		r.handleMovie(ctx, ec, queue, summary)
		return
	}
	switch r.seriesMode {
	case SeriesSkip:
		logger.Info("series skipped", logging.Args(append(
			logging.DecisionAttrs("series_mode", "skipped", "series downloads disabled"),
			logging.String("title", rec.ExtractedTitle))...)...)
		r.save(ctx, entry.ID, state.Record{Status: services.StatusSkipped, MovieTitle: rec.ExtractedTitle, IsSeries: true})
		summary.Skipped++
		summary.add(Outcome{EntryID: entry.ID, Title: rec.ExtractedTitle, Status: services.StatusSkipped, IsSeries: true})
	case SeriesWholeSeason:
		r.handleSeason(ctx, ec, queue, summary)
	default:
		r.handleFirstEpisode(ctx, ec, queue, summary)
	}
}

func (r *Runner) resolve(ctx context.Context, rec recommend.Recommendation) entryContext {
	var meta metadata.Metadata
	if r.deps.Metadata != nil {
		meta = r.deps.Metadata.Resolve(ctx, rec.ExtractedTitle, rec.Year)
	}
	searchYear := rec.Year
	if !rec.HasYear {
		searchYear = meta.Year
	}
	namingYear := meta.Year
	if namingYear == 0 {
		namingYear = searchYear
	}
	return entryContext{
		entry:    rec.Entry,
		rec:      rec,
		meta:     meta,
		isSeries: recommend.IsSeries(rec.Entry, meta.ContentType),
		naming:   download.Naming{Title: rec.ExtractedTitle, Year: namingYear, ProviderID: meta.ProviderID},
		query:    ranking.Query{Title: rec.ExtractedTitle, Year: searchYear, ProviderID: meta.ProviderID},
	}
}

// selectBest searches the catalog and picks the winner. The boolean is false
// when the entry has been fully handled (recorded or deferred).
func (r *Runner) selectBest(ctx context.Context, ec entryContext, summary *Summary) (ranking.Scored, bool) {
	logger := logging.WithContext(ctx, r.logger)
	candidates, err := r.deps.Catalog.Search(ctx, ec.rec.ExtractedTitle)
	if err != nil {
		r.searchFailed(ctx, logger, ec, err, summary)
		return ranking.Scored{}, false
	}
	best, ranked, err := r.scorer.SelectBest(candidates, ec.query)
	if err != nil {
		var low *ranking.LowSimilarityError
		if errors.As(err, &low) {
			logger.Info("best candidate rejected", logging.Args(append(
				logging.DecisionAttrs("candidate_selection", "rejected", "similarity below threshold"),
				logging.String("title", ec.rec.ExtractedTitle),
				logging.String("best", low.Best.Candidate.Title),
				logging.Float64("similarity", low.Best.Similarity),
				logging.Float64("threshold", low.Threshold))...)...)
			r.notFound(ctx, ec, notifications.EventNoRelevantMatch, notifications.Payload{
				"best":       low.Best.Candidate.Title,
				"similarity": low.Best.Similarity,
			}, summary)
			return ranking.Scored{}, false
		}
		logger.Info("no catalog match",
			logging.String("title", ec.rec.ExtractedTitle),
			logging.Int("candidates", len(candidates)))
		r.notFound(ctx, ec, notifications.EventNotFound, nil, summary)
		return ranking.Scored{}, false
	}
	logger.Info("candidate selected", logging.Args(append(
		logging.DecisionAttrs("candidate_selection", "selected", "highest score"),
		logging.String("title", best.Candidate.Title),
		logging.String("channel", best.Candidate.Channel),
		logging.Float64("score", best.Score),
		logging.Float64("similarity", best.Similarity),
		logging.Int("ranked", len(ranked)))...)...)
	return best, true
}

func (r *Runner) handleMovie(ctx context.Context, ec entryContext, queue *download.Queue, summary *Summary) {
	best, ok := r.selectBest(ctx, ec, summary)
	if !ok {
		return
	}
	job := download.Job{EntryID: ec.entry.ID, Naming: ec.naming, Candidate: best.Candidate}
	queue.Submit(ec.rec.ExtractedTitle, func(ctx context.Context) download.Result {
		res := r.deps.Orchestrator.DownloadMovie(ctx, job)
		r.notifyDownload(ctx, ec, res)
		return res
	})
}

func (r *Runner) handleFirstEpisode(ctx context.Context, ec entryContext, queue *download.Queue, summary *Summary) {
	best, ok := r.selectBest(ctx, ec, summary)
	if !ok {
		return
	}
	job := download.Job{EntryID: ec.entry.ID, Naming: ec.naming, Candidate: best.Candidate}
	queue.Submit(ec.rec.ExtractedTitle, func(ctx context.Context) download.Result {
		res := r.deps.Orchestrator.DownloadFirstEpisode(ctx, job)
		r.notifyDownload(ctx, ec, res)
		return res
	})
}

func (r *Runner) handleSeason(ctx context.Context, ec entryContext, queue *download.Queue, summary *Summary) {
	logger := logging.WithContext(ctx, r.logger)
	candidates, err := r.deps.Catalog.SearchSeries(ctx, ec.rec.ExtractedTitle)
	if err != nil {
		r.searchFailed(ctx, logger, ec, err, summary)
		return
	}
	plan := episodes.PlanSeason(r.scorer.RankAll(candidates, ec.query), episodes.FallbackSequential)
	if len(plan) == 0 {
		logger.Info("no episodes found", logging.String("title", ec.rec.ExtractedTitle))
		r.notFound(ctx, ec, notifications.EventNotFound, nil, summary)
		return
	}
	for season, missing := range episodes.Gaps(plan) {
		logging.WarnWithContext(logger, "season has gaps", "season_gaps",
			logging.Int("season", season),
			logging.String("missing", fmt.Sprint(missing)),
			logging.String(logging.FieldImpact, "missing episodes are not downloaded"))
	}
	logger.Info("season planned",
		logging.String("title", ec.rec.ExtractedTitle),
		logging.Int(logging.FieldEpisodeCount, len(plan)))

	job := download.SeasonJob{EntryID: ec.entry.ID, Naming: ec.naming, Plan: plan}
	queue.Submit(ec.rec.ExtractedTitle, func(ctx context.Context) download.Result {
		res := r.deps.Orchestrator.DownloadSeason(ctx, job)
		if errors.Is(res.Err, services.ErrCancelled) {
			return res
		}
		downloaded := res.Succeeded()
		r.publish(ctx, notifications.EventSeasonCompleted, notifications.Payload{
			"title":      ec.rec.ExtractedTitle,
			"series":     true,
			"link":       ec.entry.Link,
			"downloaded": downloaded,
			"total":      len(plan),
			"failed":     len(plan) - downloaded,
		})
		return res
	})
}

func (r *Runner) searchFailed(ctx context.Context, logger *slog.Logger, ec entryContext, err error, summary *Summary) {
	if errors.Is(err, context.Canceled) || errors.Is(err, services.ErrCancelled) {
		return
	}
	logging.WarnWithContext(logger, "catalog search failed", "search_failed",
		logging.String("title", ec.rec.ExtractedTitle),
		logging.String(logging.FieldErrorHint, "check search.api_url and network connectivity"),
		logging.String(logging.FieldImpact, "entry will be retried on the next run"),
		logging.Error(err))
	summary.Deferred++
	summary.add(Outcome{EntryID: ec.entry.ID, Title: ec.rec.ExtractedTitle, IsSeries: ec.isSeries, Err: err})
}

func (r *Runner) notFound(ctx context.Context, ec entryContext, event notifications.Event, extra notifications.Payload, summary *Summary) {
	r.save(ctx, ec.entry.ID, state.Record{
		Status:     services.StatusNotFound,
		MovieTitle: ec.rec.ExtractedTitle,
		IsSeries:   ec.isSeries,
	})
	summary.NotFound++
	summary.add(Outcome{EntryID: ec.entry.ID, Title: ec.rec.ExtractedTitle, Status: services.StatusNotFound, IsSeries: ec.isSeries})

	payload := notifications.Payload{
		"title":  ec.rec.ExtractedTitle,
		"series": ec.isSeries,
		"link":   ec.entry.Link,
	}
	for k, v := range extra {
		payload[k] = v
	}
	r.publish(ctx, event, payload)
}

func (r *Runner) notifyDownload(ctx context.Context, ec entryContext, res download.Result) {
	if errors.Is(res.Err, services.ErrCancelled) || res.DryRun {
		return
	}
	payload := notifications.Payload{
		"title":  ec.rec.ExtractedTitle,
		"series": ec.isSeries,
		"link":   ec.entry.Link,
		"path":   res.Path,
	}
	event := notifications.EventDownloadSucceeded
	if res.Err != nil {
		event = notifications.EventDownloadFailed
		payload["error"] = res.Err.Error()
	}
	r.publish(ctx, event, payload)
}

func (r *Runner) save(ctx context.Context, id string, rec state.Record) {
	if r.deps.Store == nil || r.cfg.Download.DryRun {
		return
	}
	r.deps.Store.Save(ctx, id, rec)
}

func (r *Runner) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if r.deps.Notifier == nil || r.cfg.Download.DryRun {
		return
	}
	if err := r.deps.Notifier.Publish(ctx, event, payload); err != nil {
		logger := logging.WithContext(ctx, r.logger)
		if errors.Is(err, context.Canceled) {
			logger.Debug("notification skipped", logging.String("event", string(event)), logging.Error(err))
			return
		}
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err))
	}
}
