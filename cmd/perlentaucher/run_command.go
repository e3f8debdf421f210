package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"perlentaucher/internal/config"
	"perlentaucher/internal/services"
	"perlentaucher/internal/workflow"
)

type runFlags struct {
	downloadDir  string
	seriesDir    string
	stateFile    string
	noState      bool
	limit        int
	lookbackDays int
	language     string
	audio        string
	seriesMode   string
	notify       string
	tmdbKey      string
	omdbKey      string
	concurrency  int
	dryRun       bool
	force        bool
	noProgress   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.downloadDir, "download-dir", "", "Directory for downloaded films")
	fs.StringVar(&f.seriesDir, "serien-dir", "", "Directory for series (defaults to --download-dir)")
	fs.StringVar(&f.stateFile, "state-file", "", "Path of the state file")
	fs.BoolVar(&f.noState, "no-state", false, "Disable state tracking")
	fs.IntVar(&f.limit, "limit", 0, "Number of recent feed entries to consider")
	fs.IntVar(&f.lookbackDays, "lookback-days", 0, "Ignore entries older than this many days (0 disables)")
	fs.StringVar(&f.language, "sprache", "", "Preferred language: deutsch, englisch, egal")
	fs.StringVar(&f.audio, "audiodeskription", "", "Audio description: mit, ohne, egal")
	fs.StringVar(&f.seriesMode, "serien-download", "", "Series handling: erste, staffel, keine")
	fs.StringVar(&f.notify, "notify", "", "ntfy topic URL for notifications")
	fs.StringVar(&f.tmdbKey, "tmdb-api-key", "", "TMDB API key")
	fs.StringVar(&f.omdbKey, "omdb-api-key", "", "OMDb API key")
	fs.IntVar(&f.concurrency, "concurrency", 0, "Maximum parallel downloads")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Resolve and rank but do not download or record anything")
	fs.BoolVar(&f.force, "force", false, "Reprocess entries already present in the state file")
	fs.BoolVar(&f.noProgress, "no-progress", false, "Disable the terminal progress display")
}

// apply copies explicitly set flags onto a copy of base and re-normalizes it.
func (f *runFlags) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfg := *base
	changed := cmd.Flags().Changed
	if changed("download-dir") {
		cfg.Paths.DownloadDir = f.downloadDir
	}
	if changed("serien-dir") {
		cfg.Paths.SeriesDir = f.seriesDir
	}
	if changed("state-file") {
		cfg.Paths.StateFile = f.stateFile
	}
	if changed("no-state") {
		cfg.Paths.StateDisabled = f.noState
	}
	if changed("limit") {
		cfg.Feed.Limit = f.limit
	}
	if changed("lookback-days") {
		cfg.Feed.LookbackDays = f.lookbackDays
	}
	if changed("sprache") {
		cfg.Preferences.Language = f.language
	}
	if changed("audiodeskription") {
		cfg.Preferences.AudioDescription = f.audio
	}
	if changed("serien-download") {
		cfg.Preferences.SeriesMode = f.seriesMode
	}
	if changed("notify") {
		cfg.Notifications.NtfyTopic = f.notify
	}
	if changed("tmdb-api-key") {
		cfg.TMDB.APIKey = f.tmdbKey
	}
	if changed("omdb-api-key") {
		cfg.OMDb.APIKey = f.omdbKey
	}
	if changed("concurrency") {
		cfg.Download.Concurrency = f.concurrency
	}
	if changed("dry-run") {
		cfg.Download.DryRun = f.dryRun
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the recommendation feed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, ctx, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runOnce(cmd *cobra.Command, ctx *commandContext, flags *runFlags) error {
	base, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err := flags.apply(cmd, base)
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd, cfg)
	if err != nil {
		return err
	}

	display := newProgressDisplay(cmd.ErrOrStderr(), !flags.noProgress)
	runner, err := workflow.NewFromConfig(cfg, logger, workflow.BuildOptions{
		Progress: display.Update,
		Runner:   []workflow.Option{workflow.WithForce(flags.force)},
	})
	if err != nil {
		return err
	}

	summary, runErr := runner.Run(cmd.Context())
	display.Finish()
	printSummary(cmd, summary)

	if runErr != nil {
		if errors.Is(runErr, services.ErrCancelled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Abgebrochen.")
		}
		return runErr
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary workflow.Summary) {
	out := cmd.OutOrStdout()
	if len(summary.Outcomes) > 0 {
		rows := make([][]string, 0, len(summary.Outcomes))
		for _, o := range summary.Outcomes {
			rows = append(rows, outcomeRow(o))
		}
		fmt.Fprintln(out, renderTable([]string{"Eintrag", "Titel", "Status", "Serie", "Ziel"}, rows, nil))
	}
	line := fmt.Sprintf("%d Einträge: %d heruntergeladen, %d nicht gefunden, %d fehlgeschlagen, %d übersprungen, %d bereits verarbeitet",
		summary.Entries, summary.Downloaded, summary.NotFound, summary.Failed,
		summary.Skipped+summary.TitleFailures, summary.AlreadyProcessed)
	if summary.Deferred > 0 {
		line += ", " + strconv.Itoa(summary.Deferred) + " zurückgestellt"
	}
	if summary.DryRun {
		line += " (Testlauf)"
	}
	fmt.Fprintln(out, line)
	if summary.FeedErr != nil {
		fmt.Fprintf(out, "Feed nicht lesbar: %v\n", summary.FeedErr)
	}
}

func outcomeRow(o workflow.Outcome) []string {
	status := o.Status
	if status == "" && o.Err != nil {
		status = "zurückgestellt"
	}
	target := o.Path
	if len(o.Episodes) > 0 {
		target = strings.Join(o.Episodes, ", ")
	}
	return []string{o.EntryID, o.Title, status, yesNo(o.IsSeries), target}
}
