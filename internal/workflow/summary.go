package workflow

import (
	"time"

	"perlentaucher/internal/download"
)

// Outcome is the per-entry result of a run.
type Outcome struct {
	EntryID  string
	Title    string
	Status   string
	IsSeries bool
	Path     string
	Episodes []string
	Err      error
}

// Summary tallies one run.
type Summary struct {
	RunID            string
	Entries          int
	AlreadyProcessed int
	Skipped          int
	TitleFailures    int
	NotFound         int
	Deferred         int
	Downloaded       int
	Failed           int
	Cancelled        int
	DryRun           bool
	Duration         time.Duration
	// FeedErr is set when the feed could not be read; the run still completes.
	FeedErr  error
	Outcomes []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

func (s *Summary) addDownload(res download.Result, status string) {
	o := Outcome{
		EntryID:  res.EntryID,
		Title:    res.Title,
		Status:   status,
		IsSeries: res.IsSeries,
		Path:     res.Path,
		Episodes: res.Labels,
		Err:      res.Err,
	}
	s.add(o)
}
