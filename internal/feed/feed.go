package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"perlentaucher/internal/logging"
	"perlentaucher/internal/services"
)

// Entry is one recommendation post as read from the feed.
type Entry struct {
	ID          string
	Title       string
	Link        string
	Tags        []string
	PublishedAt *time.Time
}

// Options controls how much of the feed is considered.
type Options struct {
	Limit    int
	Lookback time.Duration
}

// Source reads recommendation entries from an RSS or Atom feed.
type Source struct {
	url    string
	parser *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient overrides the client used to fetch the feed.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.parser.Client = client
		}
	}
}

// WithClock overrides the time source used for the lookback window.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSource constructs a feed source for url.
func NewSource(url string, logger *slog.Logger, opts ...Option) *Source {
	parser := gofeed.NewParser()
	parser.UserAgent = "perlentaucher"
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	s := &Source{
		url:    strings.TrimSpace(url),
		parser: parser,
		logger: logging.NewComponentLogger(logger, "feed"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads and parses the feed, returning at most opts.Limit entries
// in feed order. Entries older than opts.Lookback are dropped when the
// window is positive and the entry carries a publication date.
func (s *Source) Fetch(ctx context.Context, opts Options) ([]Entry, error) {
	parsed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "feed", "fetch", s.url, err)
	}
	entries := s.collect(parsed, opts)
	s.logger.Info("feed loaded",
		logging.String("url", s.url),
		logging.Int("items", len(parsed.Items)),
		logging.Int("entries", len(entries)),
	)
	return entries, nil
}

// Parse reads a feed document from r. It applies the same limit and lookback
// rules as Fetch.
func (s *Source) Parse(r io.Reader, opts Options) ([]Entry, error) {
	parsed, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return s.collect(parsed, opts), nil
}

func (s *Source) collect(parsed *gofeed.Feed, opts Options) []Entry {
	if parsed == nil {
		return nil
	}
	items := parsed.Items
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	var cutoff time.Time
	if opts.Lookback > 0 {
		cutoff = s.now().Add(-opts.Lookback)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entry := FromItem(item)
		if !cutoff.IsZero() && entry.PublishedAt != nil && entry.PublishedAt.Before(cutoff) {
			s.logger.Debug("entry outside lookback window",
				logging.String(logging.FieldEntryID, entry.ID),
				logging.String("published", entry.PublishedAt.Format(time.RFC3339)),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// FromItem adapts a parsed feed item into an Entry.
func FromItem(item *gofeed.Item) Entry {
	entry := Entry{
		Title: strings.TrimSpace(item.Title),
		Link:  strings.TrimSpace(item.Link),
	}
	for _, category := range item.Categories {
		if category = strings.TrimSpace(category); category != "" {
			entry.Tags = append(entry.Tags, category)
		}
	}
	switch {
	case item.PublishedParsed != nil:
		entry.PublishedAt = item.PublishedParsed
	case item.UpdatedParsed != nil:
		entry.PublishedAt = item.UpdatedParsed
	}
	entry.ID = EntryID(strings.TrimSpace(item.GUID), entry.Link, entry.Title)
	return entry
}

// EntryID picks the feed-provided id, falling back to the link and then the title.
func EntryID(id, link, title string) string {
	switch {
	case id != "":
		return id
	case link != "":
		return link
	default:
		return title
	}
}
