package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"perlentaucher/internal/fileutil"
	"perlentaucher/internal/logging"
	"perlentaucher/internal/services"
)

// StatusUnknown marks records upgraded from the legacy ID list.
const StatusUnknown = "unknown"

// Record is the persisted outcome for one entry or episode.
type Record struct {
	Status     string   `json:"status"`
	Timestamp  string   `json:"timestamp"`
	MovieTitle string   `json:"movie_title,omitempty"`
	Filename   string   `json:"filename,omitempty"`
	IsSeries   bool     `json:"is_series,omitempty"`
	Episodes   []string `json:"episodes,omitempty"`
}

// Time parses Timestamp, returning the zero time when it is unparseable.
func (r Record) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, r.Timestamp, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Entry pairs a record with its key.
type Entry struct {
	ID string
	Record
}

// document is the on-disk shape. ProcessedEntries always mirrors the keys of
// Entries for readers of the legacy format.
type document struct {
	Entries          map[string]Record `json:"entries"`
	LastUpdated      string            `json:"last_updated"`
	ProcessedEntries []string          `json:"processed_entries"`
}

// Store is the JSON-backed processing ledger. A Store with an empty path is
// disabled: reads report nothing and writes are dropped.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
	lock   *flock.Flock
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns a store for path. The file is created lazily on first Save.
func Open(path string, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		path:   strings.TrimSpace(path),
		logger: logging.NewComponentLogger(logger, "state"),
		now:    time.Now,
	}
	if s.path != "" {
		s.lock = flock.New(s.path + ".lock")
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether the store persists anything.
func (s *Store) Enabled() bool { return s != nil && s.path != "" }

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns the record stored for id.
func (s *Store) Load(id string) (Record, bool) {
	doc, ok := s.readLogged()
	if !ok {
		return Record{}, false
	}
	rec, found := doc.Entries[id]
	return rec, found
}

// LoadAll returns the set of keys that have a record.
func (s *Store) LoadAll() map[string]struct{} {
	set := make(map[string]struct{})
	doc, ok := s.readLogged()
	if !ok {
		return set
	}
	for id := range doc.Entries {
		set[id] = struct{}{}
	}
	return set
}

// List returns every record, newest first.
func (s *Store) List() []Entry {
	doc, ok := s.readLogged()
	if !ok {
		return nil
	}
	entries := make([]Entry, 0, len(doc.Entries))
	for id, rec := range doc.Entries {
		entries = append(entries, Entry{ID: id, Record: rec})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].Time(), entries[j].Time()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Save writes rec for id, replacing any previous record for that key and
// keeping all others. Failures are logged and swallowed.
func (s *Store) Save(ctx context.Context, id string, rec Record) {
	if !s.Enabled() {
		return
	}
	if rec.Timestamp == "" {
		rec.Timestamp = s.now().Format(time.RFC3339)
	}
	if rec.Status == "" {
		rec.Status = StatusUnknown
	}
	err := s.update(func(doc *loaded) bool {
		doc.Entries[id] = rec
		return true
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "state write failed",
			"state_write_failed",
			logging.String(logging.FieldEntryID, id),
			logging.String("status", rec.Status),
			logging.String(logging.FieldErrorHint, "check permissions of "+s.path),
			logging.String(logging.FieldImpact, "entry may be processed again on the next run"),
			logging.Error(err))
		return
	}
	s.logger.Debug("state record saved",
		logging.String(logging.FieldEntryID, id),
		logging.String("status", rec.Status))
}

// Forget removes the record for id. It is the only deletion path and is
// meant for operators.
func (s *Store) Forget(id string) (bool, error) {
	if !s.Enabled() {
		return false, services.Wrap(services.ErrConfiguration, "state", "forget", "state tracking is disabled", nil)
	}
	removed := false
	err := s.update(func(doc *loaded) bool {
		if _, ok := doc.Entries[id]; !ok {
			return false
		}
		delete(doc.Entries, id)
		removed = true
		return true
	})
	return removed, err
}

// Upgrade rewrites a legacy file in the current shape. It reports whether
// the file changed.
func (s *Store) Upgrade() (bool, error) {
	if !s.Enabled() {
		return false, services.Wrap(services.ErrConfiguration, "state", "upgrade", "state tracking is disabled", nil)
	}
	changed := false
	err := s.update(func(doc *loaded) bool {
		changed = doc.legacy
		return doc.legacy
	})
	return changed, err
}

func (s *Store) readLogged() (*document, bool) {
	if !s.Enabled() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return &document{Entries: map[string]Record{}}, true
	}
	if err := s.lock.RLock(); err != nil {
		s.warnRead(err)
		return nil, false
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.read()
	if err != nil {
		s.warnRead(err)
		return nil, false
	}
	return &doc.document, true
}

func (s *Store) warnRead(err error) {
	logging.WarnWithContext(s.logger, "state file unreadable",
		"state_read_failed",
		logging.String("path", s.path),
		logging.String(logging.FieldErrorHint, "inspect or remove the state file"),
		logging.String(logging.FieldImpact, "previously processed entries may be processed again"),
		logging.Error(err))
}

func (s *Store) update(mutate func(*loaded) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if !mutate(&doc) {
		return nil
	}
	return s.write(doc.document)
}

type loaded struct {
	document
	legacy bool
}

// read parses the file, upgrading the legacy ID-list shape in memory.
// A missing or empty file is an empty ledger.
func (s *Store) read() (loaded, error) {
	out := loaded{document: document{Entries: map[string]Record{}}}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, fmt.Errorf("read state file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return out, nil
	}

	var raw struct {
		Entries          map[string]Record `json:"entries"`
		LastUpdated      string            `json:"last_updated"`
		ProcessedEntries []string          `json:"processed_entries"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("parse state file: %w", err)
	}
	out.LastUpdated = raw.LastUpdated
	if raw.Entries != nil {
		out.Entries = raw.Entries
		return out, nil
	}

	timestamp := raw.LastUpdated
	if timestamp == "" {
		timestamp = s.now().Format(time.RFC3339)
	}
	for _, id := range raw.ProcessedEntries {
		out.Entries[id] = Record{Status: StatusUnknown, Timestamp: timestamp}
	}
	out.legacy = true
	return out, nil
}

func (s *Store) write(doc document) error {
	doc.LastUpdated = s.now().Format(time.RFC3339)
	doc.ProcessedEntries = make([]string, 0, len(doc.Entries))
	for id := range doc.Entries {
		doc.ProcessedEntries = append(doc.ProcessedEntries, id)
	}
	sort.Strings(doc.ProcessedEntries)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return fileutil.WriteFileAtomic(afero.NewOsFs(), s.path, data, 0o644)
}
