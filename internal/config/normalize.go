package config

import (
	"fmt"
	"os"
	"strings"
)

// Normalize expands paths, applies environment fallbacks and canonicalizes
// enumerated values. Load calls it; CLI overrides call it again after
// applying flags.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeSearch()
	c.normalizePreferences()
	c.normalizeProviders()
	c.normalizeDownload()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = "."
	}
	if c.Paths.DownloadDir, err = expandPath(strings.TrimSpace(c.Paths.DownloadDir)); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.SeriesDir, err = expandPath(strings.TrimSpace(c.Paths.SeriesDir)); err != nil {
		return fmt.Errorf("paths.series_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateFile) == "" {
		c.Paths.StateFile = defaultStateFile
	}
	if c.Paths.StateFile, err = expandPath(strings.TrimSpace(c.Paths.StateFile)); err != nil {
		return fmt.Errorf("paths.state_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeFeed() {
	c.Feed.URL = strings.TrimSpace(c.Feed.URL)
	if c.Feed.URL == "" {
		c.Feed.URL = defaultFeedURL
	}
	c.Feed.RequiredTag = strings.ToLower(strings.TrimSpace(c.Feed.RequiredTag))
	if c.Feed.RequiredTag == "" {
		c.Feed.RequiredTag = defaultRequiredTag
	}
	markers := make([]string, 0, len(c.Feed.ExcludedMarkers))
	for _, marker := range c.Feed.ExcludedMarkers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" {
			markers = append(markers, marker)
		}
	}
	c.Feed.ExcludedMarkers = markers
	if c.Feed.LookbackDays < 0 {
		c.Feed.LookbackDays = 0
	}
}

func (c *Config) normalizeSearch() {
	c.Search.APIURL = strings.TrimSpace(c.Search.APIURL)
	if c.Search.APIURL == "" {
		c.Search.APIURL = defaultSearchURL
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeout
	}
	if c.Search.ResultSize <= 0 {
		c.Search.ResultSize = defaultResultSize
	}
	if c.Search.SeriesResultSize <= 0 {
		c.Search.SeriesResultSize = defaultSeriesResultSize
	}
}

func (c *Config) normalizePreferences() {
	c.Preferences.Language = strings.ToLower(strings.TrimSpace(c.Preferences.Language))
	if c.Preferences.Language == "" {
		c.Preferences.Language = defaultLanguage
	}
	c.Preferences.AudioDescription = strings.ToLower(strings.TrimSpace(c.Preferences.AudioDescription))
	if c.Preferences.AudioDescription == "" {
		c.Preferences.AudioDescription = defaultAudioDescription
	}
	c.Preferences.SeriesMode = strings.ToLower(strings.TrimSpace(c.Preferences.SeriesMode))
	if c.Preferences.SeriesMode == "" {
		c.Preferences.SeriesMode = defaultSeriesMode
	}
}

func (c *Config) normalizeProviders() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	if c.OMDb.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDb.APIKey = strings.TrimSpace(value)
		}
	}
	c.OMDb.BaseURL = strings.TrimSpace(c.OMDb.BaseURL)
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = defaultOMDbBaseURL
	}
}

func (c *Config) normalizeDownload() {
	if c.Download.Concurrency <= 0 {
		c.Download.Concurrency = defaultConcurrency
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
	if c.Download.ChunkSize <= 0 {
		c.Download.ChunkSize = defaultChunkSize
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	c.Notifications.MinSeverity = strings.ToLower(strings.TrimSpace(c.Notifications.MinSeverity))
	if c.Notifications.MinSeverity == "" {
		c.Notifications.MinSeverity = defaultNotifyMinSeverity
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		if expanded, err := expandPath(c.Logging.File); err == nil {
			c.Logging.File = expanded
		}
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
