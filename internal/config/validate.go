package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. It assumes Normalize ran.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validatePreferences(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFeed() error {
	if c.Feed.Limit <= 0 {
		return errors.New("feed.limit must be positive")
	}
	if err := validateURL("feed.url", c.Feed.URL); err != nil {
		return err
	}
	return validateURL("search.api_url", c.Search.APIURL)
}

func (c *Config) validatePreferences() error {
	switch c.Preferences.Language {
	case "deutsch", "englisch", "egal":
	default:
		return fmt.Errorf("preferences.language must be deutsch, englisch or egal (got %q)", c.Preferences.Language)
	}
	switch c.Preferences.AudioDescription {
	case "mit", "ohne", "egal":
	default:
		return fmt.Errorf("preferences.audio_description must be mit, ohne or egal (got %q)", c.Preferences.AudioDescription)
	}
	switch c.Preferences.SeriesMode {
	case "erste", "staffel", "keine":
	default:
		return fmt.Errorf("preferences.series_mode must be erste, staffel or keine (got %q)", c.Preferences.SeriesMode)
	}
	return nil
}

func (c *Config) validateScoring() error {
	s := c.Scoring
	if s.DiscardBelow < 0 || s.DiscardBelow > 1 {
		return errors.New("scoring.discard_below must be between 0 and 1")
	}
	if s.RejectBestBelow < 0 || s.RejectBestBelow > 1 {
		return errors.New("scoring.reject_best_below must be between 0 and 1")
	}
	for key, value := range map[string]float64{
		"scoring.similarity_weight":     s.SimilarityWeight,
		"scoring.provider_id_weight":    s.ProviderIDWeight,
		"scoring.year_exact_weight":     s.YearExactWeight,
		"scoring.year_near_weight":      s.YearNearWeight,
		"scoring.year_far_weight":       s.YearFarWeight,
		"scoring.language_match_weight": s.LanguageMatchWeight,
		"scoring.language_any_weight":   s.LanguageAnyWeight,
		"scoring.audio_match_weight":    s.AudioMatchWeight,
		"scoring.audio_any_weight":      s.AudioAnyWeight,
		"scoring.size_weight_per_gib":   s.SizeWeightPerGiB,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.MinSeverity {
	case "info", "success", "warning", "error":
	default:
		return fmt.Errorf("notifications.min_severity must be info, success, warning or error (got %q)", c.Notifications.MinSeverity)
	}
	if c.Notifications.NtfyTopic != "" {
		return validateURL("notifications.ntfy_topic", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warning or error (got %q)", c.Logging.Level)
	}
}

func validateURL(key, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL (got %q)", key, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}
