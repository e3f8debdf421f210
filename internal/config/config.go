package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths holds the download roots and the state file location.
type Paths struct {
	DownloadDir   string `toml:"download_dir"`
	SeriesDir     string `toml:"series_dir"`
	StateFile     string `toml:"state_file"`
	StateDisabled bool   `toml:"state_disabled"`
}

// Feed configures the recommendation feed.
type Feed struct {
	URL             string   `toml:"url"`
	Limit           int      `toml:"limit"`
	LookbackDays    int      `toml:"lookback_days"`
	RequiredTag     string   `toml:"required_tag"`
	ExcludedMarkers []string `toml:"excluded_markers"`
}

// Search configures the MediathekViewWeb query endpoint.
type Search struct {
	APIURL           string `toml:"api_url"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	ResultSize       int    `toml:"result_size"`
	SeriesResultSize int    `toml:"series_result_size"`
}

// Preferences holds the user's language, audio description and series choices.
type Preferences struct {
	Language         string `toml:"language"`
	AudioDescription string `toml:"audio_description"`
	SeriesMode       string `toml:"series_mode"`
}

// Scoring exposes the ranking weights and similarity floors.
type Scoring struct {
	SimilarityWeight    float64 `toml:"similarity_weight"`
	ProviderIDWeight    float64 `toml:"provider_id_weight"`
	YearExactWeight     float64 `toml:"year_exact_weight"`
	YearNearWeight      float64 `toml:"year_near_weight"`
	YearFarWeight       float64 `toml:"year_far_weight"`
	LanguageMatchWeight float64 `toml:"language_match_weight"`
	LanguageAnyWeight   float64 `toml:"language_any_weight"`
	AudioMatchWeight    float64 `toml:"audio_match_weight"`
	AudioAnyWeight      float64 `toml:"audio_any_weight"`
	DiscardBelow        float64 `toml:"discard_below"`
	RejectBestBelow     float64 `toml:"reject_best_below"`
	SizeWeightPerGiB    float64 `toml:"size_weight_per_gib"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// OMDb contains configuration for the Open Movie Database fallback.
type OMDb struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Download configures the transfer pool.
type Download struct {
	Concurrency    int  `toml:"concurrency"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
	ChunkSize      int  `toml:"chunk_size"`
	DryRun         bool `toml:"dry_run"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	MinSeverity    string `toml:"min_severity"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Config encapsulates all configuration values for perlentaucher.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Feed          Feed          `toml:"feed"`
	Search        Search        `toml:"search"`
	Preferences   Preferences   `toml:"preferences"`
	Scoring       Scoring       `toml:"scoring"`
	TMDB          TMDB          `toml:"tmdb"`
	OMDb          OMDb          `toml:"omdb"`
	Download      Download      `toml:"download"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, normalizes and validates a configuration file. A
// missing file is not an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("perlentaucher.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EffectiveSeriesDir returns the series root, falling back to the download root.
func (c *Config) EffectiveSeriesDir() string {
	if strings.TrimSpace(c.Paths.SeriesDir) != "" {
		return c.Paths.SeriesDir
	}
	return c.Paths.DownloadDir
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules to CLI flag handling.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
