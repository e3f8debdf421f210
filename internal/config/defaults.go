package config

const (
	defaultConfigPath        = "~/.config/perlentaucher/config.toml"
	defaultStateFile         = ".perlentaucher_state.json"
	defaultFeedURL           = "https://nexxtpress.de/author/mediathekperlen/feed/"
	defaultFeedLimit         = 10
	defaultRequiredTag       = "mediathekperlen"
	defaultSearchURL         = "https://mediathekviewweb.de/api/query"
	defaultSearchTimeout     = 10
	defaultResultSize        = 50
	defaultSeriesResultSize  = 500
	defaultLanguage          = "deutsch"
	defaultAudioDescription  = "egal"
	defaultSeriesMode        = "erste"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "de-DE"
	defaultOMDbBaseURL       = "http://www.omdbapi.com/"
	defaultConcurrency       = 2
	defaultDownloadTimeout   = 30
	defaultChunkSize         = 8192
	defaultNotifyTimeout     = 10
	defaultNotifyMinSeverity = "info"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogMaxSizeMB      = 10
	defaultLogMaxBackups     = 3
	defaultLogMaxAgeDays     = 30
)

// DefaultExcludedMarkers lists tag fragments that mark meta posts.
var DefaultExcludedMarkers = []string{
	"in eigener sache",
	"blog",
	"weihnachten",
	"nachruf",
	"ankündigung",
	"ankuendigung",
}

// DefaultScoring returns the empirically tuned ranking constants.
func DefaultScoring() Scoring {
	return Scoring{
		SimilarityWeight:    100000,
		ProviderIDWeight:    50000,
		YearExactWeight:     5000,
		YearNearWeight:      2000,
		YearFarWeight:       500,
		LanguageMatchWeight: 1000,
		LanguageAnyWeight:   500,
		AudioMatchWeight:    500,
		AudioAnyWeight:      250,
		DiscardBelow:        0.1,
		RejectBestBelow:     0.2,
		SizeWeightPerGiB:    1,
	}
}

// Default returns a Config populated with repository defaults. The download
// root defaults to the working directory.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: ".",
			StateFile:   defaultStateFile,
		},
		Feed: Feed{
			URL:             defaultFeedURL,
			Limit:           defaultFeedLimit,
			RequiredTag:     defaultRequiredTag,
			ExcludedMarkers: append([]string(nil), DefaultExcludedMarkers...),
		},
		Search: Search{
			APIURL:           defaultSearchURL,
			TimeoutSeconds:   defaultSearchTimeout,
			ResultSize:       defaultResultSize,
			SeriesResultSize: defaultSeriesResultSize,
		},
		Preferences: Preferences{
			Language:         defaultLanguage,
			AudioDescription: defaultAudioDescription,
			SeriesMode:       defaultSeriesMode,
		},
		Scoring: DefaultScoring(),
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		OMDb: OMDb{
			BaseURL: defaultOMDbBaseURL,
		},
		Download: Download{
			Concurrency:    defaultConcurrency,
			TimeoutSeconds: defaultDownloadTimeout,
			ChunkSize:      defaultChunkSize,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			MinSeverity:    defaultNotifyMinSeverity,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
