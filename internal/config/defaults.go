package config

const (
	defaultConfigPath        = "~/.config/cinewrap/config.toml"
	projectConfigName        = "cinewrap.toml"
	defaultStateDir          = "~/.local/share/cinewrap"
	defaultLogDir            = "~/.local/share/cinewrap/logs"
	defaultCachePath         = "~/.cache/cinewrap/metadata.db"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL  = "https://image.tmdb.org/t/p"
	defaultTMDBLanguage      = "en-US"
	defaultTMDBTimeout       = 10
	defaultTMDBCacheTTLHours = 24 * 30
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-2.5-flash"
	defaultLLMReferer        = "https://github.com/cinewrap/cinewrap"
	defaultLLMTitle          = "cinewrap persona"
	defaultLLMTimeout        = 60
	defaultBatchSize         = 5
	defaultBatchDelayMS      = 250
	defaultMaxCastPerFilm    = 5
	defaultTopActors         = 5
	defaultTopDirectors      = 5
	defaultTopGenres         = 8
	defaultMinutesPerFilm    = 105
	defaultServerBind        = "127.0.0.1:7488"
	defaultRateLimit         = 120
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			CachePath: defaultCachePath,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			Language:       defaultTMDBLanguage,
			TimeoutSeconds: defaultTMDBTimeout,
			CacheTTLHours:  defaultTMDBCacheTTLHours,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Enrichment: Enrichment{
			BatchSize:      defaultBatchSize,
			BatchDelayMS:   defaultBatchDelayMS,
			MaxCastPerFilm: defaultMaxCastPerFilm,
			TopActors:      defaultTopActors,
			TopDirectors:   defaultTopDirectors,
			TopGenres:      defaultTopGenres,
		},
		Stats: Stats{
			MinutesPerFilm: defaultMinutesPerFilm,
		},
		Server: Server{
			Bind:               defaultServerBind,
			RateLimitPerMinute: defaultRateLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
