package config

const (
	defaultStateDir         = "~/.local/share/anisync"
	defaultLogDir           = "~/.local/share/anisync/logs"
	defaultChangesetDir     = "~/.local/share/anisync/changesets"
	defaultCRBaseURL        = "https://www.crunchyroll.com"
	defaultCRPageSize       = 100
	defaultCRMaxPages       = 20
	defaultCRTokenTTL       = 30
	defaultCRTimeoutSecs    = 20
	defaultAniListBaseURL   = "https://graphql.anilist.co"
	defaultAniListRate      = 85
	defaultAniListInterval  = 700
	defaultAniListTimeout   = 15
	defaultAniListPerPage   = 10
	defaultMatchThreshold   = 0.8
	defaultEarlyStopWindow  = 5
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
			ChangesetDir: defaultChangesetDir,
		},
		Crunchyroll: Crunchyroll{
			BaseURL:         defaultCRBaseURL,
			PageSize:        defaultCRPageSize,
			MaxPages:        defaultCRMaxPages,
			TokenTTLMinutes: defaultCRTokenTTL,
			TimeoutSeconds:  defaultCRTimeoutSecs,
		},
		AniList: AniList{
			BaseURL:        defaultAniListBaseURL,
			RatePerMinute:  defaultAniListRate,
			MinIntervalMS:  defaultAniListInterval,
			TimeoutSeconds: defaultAniListTimeout,
			PerPage:        defaultAniListPerPage,
		},
		Matching: Matching{
			Threshold:     defaultMatchThreshold,
			NegativeCache: true,
		},
		Sync: Sync{
			EarlyStopThreshold: defaultEarlyStopWindow,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
