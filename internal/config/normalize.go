package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCrunchyroll()
	c.normalizeAniList()
	c.normalizeMatching()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ChangesetDir) == "" {
		c.Paths.ChangesetDir = defaultChangesetDir
	}
	if c.Paths.ChangesetDir, err = expandPath(c.Paths.ChangesetDir); err != nil {
		return fmt.Errorf("paths.changeset_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCrunchyroll() {
	c.Crunchyroll.Email = strings.TrimSpace(c.Crunchyroll.Email)
	if c.Crunchyroll.Email == "" {
		if value, ok := os.LookupEnv("CRUNCHYROLL_EMAIL"); ok {
			c.Crunchyroll.Email = strings.TrimSpace(value)
		}
	}
	if c.Crunchyroll.Password == "" {
		if value, ok := os.LookupEnv("CRUNCHYROLL_PASSWORD"); ok {
			c.Crunchyroll.Password = value
		}
	}
	c.Crunchyroll.BaseURL = strings.TrimRight(strings.TrimSpace(c.Crunchyroll.BaseURL), "/")
	if c.Crunchyroll.BaseURL == "" {
		c.Crunchyroll.BaseURL = defaultCRBaseURL
	}
	if c.Crunchyroll.PageSize <= 0 {
		c.Crunchyroll.PageSize = defaultCRPageSize
	}
	if c.Crunchyroll.MaxPages <= 0 {
		c.Crunchyroll.MaxPages = defaultCRMaxPages
	}
	if c.Crunchyroll.TokenTTLMinutes <= 0 {
		c.Crunchyroll.TokenTTLMinutes = defaultCRTokenTTL
	}
	if c.Crunchyroll.TimeoutSeconds <= 0 {
		c.Crunchyroll.TimeoutSeconds = defaultCRTimeoutSecs
	}
}

func (c *Config) normalizeAniList() {
	c.AniList.Token = strings.TrimSpace(c.AniList.Token)
	if c.AniList.Token == "" {
		if value, ok := os.LookupEnv("ANILIST_TOKEN"); ok {
			c.AniList.Token = strings.TrimSpace(value)
		}
	}
	c.AniList.ClientID = strings.TrimSpace(c.AniList.ClientID)
	c.AniList.BaseURL = strings.TrimRight(strings.TrimSpace(c.AniList.BaseURL), "/")
	if c.AniList.BaseURL == "" {
		c.AniList.BaseURL = defaultAniListBaseURL
	}
	if c.AniList.RatePerMinute <= 0 {
		c.AniList.RatePerMinute = defaultAniListRate
	}
	if c.AniList.MinIntervalMS <= 0 {
		c.AniList.MinIntervalMS = defaultAniListInterval
	}
	if c.AniList.TimeoutSeconds <= 0 {
		c.AniList.TimeoutSeconds = defaultAniListTimeout
	}
	if c.AniList.PerPage <= 0 {
		c.AniList.PerPage = defaultAniListPerPage
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.Threshold == 0 {
		c.Matching.Threshold = defaultMatchThreshold
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.EarlyStopThreshold < 0 {
		c.Sync.EarlyStopThreshold = 0
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
}
