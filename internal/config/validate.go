package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateAniList(); err != nil {
		return err
	}
	if err := c.validateCrunchyroll(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be greater than 0 and at most 1")
	}
	return nil
}

func (c *Config) validateAniList() error {
	if c.AniList.BaseURL == "" {
		return errors.New("anilist.base_url must be set")
	}
	if c.AniList.RatePerMinute <= 0 {
		return errors.New("anilist.rate_per_minute must be positive")
	}
	return nil
}

func (c *Config) validateCrunchyroll() error {
	if c.Crunchyroll.BaseURL == "" {
		return errors.New("crunchyroll.base_url must be set")
	}
	if c.Crunchyroll.PageSize <= 0 || c.Crunchyroll.PageSize > 1000 {
		return fmt.Errorf("crunchyroll.page_size must be between 1 and 1000, got %d", c.Crunchyroll.PageSize)
	}
	return nil
}

// RequireDestinationAuth validates that an AniList token is present. It is a
// separate check because dry-run and changeset recording work without one.
func (c *Config) RequireDestinationAuth() error {
	if c.AniList.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/anisync/config.toml"
		}
		return fmt.Errorf("anilist.token is required. Set ANILIST_TOKEN env var or edit %s (create with 'anisync config init')", defaultPath)
	}
	return nil
}

// RequireSourceAuth validates that Crunchyroll credentials are present.
func (c *Config) RequireSourceAuth() error {
	if c.Crunchyroll.Email == "" || c.Crunchyroll.Password == "" {
		return errors.New("crunchyroll.email and crunchyroll.password are required. Set CRUNCHYROLL_EMAIL / CRUNCHYROLL_PASSWORD env vars or edit the config file")
	}
	return nil
}
