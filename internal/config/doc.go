// Package config loads, normalizes, and validates anisync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANILIST_TOKEN (optionally sourced from a .env file next to the config).
// The Config type centralizes every knob the CLI needs: state and changeset
// directories, Crunchyroll credentials, AniList API settings, matching
// threshold, and sync behavior.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
