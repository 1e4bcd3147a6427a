package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing file should report exists=false")
	}
	if path == "" {
		t.Fatal("resolved path should be set even when the file is missing")
	}
	if cfg.Matching.Threshold != defaultMatchThreshold {
		t.Fatalf("threshold = %v, want default", cfg.Matching.Threshold)
	}
	if cfg.AniList.RatePerMinute != defaultAniListRate {
		t.Fatalf("rate = %d, want default", cfg.AniList.RatePerMinute)
	}
	if !cfg.Matching.NegativeCache {
		t.Fatal("negative cache should default on")
	}
	if cfg.Sync.EarlyStopThreshold != defaultEarlyStopWindow {
		t.Fatalf("early stop = %d, want default", cfg.Sync.EarlyStopThreshold)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[paths]
state_dir = "`+t.TempDir()+`"

[matching]
threshold = 0.9
negative_cache = false

[sync]
early_stop_threshold = 10
dry_run = true

[logging]
format = "json"
level = "debug"
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("config file should be found")
	}
	if cfg.Matching.Threshold != 0.9 {
		t.Fatalf("threshold = %v", cfg.Matching.Threshold)
	}
	if cfg.Matching.NegativeCache {
		t.Fatal("negative cache should be off")
	}
	if cfg.Sync.EarlyStopThreshold != 10 || !cfg.Sync.DryRun {
		t.Fatalf("sync section %+v", cfg.Sync)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging section %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	cases := []string{
		"[matching]\nthreshold = 1.5\n",
		"[matching]\nthreshold = -0.2\n",
	}
	for _, contents := range cases {
		path := writeConfig(t, contents)
		if _, _, _, err := Load(path); err == nil {
			t.Errorf("expected validation failure for %q", strings.TrimSpace(contents))
		}
	}
}

func TestLoadRejectsInvalidPageSize(t *testing.T) {
	path := writeConfig(t, "[crunchyroll]\npage_size = 5000\n")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation failure for an oversized page size")
	}
}

func TestEnvironmentFallbacks(t *testing.T) {
	t.Setenv("CRUNCHYROLL_EMAIL", "env@example.com")
	t.Setenv("CRUNCHYROLL_PASSWORD", "env-secret")
	t.Setenv("ANILIST_TOKEN", "env-token")

	cfg, _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crunchyroll.Email != "env@example.com" {
		t.Fatalf("email = %q", cfg.Crunchyroll.Email)
	}
	if cfg.Crunchyroll.Password != "env-secret" {
		t.Fatalf("password not taken from the environment")
	}
	if cfg.AniList.Token != "env-token" {
		t.Fatalf("token = %q", cfg.AniList.Token)
	}
}

func TestConfigFileWinsOverEnvironment(t *testing.T) {
	t.Setenv("ANILIST_TOKEN", "env-token")
	path := writeConfig(t, "[anilist]\ntoken = \"file-token\"\n")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AniList.Token != "file-token" {
		t.Fatalf("token = %q, want the file value", cfg.AniList.Token)
	}
}

func TestRequireAuthChecks(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireDestinationAuth(); err == nil {
		t.Fatal("empty token should fail the destination auth check")
	}
	if err := cfg.RequireSourceAuth(); err == nil {
		t.Fatal("empty credentials should fail the source auth check")
	}

	cfg.AniList.Token = "t"
	cfg.Crunchyroll.Email = "e"
	cfg.Crunchyroll.Password = "p"
	if err := cfg.RequireDestinationAuth(); err != nil {
		t.Fatalf("RequireDestinationAuth: %v", err)
	}
	if err := cfg.RequireSourceAuth(); err != nil {
		t.Fatalf("RequireSourceAuth: %v", err)
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := ExpandPath("~/state")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if expanded != filepath.Join(home, "state") {
		t.Fatalf("expanded = %q", expanded)
	}
}
