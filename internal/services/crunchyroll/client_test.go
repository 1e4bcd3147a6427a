package crunchyroll

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"anisync/internal/config"
	"anisync/internal/services"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (m *memoryCache) LoadCredential(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *memoryCache) SaveCredential(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryCache) ClearCredential(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func testConfig(baseURL string) config.Crunchyroll {
	return config.Crunchyroll{
		Email:    "user@example.com",
		Password: "hunter2",
		BaseURL:  baseURL,
		PageSize: 100,
	}
}

func newHistoryServer(t *testing.T, tokenGrants *int, pages map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case tokenPath:
			if tokenGrants != nil {
				*tokenGrants++
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if r.Form.Get("grant_type") != "password" {
				t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "session-abc", "expires_in": 300})
		case historyPath:
			if got := r.Header.Get("Authorization"); got != "Bearer session-abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			key := r.URL.Query().Get("page")
			page, ok := pages[key]
			if !ok {
				page = map[string]any{"data": []any{}}
			}
			_ = json.NewEncoder(w).Encode(page)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestAuthenticateAndFetch(t *testing.T) {
	pages := map[string]any{
		"": map[string]any{
			"data": []any{
				map[string]any{
					"date_played": "2026-08-20T19:04:00Z",
					"panel": map[string]any{
						"title": "E5 - Premature Death",
						"type":  "episode",
						"episode_metadata": map[string]any{
							"series_title":   "Jujutsu Kaisen",
							"episode_number": 5,
							"season_number":  2,
						},
					},
				},
				map[string]any{"unrecognized": true},
			},
			"next_page": "p2",
		},
		"p2": map[string]any{
			"data": []any{
				map[string]any{
					"panel": map[string]any{
						"title": "Suzume",
						"type":  "movie",
						"movie_listing_metadata": map[string]any{
							"movie_listing_title": "Suzume",
						},
					},
				},
			},
		},
	}

	grants := 0
	server := newHistoryServer(t, &grants, pages)
	defer server.Close()

	client := NewClient(testConfig(server.URL), newMemoryCache())
	ctx := context.Background()
	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	records, next, err := client.FetchPage(ctx, "")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (unrecognized payloads are dropped)", len(records))
	}
	if records[0].SeriesTitle != "Jujutsu Kaisen" || records[0].EpisodeNumber != 5 {
		t.Fatalf("record %+v", records[0])
	}
	if next != "p2" {
		t.Fatalf("next = %q, want p2", next)
	}

	records, next, err = client.FetchPage(ctx, next)
	if err != nil {
		t.Fatalf("FetchPage p2: %v", err)
	}
	if len(records) != 1 || !records[0].IsMovie {
		t.Fatalf("movie page records %+v", records)
	}
	if next != "" {
		t.Fatalf("next = %q, want end of pagination", next)
	}
}

func TestAuthenticateReusesCachedToken(t *testing.T) {
	grants := 0
	server := newHistoryServer(t, &grants, nil)
	defer server.Close()

	cache := newMemoryCache()
	ctx := context.Background()

	first := NewClient(testConfig(server.URL), cache)
	if err := first.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	second := NewClient(testConfig(server.URL), cache)
	if err := second.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate (cached): %v", err)
	}

	if grants != 1 {
		t.Fatalf("token grants = %d, want 1 (second client should reuse the cache)", grants)
	}
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	err := client.Authenticate(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("error = %v, want auth", err)
	}
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	cfg := testConfig("http://unused.invalid")
	cfg.Email = ""
	client := NewClient(cfg, nil)
	err := client.Authenticate(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration", err)
	}
}

func TestFetchBeforeAuthFails(t *testing.T) {
	client := NewClient(testConfig("http://unused.invalid"), nil)
	_, _, err := client.FetchPage(context.Background(), "")
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("error = %v, want auth", err)
	}
}

func TestSessionExpiryClearsCachedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "stale"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	cache := newMemoryCache()
	client := NewClient(testConfig(server.URL), cache)
	ctx := context.Background()
	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	_, _, err := client.FetchPage(ctx, "")
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("error = %v, want auth", err)
	}
	if _, ok, _ := cache.LoadCredential(ctx, credentialKey); ok {
		t.Fatal("expired session should be evicted from the cache")
	}
}

func TestMaxPagesCapsPagination(t *testing.T) {
	pages := map[string]any{
		"": map[string]any{
			"data": []any{map[string]any{
				"series_title": "Mob Psycho 100",
				"title":        "#7",
				"media_type":   "episode",
			}},
			"next_page": "p2",
		},
	}
	server := newHistoryServer(t, nil, pages)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxPages = 1
	client := NewClient(cfg, nil)
	ctx := context.Background()
	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	records, next, err := client.FetchPage(ctx, "")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if next != "" {
		t.Fatalf("next = %q, want pagination capped at one page", next)
	}

	records, next, err = client.FetchPage(ctx, "p2")
	if err != nil {
		t.Fatalf("FetchPage past cap: %v", err)
	}
	if len(records) != 0 || next != "" {
		t.Fatal("fetching past the cap should return nothing")
	}
}
