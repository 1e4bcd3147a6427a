package crunchyroll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"anisync/internal/config"
	"anisync/internal/history"
	"anisync/internal/services"
)

const (
	defaultBaseURL = "https://www.crunchyroll.com"
	tokenPath      = "/auth/v1/token"
	historyPath    = "/content/v2/watch-history"

	credentialKey = "crunchyroll.access_token"
)

// TokenCache persists session tokens across runs.
type TokenCache interface {
	LoadCredential(ctx context.Context, key string) (string, bool, error)
	SaveCredential(ctx context.Context, key, value string, ttl time.Duration) error
	ClearCredential(ctx context.Context, key string) error
}

// Client fetches watch history. It implements history.Source.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	password   string
	pageSize   int
	maxPages   int
	tokenTTL   time.Duration
	cache      TokenCache

	accessToken string
	pagesSeen   int
}

// NewClient builds a client from configuration. cache may be nil; tokens are
// then held only for the process lifetime.
func NewClient(cfg config.Crunchyroll, cache TokenCache) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 4 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      cfg.Email,
		password:   cfg.Password,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		tokenTTL:   ttl,
		cache:      cache,
	}
}

// Authenticate obtains a session token, reusing a cached one when present.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cache != nil {
		if token, ok, err := c.cache.LoadCredential(ctx, credentialKey); err != nil {
			return services.Wrap(services.ErrTransient, "crunchyroll", "auth", "load cached token", err)
		} else if ok {
			c.accessToken = token
			return nil
		}
	}

	if c.email == "" || c.password == "" {
		return services.Wrap(services.ErrConfiguration, "crunchyroll", "auth",
			"email and password are required (set crunchyroll.email/password or CRUNCHYROLL_EMAIL/CRUNCHYROLL_PASSWORD)", nil)
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.email)
	form.Set("password", c.password)
	form.Set("scope", "offline_access")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrValidation, "crunchyroll", "auth", "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "crunchyroll", "auth", "execute token request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "crunchyroll", "auth", "read token response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "crunchyroll", "auth",
			"credentials rejected, check email and password", nil)
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "crunchyroll", "auth",
			fmt.Sprintf("server error %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrAuth, "crunchyroll", "auth",
			fmt.Sprintf("token request failed with status %d", resp.StatusCode), nil)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return services.Wrap(services.ErrTransient, "crunchyroll", "auth", "decode token response", err)
	}
	if token.AccessToken == "" {
		return services.Wrap(services.ErrAuth, "crunchyroll", "auth", "token response carried no access token", nil)
	}

	c.accessToken = token.AccessToken
	if c.cache != nil {
		ttl := c.tokenTTL
		if token.ExpiresIn > 0 {
			// Expire the cache comfortably before the server does.
			serverTTL := time.Duration(token.ExpiresIn) * time.Second * 4 / 5
			if serverTTL < ttl {
				ttl = serverTTL
			}
		}
		if err := c.cache.SaveCredential(ctx, credentialKey, token.AccessToken, ttl); err != nil {
			return services.Wrap(services.ErrTransient, "crunchyroll", "auth", "cache token", err)
		}
	}
	return nil
}

// FetchPage returns one page of history records newest-first. pageToken is
// the opaque continuation value from the previous page; "" requests the
// first page. An empty next token ends pagination, as does hitting the
// configured page cap.
func (c *Client) FetchPage(ctx context.Context, pageToken string) ([]history.Record, string, error) {
	if c.accessToken == "" {
		return nil, "", services.Wrap(services.ErrAuth, "crunchyroll", "history", "fetch attempted before authentication", nil)
	}
	if c.maxPages > 0 && c.pagesSeen >= c.maxPages {
		return nil, "", nil
	}

	endpoint, err := url.Parse(c.baseURL + historyPath)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "crunchyroll", "history", "build history url", err)
	}
	query := endpoint.Query()
	if c.pageSize > 0 {
		query.Set("page_size", strconv.Itoa(c.pageSize))
	}
	if pageToken != "" {
		query.Set("page", pageToken)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "crunchyroll", "history", "build history request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "crunchyroll", "history", "execute history request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "crunchyroll", "history", "read history response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.cache != nil {
			_ = c.cache.ClearCredential(ctx, credentialKey)
		}
		c.accessToken = ""
		return nil, "", services.Wrap(services.ErrAuth, "crunchyroll", "history", "session expired", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", services.Wrap(services.ErrRateLimited, "crunchyroll", "history", "rate limit hit", nil)
	case resp.StatusCode >= 500:
		return nil, "", services.Wrap(services.ErrTransient, "crunchyroll", "history",
			fmt.Sprintf("server error %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, "", services.Wrap(services.ErrTransient, "crunchyroll", "history",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var page struct {
		Data []json.RawMessage `json:"data"`
		Next string            `json:"next_page"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "crunchyroll", "history", "decode history page", err)
	}

	records := make([]history.Record, 0, len(page.Data))
	for _, raw := range page.Data {
		if record, ok := history.Extract(raw); ok {
			records = append(records, record)
		}
	}

	c.pagesSeen++
	next := page.Next
	if c.maxPages > 0 && c.pagesSeen >= c.maxPages {
		next = ""
	}
	return records, next, nil
}
