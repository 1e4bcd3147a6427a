package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"anisync/internal/config"
	"anisync/internal/match"
	"anisync/internal/reconcile"
	"anisync/internal/services"
)

const defaultBaseURL = "https://graphql.anilist.co"

// Client is an authenticated AniList GraphQL client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	perPage    int
	limiter    *limiter
}

// NewClient builds a client from configuration. The token is carried by an
// oauth2 transport so every request is authenticated the same way.
func NewClient(cfg config.AniList) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Token != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), source)
		httpClient.Timeout = timeout
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		perPage:    cfg.PerPage,
		limiter:    newLimiter(cfg.RatePerMinute, time.Duration(cfg.MinIntervalMS)*time.Millisecond),
	}
}

const viewerQuery = `query { Viewer { id name } }`

const searchQuery = `query ($search: String, $perPage: Int) {
  Page(page: 1, perPage: $perPage) {
    media(search: $search, type: ANIME) {
      id
      title { romaji english native }
      synonyms
      episodes
      format
      status
    }
  }
}`

const saveEntryMutation = `mutation ($mediaId: Int, $progress: Int, $status: MediaListStatus) {
  SaveMediaListEntry(mediaId: $mediaId, progress: $progress, status: $status) {
    id
    progress
    status
  }
}`

const saveProgressMutation = `mutation ($mediaId: Int, $progress: Int) {
  SaveMediaListEntry(mediaId: $mediaId, progress: $progress) {
    id
    progress
  }
}`

// Authenticate verifies the configured token against the Viewer query.
func (c *Client) Authenticate(ctx context.Context) error {
	var response struct {
		Viewer struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"Viewer"`
	}
	if err := c.execute(ctx, viewerQuery, nil, &response); err != nil {
		return err
	}
	if response.Viewer.ID == 0 {
		return services.Wrap(services.ErrAuth, "anilist", "authenticate", "viewer query returned no user", nil)
	}
	return nil
}

// Search returns catalog candidates for a title, alternative spellings
// included so the resolver can score every known name.
func (c *Client) Search(ctx context.Context, title string) ([]match.Candidate, error) {
	perPage := c.perPage
	if perPage <= 0 {
		perPage = 10
	}
	variables := map[string]any{"search": title, "perPage": perPage}

	var response struct {
		Page struct {
			Media []struct {
				ID    int64 `json:"id"`
				Title struct {
					Romaji  string `json:"romaji"`
					English string `json:"english"`
					Native  string `json:"native"`
				} `json:"title"`
				Synonyms []string `json:"synonyms"`
				Episodes int      `json:"episodes"`
				Format   string   `json:"format"`
				Status   string   `json:"status"`
			} `json:"media"`
		} `json:"Page"`
	}
	if err := c.execute(ctx, searchQuery, variables, &response); err != nil {
		return nil, err
	}

	candidates := make([]match.Candidate, 0, len(response.Page.Media))
	for _, media := range response.Page.Media {
		titles := make([]string, 0, 3+len(media.Synonyms))
		for _, name := range []string{media.Title.Romaji, media.Title.English, media.Title.Native} {
			if name != "" {
				titles = append(titles, name)
			}
		}
		titles = append(titles, media.Synonyms...)

		candidates = append(candidates, match.Candidate{
			ID:            media.ID,
			Titles:        titles,
			TotalEpisodes: media.Episodes,
			Format:        match.Format(media.Format),
			Status:        media.Status,
		})
	}
	return candidates, nil
}

// UpdateProgress saves a list entry. A zero-valued status updates progress
// only, leaving the current list status untouched.
func (c *Client) UpdateProgress(ctx context.Context, animeID int64, progress int, status reconcile.Status) error {
	query := saveProgressMutation
	variables := map[string]any{"mediaId": animeID, "progress": progress}
	if status != reconcile.StatusUnset {
		query = saveEntryMutation
		variables["status"] = string(status)
	}

	var response struct {
		SaveMediaListEntry struct {
			ID       int64 `json:"id"`
			Progress int   `json:"progress"`
		} `json:"SaveMediaListEntry"`
	}
	if err := c.execute(ctx, query, variables, &response); err != nil {
		return err
	}
	if response.SaveMediaListEntry.ID == 0 {
		return services.Wrap(services.ErrTransient, "anilist", "update",
			fmt.Sprintf("save for anime %d returned no entry", animeID), nil)
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return services.Wrap(services.ErrTransient, "anilist", "ratelimit", "wait for request slot", err)
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return services.Wrap(services.ErrValidation, "anilist", "request", "encode graphql request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return services.Wrap(services.ErrValidation, "anilist", "request", "build graphql request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "anilist", "request", "execute graphql request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "anilist", "request", "read graphql response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.limiter.Exhaust(retryAfter)
		return services.Wrap(services.ErrRateLimited, "anilist", "request",
			fmt.Sprintf("rate limit hit, retry after %s", retryAfter), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "anilist", "request",
			fmt.Sprintf("request rejected with status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "anilist", "request",
			fmt.Sprintf("server error %d", resp.StatusCode), nil)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return services.Wrap(services.ErrTransient, "anilist", "request", "decode graphql response", err)
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		marker := services.ErrTransient
		switch {
		case first.Status == http.StatusNotFound:
			marker = services.ErrNotFound
		case first.Status == http.StatusBadRequest:
			marker = services.ErrValidation
		case first.Status == http.StatusUnauthorized || first.Status == http.StatusForbidden:
			marker = services.ErrAuth
		}
		return services.Wrap(marker, "anilist", "request", first.Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "anilist", "request",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return services.Wrap(services.ErrTransient, "anilist", "request", "decode graphql data", err)
		}
	}
	return nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return time.Minute
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return time.Minute
}
