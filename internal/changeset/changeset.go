package changeset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"anisync/internal/services"
)

// Update types recorded per change.
const (
	UpdateTypeNormal    = "normal"
	UpdateTypeRewatch   = "rewatch"
	UpdateTypeNewSeries = "new_series"
)

// SourceRef identifies the watch-history entry a change came from.
type SourceRef struct {
	Series  string `json:"series"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode"`
	IsMovie bool   `json:"is_movie,omitempty"`
}

// Change is one planned list update.
type Change struct {
	AnimeID       int64     `json:"anime_id"`
	AnimeTitle    string    `json:"anime_title"`
	Progress      int       `json:"progress"`
	TotalEpisodes int       `json:"total_episodes,omitempty"`
	Status        string    `json:"status,omitempty"`
	Source        SourceRef `json:"cr_source"`
	UpdateType    string    `json:"update_type"`
}

// Changeset is the full recorded plan of one sync run.
type Changeset struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	TotalChanges int       `json:"total_changes"`
	Changes      []Change  `json:"changes"`
}

// New returns an empty changeset with a fresh identifier.
func New() *Changeset {
	return &Changeset{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// Append adds a planned change and keeps the count consistent.
func (c *Changeset) Append(change Change) {
	c.Changes = append(c.Changes, change)
	c.TotalChanges = len(c.Changes)
}

// Save writes the changeset atomically via a temp file rename.
func (c *Changeset) Save(path string) error {
	c.TotalChanges = len(c.Changes)

	payload, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode changeset: %w", err)
	}
	payload = append(payload, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create changeset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".changeset-*.json")
	if err != nil {
		return fmt.Errorf("create temp changeset: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write changeset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close changeset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize changeset: %w", err)
	}
	return nil
}

// rawChange decodes with pointers so missing required keys are detectable.
type rawChange struct {
	AnimeID       *int64     `json:"anime_id"`
	AnimeTitle    *string    `json:"anime_title"`
	Progress      *int       `json:"progress"`
	TotalEpisodes int        `json:"total_episodes"`
	Status        string     `json:"status"`
	Source        *SourceRef `json:"cr_source"`
	UpdateType    string     `json:"update_type"`
}

type rawChangeset struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	TotalChanges int              `json:"total_changes"`
	Changes      *json.RawMessage `json:"changes"`
}

// Load reads and validates a changeset file. Structural problems fail hard
// so a hand-edited file cannot be partially applied.
func Load(path string) (*Changeset, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "changeset", "load",
			fmt.Sprintf("read changeset file %s", path), err)
	}

	var raw rawChangeset
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, services.Wrap(services.ErrValidation, "changeset", "load",
			"changeset file is not valid JSON", err)
	}
	if raw.Changes == nil {
		return nil, services.Wrap(services.ErrValidation, "changeset", "load",
			"changeset file has no changes list", nil)
	}

	var entries []rawChange
	if err := json.Unmarshal(*raw.Changes, &entries); err != nil {
		return nil, services.Wrap(services.ErrValidation, "changeset", "load",
			"changes must be a list of change objects", err)
	}

	cs := &Changeset{
		ID:        raw.ID,
		CreatedAt: raw.CreatedAt,
	}
	for i, entry := range entries {
		switch {
		case entry.AnimeID == nil || *entry.AnimeID <= 0:
			return nil, services.Wrap(services.ErrValidation, "changeset", "load",
				fmt.Sprintf("change %d is missing a valid anime_id", i), nil)
		case entry.AnimeTitle == nil || *entry.AnimeTitle == "":
			return nil, services.Wrap(services.ErrValidation, "changeset", "load",
				fmt.Sprintf("change %d is missing anime_title", i), nil)
		case entry.Progress == nil || *entry.Progress <= 0:
			return nil, services.Wrap(services.ErrValidation, "changeset", "load",
				fmt.Sprintf("change %d is missing a valid progress", i), nil)
		}

		change := Change{
			AnimeID:       *entry.AnimeID,
			AnimeTitle:    *entry.AnimeTitle,
			Progress:      *entry.Progress,
			TotalEpisodes: entry.TotalEpisodes,
			Status:        entry.Status,
			UpdateType:    entry.UpdateType,
		}
		if entry.Source != nil {
			change.Source = *entry.Source
		}
		if change.UpdateType == "" {
			change.UpdateType = UpdateTypeNormal
		}
		cs.Changes = append(cs.Changes, change)
	}
	cs.TotalChanges = len(cs.Changes)
	return cs, nil
}

// DefaultFilename names a changeset file after its run timestamp.
func DefaultFilename(at time.Time) string {
	return fmt.Sprintf("changeset-%s.json", at.UTC().Format("20060102-150405"))
}
