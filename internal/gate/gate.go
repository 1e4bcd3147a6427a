package gate

import (
	"context"
	"fmt"
)

// Set is the persisted processed-episode set the gate consults.
type Set interface {
	IsEpisodeProcessed(ctx context.Context, seriesTitle string, episodeNumber int) (bool, error)
	MarkEpisodeProcessed(ctx context.Context, seriesTitle string, episodeNumber int, animeID int64, progress int) error
}

// Gate suppresses duplicate updates using the processed-episode set.
type Gate struct {
	set Set
}

// New returns a gate backed by the given set.
func New(set Set) *Gate {
	return &Gate{set: set}
}

// ShouldApply reports whether the update for this series/progress pair has
// not been applied yet. Movies carry progress 1, so they share the same key
// shape as episodes.
func (g *Gate) ShouldApply(ctx context.Context, seriesTitle string, progress int) (bool, error) {
	processed, err := g.set.IsEpisodeProcessed(ctx, seriesTitle, progress)
	if err != nil {
		return false, fmt.Errorf("consult processed set: %w", err)
	}
	return !processed, nil
}

// RecordApplied marks a confirmed update so later runs suppress it. Callers
// must invoke this only after the destination acknowledged the write.
func (g *Gate) RecordApplied(ctx context.Context, seriesTitle string, progress int, animeID int64) error {
	if err := g.set.MarkEpisodeProcessed(ctx, seriesTitle, progress, animeID, progress); err != nil {
		return fmt.Errorf("record applied update: %w", err)
	}
	return nil
}
