package reconcile

import (
	"anisync/internal/history"
	"anisync/internal/match"
	"anisync/internal/services"
)

// Status is the list status transition to apply alongside a progress update.
// StatusUnset means "leave the remote status alone".
type Status string

const (
	StatusUnset     Status = ""
	StatusPlanning  Status = "PLANNING"
	StatusCurrent   Status = "CURRENT"
	StatusCompleted Status = "COMPLETED"
	StatusPaused    Status = "PAUSED"
	StatusDropped   Status = "DROPPED"
)

// Result is the reconciled progress for one record.
type Result struct {
	Progress int
	Status   Status
}

// Reconcile computes the absolute progress and status transition for a
// scraped record against its matched catalog entry. seenBefore reports
// whether any progress for this series has already been recorded locally.
//
// Movies always report progress 1. TV records without a positive episode
// number fail with services.ErrNoValidEpisode: an episode number is never
// guessed for episodic content.
func Reconcile(record history.Record, candidate match.Candidate, seenBefore bool) (Result, error) {
	progress := record.EpisodeNumber
	if record.IsMovie {
		progress = 1
	} else if progress <= 0 {
		return Result{}, services.Wrap(
			services.ErrNoValidEpisode,
			"reconcile", "episode",
			"record has no usable episode number for episodic content",
			nil,
		)
	}

	return Result{
		Progress: progress,
		Status:   deriveStatus(progress, candidate, seenBefore),
	}, nil
}

// deriveStatus picks a status transition, or StatusUnset when the remote
// list's existing status should stand (avoids COMPLETED -> CURRENT downgrades
// on rewatches).
func deriveStatus(progress int, candidate match.Candidate, seenBefore bool) Status {
	switch {
	case progress == 0:
		return StatusPlanning
	case candidate.TotalEpisodes > 0 && progress >= candidate.TotalEpisodes:
		return StatusCompleted
	case progress == 1 && !seenBefore:
		return StatusCurrent
	default:
		return StatusUnset
	}
}
