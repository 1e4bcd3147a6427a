package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProcessedEpisode records one watch-history entry whose update was applied
// (or confirmed already correct) on the destination list.
type ProcessedEpisode struct {
	SeriesTitle   string
	EpisodeNumber int
	AnimeID       int64
	Progress      int
	ProcessedAt   time.Time
}

// IsEpisodeProcessed reports whether this exact series/episode pair has
// already been applied.
func (s *Store) IsEpisodeProcessed(ctx context.Context, seriesTitle string, episodeNumber int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_episodes WHERE series_title = ? AND episode_number = ?`,
		seriesTitle, episodeNumber).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed episode: %w", err)
	}
	return true, nil
}

// MarkEpisodeProcessed records a successfully applied update. Re-marking the
// same pair refreshes the row.
func (s *Store) MarkEpisodeProcessed(ctx context.Context, seriesTitle string, episodeNumber int, animeID int64, progress int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_episodes (series_title, episode_number, anime_id, progress, processed_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(series_title, episode_number) DO UPDATE SET
             anime_id = excluded.anime_id, progress = excluded.progress, processed_at = excluded.processed_at`,
		seriesTitle, episodeNumber, animeID, progress, timestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("mark episode processed: %w", err)
	}
	return nil
}

// HasSeriesProgress reports whether any episode of the series has been
// applied before. Used to distinguish a fresh series from a continuing one.
func (s *Store) HasSeriesProgress(ctx context.Context, seriesTitle string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_episodes WHERE series_title = ? LIMIT 1`, seriesTitle).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check series progress: %w", err)
	}
	return true, nil
}

// HighestProgress returns the largest applied progress value for a series,
// or 0 when none has been applied.
func (s *Store) HighestProgress(ctx context.Context, seriesTitle string) (int, error) {
	var progress sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(progress) FROM processed_episodes WHERE series_title = ?`, seriesTitle).Scan(&progress)
	if err != nil {
		return 0, fmt.Errorf("highest progress: %w", err)
	}
	return int(progress.Int64), nil
}

// ListProcessed returns the processed-episode set ordered by series then
// episode number.
func (s *Store) ListProcessed(ctx context.Context) ([]ProcessedEpisode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT series_title, episode_number, anime_id, progress, processed_at
         FROM processed_episodes ORDER BY series_title, episode_number`)
	if err != nil {
		return nil, fmt.Errorf("list processed episodes: %w", err)
	}
	defer rows.Close()

	var episodes []ProcessedEpisode
	for rows.Next() {
		var (
			episode      ProcessedEpisode
			processedRaw string
		)
		if err := rows.Scan(&episode.SeriesTitle, &episode.EpisodeNumber, &episode.AnimeID, &episode.Progress, &processedRaw); err != nil {
			return nil, err
		}
		if processed, err := parseTimeString(processedRaw); err == nil {
			episode.ProcessedAt = processed
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// ClearProcessed removes the whole processed-episode set.
func (s *Store) ClearProcessed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processed_episodes`)
	if err != nil {
		return 0, fmt.Errorf("clear processed episodes: %w", err)
	}
	return res.RowsAffected()
}
