package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AuditRecord captures the decision taken for one watch-history entry during
// a sync run.
type AuditRecord struct {
	ID            int64
	RunID         string
	SeriesTitle   string
	EpisodeNumber int
	Outcome       string
	AnimeID       int64
	AnimeTitle    string
	Similarity    float64
	Reason        string
	CreatedAt     time.Time
}

// AppendAudit records one per-entry decision for the given run.
func (s *Store) AppendAudit(ctx context.Context, record AuditRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_records (run_id, series_title, episode_number, outcome, anime_id, anime_title, similarity, reason, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.SeriesTitle,
		record.EpisodeNumber,
		record.Outcome,
		nullableInt64(record.AnimeID),
		nullableString(record.AnimeTitle),
		record.Similarity,
		nullableString(record.Reason),
		timestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// AuditByRun returns the audit trail for a single run in insertion order.
func (s *Store) AuditByRun(ctx context.Context, runID string) ([]AuditRecord, error) {
	return s.queryAudit(ctx,
		`SELECT id, run_id, series_title, episode_number, outcome, anime_id, anime_title, similarity, reason, created_at
         FROM audit_records WHERE run_id = ? ORDER BY id`, runID)
}

// ListAudit returns the full audit trail in insertion order.
func (s *Store) ListAudit(ctx context.Context) ([]AuditRecord, error) {
	return s.queryAudit(ctx,
		`SELECT id, run_id, series_title, episode_number, outcome, anime_id, anime_title, similarity, reason, created_at
         FROM audit_records ORDER BY id`)
}

// LatestRunID returns the run id of the most recently written audit record,
// or empty when the trail is empty.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM audit_records ORDER BY id DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run id: %w", err)
	}
	return runID.String, nil
}

func (s *Store) queryAudit(ctx context.Context, query string, args ...any) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var (
			record     AuditRecord
			animeID    sql.NullInt64
			animeTitle sql.NullString
			similarity sql.NullFloat64
			reason     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&record.ID, &record.RunID, &record.SeriesTitle, &record.EpisodeNumber,
			&record.Outcome, &animeID, &animeTitle, &similarity, &reason, &createdRaw); err != nil {
			return nil, err
		}
		record.AnimeID = animeID.Int64
		record.AnimeTitle = animeTitle.String
		record.Similarity = similarity.Float64
		record.Reason = reason.String
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
