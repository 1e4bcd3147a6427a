package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"anisync/internal/match"
)

// Mapping is a persisted association from a raw scraped series title to a
// catalog entry. Negative marks a title that was searched and confirmed
// unmatched so it is not re-searched.
//
// The key is the exact raw spelling, not the normalized form: two spellings
// of one series each get their own slot. See the update gate for why that is
// acceptable.
type Mapping struct {
	RawTitle      string
	Negative      bool
	AnimeID       int64
	AnimeTitle    string
	TotalEpisodes int
	Format        string
	Similarity    float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Candidate rebuilds a resolver candidate from a positive mapping.
func (m Mapping) Candidate() match.Candidate {
	return match.Candidate{
		ID:            m.AnimeID,
		Titles:        []string{m.AnimeTitle},
		TotalEpisodes: m.TotalEpisodes,
		Format:        match.Format(m.Format),
	}
}

// GetMapping returns the cached mapping for a raw title, if present.
func (s *Store) GetMapping(ctx context.Context, rawTitle string) (*Mapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT raw_title, negative, anime_id, anime_title, total_episodes, format, similarity, created_at, updated_at
         FROM title_mappings WHERE raw_title = ?`, rawTitle)

	var (
		mapping    Mapping
		negative   int64
		animeID    sql.NullInt64
		animeTitle sql.NullString
		episodes   sql.NullInt64
		format     sql.NullString
		similarity sql.NullFloat64
		createdRaw string
		updatedRaw string
	)
	err := row.Scan(&mapping.RawTitle, &negative, &animeID, &animeTitle, &episodes, &format, &similarity, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}

	mapping.Negative = negative != 0
	mapping.AnimeID = animeID.Int64
	mapping.AnimeTitle = animeTitle.String
	mapping.TotalEpisodes = int(episodes.Int64)
	mapping.Format = format.String
	mapping.Similarity = similarity.Float64
	if created, err := parseTimeString(createdRaw); err == nil {
		mapping.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		mapping.UpdatedAt = updated
	}
	return &mapping, nil
}

// PutMapping inserts or replaces a positive mapping for a raw title.
func (s *Store) PutMapping(ctx context.Context, rawTitle string, candidate match.Candidate, similarity float64) error {
	now := timestamp(time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO title_mappings (raw_title, negative, anime_id, anime_title, total_episodes, format, similarity, created_at, updated_at)
         VALUES (?, 0, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(raw_title) DO UPDATE SET
             negative = 0, anime_id = excluded.anime_id, anime_title = excluded.anime_title,
             total_episodes = excluded.total_episodes, format = excluded.format,
             similarity = excluded.similarity, updated_at = excluded.updated_at`,
		rawTitle,
		candidate.ID,
		candidate.PrimaryTitle(),
		candidate.TotalEpisodes,
		string(candidate.Format),
		similarity,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put mapping: %w", err)
	}
	return nil
}

// PutNegativeMapping records that a raw title was searched and no acceptable
// match exists, so later runs skip the search.
func (s *Store) PutNegativeMapping(ctx context.Context, rawTitle string, bestSimilarity float64) error {
	now := timestamp(time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO title_mappings (raw_title, negative, similarity, created_at, updated_at)
         VALUES (?, 1, ?, ?, ?)
         ON CONFLICT(raw_title) DO UPDATE SET
             negative = 1, anime_id = NULL, anime_title = NULL, total_episodes = NULL,
             format = NULL, similarity = excluded.similarity, updated_at = excluded.updated_at`,
		rawTitle,
		bestSimilarity,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put negative mapping: %w", err)
	}
	return nil
}

// ListMappings returns all cached mappings ordered by raw title.
func (s *Store) ListMappings(ctx context.Context) ([]Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_title, negative, anime_id, anime_title, total_episodes, format, similarity, created_at, updated_at
         FROM title_mappings ORDER BY raw_title`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		var (
			mapping    Mapping
			negative   int64
			animeID    sql.NullInt64
			animeTitle sql.NullString
			episodes   sql.NullInt64
			format     sql.NullString
			similarity sql.NullFloat64
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&mapping.RawTitle, &negative, &animeID, &animeTitle, &episodes, &format, &similarity, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		mapping.Negative = negative != 0
		mapping.AnimeID = animeID.Int64
		mapping.AnimeTitle = animeTitle.String
		mapping.TotalEpisodes = int(episodes.Int64)
		mapping.Format = format.String
		mapping.Similarity = similarity.Float64
		if created, err := parseTimeString(createdRaw); err == nil {
			mapping.CreatedAt = created
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			mapping.UpdatedAt = updated
		}
		mappings = append(mappings, mapping)
	}
	return mappings, rows.Err()
}

// ClearMappings removes all cached title mappings.
func (s *Store) ClearMappings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM title_mappings`)
	if err != nil {
		return 0, fmt.Errorf("clear mappings: %w", err)
	}
	return res.RowsAffected()
}
