package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadCredential returns a cached credential value if present and not
// expired. Expired rows are purged on read and reported as absent.
func (s *Store) LoadCredential(ctx context.Context, key string) (string, bool, error) {
	var (
		value      string
		expiresRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM credentials WHERE key = ?`, key).Scan(&value, &expiresRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load credential: %w", err)
	}

	expires, parseErr := parseTimeString(expiresRaw)
	if parseErr != nil || !time.Now().Before(expires) {
		if _, delErr := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key); delErr != nil {
			return "", false, fmt.Errorf("purge expired credential: %w", delErr)
		}
		return "", false, nil
	}
	return value, true, nil
}

// SaveCredential stores a credential with a time-to-live.
func (s *Store) SaveCredential(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value, expires_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, timestamp(time.Now().Add(ttl)))
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// ClearCredential drops a cached credential regardless of expiry.
func (s *Store) ClearCredential(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
