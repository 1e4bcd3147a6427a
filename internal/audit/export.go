package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"anisync/internal/services"
	"anisync/internal/store"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Trail reads audit records from persistent state.
type Trail interface {
	AuditByRun(ctx context.Context, runID string) ([]store.AuditRecord, error)
	ListAudit(ctx context.Context) ([]store.AuditRecord, error)
	LatestRunID(ctx context.Context) (string, error)
}

// Export writes audit records to w in the requested format. An empty runID
// exports the full trail; the special value "latest" resolves to the most
// recent run.
func Export(ctx context.Context, trail Trail, w io.Writer, format, runID string) (int, error) {
	records, err := collect(ctx, trail, runID)
	if err != nil {
		return 0, err
	}

	switch format {
	case FormatCSV:
		return len(records), writeCSV(w, records)
	case FormatJSON:
		return len(records), writeJSON(w, records)
	default:
		return 0, services.Wrap(services.ErrValidation, "audit", "export",
			fmt.Sprintf("unknown export format %q (expected csv or json)", format), nil)
	}
}

func collect(ctx context.Context, trail Trail, runID string) ([]store.AuditRecord, error) {
	if runID == "latest" {
		latest, err := trail.LatestRunID(ctx)
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, nil
		}
		runID = latest
	}
	if runID == "" {
		return trail.ListAudit(ctx)
	}
	return trail.AuditByRun(ctx, runID)
}

func writeCSV(w io.Writer, records []store.AuditRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"run_id", "series_title", "episode", "outcome", "anime_id", "anime_title", "similarity", "reason", "created_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		animeID := ""
		if record.AnimeID != 0 {
			animeID = strconv.FormatInt(record.AnimeID, 10)
		}
		row := []string{
			record.RunID,
			record.SeriesTitle,
			strconv.Itoa(record.EpisodeNumber),
			record.Outcome,
			animeID,
			record.AnimeTitle,
			strconv.FormatFloat(record.Similarity, 'f', 3, 64),
			record.Reason,
			record.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRecord struct {
	RunID       string  `json:"run_id"`
	SeriesTitle string  `json:"series_title"`
	Episode     int     `json:"episode"`
	Outcome     string  `json:"outcome"`
	AnimeID     int64   `json:"anime_id,omitempty"`
	AnimeTitle  string  `json:"anime_title,omitempty"`
	Similarity  float64 `json:"similarity"`
	Reason      string  `json:"reason,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func writeJSON(w io.Writer, records []store.AuditRecord) error {
	out := make([]jsonRecord, 0, len(records))
	for _, record := range records {
		out = append(out, jsonRecord{
			RunID:       record.RunID,
			SeriesTitle: record.SeriesTitle,
			Episode:     record.EpisodeNumber,
			Outcome:     record.Outcome,
			AnimeID:     record.AnimeID,
			AnimeTitle:  record.AnimeTitle,
			Similarity:  record.Similarity,
			Reason:      record.Reason,
			CreatedAt:   record.CreatedAt.Format(time.RFC3339),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}
