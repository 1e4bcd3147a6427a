package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"anisync/internal/services"
	"anisync/internal/store"
)

type memoryTrail struct {
	records []store.AuditRecord
}

func (m *memoryTrail) AuditByRun(_ context.Context, runID string) ([]store.AuditRecord, error) {
	var out []store.AuditRecord
	for _, record := range m.records {
		if record.RunID == runID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *memoryTrail) ListAudit(context.Context) ([]store.AuditRecord, error) {
	return m.records, nil
}

func (m *memoryTrail) LatestRunID(context.Context) (string, error) {
	if len(m.records) == 0 {
		return "", nil
	}
	return m.records[len(m.records)-1].RunID, nil
}

func sampleTrail() *memoryTrail {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return &memoryTrail{records: []store.AuditRecord{
		{ID: 1, RunID: "run-1", SeriesTitle: "Jujutsu Kaisen", EpisodeNumber: 5, Outcome: "updated",
			AnimeID: 113415, AnimeTitle: "Jujutsu Kaisen", Similarity: 1.0, CreatedAt: at},
		{ID: 2, RunID: "run-1", SeriesTitle: "Obscure Short", EpisodeNumber: 1, Outcome: "no_match",
			Similarity: 0.41, Reason: "below threshold", CreatedAt: at},
		{ID: 3, RunID: "run-2", SeriesTitle: "Suzume", EpisodeNumber: 1, Outcome: "suppressed",
			AnimeID: 142770, AnimeTitle: "Suzume no Tojimari", CreatedAt: at},
	}}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	count, err := Export(context.Background(), sampleTrail(), &buf, FormatCSV, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header plus 3", len(rows))
	}
	if rows[0][0] != "run_id" {
		t.Fatalf("header %v", rows[0])
	}
	if rows[1][1] != "Jujutsu Kaisen" || rows[1][3] != "updated" {
		t.Fatalf("first row %v", rows[1])
	}
	if rows[2][4] != "" {
		t.Fatalf("no-match row should have an empty anime_id, got %q", rows[2][4])
	}
}

func TestExportJSONByRun(t *testing.T) {
	var buf bytes.Buffer
	count, err := Export(context.Background(), sampleTrail(), &buf, FormatJSON, "run-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("entries = %d, want 2", len(decoded))
	}
	if decoded[0]["series_title"] != "Jujutsu Kaisen" {
		t.Fatalf("first entry %v", decoded[0])
	}
	if decoded[1]["reason"] != "below threshold" {
		t.Fatalf("second entry %v", decoded[1])
	}
}

func TestExportLatestRun(t *testing.T) {
	var buf bytes.Buffer
	count, err := Export(context.Background(), sampleTrail(), &buf, FormatJSON, "latest")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1 (run-2 only)", count)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export(context.Background(), sampleTrail(), &buf, "xml", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}
