package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"anisync/internal/match"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenPath(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestMappingRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	candidate := match.Candidate{
		ID:            113415,
		Titles:        []string{"Jujutsu Kaisen"},
		TotalEpisodes: 24,
		Format:        match.FormatTV,
	}
	if err := st.PutMapping(ctx, "Jujutsu Kaisen", candidate, 1.0); err != nil {
		t.Fatalf("PutMapping: %v", err)
	}

	mapping, err := st.GetMapping(ctx, "Jujutsu Kaisen")
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if mapping == nil {
		t.Fatal("expected a mapping")
	}
	if mapping.Negative {
		t.Fatal("mapping should be positive")
	}
	if mapping.AnimeID != 113415 || mapping.TotalEpisodes != 24 || mapping.Similarity != 1.0 {
		t.Fatalf("unexpected mapping %+v", mapping)
	}

	rebuilt := mapping.Candidate()
	if rebuilt.ID != candidate.ID || rebuilt.PrimaryTitle() != "Jujutsu Kaisen" {
		t.Fatalf("rebuilt candidate %+v", rebuilt)
	}
}

func TestMappingMissing(t *testing.T) {
	st := newTestStore(t)
	mapping, err := st.GetMapping(context.Background(), "Unknown")
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if mapping != nil {
		t.Fatalf("expected nil for an unknown title, got %+v", mapping)
	}
}

func TestNegativeMappingReplacesPositive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	candidate := match.Candidate{ID: 1, Titles: []string{"x"}}
	if err := st.PutMapping(ctx, "Some Show", candidate, 0.95); err != nil {
		t.Fatalf("PutMapping: %v", err)
	}
	if err := st.PutNegativeMapping(ctx, "Some Show", 0.42); err != nil {
		t.Fatalf("PutNegativeMapping: %v", err)
	}

	mapping, err := st.GetMapping(ctx, "Some Show")
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if !mapping.Negative {
		t.Fatal("mapping should be negative after overwrite")
	}
	if mapping.AnimeID != 0 {
		t.Fatalf("negative mapping kept anime id %d", mapping.AnimeID)
	}
	if mapping.Similarity != 0.42 {
		t.Fatalf("similarity = %v, want 0.42", mapping.Similarity)
	}
}

func TestClearMappings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		if err := st.PutNegativeMapping(ctx, title, 0.1); err != nil {
			t.Fatalf("PutNegativeMapping: %v", err)
		}
	}
	removed, err := st.ClearMappings(ctx)
	if err != nil {
		t.Fatalf("ClearMappings: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	mappings, err := st.ListMappings(ctx)
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(mappings) != 0 {
		t.Fatalf("expected an empty cache, got %d entries", len(mappings))
	}
}

func TestProcessedEpisodes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	processed, err := st.IsEpisodeProcessed(ctx, "Jujutsu Kaisen", 5)
	if err != nil {
		t.Fatalf("IsEpisodeProcessed: %v", err)
	}
	if processed {
		t.Fatal("fresh store should not report processed episodes")
	}

	if err := st.MarkEpisodeProcessed(ctx, "Jujutsu Kaisen", 5, 113415, 5); err != nil {
		t.Fatalf("MarkEpisodeProcessed: %v", err)
	}
	if err := st.MarkEpisodeProcessed(ctx, "Jujutsu Kaisen", 6, 113415, 6); err != nil {
		t.Fatalf("MarkEpisodeProcessed: %v", err)
	}

	processed, err = st.IsEpisodeProcessed(ctx, "Jujutsu Kaisen", 5)
	if err != nil {
		t.Fatalf("IsEpisodeProcessed: %v", err)
	}
	if !processed {
		t.Fatal("episode 5 should be processed")
	}

	hasProgress, err := st.HasSeriesProgress(ctx, "Jujutsu Kaisen")
	if err != nil {
		t.Fatalf("HasSeriesProgress: %v", err)
	}
	if !hasProgress {
		t.Fatal("series should have progress")
	}

	highest, err := st.HighestProgress(ctx, "Jujutsu Kaisen")
	if err != nil {
		t.Fatalf("HighestProgress: %v", err)
	}
	if highest != 6 {
		t.Fatalf("highest progress = %d, want 6", highest)
	}

	highest, err = st.HighestProgress(ctx, "Unknown Series")
	if err != nil {
		t.Fatalf("HighestProgress: %v", err)
	}
	if highest != 0 {
		t.Fatalf("unknown series highest = %d, want 0", highest)
	}
}

func TestMarkEpisodeProcessedIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := st.MarkEpisodeProcessed(ctx, "Spy x Family", 3, 140960, 3); err != nil {
			t.Fatalf("MarkEpisodeProcessed (pass %d): %v", i, err)
		}
	}
	episodes, err := st.ListProcessed(ctx)
	if err != nil {
		t.Fatalf("ListProcessed: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("expected one row, got %d", len(episodes))
	}
}

func TestCredentialTTL(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveCredential(ctx, "token", "abc", time.Hour); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	value, ok, err := st.LoadCredential(ctx, "token")
	if err != nil {
		t.Fatalf("LoadCredential: %v", err)
	}
	if !ok || value != "abc" {
		t.Fatalf("got (%q, %v), want (abc, true)", value, ok)
	}

	if err := st.SaveCredential(ctx, "stale", "xyz", -time.Minute); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	_, ok, err = st.LoadCredential(ctx, "stale")
	if err != nil {
		t.Fatalf("LoadCredential: %v", err)
	}
	if ok {
		t.Fatal("expired credential should not load")
	}

	if err := st.ClearCredential(ctx, "token"); err != nil {
		t.Fatalf("ClearCredential: %v", err)
	}
	_, ok, err = st.LoadCredential(ctx, "token")
	if err != nil {
		t.Fatalf("LoadCredential: %v", err)
	}
	if ok {
		t.Fatal("cleared credential should not load")
	}
}

func TestAuditTrail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, entry := range []AuditRecord{
		{RunID: "run-1", SeriesTitle: "A", EpisodeNumber: 1, Outcome: "updated", AnimeID: 10, AnimeTitle: "A!", Similarity: 1.0},
		{RunID: "run-1", SeriesTitle: "B", EpisodeNumber: 2, Outcome: "no_match", Similarity: 0.4, Reason: "below threshold"},
		{RunID: "run-2", SeriesTitle: "C", EpisodeNumber: 3, Outcome: "suppressed"},
	} {
		if err := st.AppendAudit(ctx, entry); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}

	records, err := st.AuditByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("AuditByRun: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("run-1 records = %d, want 2", len(records))
	}
	if records[0].SeriesTitle != "A" || records[1].SeriesTitle != "B" {
		t.Fatalf("records out of order: %+v", records)
	}
	if records[1].Reason != "below threshold" {
		t.Fatalf("reason = %q", records[1].Reason)
	}

	all, err := st.ListAudit(ctx)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all records = %d, want 3", len(all))
	}

	latest, err := st.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	if latest != "run-2" {
		t.Fatalf("latest run = %q, want run-2", latest)
	}
}

func TestSchemaVersionGuard(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	st, err := OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := st.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := OpenPath(dbPath); err == nil {
		t.Fatal("expected a schema mismatch error")
	}
}
