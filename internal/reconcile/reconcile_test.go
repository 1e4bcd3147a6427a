package reconcile

import (
	"errors"
	"testing"

	"anisync/internal/history"
	"anisync/internal/match"
	"anisync/internal/services"
)

func TestReconcileEpisode(t *testing.T) {
	record := history.Record{SeriesTitle: "Jujutsu Kaisen", EpisodeNumber: 5}
	candidate := match.Candidate{ID: 113415, TotalEpisodes: 24}

	result, err := Reconcile(record, candidate, true)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Progress != 5 {
		t.Fatalf("progress = %d, want 5", result.Progress)
	}
	if result.Status != StatusUnset {
		t.Fatalf("mid-series rewatch status = %q, want unset", result.Status)
	}
}

func TestReconcileMovieIgnoresEpisodeNumber(t *testing.T) {
	cases := []struct {
		name   string
		record history.Record
	}{
		{"no episode number", history.Record{SeriesTitle: "Suzume", IsMovie: true}},
		{"stray episode number", history.Record{SeriesTitle: "Suzume", IsMovie: true, EpisodeNumber: 7}},
	}
	candidate := match.Candidate{ID: 142770, TotalEpisodes: 1, Format: match.FormatMovie}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Reconcile(tc.record, candidate, false)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if result.Progress != 1 {
				t.Fatalf("movie progress = %d, want 1", result.Progress)
			}
			if result.Status != StatusCompleted {
				t.Fatalf("movie status = %q, want %q", result.Status, StatusCompleted)
			}
		})
	}
}

func TestReconcileRejectsMissingEpisodeNumber(t *testing.T) {
	record := history.Record{SeriesTitle: "One Piece"}
	_, err := Reconcile(record, match.Candidate{ID: 21}, false)
	if err == nil {
		t.Fatal("expected an error for episodic content without an episode number")
	}
	if !errors.Is(err, services.ErrNoValidEpisode) {
		t.Fatalf("error = %v, want ErrNoValidEpisode", err)
	}
	if !services.IsSoft(err) {
		t.Fatal("missing episode number should be a soft failure")
	}
}

func TestReconcileStatusTransitions(t *testing.T) {
	cases := []struct {
		name       string
		progress   int
		total      int
		seenBefore bool
		want       Status
	}{
		{"first episode of new series", 1, 24, false, StatusCurrent},
		{"first episode seen before", 1, 24, true, StatusUnset},
		{"final episode", 24, 24, false, StatusCompleted},
		{"past final episode", 25, 24, true, StatusCompleted},
		{"mid series", 12, 24, true, StatusUnset},
		{"unknown total", 12, 0, true, StatusUnset},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := history.Record{SeriesTitle: "x", EpisodeNumber: tc.progress}
			candidate := match.Candidate{ID: 1, TotalEpisodes: tc.total}
			result, err := Reconcile(record, candidate, tc.seenBefore)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if result.Status != tc.want {
				t.Fatalf("status = %q, want %q", result.Status, tc.want)
			}
		})
	}
}
