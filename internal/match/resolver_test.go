package match

import (
	"strings"
	"testing"
)

func TestResolveExactTitle(t *testing.T) {
	candidates := []Candidate{
		{ID: 16498, Titles: []string{"Shingeki no Kyojin", "Attack on Titan"}, TotalEpisodes: 25, Format: FormatTV},
		{ID: 23777, Titles: []string{"Attack on Titan: Junior High"}, TotalEpisodes: 12, Format: FormatTV},
	}

	decision := Resolve("Attack on Titan", candidates, DefaultThreshold)
	if !decision.Matched() {
		t.Fatalf("expected a match, got %+v", decision)
	}
	if decision.Selected.ID != 16498 {
		t.Fatalf("selected ID = %d, want 16498", decision.Selected.ID)
	}
	if decision.Similarity != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", decision.Similarity)
	}
}

func TestResolveEmptyCandidateList(t *testing.T) {
	decision := Resolve("Anything", nil, DefaultThreshold)
	if decision.Outcome != OutcomeNoMatch {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeNoMatch)
	}
	if decision.Selected != nil {
		t.Fatal("no-match decision should not carry a candidate")
	}
	if decision.Reason == "" {
		t.Fatal("no-match decision should carry a reason")
	}
}

func TestResolveBelowThreshold(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Titles: []string{"Golden Kamuy"}},
		{ID: 2, Titles: []string{"Dr. Stone"}},
	}

	decision := Resolve("Jujutsu Kaisen", candidates, DefaultThreshold)
	if decision.Outcome != OutcomeNoMatch {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeNoMatch)
	}
	if decision.Similarity <= 0 {
		t.Fatal("no-match decision should report the best score seen")
	}
	if !strings.Contains(decision.Reason, "below threshold") {
		t.Fatalf("reason %q should mention the threshold", decision.Reason)
	}
}

func TestResolveTieKeepsFirstSeen(t *testing.T) {
	candidates := []Candidate{
		{ID: 10, Titles: []string{"Vinland Saga"}},
		{ID: 20, Titles: []string{"Vinland Saga"}},
	}

	decision := Resolve("Vinland Saga", candidates, DefaultThreshold)
	if !decision.Matched() {
		t.Fatalf("expected a match, got %+v", decision)
	}
	if decision.Selected.ID != 10 {
		t.Fatalf("tie should keep the first candidate, got ID %d", decision.Selected.ID)
	}
}

func TestResolveCandidateWithoutTitles(t *testing.T) {
	candidates := []Candidate{
		{ID: 1},
		{ID: 2, Titles: []string{"Spy x Family"}},
	}

	decision := Resolve("Spy x Family", candidates, DefaultThreshold)
	if !decision.Matched() || decision.Selected.ID != 2 {
		t.Fatalf("expected candidate 2 to win, got %+v", decision)
	}
}

func TestResolveScansSynonyms(t *testing.T) {
	candidates := []Candidate{
		{ID: 101, Titles: []string{"Sousou no Frieren", "Frieren: Beyond Journey's End"}, TotalEpisodes: 28},
	}

	decision := Resolve("Frieren: Beyond Journey's End", candidates, DefaultThreshold)
	if !decision.Matched() {
		t.Fatalf("expected a match through the synonym list, got %+v", decision)
	}
	if decision.Similarity != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", decision.Similarity)
	}
}

func TestResolveZeroThresholdUsesDefault(t *testing.T) {
	candidates := []Candidate{{ID: 1, Titles: []string{"Golden Kamuy"}}}
	decision := Resolve("Jujutsu Kaisen", candidates, 0)
	if decision.Outcome != OutcomeNoMatch {
		t.Fatalf("zero threshold should fall back to the default, got %+v", decision)
	}
}
