package match

import (
	"fmt"

	"anisync/internal/titles"
)

// DefaultThreshold is the minimum similarity a candidate must reach before it
// is accepted as a match.
const DefaultThreshold = 0.8

// Format classifies a catalog entry's media format.
type Format string

const (
	FormatTV      Format = "TV"
	FormatMovie   Format = "MOVIE"
	FormatOVA     Format = "OVA"
	FormatONA     Format = "ONA"
	FormatSpecial Format = "SPECIAL"
	FormatMusic   Format = "MUSIC"
)

// Candidate is one entry returned by a remote catalog search.
type Candidate struct {
	ID            int64
	Titles        []string // localized titles and synonyms, deduplicated
	TotalEpisodes int      // 0 means unknown or still airing
	Format        Format
	Status        string // e.g. RELEASING, FINISHED
}

// PrimaryTitle returns the first known title, or "" for an empty title set.
func (c Candidate) PrimaryTitle() string {
	if len(c.Titles) == 0 {
		return ""
	}
	return c.Titles[0]
}

// Outcome describes how a resolution attempt ended.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeNoMatch Outcome = "no_match"
	OutcomeSkipped Outcome = "skipped"
)

// Decision is the resolver's verdict for one scraped title. Selected is
// non-nil exactly when Outcome is OutcomeMatched, and Similarity then holds
// the winning score; on OutcomeNoMatch it holds the best score seen so the
// audit trail can show how close the nearest candidate came.
type Decision struct {
	Outcome    Outcome
	Selected   *Candidate
	Similarity float64
	Reason     string
}

// Matched reports whether the decision selected a candidate.
func (d Decision) Matched() bool {
	return d.Outcome == OutcomeMatched && d.Selected != nil
}

// Resolve scans candidates for the best similarity against target across each
// candidate's title set and accepts the winner when its score reaches the
// threshold. A candidate with no titles scores 0 and can never win. Ties keep
// the first-seen candidate.
func Resolve(target string, candidates []Candidate, threshold float64) Decision {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(candidates) == 0 {
		return Decision{
			Outcome: OutcomeNoMatch,
			Reason:  "no candidates returned by catalog search",
		}
	}

	var (
		best      *Candidate
		bestScore float64
	)
	for i := range candidates {
		score := candidateScore(target, candidates[i])
		if best == nil || score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}

	if bestScore < threshold {
		return Decision{
			Outcome:    OutcomeNoMatch,
			Similarity: bestScore,
			Reason:     fmt.Sprintf("best candidate %q scored %.3f, below threshold %.2f", best.PrimaryTitle(), bestScore, threshold),
		}
	}

	selected := *best
	return Decision{
		Outcome:    OutcomeMatched,
		Selected:   &selected,
		Similarity: bestScore,
		Reason:     fmt.Sprintf("matched %q with similarity %.3f", selected.PrimaryTitle(), bestScore),
	}
}

// candidateScore is the max similarity between target and any of the
// candidate's titles.
func candidateScore(target string, candidate Candidate) float64 {
	var best float64
	for _, title := range candidate.Titles {
		if score := titles.Similarity(target, title); score > best {
			best = score
		}
	}
	return best
}
