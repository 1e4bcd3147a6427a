package syncer

// Failure describes one record that could not be synced.
type Failure struct {
	SeriesTitle   string
	EpisodeNumber int
	Reason        string
}

// Report summarizes one run for display and logging.
type Report struct {
	RunID         string
	FinalState    State
	DryRun        bool
	ChangesetPath string

	Fetched    int // history records scraped
	Matched    int // records resolved to a catalog entry
	Updated    int // updates applied (or planned, in dry-run/changeset mode)
	Suppressed int // updates skipped by the duplicate gate
	Skipped    int // records skipped for soft reasons (no match, no episode)
	Failed     int // records that errored after retries

	Failures []Failure
}

// Succeeded reports whether the run completed, soft per-record failures
// included.
func (r Report) Succeeded() bool {
	return r.FinalState == StateDone
}

func (r *Report) addFailure(seriesTitle string, episodeNumber int, reason string) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{
		SeriesTitle:   seriesTitle,
		EpisodeNumber: episodeNumber,
		Reason:        reason,
	})
}
