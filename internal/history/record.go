package history

import "context"

// Record is one scraped watch event. Instances are immutable once built and
// consumed exactly once by the sync run.
type Record struct {
	SeriesTitle   string
	EpisodeTitle  string
	EpisodeNumber int // 0 means unknown
	SeasonHint    int // best-effort, 0 means absent; diagnostics only
	WatchDate     string
	IsMovie       bool
}

// Valid reports whether the record carries enough to attempt a sync.
func (r Record) Valid() bool {
	return r.SeriesTitle != ""
}

// Source yields pages of watch-history records. FetchPage returns the records
// for the page identified by pageToken ("" requests the first page) together
// with the token for the next page; an empty next token ends pagination.
// Implementations must return records newest-first.
type Source interface {
	Authenticate(ctx context.Context) error
	FetchPage(ctx context.Context, pageToken string) ([]Record, string, error)
}
