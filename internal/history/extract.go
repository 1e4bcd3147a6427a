package history

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extractor attempts to build a Record from one raw history entry. It returns
// false when the payload does not carry the layout it understands. Extractors
// are pure; they never mutate the input.
type Extractor func(raw json.RawMessage) (Record, bool)

// extractors is the fixed-priority strategy list. Order matters: the nested
// panel layout is what the current API returns, the top-level metadata layout
// appeared in older responses, and the flat layout covers legacy exports.
var extractors = []Extractor{
	extractPanelLayout,
	extractMetadataLayout,
	extractFlatLayout,
}

// Extract builds a Record from a raw history entry by trying each known
// payload layout in priority order. It returns false when no strategy yields
// a usable record.
func Extract(raw json.RawMessage) (Record, bool) {
	for _, extract := range extractors {
		if record, ok := extract(raw); ok && record.Valid() {
			return record, true
		}
	}
	return Record{}, false
}

type episodeMetadata struct {
	SeriesTitle   string `json:"series_title"`
	SeriesSlug    string `json:"series_slug_title"`
	EpisodeNumber *int   `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	SeasonTitle   string `json:"season_title"`
}

type panelEnvelope struct {
	DatePlayed string `json:"date_played"`
	Panel      *struct {
		Title           string           `json:"title"`
		Type            string           `json:"type"`
		EpisodeMetadata *episodeMetadata `json:"episode_metadata"`
		MovieMetadata   *struct {
			MovieListingTitle string `json:"movie_listing_title"`
		} `json:"movie_listing_metadata"`
	} `json:"panel"`
}

// extractPanelLayout handles the current history API shape with episode or
// movie metadata nested under a panel object.
func extractPanelLayout(raw json.RawMessage) (Record, bool) {
	var envelope panelEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Panel == nil {
		return Record{}, false
	}
	panel := envelope.Panel

	if panel.MovieMetadata != nil || strings.EqualFold(panel.Type, "movie") {
		title := panel.Title
		if panel.MovieMetadata != nil && panel.MovieMetadata.MovieListingTitle != "" {
			title = panel.MovieMetadata.MovieListingTitle
		}
		return Record{
			SeriesTitle:  strings.TrimSpace(title),
			EpisodeTitle: strings.TrimSpace(panel.Title),
			WatchDate:    envelope.DatePlayed,
			IsMovie:      true,
		}, true
	}

	meta := panel.EpisodeMetadata
	if meta == nil {
		return Record{}, false
	}
	return buildEpisodeRecord(*meta, panel.Title, envelope.DatePlayed), true
}

type metadataEnvelope struct {
	Title           string           `json:"title"`
	DatePlayed      string           `json:"date_played"`
	EpisodeMetadata *episodeMetadata `json:"episode_metadata"`
}

// extractMetadataLayout handles responses that carry episode_metadata at the
// top level instead of under a panel.
func extractMetadataLayout(raw json.RawMessage) (Record, bool) {
	var envelope metadataEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.EpisodeMetadata == nil {
		return Record{}, false
	}
	return buildEpisodeRecord(*envelope.EpisodeMetadata, envelope.Title, envelope.DatePlayed), true
}

type flatEnvelope struct {
	SeriesTitle   string `json:"series_title"`
	Title         string `json:"title"`
	EpisodeNumber *int   `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	MediaType     string `json:"media_type"`
	DatePlayed    string `json:"date_played"`
}

// extractFlatLayout handles the legacy flat shape with series fields at the
// top level.
func extractFlatLayout(raw json.RawMessage) (Record, bool) {
	var envelope flatEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.SeriesTitle == "" {
		return Record{}, false
	}
	record := Record{
		SeriesTitle:  strings.TrimSpace(envelope.SeriesTitle),
		EpisodeTitle: strings.TrimSpace(envelope.Title),
		SeasonHint:   envelope.SeasonNumber,
		WatchDate:    envelope.DatePlayed,
		IsMovie:      strings.Contains(strings.ToLower(envelope.MediaType), "movie"),
	}
	if envelope.EpisodeNumber != nil {
		record.EpisodeNumber = *envelope.EpisodeNumber
	} else {
		record.EpisodeNumber = EpisodeNumberFromTitle(record.EpisodeTitle)
	}
	return record, true
}

func buildEpisodeRecord(meta episodeMetadata, episodeTitle, watchDate string) Record {
	record := Record{
		SeriesTitle:  strings.TrimSpace(meta.SeriesTitle),
		EpisodeTitle: strings.TrimSpace(episodeTitle),
		SeasonHint:   meta.SeasonNumber,
		WatchDate:    watchDate,
	}
	if record.SeriesTitle == "" && meta.SeriesSlug != "" {
		record.SeriesTitle = TitleFromSlug(meta.SeriesSlug)
	}
	if meta.EpisodeNumber != nil {
		record.EpisodeNumber = *meta.EpisodeNumber
	} else {
		record.EpisodeNumber = EpisodeNumberFromTitle(episodeTitle)
	}
	if record.SeasonHint == 0 {
		record.SeasonHint = seasonFromTitle(meta.SeasonTitle)
	}
	return record
}

var (
	episodeTitlePattern = regexp.MustCompile(`(?i)\b(?:e|ep|episode)\s*\.?\s*(\d{1,4})\b`)
	seasonTitlePattern  = regexp.MustCompile(`(?i)\bseason\s*(\d{1,2})\b`)
	digitsPattern       = regexp.MustCompile(`^\s*#?(\d{1,4})\b`)
)

// EpisodeNumberFromTitle recovers an episode number encoded in an episode
// title such as "E5", "Episode 12", or "#3 - The Plan". Returns 0 when no
// number is found.
func EpisodeNumberFromTitle(title string) int {
	if title == "" {
		return 0
	}
	if m := episodeTitlePattern.FindStringSubmatch(title); m != nil {
		return atoiSafe(m[1])
	}
	if m := digitsPattern.FindStringSubmatch(title); m != nil {
		return atoiSafe(m[1])
	}
	return 0
}

func seasonFromTitle(title string) int {
	if m := seasonTitlePattern.FindStringSubmatch(title); m != nil {
		return atoiSafe(m[1])
	}
	return 0
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// TitleFromSlug turns a URL slug like "jujutsu-kaisen" into a display title.
func TitleFromSlug(slug string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(slug, "-", " "), "_", " "))
	if cleaned == "" {
		return ""
	}
	return cases.Title(language.Und).String(cleaned)
}
