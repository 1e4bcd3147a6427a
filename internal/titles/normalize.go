package titles

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Audio-track markers appear as parentheticals appended by the source:
	// "(Dub)", "(Sub)", "(English Dub)", "(Japanese)", and similar.
	audioMarkerPattern = regexp.MustCompile(`\(\s*(?:[a-z]+[ -])?(?:dub|dubbed|sub|subbed|subtitled)\s*\)|\(\s*japanese\s*\)`)

	// Season markers cover the common renderings: "season 2", "s2",
	// "2nd season", and spelled-out ordinals through "final season".
	seasonMarkerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bseason\s*\d+\b`),
		regexp.MustCompile(`\bs\d+\b`),
		regexp.MustCompile(`\b\d+(?:st|nd|rd|th)\s+season\b`),
		regexp.MustCompile(`\b(?:first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|final)\s+season\b`),
	}

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a free-text anime title for comparison. The steps
// run in order on already-cleaned text: lowercase, strip audio-track
// parentheticals, strip season markers, drop everything that is not a letter,
// digit, or space, then collapse whitespace. Empty input normalizes to "".
func Normalize(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		return ""
	}

	s = audioMarkerPattern.ReplaceAllString(s, " ")
	for _, pattern := range seasonMarkerPatterns {
		s = pattern.ReplaceAllString(s, " ")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(b.String(), " "))
}
