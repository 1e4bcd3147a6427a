// Package titles provides anime title canonicalization and similarity scoring.
//
// Scraped titles arrive with inconsistent casing, audio-track markers like
// "(English Dub)", and season suffixes that the remote catalog does not carry
// on its per-season entries. Normalize strips all of that down to a lowercase
// alphanumeric form; Similarity compares two titles on their normalized forms
// using a matching-blocks ratio with overrides for exact and substring hits.
//
// Both functions are deterministic and pure. An empty normalized title never
// matches anything.
package titles
