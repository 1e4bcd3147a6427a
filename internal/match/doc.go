// Package match selects the best catalog candidate for a scraped title.
//
// Resolve scores every candidate against the target using titles.Similarity
// across the candidate's full title set (localized titles plus synonyms) and
// keeps the single highest scorer, first seen winning exact ties. The result
// is a Decision carrying the outcome, the selected candidate when the best
// score clears the threshold, and a reason string for the audit trail.
package match
