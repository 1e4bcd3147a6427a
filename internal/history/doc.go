// Package history defines the raw watch-history record model and the
// extractor strategies that build records from the source API's payload
// variants.
//
// The source has shipped several layouts for history entries over time
// (episode metadata nested under a panel, metadata at the top level, and a
// flat legacy shape). Extract tries a fixed-priority list of pure extractor
// functions and keeps the first that yields a usable record, so new layouts
// are a new strategy rather than deeper field probing.
package history
