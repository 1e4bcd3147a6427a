// Package syncer orchestrates one watch-history sync run.
//
// A run moves through a fixed state sequence: authenticate against the
// source, page through history, match each entry against the destination
// catalog, reconcile progress, and apply (or record) the resulting updates.
// Per-record failures classified soft skip that record and keep the run
// going; configuration and validation failures abort the run.
//
// Three modes share the pipeline. Normal mode applies updates to the
// destination list. Dry-run mode evaluates everything but performs no
// writes. Changeset mode records planned updates to a reviewable file; a
// recorded file is replayed later through ApplyChangeset.
package syncer
