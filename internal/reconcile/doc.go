// Package reconcile turns a scraped watch record plus its matched catalog
// entry into the absolute progress value and list status to report.
//
// Progress is the scraped episode number verbatim (1 for movies): the catalog
// models each season as a distinct entry, so no cross-season offset
// arithmetic is attempted and the season hint is carried for diagnostics
// only. Status is derived conservatively so an entry the remote list already
// marks COMPLETED is never downgraded mid-rewatch.
package reconcile
