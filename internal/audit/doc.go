// Package audit exports the per-record decision trail collected during sync
// runs to CSV or JSON for offline review.
package audit
