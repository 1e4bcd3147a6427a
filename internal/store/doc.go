// Package store persists anisync's cross-run state in SQLite.
//
// Four concerns share one database: the title-mapping cache (raw scraped
// title to catalog entry, including negative "confirmed no match" entries),
// the processed-episode set that backs update de-duplication, the credential
// cache with TTL expiry for source session tokens, and the audit trail of
// per-record match decisions.
//
// The database is loaded at run start and mutated by the single orchestrator
// goroutine; no locking is needed beyond SQLite's own. Schema changes bump
// the version in schema.go; users clear the state database to adopt the new
// schema.
package store
