// Package services defines the shared error taxonomy and retry policy for the
// remote collaborators (catalog search, progress updates, history fetching).
//
// Errors are tagged with sentinel markers via Wrap so callers can classify a
// failure as fatal to the run, soft (skip the record, continue the batch), or
// retryable. Retry implements the bounded exponential backoff used for
// transient failures; exhausting it demotes the error to soft.
package services
