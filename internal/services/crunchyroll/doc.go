// Package crunchyroll fetches a user's watch history from the Crunchyroll
// API.
//
// Sessions come from the password grant and are cached in the state database
// with a conservative TTL, so repeated runs reuse a live token instead of
// re-authenticating. History pages decode through the layout strategies in
// the history package because the response shape has changed across API
// revisions.
package crunchyroll
