// Package anilist talks to the AniList GraphQL API.
//
// The client covers the three operations a sync needs: verifying the token
// via the Viewer query, searching media by title, and saving list entries.
// All requests pass through a shared rate limiter sized below AniList's
// published budget, and 429 responses feed the server's Retry-After back
// into the limiter before surfacing as retryable errors.
package anilist
