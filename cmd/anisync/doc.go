// Command anisync syncs Crunchyroll watch history to an AniList profile.
package main
