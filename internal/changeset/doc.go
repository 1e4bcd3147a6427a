// Package changeset records planned list updates to a JSON file instead of
// applying them, and replays a reviewed file later.
//
// Record mode lets a user inspect exactly what a sync would change before
// granting the tool write access to their list. Loading validates the file
// strictly: a missing or malformed changes list is a hard error, and every
// entry must carry the identifiers needed to apply it.
package changeset
