// Package membership coordinates room membership commands and room deletion.
//
// The Coordinator holds no mutable state of its own. Each command reads the
// current room, applies a pure transition from the domain package and writes
// the result back with a version check. Version conflicts are retried with
// jittered exponential backoff up to a fixed number of attempts.
//
// Deletion is a tombstone followed by a resumable cascade: tasks are deleted,
// the room id is scrubbed from the creator's owned rooms and from pending
// invitees, and finally the room row is removed. A Sweeper finds rooms left
// tombstoned by an interrupted cascade and resumes them.
package membership
