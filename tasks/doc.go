// Package tasks models recurring to-do items and spawns the next instance when one is completed.
//
// The Generator is pure: it takes a completed Task and returns the next one, if any. The
// Completer ties it to a Store. Implementations live in tasks/memory and tasks/sqlite.
package tasks
