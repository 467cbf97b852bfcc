// Package library composes the collection model with its working-state
// store, the revision tracker, the confirmation gate, and auto-fill.
//
// A Service holds the data-directory lock for its whole lifetime, so one
// process at a time owns the collection. Every mutating call persists the
// new state before the in-memory tracker is updated; a failed write leaves
// both untouched.
package library
