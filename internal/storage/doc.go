// Package storage keeps the live collection in SQLite between CLI
// invocations.
//
// The database is working state, not an archive: the export document is the
// portable copy. Every Save replaces the stored collection in a single
// transaction, so a crash mid-write leaves the previous state intact.
// Schema changes bump schemaVersion; an older database is refused with
// ErrSchemaMismatch rather than migrated.
//
// Lock guards the data directory with an advisory file lock so two curio
// processes never interleave a load/modify/save cycle.
package storage
