// Package revision tracks the live collection together with its export
// revision counter.
//
// Item edits go through Mutate and never touch the revision or the
// last-saved timestamp; CommitExport is the only operation that advances
// them, and Replace installs an imported collection with its metadata
// verbatim. The tracker also remembers a content digest of the last
// exported or loaded state so callers can tell an edited-but-unexported
// collection apart from a freshly persisted one.
package revision
