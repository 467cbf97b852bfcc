// Package catalog holds the collection data model and the item store
// operations that mutate it.
//
// A Collection owns one ordered item list per registered category plus the
// revision metadata written on export. Items carry an open Details mapping
// constrained by the schema registry at the edges (Upsert) rather than a
// per-category struct, so nothing here branches on a specific category.
//
// Store operations copy items on the way in and out: a Collection never
// shares an Item's Details map with its caller.
package catalog
