// Package document converts collections to and from the exported JSON
// document and decides whether an untrusted document may replace the live
// collection.
//
// The pipeline is split on purpose: Deserialize only checks that the text is
// well-formed JSON, Validate only checks the container shape (an object with
// a numeric revision, an optional string lastSaved, and an array for every
// registered category). Items themselves are trusted once the container
// passes; tightening that would reject files older builds wrote.
package document
