// Package schema is the static registry of collection categories.
//
// Each Category maps to a Schema carrying its display names and the ordered
// set of attribute names an item of that category may carry. The table is
// built at compile time and never mutated; every other package consults it
// to decide which categories exist and which detail keys are legal.
//
// Adding a category means adding a constant, a table entry, and nothing
// else: collections, the validator, and the CLI iterate Categories() rather
// than switching on individual tags.
package schema
