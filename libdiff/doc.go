// Package libdiff computes the patches which turn one value into another.
//
// Objects are diffed field by field. Arrays whose items all carry unique
// "_key" fields are diffed by key so that concurrent edits to other items
// keep applying; other arrays are diffed by index when their lengths agree
// and replaced otherwise. Strings produce diffMatchPatch patches when the
// edit is small relative to the text.
package libdiff
