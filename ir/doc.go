// Package ir provides the value model and document paths used by ptsync.
//
// # Values
//
// Field values are decoded JSON: nil, bool, float64 (or json.Number), string,
// []any and map[string]any. [TypeOf] classifies a value, [Equal] compares two
// values structurally and [Clone] deep copies one.
//
// # Paths
//
// A [Path] addresses a location inside a value. Each [Segment] is exactly one
// of a field key, an array index, or a keyed array item reference (an item of
// an array of objects whose "_key" field equals the reference).
//
// The string syntax is
//
//	body[_key=="a1"].children[0].text
//
// Fields that are not plain identifiers are quoted with single quotes:
//
//	meta.'github.sha'
//
// The empty string denotes the root path.
package ir
