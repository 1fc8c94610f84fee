// Package actionstate normalises the loosely typed result of a server-side
// mutation into a State that rendering code can trust.
//
// Normalize accepts nil, maps, RawResult values, custom Fields sources and
// plain structs. Recognised fields whose value has the wrong type are dropped
// with a diagnostic; unrecognised fields are ignored. Nothing is coerced:
// a numeric message is discarded rather than formatted.
package actionstate
