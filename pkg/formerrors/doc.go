// Package formerrors turns flat validation issues (field path plus message)
// into the nested per-field error map that form components annotate inputs
// with.
//
// The mapper is deliberately forgiving: malformed issues are skipped and
// reported through the configured slog.Logger, and a panic while processing a
// batch degrades to an empty ErrorMap. Callers always receive a usable map.
//
// Paths are joined with "." into a flat key. Keys made of exactly two
// segments are expanded into one level of nesting ({"location": {"city":
// [...]}}); longer keys stay flat. WithMaxDepth widens or narrows that rule.
package formerrors
