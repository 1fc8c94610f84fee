// Package validation produces formerrors.Issue values from the two validators
// Dwellio forms run through: struct tags checked by go-playground/validator
// and OpenAPI component schemas checked by kin-openapi.
//
// Both producers report paths as segment slices so the issues can be handed
// straight to formerrors.MapIssues.
package validation
