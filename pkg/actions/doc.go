// Package actions implements the server-side mutations behind Dwellio's
// forms: listing management, bookmarks, owner messages and credential
// sign-up.
//
// Each mutation returns an actionstate.State. Validation failures come back
// as an error state carrying a formerrors.ErrorMap and the submitted values,
// so the calling form can re-render with per-field feedback.
package actions
