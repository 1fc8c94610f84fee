// Package actions exposes the Dwellio form mutations over HTTP.
//
// Each action is a POST to {route}/{action} with a JSON body. The response is
// the normalised action state as JSON: 200 for success and info states, 422
// when the state carries field errors, 400 for malformed bodies. A Guard or
// UserFunc failure is reported with the status code the error carries
// (401 by default for UserFunc, 403 for Guard).
package actions
