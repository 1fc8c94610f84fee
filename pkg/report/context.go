package report

import (
	"sort"

	"github.com/flosch/pongo2/v6"

	"github.com/dwellio/go-formstate/pkg/actionstate"
)

// StateContext flattens a state into the values the state template reads:
// status, message, user_id, email, flags, providers, errors, error_count and
// has_form_data. Field errors are sorted by dotted path.
func StateContext(state actionstate.State) pongo2.Context {
	ctx := pongo2.Context{
		"status":        state.StatusValue(),
		"message":       state.MessageValue(),
		"user_id":       deref(state.UserID),
		"email":         deref(state.Email),
		"has_form_data": state.FormData != nil,
		"error_count":   state.FormErrorMap.Len(),
	}

	var flags []map[string]any
	for _, flag := range []struct {
		name  string
		value *bool
	}{
		{actionstate.FieldIsFavorite, state.IsFavorite},
		{actionstate.FieldIsRead, state.IsRead},
		{actionstate.FieldIsAccountLinked, state.IsAccountLinked},
		{actionstate.FieldShouldAutoLogin, state.ShouldAutoLogin},
	} {
		if flag.value != nil {
			flags = append(flags, map[string]any{"name": flag.name, "value": *flag.value})
		}
	}
	ctx["flags"] = flags

	if len(state.CanSignInWith) > 0 {
		ctx["providers"] = append([]string(nil), state.CanSignInWith...)
	}

	flat := state.FormErrorMap.Flatten()
	if len(flat) > 0 {
		fields := make([]string, 0, len(flat))
		for field := range flat {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		entries := make([]map[string]any, 0, len(fields))
		for _, field := range fields {
			entries = append(entries, map[string]any{"field": field, "messages": flat[field]})
		}
		ctx["errors"] = entries
	}
	return ctx
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
