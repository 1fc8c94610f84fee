package actionstate

import (
	"encoding/json"
	"fmt"

	"github.com/dwellio/go-formstate/pkg/formerrors"
)

// Status values mutations report. The normaliser only checks that status is
// a string; these constants keep producers consistent.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInfo    = "info"
)

// Recognised field names, shared by RawResult, State and the wire format.
const (
	FieldStatus          = "status"
	FieldMessage         = "message"
	FieldUserID          = "userId"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldIsFavorite      = "isFavorite"
	FieldIsRead          = "isRead"
	FieldIsAccountLinked = "isAccountLinked"
	FieldShouldAutoLogin = "shouldAutoLogin"
	FieldFormErrorMap    = "formErrorMap"
	FieldCanSignInWith   = "canSignInWith"
	FieldFormData        = "formData"
)

var (
	stringFields = []string{FieldStatus, FieldMessage, FieldUserID, FieldEmail, FieldPassword}
	boolFields   = []string{FieldIsFavorite, FieldIsRead, FieldIsAccountLinked, FieldShouldAutoLogin}
)

// State is the normalised result of a mutation. Every populated field is
// type-correct; absent fields are nil. Rendering code should only consume
// State values produced by Normalize.
type State struct {
	Status          *string
	Message         *string
	UserID          *string
	Email           *string
	Password        *string
	IsFavorite      *bool
	IsRead          *bool
	IsAccountLinked *bool
	ShouldAutoLogin *bool
	FormErrorMap    formerrors.ErrorMap
	CanSignInWith   []string
	// FormData is an opaque handle (typically url.Values or the decoded
	// request payload) handed back so forms can be re-populated. It is never
	// serialised.
	FormData any
}

// IsZero reports whether no field is populated.
func (s State) IsZero() bool {
	return len(s.Map()) == 0
}

// StatusValue returns the status or "" when absent.
func (s State) StatusValue() string { return deref(s.Status) }

// MessageValue returns the message or "" when absent.
func (s State) MessageValue() string { return deref(s.Message) }

// Succeeded reports whether the mutation reported success.
func (s State) Succeeded() bool { return s.StatusValue() == StatusSuccess }

// Failed reports whether the mutation reported an error.
func (s State) Failed() bool { return s.StatusValue() == StatusError }

// HasFieldErrors reports whether any field-level message is present.
func (s State) HasFieldErrors() bool { return s.FormErrorMap.Len() > 0 }

// Map returns the populated fields keyed by their wire names. Slices are
// copied; FormData is returned as-is.
func (s State) Map() map[string]any {
	out := make(map[string]any)
	for name, value := range map[string]*string{
		FieldStatus:   s.Status,
		FieldMessage:  s.Message,
		FieldUserID:   s.UserID,
		FieldEmail:    s.Email,
		FieldPassword: s.Password,
	} {
		if value != nil {
			out[name] = *value
		}
	}
	for name, value := range map[string]*bool{
		FieldIsFavorite:      s.IsFavorite,
		FieldIsRead:          s.IsRead,
		FieldIsAccountLinked: s.IsAccountLinked,
		FieldShouldAutoLogin: s.ShouldAutoLogin,
	} {
		if value != nil {
			out[name] = *value
		}
	}
	if s.FormErrorMap != nil {
		out[FieldFormErrorMap] = s.FormErrorMap
	}
	if s.CanSignInWith != nil {
		out[FieldCanSignInWith] = append([]string{}, s.CanSignInWith...)
	}
	if s.FormData != nil {
		out[FieldFormData] = s.FormData
	}
	return out
}

// MarshalJSON emits only populated fields; FormData is omitted.
func (s State) MarshalJSON() ([]byte, error) {
	out := s.Map()
	delete(out, FieldFormData)
	return json.Marshal(out)
}

type wireState struct {
	Status          *string             `json:"status"`
	Message         *string             `json:"message"`
	UserID          *string             `json:"userId"`
	Email           *string             `json:"email"`
	Password        *string             `json:"password"`
	IsFavorite      *bool               `json:"isFavorite"`
	IsRead          *bool               `json:"isRead"`
	IsAccountLinked *bool               `json:"isAccountLinked"`
	ShouldAutoLogin *bool               `json:"shouldAutoLogin"`
	FormErrorMap    formerrors.ErrorMap `json:"formErrorMap"`
	CanSignInWith   []string            `json:"canSignInWith"`
}

// UnmarshalJSON decodes a State previously produced by MarshalJSON. Wrongly
// typed fields are an error here; use Normalize for untrusted payloads.
func (s *State) UnmarshalJSON(data []byte) error {
	var wire wireState
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("actionstate: decode state: %w", err)
	}
	*s = State{
		Status:          wire.Status,
		Message:         wire.Message,
		UserID:          wire.UserID,
		Email:           wire.Email,
		Password:        wire.Password,
		IsFavorite:      wire.IsFavorite,
		IsRead:          wire.IsRead,
		IsAccountLinked: wire.IsAccountLinked,
		ShouldAutoLogin: wire.ShouldAutoLogin,
		FormErrorMap:    wire.FormErrorMap,
		CanSignInWith:   wire.CanSignInWith,
	}
	return nil
}

// String returns a pointer to v, for building States and RawResults inline.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
