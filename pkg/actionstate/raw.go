package actionstate

import (
	"reflect"
	"strings"
)

// Fields is the read contract the normaliser uses on its input. Custom
// sources (lazy request wrappers, ORM records) can implement it directly;
// a panicking Field call is recovered by Normalize.
type Fields interface {
	Field(name string) (any, bool)
}

// RawResult is the loosely typed bag a mutation handler returns. Every field
// is untyped on purpose; Normalize decides what survives.
type RawResult struct {
	Status          any `json:"status,omitempty"`
	Message         any `json:"message,omitempty"`
	UserID          any `json:"userId,omitempty"`
	Email           any `json:"email,omitempty"`
	Password        any `json:"password,omitempty"`
	IsFavorite      any `json:"isFavorite,omitempty"`
	IsRead          any `json:"isRead,omitempty"`
	IsAccountLinked any `json:"isAccountLinked,omitempty"`
	ShouldAutoLogin any `json:"shouldAutoLogin,omitempty"`
	FormErrorMap    any `json:"formErrorMap,omitempty"`
	CanSignInWith   any `json:"canSignInWith,omitempty"`
	FormData        any `json:"-"`
}

// Field implements Fields.
func (r RawResult) Field(name string) (any, bool) {
	var value any
	switch name {
	case FieldStatus:
		value = r.Status
	case FieldMessage:
		value = r.Message
	case FieldUserID:
		value = r.UserID
	case FieldEmail:
		value = r.Email
	case FieldPassword:
		value = r.Password
	case FieldIsFavorite:
		value = r.IsFavorite
	case FieldIsRead:
		value = r.IsRead
	case FieldIsAccountLinked:
		value = r.IsAccountLinked
	case FieldShouldAutoLogin:
		value = r.ShouldAutoLogin
	case FieldFormErrorMap:
		value = r.FormErrorMap
	case FieldCanSignInWith:
		value = r.CanSignInWith
	case FieldFormData:
		value = r.FormData
	default:
		return nil, false
	}
	return value, value != nil
}

type mapFields map[string]any

func (m mapFields) Field(name string) (any, bool) {
	value, ok := m[name]
	return value, ok
}

// structFields reads exported struct fields by json tag (or field name), so
// handler-local result structs can be normalised without a RawResult.
type structFields struct {
	value reflect.Value
	index map[string]int
}

func newStructFields(v reflect.Value) structFields {
	index := make(map[string]int, v.NumField())
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		index[name] = i
	}
	return structFields{value: v, index: index}
}

func (s structFields) Field(name string) (any, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.value.Field(i).Interface(), true
}
