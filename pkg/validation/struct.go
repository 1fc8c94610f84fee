package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dwellio/go-formstate/pkg/formerrors"
)

// MessageFunc renders the message for a failed tag. label is the humanised
// field name ("Square feet").
type MessageFunc func(fe validator.FieldError, label string) string

// StructOption configures a StructValidator.
type StructOption func(*StructValidator)

// WithMessage overrides the message rendered for tag.
func WithMessage(tag string, fn MessageFunc) StructOption {
	return func(v *StructValidator) {
		if tag == "" || fn == nil {
			return
		}
		v.messages[tag] = fn
	}
}

// StructValidator checks `validate` struct tags and reports failures as
// issues keyed by json field names.
type StructValidator struct {
	validate *validator.Validate
	messages map[string]MessageFunc
}

// NewStructValidator returns a validator that names fields after their json
// tags.
func NewStructValidator(options ...StructOption) *StructValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	v := &StructValidator{
		validate: validate,
		messages: make(map[string]MessageFunc, len(defaultMessages)),
	}
	for tag, fn := range defaultMessages {
		v.messages[tag] = fn
	}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Engine exposes the underlying validator for custom tag registration.
func (v *StructValidator) Engine() *validator.Validate {
	return v.validate
}

// Validate checks value and returns one issue per failed constraint. The
// error is non-nil only when value cannot be validated at all (nil or not a
// struct).
func (v *StructValidator) Validate(value any) ([]formerrors.Issue, error) {
	err := v.validate.Struct(value)
	if err == nil {
		return nil, nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("validation: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("validation: %w", err)
	}
	return issuesFromFieldErrors(fieldErrs, v.messages), nil
}

func issuesFromFieldErrors(fieldErrs validator.ValidationErrors, messages map[string]MessageFunc) []formerrors.Issue {
	issues := make([]formerrors.Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := pathFromNamespace(fe.Namespace())
		render, ok := messages[fe.Tag()]
		if !ok {
			render = invalidMessage
		}
		issues = append(issues, formerrors.Issue{
			Path:    path,
			Message: render(fe, label(path)),
		})
	}
	return issues
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

var defaultMessages = map[string]MessageFunc{
	"required": func(_ validator.FieldError, label string) string {
		return label + " is required"
	},
	"email": func(_ validator.FieldError, label string) string {
		return label + " must be a valid email address"
	},
	"url": func(_ validator.FieldError, label string) string {
		return label + " must be a valid URL"
	},
	"numeric": func(_ validator.FieldError, label string) string {
		return label + " must contain only digits"
	},
	"e164": func(_ validator.FieldError, label string) string {
		return label + " must be a valid phone number"
	},
	"oneof": func(fe validator.FieldError, label string) string {
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(oneOfValues(fe.Param()), ", "))
	},
	"len": func(fe validator.FieldError, label string) string {
		return sizeMessage(fe, label, "exactly")
	},
	"min": func(fe validator.FieldError, label string) string {
		return sizeMessage(fe, label, "at least")
	},
	"max": func(fe validator.FieldError, label string) string {
		return sizeMessage(fe, label, "at most")
	},
	"gte": func(fe validator.FieldError, label string) string {
		return sizeMessage(fe, label, "at least")
	},
	"lte": func(fe validator.FieldError, label string) string {
		return sizeMessage(fe, label, "at most")
	},
}

func invalidMessage(_ validator.FieldError, label string) string {
	return label + " is invalid"
}

func sizeMessage(fe validator.FieldError, label, bound string) string {
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("%s must be %s %s characters", label, bound, fe.Param())
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%s must have %s %s items", label, bound, fe.Param())
	default:
		return fmt.Sprintf("%s must be %s %s", label, bound, fe.Param())
	}
}

// oneOfValues splits a oneof parameter, honouring single-quoted values.
func oneOfValues(param string) []string {
	var out []string
	for param != "" {
		param = strings.TrimLeft(param, " ")
		if param == "" {
			break
		}
		if param[0] == '\'' {
			end := strings.IndexByte(param[1:], '\'')
			if end >= 0 {
				out = append(out, param[1:end+1])
				param = param[end+2:]
				continue
			}
		}
		value, rest, _ := strings.Cut(param, " ")
		out = append(out, value)
		param = rest
	}
	return out
}
