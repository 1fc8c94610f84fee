package validation

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-playground/validator/v10"

	"github.com/dwellio/go-formstate/pkg/formerrors"
)

// IssuesFromError converts validator and schema errors into issues. Errors of
// any other kind become a single issue with an empty path, which the mapper
// reports and skips.
func IssuesFromError(err error) []formerrors.Issue {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return issuesFromFieldErrors(fieldErrs, defaultMessages)
	}

	if issues := issuesFromSchemaError(err); len(issues) > 0 {
		return issues
	}
	return []formerrors.Issue{{Path: []any{}, Message: strings.TrimSpace(err.Error())}}
}

func issuesFromSchemaError(err error) []formerrors.Issue {
	var out []formerrors.Issue
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case openapi3.MultiError:
			for _, inner := range e {
				walk(inner)
			}
		case *openapi3.SchemaError:
			out = append(out, issueFromSchemaError(e))
		default:
			var schemaErr *openapi3.SchemaError
			if errors.As(err, &schemaErr) {
				out = append(out, issueFromSchemaError(schemaErr))
			}
		}
	}
	walk(err)
	return out
}

// pathFromPointer turns JSON pointer tokens into issue path segments.
// Numeric tokens are array indexes.
func pathFromPointer(tokens []string) []any {
	out := make([]any, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		if token == "" {
			continue
		}
		if isNumeric(token) {
			if idx, err := strconv.Atoi(token); err == nil {
				out = append(out, idx)
				continue
			}
		}
		out = append(out, token)
	}
	return out
}

// pathFromNamespace splits a validator namespace such as
// "PropertyInput.location.street" or "PropertyInput.images[2]" into
// segments, dropping the root struct name.
func pathFromNamespace(namespace string) []any {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	out := make([]any, 0, len(parts))
	for _, part := range parts {
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				out = append(out, part)
				break
			}
			if open > 0 {
				out = append(out, part[:open])
			}
			end := strings.IndexByte(part[open:], ']')
			if end < 0 {
				out = append(out, part[open:])
				break
			}
			key := part[open+1 : open+end]
			if idx, err := strconv.Atoi(key); err == nil && isNumeric(key) {
				out = append(out, idx)
			} else if key != "" {
				out = append(out, key)
			}
			part = part[open+end+1:]
		}
	}
	return out
}

// label renders the last named segment of path for messages: "square_feet"
// becomes "Square feet".
func label(path []any) string {
	for i := len(path) - 1; i >= 0; i-- {
		name, ok := path[i].(string)
		if !ok || name == "" {
			continue
		}
		return humanizeName(name)
	}
	return "Value"
}

func humanizeName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case i > 0 && unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return out
	}
	runes := []rune(out)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
