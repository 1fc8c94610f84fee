package validation

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/dwellio/go-formstate/pkg/formerrors"
)

// Component schema names in the embedded form document.
const (
	FormProperty    = "PropertyInput"
	FormMessage     = "MessageInput"
	FormCredentials = "CredentialsInput"
)

// MessageExtension lets a schema override the message of its own failures.
const MessageExtension = "x-message"

//go:embed forms.yaml
var formsDocument []byte

// ErrUnknownSchema is returned when Validate names a schema the document does
// not define.
var ErrUnknownSchema = errors.New("validation: unknown schema")

// SchemaValidator validates decoded payloads against the component schemas
// of an OpenAPI document.
type SchemaValidator struct {
	doc *openapi3.T
}

// NewSchemaValidator loads the embedded form document.
func NewSchemaValidator(ctx context.Context) (*SchemaValidator, error) {
	return LoadSchemaValidator(ctx, formsDocument)
}

// LoadSchemaValidator parses raw (JSON or YAML) as an OpenAPI document.
func LoadSchemaValidator(ctx context.Context, raw []byte) (*SchemaValidator, error) {
	if len(raw) == 0 {
		return nil, errors.New("validation: schema document is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("validation: load schema document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, errors.New("validation: schema document defines no component schemas")
	}
	return &SchemaValidator{doc: doc}, nil
}

// LoadSchemaFile reads and parses the OpenAPI document at path.
func LoadSchemaFile(ctx context.Context, path string) (*SchemaValidator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("validation: read schema document: %w", err)
	}
	return LoadSchemaValidator(ctx, raw)
}

// Schemas lists the component schema names, sorted.
func (v *SchemaValidator) Schemas() []string {
	names := make([]string, 0, len(v.doc.Components.Schemas))
	for name := range v.doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks payload against the named schema and returns every failure
// as an issue. payload may be any JSON-encodable value; it is re-decoded so
// Go structs and integer types validate the way their JSON form would.
func (v *SchemaValidator) Validate(ctx context.Context, schema string, payload any) ([]formerrors.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref, ok := v.doc.Components.Schemas[schema]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownSchema, schema)
	}

	value, err := jsonValue(payload)
	if err != nil {
		return nil, fmt.Errorf("validation: encode payload: %w", err)
	}

	if err := ref.Value.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		issues := issuesFromSchemaError(err)
		if len(issues) == 0 {
			return nil, fmt.Errorf("validation: %w", err)
		}
		return issues, nil
	}
	return nil, nil
}

func jsonValue(payload any) (any, error) {
	switch payload.(type) {
	case string, float64, bool, nil:
		return payload, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func issueFromSchemaError(e *openapi3.SchemaError) formerrors.Issue {
	path := pathFromPointer(e.JSONPointer())
	return formerrors.Issue{Path: path, Message: schemaMessage(e, label(path))}
}

func schemaMessage(e *openapi3.SchemaError, label string) string {
	schema := e.Schema
	if schema != nil && e.SchemaField != "required" {
		if msg, ok := schema.Extensions[MessageExtension].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}

	switch e.SchemaField {
	case "required":
		return label + " is required"
	case "minLength":
		if schema != nil && schema.MinLength == 1 {
			return label + " is required"
		}
		if schema != nil {
			return fmt.Sprintf("%s must be at least %d characters", label, schema.MinLength)
		}
	case "maxLength":
		if schema != nil && schema.MaxLength != nil {
			return fmt.Sprintf("%s must be at most %d characters", label, *schema.MaxLength)
		}
	case "minimum":
		if schema != nil && schema.Min != nil {
			return fmt.Sprintf("%s must be at least %v", label, *schema.Min)
		}
	case "maximum":
		if schema != nil && schema.Max != nil {
			return fmt.Sprintf("%s must be at most %v", label, *schema.Max)
		}
	case "minItems":
		if schema != nil {
			return fmt.Sprintf("%s must have at least %d items", label, schema.MinItems)
		}
	case "maxItems":
		if schema != nil && schema.MaxItems != nil {
			return fmt.Sprintf("%s must have at most %d items", label, *schema.MaxItems)
		}
	case "enum":
		if schema != nil && len(schema.Enum) > 0 {
			values := make([]string, 0, len(schema.Enum))
			for _, value := range schema.Enum {
				values = append(values, fmt.Sprint(value))
			}
			return fmt.Sprintf("%s must be one of: %s", label, strings.Join(values, ", "))
		}
	case "type":
		if schema != nil && schema.Type != nil {
			return fmt.Sprintf("%s must be of type %s", label, strings.Join(schema.Type.Slice(), " or "))
		}
	case "pattern", "format":
		return label + " is invalid"
	}
	return capitalize(strings.TrimSpace(e.Reason))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
