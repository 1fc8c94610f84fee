package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/listing"
	"github.com/dwellio/go-formstate/pkg/testsupport"
	"github.com/dwellio/go-formstate/pkg/validation"
)

func newSchemaValidator(t *testing.T) *validation.SchemaValidator {
	t.Helper()
	v, err := validation.NewSchemaValidator(context.Background())
	if err != nil {
		t.Fatalf("load schema validator: %v", err)
	}
	return v
}

func TestSchemaValidator_Schemas(t *testing.T) {
	got := newSchemaValidator(t).Schemas()
	for _, name := range []string{validation.FormCredentials, validation.FormMessage, validation.FormProperty} {
		found := false
		for _, candidate := range got {
			if candidate == name {
				found = true
			}
		}
		if !found {
			t.Errorf("expected schema %q in %v", name, got)
		}
	}
}

func TestSchemaValidator_ValidStruct(t *testing.T) {
	issues, err := newSchemaValidator(t).Validate(context.Background(), validation.FormProperty, validProperty())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestSchemaValidator_ReportsEveryFailure(t *testing.T) {
	payload := testsupport.DecodeJSON(t, `{
		"name": "",
		"type": "Apartment",
		"location": {"street": "1 Pier Rd", "state": "MA", "zipcode": "2110"},
		"seller_info": {"name": "Ada", "email": "ada@example.com"},
		"images": ["https://example.com/a.jpg", ""]
	}`)

	issues, err := newSchemaValidator(t).Validate(context.Background(), validation.FormProperty, payload)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	got := formerrors.MapIssues(issues, formerrors.WithLogger(discard()))
	want := formerrors.ErrorMap{
		"name": {Messages: []string{"Name is required"}},
		"location": {Children: formerrors.ErrorMap{
			"city":    {Messages: []string{"City is required"}},
			"zipcode": {Messages: []string{"Zipcode must be 5 digits"}},
		}},
		"images": {Children: formerrors.ErrorMap{
			"1": {Messages: []string{"Images is required"}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaValidator_Credentials(t *testing.T) {
	issues, err := newSchemaValidator(t).Validate(context.Background(), validation.FormCredentials, listing.CredentialsInput{
		Email:    "ada",
		Password: "short",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	got := formerrors.MapIssues(issues, formerrors.WithLogger(discard()))
	want := formerrors.ErrorMap{
		"email":    {Messages: []string{"Email must be a valid email address"}},
		"password": {Messages: []string{"Password must be at least 8 characters"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaValidator_UnknownSchema(t *testing.T) {
	_, err := newSchemaValidator(t).Validate(context.Background(), "Castle", map[string]any{})
	if !errors.Is(err, validation.ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
}

func TestSchemaValidator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newSchemaValidator(t).Validate(ctx, validation.FormMessage, map[string]any{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadSchemaValidator_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := validation.LoadSchemaValidator(ctx, nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := validation.LoadSchemaValidator(ctx, []byte("openapi: 3.0.3\ninfo: {title: x, version: '1'}\npaths: {}\n")); err == nil {
		t.Fatalf("expected error for document without schemas")
	}
}
