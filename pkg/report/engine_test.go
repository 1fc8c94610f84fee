package report_test

import (
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/flosch/pongo2/v6"
	"github.com/google/go-cmp/cmp"

	"github.com/dwellio/go-formstate/pkg/actionstate"
	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/report"
	"github.com/dwellio/go-formstate/pkg/testsupport"
)

func newEngine(t *testing.T, options ...report.Option) *report.Engine {
	t.Helper()
	engine, err := report.New(options...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderStateSummary(t *testing.T) {
	engine := newEngine(t)
	state := actionstate.State{
		Status:     actionstate.String(actionstate.StatusError),
		Message:    actionstate.String("Please fix the errors below"),
		IsFavorite: actionstate.Bool(false),
		FormErrorMap: formerrors.ErrorMap{
			"name": {Messages: []string{"Name is required"}},
			"location": {Children: formerrors.ErrorMap{
				"zipcode": {Messages: []string{"Zipcode is required", "Zipcode must be 5 digits"}},
			}},
		},
	}

	out, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderState(state, w)
	})
	if out != written {
		t.Fatalf("writer output differs from returned output")
	}

	want := []string{
		"status: error",
		"message: Please fix the errors below",
		"isFavorite: no",
		"field errors (3):",
		"  location.zipcode",
		"    - Zipcode is required",
		"    - Zipcode must be 5 digits",
		"  name",
		"    - Name is required",
	}
	if diff := cmp.Diff(want, nonBlankLines(out)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_RenderStateSignInMethods(t *testing.T) {
	engine := newEngine(t)
	out, err := engine.RenderState(actionstate.State{
		Status:          actionstate.String(actionstate.StatusSuccess),
		Email:           actionstate.String("ada@example.com"),
		IsAccountLinked: actionstate.Bool(true),
		CanSignInWith:   []string{"google", "credentials"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := []string{
		"status: success",
		"email: ada@example.com",
		"isAccountLinked: yes",
		"sign-in: google, credentials",
	}
	if diff := cmp.Diff(want, nonBlankLines(out)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_RenderStateEmpty(t *testing.T) {
	out, err := newEngine(t).RenderState(actionstate.State{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff([]string{"status: -"}, nonBlankLines(out)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_MultiLineMessageIsIndented(t *testing.T) {
	out, err := newEngine(t).RenderState(actionstate.State{
		Message: actionstate.String("first\nsecond"),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "message: first\n         second") {
		t.Fatalf("continuation line not aligned:\n%s", out)
	}
}

func TestEngine_TemplateOverride(t *testing.T) {
	files := fstest.MapFS{
		"state.tpl":  {Data: []byte("{{ site }}: {{ status }} ({{ error_count }})")},
		"custom.tpl": {Data: []byte("hello {{ name }}")},
	}
	engine := newEngine(t, report.WithFS(files), report.WithGlobalData(map[string]any{"site": "dwellio"}))

	out, err := engine.RenderState(actionstate.State{Status: actionstate.String("info")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "dwellio: info (0)" {
		t.Fatalf("unexpected override output %q", out)
	}

	custom, err := engine.RenderTemplate("custom", pongo2.Context{"name": "Ada"})
	if err != nil {
		t.Fatalf("render custom: %v", err)
	}
	if custom != "hello Ada" {
		t.Fatalf("unexpected custom output %q", custom)
	}

	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestEngine_RenderString(t *testing.T) {
	engine := newEngine(t, report.WithExtension("txt"))
	out, err := engine.RenderString("{{ providers|join:\"/\" }}", report.StateContext(actionstate.State{
		CanSignInWith: []string{"google", "credentials"},
	}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "google/credentials" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := engine.RenderString("{% if %}", nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return strings.ToUpper(input.(string)) + "!", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	out, err := engine.RenderString("{{ status|shout }}", pongo2.Context{"status": "saved"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "SAVED!" {
		t.Fatalf("unexpected output %q", out)
	}

	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}
	if err := engine.RegisterFilter("", nil); err == nil {
		t.Fatalf("expected error for empty filter")
	}
}

func TestStateContext(t *testing.T) {
	ctx := report.StateContext(actionstate.State{
		UserID:          actionstate.String("user-1"),
		ShouldAutoLogin: actionstate.Bool(true),
		FormData:        map[string]any{"email": "ada@example.com"},
	})

	if ctx["user_id"] != "user-1" || ctx["has_form_data"] != true {
		t.Fatalf("unexpected context %+v", ctx)
	}
	want := []map[string]any{{"name": "shouldAutoLogin", "value": true}}
	if diff := cmp.Diff(want, ctx["flags"]); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
	if _, ok := ctx["errors"]; ok {
		t.Fatalf("expected no errors entry")
	}
}

func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, " "))
		}
	}
	return lines
}
