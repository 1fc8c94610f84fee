package formerrors_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/testsupport"
)

func TestMapIssues_NestsTwoSegmentPaths(t *testing.T) {
	rec, logger := testsupport.NewLogRecorder()

	got := formerrors.MapIssues([]formerrors.Issue{
		formerrors.NewIssue("Name is required", "name"),
		formerrors.NewIssue("City is required", "location", "city"),
	}, formerrors.WithLogger(logger))

	want := formerrors.ErrorMap{
		"name": {Messages: []string{"Name is required"}},
		"location": {Children: formerrors.ErrorMap{
			"city": {Messages: []string{"City is required"}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
	if rec.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Messages())
	}

	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	wantJSON := `{"location":{"city":["City is required"]},"name":["Name is required"]}`
	if string(encoded) != wantJSON {
		t.Fatalf("unexpected JSON:\nwant %s\ngot  %s", wantJSON, encoded)
	}
}

func TestMapIssues_SkipsMalformedIssues(t *testing.T) {
	rec, logger := testsupport.NewLogRecorder()

	issues := testsupport.DecodeJSON(t, `[
		null,
		{"path": [], "message": "x"},
		{"path": ["a"], "message": ""},
		{"path": ["ok"], "message": "Fine"}
	]`)

	got := formerrors.MapIssues(issues, formerrors.WithLogger(logger))

	want := formerrors.ErrorMap{"ok": {Messages: []string{"Fine"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
	if rec.Len() != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %v", rec.Len(), rec.Records())
	}
	for _, check := range []string{formerrors.CheckNotObject, formerrors.CheckPathMissing, formerrors.CheckMessageMissing} {
		if !rec.Contains(check) {
			t.Errorf("expected diagnostic %q, got %v", check, rec.Records())
		}
	}
}

func TestMapIssues_ReportsEachDefect(t *testing.T) {
	cases := map[string]struct {
		issue any
		check string
	}{
		"non-object":        {issue: "oops", check: formerrors.CheckNotObject},
		"nil pointer":       {issue: (*formerrors.Issue)(nil), check: formerrors.CheckNotObject},
		"missing path":      {issue: map[string]any{"message": "x"}, check: formerrors.CheckPathMissing},
		"path not array":    {issue: map[string]any{"path": "name", "message": "x"}, check: formerrors.CheckPathNotArray},
		"object in path":    {issue: map[string]any{"path": []any{map[string]any{}}, "message": "x"}, check: formerrors.CheckPathSegment},
		"message not text":  {issue: map[string]any{"path": []any{"name"}, "message": 42}, check: formerrors.CheckMessageNotString},
		"message missing":   {issue: formerrors.Issue{Path: []any{"name"}}, check: formerrors.CheckMessageMissing},
		"struct empty path": {issue: formerrors.Issue{Message: "x"}, check: formerrors.CheckPathMissing},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, logger := testsupport.NewLogRecorder()
			got := formerrors.MapIssues([]any{tc.issue, formerrors.NewIssue("Fine", "ok")}, formerrors.WithLogger(logger))

			if diff := cmp.Diff(formerrors.ErrorMap{"ok": {Messages: []string{"Fine"}}}, got); diff != "" {
				t.Fatalf("valid sibling not mapped (-want +got):\n%s", diff)
			}
			records := rec.Records()
			if len(records) != 1 {
				t.Fatalf("expected one diagnostic, got %v", records)
			}
			if records[0].Attrs["check"] != tc.check {
				t.Fatalf("expected check %q, got %q", tc.check, records[0].Attrs["check"])
			}
			if records[0].Attrs["index"] != "0" {
				t.Fatalf("expected index 0, got %q", records[0].Attrs["index"])
			}
		})
	}
}

func TestMapIssues_AppendsMessagesInOrder(t *testing.T) {
	_, logger := testsupport.NewLogRecorder()

	got := formerrors.MapIssues([]formerrors.Issue{
		formerrors.NewIssue("Street is required", "location", "street"),
		formerrors.NewIssue("Email is required", "email"),
		formerrors.NewIssue("Street is too short", "location", "street"),
		formerrors.NewIssue("Email is invalid", "email"),
		formerrors.NewIssue("Email is invalid", "email"),
	}, formerrors.WithLogger(logger))

	want := formerrors.ErrorMap{
		"email": {Messages: []string{"Email is required", "Email is invalid", "Email is invalid"}},
		"location": {Children: formerrors.ErrorMap{
			"street": {Messages: []string{"Street is required", "Street is too short"}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
}

func TestMapIssues_NullAndNonArrayInput(t *testing.T) {
	cases := map[string]struct {
		input any
		diag  string
	}{
		"nil":           {input: nil, diag: "issues parameter is null or undefined"},
		"nil pointer":   {input: (*[]formerrors.Issue)(nil), diag: "issues parameter is null or undefined"},
		"string":        {input: "name is required", diag: "issues parameter is not an array"},
		"single object": {input: map[string]any{"path": []any{"name"}, "message": "x"}, diag: "issues parameter is not an array"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, logger := testsupport.NewLogRecorder()
			got := formerrors.MapIssues(tc.input, formerrors.WithLogger(logger))
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil map, got %#v", got)
			}
			if !rec.Contains(tc.diag) {
				t.Fatalf("expected diagnostic %q, got %v", tc.diag, rec.Messages())
			}
		})
	}
}

func TestMapIssues_EmptyInputIsQuiet(t *testing.T) {
	rec, logger := testsupport.NewLogRecorder()

	for _, input := range []any{[]formerrors.Issue{}, []any{}, []formerrors.Issue(nil)} {
		got := formerrors.MapIssues(input, formerrors.WithLogger(logger))
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty map for %#v, got %#v", input, got)
		}
	}
	if rec.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", rec.Messages())
	}
}

type explodingSegment string

func (explodingSegment) String() string { panic("segment exploded") }

func TestMapIssues_RecoversFromSegmentPanics(t *testing.T) {
	rec, logger := testsupport.NewLogRecorder()

	got := formerrors.MapIssues([]formerrors.Issue{
		{Path: []any{"location", explodingSegment("city")}, Message: "City is required"},
		formerrors.NewIssue("Name is required", "name"),
	}, formerrors.WithLogger(logger))

	if diff := cmp.Diff(formerrors.ErrorMap{"name": {Messages: []string{"Name is required"}}}, got); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
	if !rec.Contains("segment exploded") {
		t.Fatalf("expected panic value in diagnostics, got %v", rec.Records())
	}
}

func TestMapIssues_DepthRules(t *testing.T) {
	issues := []formerrors.Issue{
		formerrors.NewIssue("Too long", "seller_info", "contact", "email"),
		formerrors.NewIssue("Required", "location", "city"),
		formerrors.NewIssue("Pick one", "amenities", 2),
	}

	t.Run("default keeps long paths flat", func(t *testing.T) {
		got := formerrors.MapIssues(issues, formerrors.WithLogger(discard()))
		want := formerrors.ErrorMap{
			"seller_info.contact.email": {Messages: []string{"Too long"}},
			"location":                  {Children: formerrors.ErrorMap{"city": {Messages: []string{"Required"}}}},
			"amenities":                 {Children: formerrors.ErrorMap{"2": {Messages: []string{"Pick one"}}}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("error map mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unlimited nests recursively", func(t *testing.T) {
		got := formerrors.MapIssues(issues, formerrors.WithLogger(discard()), formerrors.WithMaxDepth(0))
		want := formerrors.ErrorMap{
			"seller_info": {Children: formerrors.ErrorMap{
				"contact": {Children: formerrors.ErrorMap{"email": {Messages: []string{"Too long"}}}},
			}},
			"location":  {Children: formerrors.ErrorMap{"city": {Messages: []string{"Required"}}}},
			"amenities": {Children: formerrors.ErrorMap{"2": {Messages: []string{"Pick one"}}}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("error map mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("depth one never nests", func(t *testing.T) {
		got := formerrors.MapIssues(issues, formerrors.WithLogger(discard()), formerrors.WithMaxDepth(1))
		want := formerrors.ErrorMap{
			"seller_info.contact.email": {Messages: []string{"Too long"}},
			"location.city":             {Messages: []string{"Required"}},
			"amenities.2":               {Messages: []string{"Pick one"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("error map mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMapIssues_DecodedNumericSegments(t *testing.T) {
	issues := testsupport.DecodeJSON(t, `[{"path": ["images", 0], "message": "Image is too large"}]`)

	got := formerrors.MapIssues(issues, formerrors.WithLogger(discard()))

	want := formerrors.ErrorMap{
		"images": {Children: formerrors.ErrorMap{"0": {Messages: []string{"Image is too large"}}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
}

func TestMapIssues_SectionAndFieldShareKey(t *testing.T) {
	got := formerrors.MapIssues([]formerrors.Issue{
		formerrors.NewIssue("Location is incomplete", "location"),
		formerrors.NewIssue("City is required", "location", "city"),
	}, formerrors.WithLogger(discard()))

	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"location":{"_errors":["Location is incomplete"],"city":["City is required"]}}`
	if string(encoded) != want {
		t.Fatalf("unexpected JSON:\nwant %s\ngot  %s", want, encoded)
	}
}

func TestMapIssues_Fixture(t *testing.T) {
	rec, logger := testsupport.NewLogRecorder()

	got := formerrors.MapIssues(testsupport.LoadJSON(t, "testdata/issues.json"), formerrors.WithLogger(logger))

	want := formerrors.ErrorMap{
		"name": {Messages: []string{"Name is required"}},
		"location": {Children: formerrors.ErrorMap{
			"city":    {Messages: []string{"City is required"}},
			"zipcode": {Messages: []string{"Zipcode is required"}},
		}},
		"images": {Children: formerrors.ErrorMap{
			"0": {Messages: []string{"Images must be a valid URL"}},
		}},
		"seller_info.contact.email": {Messages: []string{"Email is invalid"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fixture mismatch (-want +got):\n%s", diff)
	}
	if rec.Len() != 4 {
		t.Fatalf("expected a diagnostic per malformed issue, got %v", rec.Messages())
	}
}
