package actions

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	formactions "github.com/dwellio/go-formstate/pkg/actions"
	"github.com/dwellio/go-formstate/pkg/listing"
)

func newTestService(t *testing.T) *formactions.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return formactions.NewService(formactions.NewMemoryStore(nil),
		formactions.WithLogger(logger),
		formactions.WithBcryptCost(bcrypt.MinCost),
	)
}

func post(t *testing.T, h http.Handler, target, body string, headers ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestHandler_SignUpSuccess(t *testing.T) {
	h := NewHandler(newTestService(t))

	res := post(t, h, "/api/actions/sign-up", `{"email":"ada@example.com","password":"correct horse"}`)

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	payload := decodeBody(t, res)
	if payload["status"] != "success" || payload["shouldAutoLogin"] != true {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if _, ok := payload["formData"]; ok {
		t.Fatalf("formData must not be serialised: %#v", payload)
	}
}

func TestHandler_ValidationFailureIs422(t *testing.T) {
	h := NewHandler(newTestService(t))

	res := post(t, h, "/api/actions/sign-up", `{"email":"ada","password":"short"}`)

	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", res.StatusCode)
	}
	payload := decodeBody(t, res)
	errs, ok := payload["formErrorMap"].(map[string]any)
	if !ok {
		t.Fatalf("expected formErrorMap object, got %#v", payload)
	}
	if _, ok := errs["email"]; !ok {
		t.Fatalf("expected email errors, got %#v", errs)
	}
	if _, ok := errs["password"]; !ok {
		t.Fatalf("expected password errors, got %#v", errs)
	}
}

func TestHandler_MalformedBodyIs400(t *testing.T) {
	h := NewHandler(newTestService(t))

	for name, body := range map[string]string{
		"empty":     "",
		"not json":  "email=ada",
		"wrong key": `{"email": 42}`,
	} {
		t.Run(name, func(t *testing.T) {
			res := post(t, h, "/api/actions/sign-up", body)
			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", res.StatusCode)
			}
			if payload := decodeBody(t, res); payload["status"] != "error" {
				t.Fatalf("expected error state, got %#v", payload)
			}
		})
	}
}

func TestHandler_BodyLimit(t *testing.T) {
	h := NewHandler(newTestService(t), WithMaxBodyBytes(16))

	res := post(t, h, "/api/actions/sign-up", `{"email":"ada@example.com","password":"correct horse"}`)

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.StatusCode)
	}
}

func TestHandler_MethodAndUnknownAction(t *testing.T) {
	h := NewHandler(newTestService(t))

	req := httptest.NewRequest(http.MethodGet, "/api/actions/sign-up", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow POST, got %q", allow)
	}

	if res := post(t, h, "/api/actions/launch-rocket", `{}`); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", res.StatusCode)
	}
}

func TestHandler_GuardAndUserFunc(t *testing.T) {
	svc := newTestService(t)

	guarded := NewHandler(svc, WithGuard(func(r *http.Request) error {
		if r.Header.Get("X-Api-Key") != "secret" {
			return errors.New("denied")
		}
		return nil
	}))
	if res := post(t, guarded, "/api/actions/sign-in-methods", `{"email":"a@b.co"}`); res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", res.StatusCode)
	}
	if res := post(t, guarded, "/api/actions/sign-in-methods", `{"email":"a@b.co"}`, "X-Api-Key", "secret"); res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}

	failing := NewHandler(svc, WithUserFunc(func(*http.Request) (string, error) {
		return "", ErrUnauthenticated
	}))
	if res := post(t, failing, "/api/actions/toggle-bookmark", `{"id":"p1"}`); res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.StatusCode)
	}

	teapot := NewHandler(svc, WithUserFunc(func(*http.Request) (string, error) {
		return "", StatusError{Code: http.StatusTeapot}
	}))
	if res := post(t, teapot, "/api/actions/toggle-bookmark", `{"id":"p1"}`); res.StatusCode != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", res.StatusCode)
	}
}

func TestHandler_PropertyFlow(t *testing.T) {
	svc := newTestService(t)
	owner, err := svc.Store().CreateUser(t.Context(), listing.User{Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	guest, err := svc.Store().CreateUser(t.Context(), listing.User{Email: "guest@example.com"})
	if err != nil {
		t.Fatalf("seed guest: %v", err)
	}
	h := NewHandler(svc, WithUserFunc(HeaderUser("X-User")))

	anonymous := post(t, h, "/api/actions/create-property", `{"name":"Loft"}`)
	if payload := decodeBody(t, anonymous); payload["message"] != formactions.MsgSignInRequired {
		t.Fatalf("expected sign-in message, got %#v", payload)
	}

	body := `{
		"name": "Harbour Loft",
		"type": "Apartment",
		"location": {"street": "1 Pier Rd", "city": "Boston", "state": "MA", "zipcode": "02110"},
		"beds": 2, "baths": 1, "square_feet": 900,
		"rates": {"monthly": 4200},
		"seller_info": {"name": "Ada", "email": "ada@example.com"}
	}`
	created := post(t, h, "/api/actions/create-property", body, "X-User", owner.ID)
	if created.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", created.StatusCode)
	}

	var propertyID string
	for id := range propertiesOf(t, svc, owner.ID) {
		propertyID = id
	}

	toggled := post(t, h, "/api/actions/toggle-bookmark", `{"id":"`+propertyID+`"}`, "X-User", guest.ID)
	if payload := decodeBody(t, toggled); payload["isFavorite"] != true {
		t.Fatalf("expected bookmark, got %#v", payload)
	}

	message := `{"property":"` + propertyID + `","name":"Grace","email":"grace@example.com","body":"Still free?"}`
	if res := post(t, h, "/api/actions/create-message", message, "X-User", guest.ID); res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/actions/unread-count", nil)
	req.Header.Set("X-User", owner.ID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"count":1}` {
		t.Fatalf("unexpected unread count response %d %q", rec.Code, rec.Body.String())
	}
}

func propertiesOf(t *testing.T, svc *formactions.Service, owner string) map[string]listing.Property {
	t.Helper()
	properties, err := svc.Store().Properties(t.Context(), owner)
	if err != nil {
		t.Fatalf("list properties: %v", err)
	}
	out := map[string]listing.Property{}
	for _, p := range properties {
		out[p.ID] = p
	}
	if len(out) != 1 {
		t.Fatalf("expected one property for owner, got %d", len(out))
	}
	return out
}
