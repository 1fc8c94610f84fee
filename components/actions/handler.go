package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	formactions "github.com/dwellio/go-formstate/pkg/actions"
	"github.com/dwellio/go-formstate/pkg/actionstate"
	"github.com/dwellio/go-formstate/pkg/listing"
)

// Action names, the last path segment of a request.
const (
	ActionCreateProperty    = "create-property"
	ActionUpdateProperty    = "update-property"
	ActionDeleteProperty    = "delete-property"
	ActionToggleBookmark    = "toggle-bookmark"
	ActionCheckBookmark     = "check-bookmark"
	ActionCreateMessage     = "create-message"
	ActionToggleMessageRead = "toggle-message-read"
	ActionDeleteMessage     = "delete-message"
	ActionSignUp            = "sign-up"
	ActionSignIn            = "sign-in"
	ActionSignInMethods     = "sign-in-methods"
	ActionLinkCredentials   = "link-credentials"
	ActionUnreadCount       = "unread-count"
)

// ErrUnauthenticated is the default UserFunc failure.
var ErrUnauthenticated = errors.New("actions: unauthenticated")

// HTTPError is an error that carries the HTTP status to respond with.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError pairs an error with an HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

// StatusCode defaults to 500 when Code is unset.
func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type targetRequest struct {
	ID string `json:"id"`
}

type updatePropertyRequest struct {
	ID string `json:"id"`
	listing.PropertyInput
}

type signInMethodsRequest struct {
	Email string `json:"email"`
}

type countResponse struct {
	Count int `json:"count"`
}

type action func(ctx context.Context, svc *formactions.Service, user string, body []byte) (actionstate.State, error)

var routes = map[string]action{
	ActionCreateProperty: func(ctx context.Context, svc *formactions.Service, user string, body []byte) (actionstate.State, error) {
		var in listing.PropertyInput
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return svc.CreateProperty(ctx, user, in), nil
	},
	ActionUpdateProperty: func(ctx context.Context, svc *formactions.Service, user string, body []byte) (actionstate.State, error) {
		var in updatePropertyRequest
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return svc.UpdateProperty(ctx, user, in.ID, in.PropertyInput), nil
	},
	ActionDeleteProperty: targetAction((*formactions.Service).DeleteProperty),
	ActionToggleBookmark: targetAction((*formactions.Service).ToggleBookmark),
	ActionCheckBookmark:  targetAction((*formactions.Service).CheckBookmark),
	ActionCreateMessage: func(ctx context.Context, svc *formactions.Service, user string, body []byte) (actionstate.State, error) {
		var in listing.MessageInput
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return svc.CreateMessage(ctx, user, in), nil
	},
	ActionToggleMessageRead: targetAction((*formactions.Service).ToggleMessageRead),
	ActionDeleteMessage:     targetAction((*formactions.Service).DeleteMessage),
	ActionSignUp: func(ctx context.Context, svc *formactions.Service, _ string, body []byte) (actionstate.State, error) {
		var in listing.CredentialsInput
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return svc.SignUp(ctx, in), nil
	},
	ActionSignIn: func(ctx context.Context, svc *formactions.Service, _ string, body []byte) (actionstate.State, error) {
		var in listing.CredentialsInput
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return svc.SignIn(ctx, in), nil
	},
	ActionSignInMethods: func(ctx context.Context, svc *formactions.Service, _ string, body []byte) (actionstate.State, error) {
		var in signInMethodsRequest
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return svc.SignInMethods(ctx, in.Email), nil
	},
	ActionLinkCredentials: func(ctx context.Context, svc *formactions.Service, user string, body []byte) (actionstate.State, error) {
		var in listing.CredentialsInput
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return svc.LinkCredentials(ctx, user, in), nil
	},
}

func targetAction(fn func(*formactions.Service, context.Context, string, string) actionstate.State) action {
	return func(ctx context.Context, svc *formactions.Service, user string, body []byte) (actionstate.State, error) {
		var in targetRequest
		if err := decode(body, &in); err != nil {
			return actionstate.State{}, err
		}
		return fn(svc, ctx, user, in.ID), nil
	}
}

func decode(body []byte, dest any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// Actions lists the supported action names.
func Actions() []string {
	names := make([]string, 0, len(routes)+1)
	for name := range routes {
		names = append(names, name)
	}
	names = append(names, ActionUnreadCount)
	return names
}

// Handler builds a net/http handler with default options plus any overrides.
// It is an alias of NewHandler to match the recommended component API surface.
func Handler(svc *formactions.Service, fns ...OptionFn) http.Handler {
	return NewHandler(svc, fns...)
}

func NewHandler(svc *formactions.Service, fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(svc, opts)
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options value.
// Callers are expected to pass an Options value produced by NewOptions (or equivalent)
// so defaults are applied.
func HandlerWithOptions(svc *formactions.Service, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	logger := opts.Logger
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil || svc == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		name := path.Base(r.URL.Path)
		if name == ActionUnreadCount {
			if r.Method != http.MethodGet {
				w.Header().Set("Allow", http.MethodGet)
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
				return
			}
		} else if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		run, known := routes[name]
		if !known && name != ActionUnreadCount {
			http.NotFound(w, r)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err, http.StatusForbidden)
				return
			}
		}

		user := ""
		if opts.UserFunc != nil {
			id, err := opts.UserFunc(r)
			if err != nil {
				logger.Warn("actions: user resolution failed", slog.String("action", name), slog.Any("error", err))
				writeGuardError(w, err, http.StatusUnauthorized)
				return
			}
			user = id
		}

		if name == ActionUnreadCount {
			if user == "" {
				writeGuardError(w, ErrUnauthenticated, http.StatusUnauthorized)
				return
			}
			count, err := svc.UnreadCount(r.Context(), user)
			if err != nil {
				logger.Error("actions: unread count failed", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, countResponse{Count: count})
			return
		}

		body, err := readBody(w, r, opts.MaxBodyBytes)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, badRequest(err))
			return
		}

		state, err := run(r.Context(), svc, user, body)
		if err != nil {
			logger.Warn("actions: malformed request", slog.String("action", name), slog.Any("error", err))
			writeJSON(w, http.StatusBadRequest, badRequest(err))
			return
		}
		writeJSON(w, statusFor(state), state)
	})
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	reader := http.MaxBytesReader(w, r.Body, limit)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}

func badRequest(err error) actionstate.State {
	return actionstate.State{
		Status:  actionstate.String(actionstate.StatusError),
		Message: actionstate.String(err.Error()),
	}
}

func statusFor(state actionstate.State) int {
	if state.Failed() && state.HasFieldErrors() {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeGuardError(w http.ResponseWriter, err error, fallback int) {
	if w == nil {
		return
	}
	code := fallback
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = fallback
		}
	}
	http.Error(w, http.StatusText(code), code)
}
