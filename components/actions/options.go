package actions

import (
	"log/slog"
	"net/http"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// GuardFunc rejects requests before any action runs.
type GuardFunc func(r *http.Request) error

// UserFunc resolves the acting user from the request. An empty id with a nil
// error means the caller is anonymous.
type UserFunc func(r *http.Request) (string, error)

// Options configures the actions handler and its routes.
type Options struct {
	RoutePath    string
	MaxBodyBytes int64
	Guard        GuardFunc
	UserFunc     UserFunc
	Logger       *slog.Logger
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions mounts at /api/actions with DefaultMaxBodyBytes.
func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/actions",
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// NewOptions applies fns over DefaultOptions and fills unset fields back in.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/actions"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// WithRoutePath sets the path actions are mounted at.
func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithMaxBodyBytes caps request bodies. Zero or less restores the default.
func WithMaxBodyBytes(limit int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxBodyBytes = limit
	}
}

// WithGuard installs a check run before every action.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithUserFunc sets how the acting user is resolved.
func WithUserFunc(fn UserFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.UserFunc = fn
	}
}

// WithLogger sets the handler logger. Nil falls back to slog.Default.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// HeaderUser reads the acting user id from header. It suits trusted
// deployments behind an authenticating proxy and tests.
func HeaderUser(header string) UserFunc {
	return func(r *http.Request) (string, error) {
		return r.Header.Get(header), nil
	}
}
