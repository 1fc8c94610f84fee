package actions

import (
	"errors"
	"net/http"
	"path"
	"strings"

	formactions "github.com/dwellio/go-formstate/pkg/actions"
)

// Registration errors.
var (
	ErrNilMux     = errors.New("actions: nil mux")
	ErrNilService = errors.New("actions: nil service")
)

// actionSegment is the wildcard naming the action in a route pattern.
const actionSegment = "{action}"

// Mux registers handlers by pattern. *http.ServeMux and chi.Router both
// implement it.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath is the prefix actions are served under: the configured route
// path joined onto basePath, always rooted and without a trailing slash.
func MountPath(basePath string, fns ...OptionFn) string {
	return joinRoute(basePath, NewOptions(fns...).RoutePath)
}

// ActionPattern is MountPath followed by the action wildcard, as handed to
// the mux.
func ActionPattern(basePath string, fns ...OptionFn) string {
	return actionPattern(MountPath(basePath, fns...))
}

// RegisterRoutes mounts one handler for every action and returns the
// pattern it used.
func RegisterRoutes(mux Mux, basePath string, svc *formactions.Service, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, svc, NewOptions(fns...))
}

// RegisterRoutesWithOptions is RegisterRoutes for callers holding an Options
// value, such as Component.
func RegisterRoutesWithOptions(mux Mux, basePath string, svc *formactions.Service, opts Options) (string, error) {
	switch {
	case mux == nil:
		return "", ErrNilMux
	case svc == nil:
		return "", ErrNilService
	}

	opts = NewOptions(func(o *Options) { *o = opts })
	pattern := actionPattern(joinRoute(basePath, opts.RoutePath))
	mux.Handle(pattern, HandlerWithOptions(svc, opts))
	return pattern, nil
}

// joinRoute cleans and joins URL path segments into a rooted prefix. The
// root prefix is returned as "".
func joinRoute(segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, "/")
	for _, s := range segments {
		parts = append(parts, strings.TrimSpace(s))
	}
	joined := path.Join(parts...)
	if joined == "/" {
		return ""
	}
	return joined
}

func actionPattern(prefix string) string {
	return prefix + "/" + actionSegment
}
