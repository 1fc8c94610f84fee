package actions

import (
	"net/http"

	formactions "github.com/dwellio/go-formstate/pkg/actions"
)

// Component bundles the action service with its HTTP configuration.
type Component struct {
	svc  *formactions.Service
	opts Options
}

// New constructs a component serving svc with default options plus any overrides.
func New(svc *formactions.Service, fns ...OptionFn) *Component {
	return &Component{svc: svc, opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns the net/http handler for action requests.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return HandlerWithOptions(nil, DefaultOptions())
	}
	return HandlerWithOptions(c.svc, c.opts)
}

// RegisterRoutes registers the component handler under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath, nil)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.svc, c.opts)
}
