// Package report renders action states as plain-text summaries for the CLI
// and logs, using pongo2 templates.
package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/dwellio/go-formstate/pkg/actionstate"
)

//go:embed templates/*.tpl
var embedded embed.FS

// StateTemplate is the name of the built-in state summary template.
const StateTemplate = "state"

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	globalData map[string]any
}

// WithBaseDir loads templates from a directory on disk ahead of the
// built-in ones, so a state.tpl there overrides the default.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files ahead of the built-in ones.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default ".tpl" template extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithGlobalData seeds values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Engine renders templates from a pongo2 template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	tplExt      string
}

// New constructs an Engine. The built-in templates are always available.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("report: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	builtin, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("report: open built-in templates: %w", err)
	}
	loaders = append(loaders, pongo2.NewFSLoader(builtin))

	set := pongo2.NewSet("formstate", loaders...)
	set.Options.TrimBlocks = true
	set.Options.LStripBlocks = true

	engine := &Engine{
		templateSet: set,
		templates:   make(map[string]*pongo2.Template),
		tplExt:      cfg.extension,
	}
	registerDefaultFilters()

	if len(cfg.globalData) > 0 {
		engine.GlobalContext(cfg.globalData)
	}
	return engine, nil
}

// RenderState renders the built-in state summary.
func (e *Engine) RenderState(state actionstate.State, out ...io.Writer) (string, error) {
	return e.RenderTemplate(StateTemplate, StateContext(state), out...)
}

// RenderTemplate renders the named template, appending the configured
// extension when missing. The result is also written to every out writer.
func (e *Engine) RenderTemplate(name string, data pongo2.Context, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("report: engine is nil")
	}
	templatePath := name
	if !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, out, fmt.Sprintf("template %q", templatePath))
}

// RenderString renders inline template content.
func (e *Engine) RenderString(content string, data pongo2.Context, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("report: engine is nil")
	}
	tmpl, err := e.templateSet.FromString(content)
	if err != nil {
		return "", fmt.Errorf("report: parse template string: %w", err)
	}
	return e.execute(tmpl, data, out, "template string")
}

func (e *Engine) execute(tmpl *pongo2.Template, data pongo2.Context, out []io.Writer, what string) (string, error) {
	if data == nil {
		data = pongo2.Context{}
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err := tmpl.ExecuteWriter(data, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("report: execute %s: %w", what, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// RegisterFilter registers a template filter. Filters are process-wide in
// pongo2, so registering an existing name is an error.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("report: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("report: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data map[string]any) {
	if e == nil || e.templateSet == nil || len(data) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(pongo2.Context(data))
}

func (e *Engine) getTemplate(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: load template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return tmpl, nil
}

var defaultFilters sync.Once

func registerDefaultFilters() {
	defaultFilters.Do(func() {
		if !pongo2.FilterExists("indent") {
			_ = pongo2.RegisterFilter("indent", filterIndent)
		}
	})
}

// filterIndent prefixes every line after the first with param spaces so
// multi-line values stay aligned under their label.
func filterIndent(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	text := in.String()
	width := 0
	if param != nil && param.IsInteger() {
		width = param.Integer()
	}
	if width <= 0 || !strings.Contains(text, "\n") {
		return pongo2.AsValue(text), nil
	}
	pad := strings.Repeat(" ", width)
	return pongo2.AsValue(strings.ReplaceAll(text, "\n", "\n"+pad)), nil
}
