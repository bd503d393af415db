package templates

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
)

// Renderer parses templates from a Source on first use and keeps the parsed
// result. All methods are safe for concurrent use.
type Renderer struct {
	mu     sync.RWMutex
	source Source
	parsed map[string]*template.Template
	funcs  template.FuncMap
	reload bool
	logger *slog.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithReload disables the parsed template cache so edits to the source are
// picked up on every render. Intended for development.
func WithReload(reload bool) Option {
	return func(r *Renderer) {
		r.reload = reload
	}
}

// WithFuncs adds functions available to every template
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		for name, fn := range funcs {
			r.funcs[name] = fn
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a renderer reading from source.
func New(source Source, opts ...Option) *Renderer {
	r := &Renderer{
		source: source,
		parsed: make(map[string]*template.Template),
		funcs:  DefaultFuncs(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultFuncs returns the functions every wrapper template can use.
func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		// safe marks block content as trusted markup
		"safe": func(s string) template.HTML {
			return template.HTML(s)
		},
	}
}

// RenderTemplate executes the named template with data.
func (r *Renderer) RenderTemplate(ctx context.Context, name string, data map[string]any) (string, error) {
	tmpl, err := r.load(ctx, name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

// Invalidate drops the parsed copy of name, or of every template when name
// is empty.
func (r *Renderer) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		r.parsed = make(map[string]*template.Template)
		return
	}
	delete(r.parsed, name)
}

func (r *Renderer) load(ctx context.Context, name string) (*template.Template, error) {
	if !r.reload {
		r.mu.RLock()
		tmpl, ok := r.parsed[name]
		r.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	src, err := r.source.ReadTemplate(ctx, name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(r.funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
	}

	if !r.reload {
		r.mu.Lock()
		r.parsed[name] = tmpl
		r.mu.Unlock()
	}
	r.logger.Debug("template loaded", "template", name, "reload", r.reload)
	return tmpl, nil
}
