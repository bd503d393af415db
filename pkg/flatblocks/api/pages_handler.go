package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
)

// PageHandler serves pages whose bodies are read from a template source,
// compiled once by the engine and rendered per request.
type PageHandler struct {
	engine *engine.Library
	source templates.Source
	reload bool

	mu       sync.RWMutex
	compiled map[string]*engine.Template
}

// NewPageHandler creates a page handler. With reload set, pages are
// recompiled on every request.
func NewPageHandler(eng *engine.Library, source templates.Source, reload bool) *PageHandler {
	return &PageHandler{
		engine:   eng,
		source:   source,
		reload:   reload,
		compiled: make(map[string]*engine.Template),
	}
}

// Routes returns the page routes
func (h *PageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.ServePage)
	return r
}

// ServePage renders the page named by the wildcard path. Query parameters
// are exposed to the page as variables.
func (h *PageHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		writeBadRequest(w, r, "Missing page name")
		return
	}

	tpl, err := h.page(r, name)
	if err != nil {
		writeError(w, r, "Failed to load page", err)
		return
	}

	vars := engine.Context{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			vars[key] = values[0]
		}
	}

	out, err := tpl.Render(r.Context(), vars)
	if err != nil {
		writeError(w, r, "Failed to render page", err)
		return
	}

	render.HTML(w, r, out)
}

// Invalidate drops the compiled page for name, or every page when name is empty.
func (h *PageHandler) Invalidate(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if name == "" {
		h.compiled = make(map[string]*engine.Template)
		return
	}
	delete(h.compiled, name)
}

func (h *PageHandler) page(r *http.Request, name string) (*engine.Template, error) {
	if !h.reload {
		h.mu.RLock()
		tpl, ok := h.compiled[name]
		h.mu.RUnlock()
		if ok {
			return tpl, nil
		}
	}

	src, err := h.source.ReadTemplate(r.Context(), name)
	if err != nil {
		return nil, err
	}
	tpl, err := h.engine.Compile(name, string(src))
	if err != nil {
		return nil, err
	}

	if !h.reload {
		h.mu.Lock()
		h.compiled[name] = tpl
		h.mu.Unlock()
	}
	slog.Debug("Page compiled", "name", name)
	return tpl, nil
}
