package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/admin"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
)

// RenderRequest is the request body for previewing a template
type RenderRequest struct {
	Template string         `json:"template"`
	Context  map[string]any `json:"context,omitempty"`
}

// RenderResponse is the response body for a preview
type RenderResponse struct {
	Output string `json:"output"`
}

// Handler serves the flatblocks admin API and the preview endpoint
type Handler struct {
	admin  admin.Service
	engine *engine.Library
	auth   *jwtauth.JWTAuth
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithAuth protects every route with HS256 bearer tokens
func WithAuth(auth *jwtauth.JWTAuth) HandlerOption {
	return func(h *Handler) {
		h.auth = auth
	}
}

// NewHandler creates a new flatblocks handler. eng must have the flatblock
// tags registered for previews to resolve them.
func NewHandler(service admin.Service, eng *engine.Library, opts ...HandlerOption) *Handler {
	h := &Handler{
		admin:  service,
		engine: eng,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewJWTAuth returns an HS256 verifier for the given shared secret.
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// Routes returns the routes for flatblocks administration and previews
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
		r.Use(jwtauth.Authenticator)
	}

	r.Get("/flatblocks", h.ListFlatBlocks)
	r.Post("/flatblocks", h.CreateFlatBlock)
	r.Get("/flatblocks/_form", h.GetForm)
	r.Get("/flatblocks/{slug}", h.GetFlatBlock)
	r.Put("/flatblocks/{slug}", h.UpdateFlatBlock)
	r.Delete("/flatblocks/{slug}", h.DeleteFlatBlock)

	r.Post("/render", h.Render)

	return r
}

// ListFlatBlocks lists blocks ordered by slug. Query parameters: q, limit, offset.
func (h *Handler) ListFlatBlocks(w http.ResponseWriter, r *http.Request) {
	req := admin.ListRequest{Search: r.URL.Query().Get("q")}

	var err error
	if v := r.URL.Query().Get("limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, r, "Invalid limit")
			return
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if req.Offset, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, r, "Invalid offset")
			return
		}
	}

	resp, err := h.admin.List(r.Context(), req)
	if err != nil {
		writeError(w, r, "Failed to list flatblocks", err)
		return
	}

	render.JSON(w, r, resp)
}

// CreateFlatBlock creates a new block
func (h *Handler) CreateFlatBlock(w http.ResponseWriter, r *http.Request) {
	var req admin.CreateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	block, err := h.admin.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, "Failed to create flatblock", err)
		return
	}

	slog.Info("Flatblock created", "slug", block.Slug)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, block)
}

// GetFlatBlock retrieves a block by slug
func (h *Handler) GetFlatBlock(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	block, err := h.admin.Get(r.Context(), slug)
	if err != nil {
		writeError(w, r, "Failed to get flatblock", err)
		return
	}

	render.JSON(w, r, block)
}

// UpdateFlatBlock changes the header and/or content of a block
func (h *Handler) UpdateFlatBlock(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req admin.UpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	block, err := h.admin.Update(r.Context(), slug, req)
	if err != nil {
		writeError(w, r, "Failed to update flatblock", err)
		return
	}

	slog.Info("Flatblock updated", "slug", slug)
	render.JSON(w, r, block)
}

// DeleteFlatBlock deletes a block by slug
func (h *Handler) DeleteFlatBlock(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.admin.Delete(r.Context(), slug); err != nil {
		writeError(w, r, "Failed to delete flatblock", err)
		return
	}

	slog.Info("Flatblock deleted", "slug", slug)
	w.WriteHeader(http.StatusNoContent)
}

// GetForm returns the edit form schema
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.admin.Form())
}

// Render compiles the posted template body and renders it with the posted
// context.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	tpl, err := h.engine.Compile("preview", req.Template)
	if err != nil {
		writeError(w, r, "Failed to compile template", err)
		return
	}

	out, err := tpl.Render(r.Context(), engine.Context(req.Context))
	if err != nil {
		writeError(w, r, "Failed to render template", err)
		return
	}

	render.JSON(w, r, RenderResponse{Output: out})
}
