package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/admin"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/api"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/repo/memory"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
	tplmemory "github.com/tendant/simple-flatblocks/pkg/flatblocks/templates/memory"
)

type testEnv struct {
	admin  admin.Service
	engine *engine.Library
	pages  *tplmemory.Source
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := memory.New()
	lib, err := flatblocks.New(
		flatblocks.WithStore(repo),
		flatblocks.WithTemplates(templates.New(templates.Defaults())),
	)
	require.NoError(t, err)

	eng := engine.NewLibrary()
	lib.Register(eng)

	svc := admin.New(repo)
	_, err = svc.Create(context.Background(), admin.CreateRequest{Slug: "contact", Header: "Contact", Content: "Call us"})
	require.NoError(t, err)

	return &testEnv{
		admin:  svc,
		engine: eng,
		pages: tplmemory.New(map[string]string{
			"index.html":   `<p>{% plain_flatblock "contact" %}</p><p>{% plain_flatblock slug %}</p>`,
			"broken.html":  `{% plain_flatblock %}`,
			"wrapped.html": `{% flatblock "contact" using "flatblocks/missing.html" %}`,
		}),
	}
}

func (e *testEnv) router(opts ...api.HandlerOption) http.Handler {
	return api.NewHandler(e.admin, e.engine, opts...).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateAndGet(t *testing.T) {
	env := setupTestEnv(t)
	router := env.router()

	w := doJSON(t, router, http.MethodPost, "/flatblocks", admin.CreateRequest{Slug: "footer", Content: "ACME"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created flatblocks.FlatBlock
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "footer", created.Slug)
	assert.NotEmpty(t, created.ID)

	w = doJSON(t, router, http.MethodGet, "/flatblocks/footer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got flatblocks.FlatBlock
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "ACME", got.Content)
}

func TestHandler_ErrorStatuses(t *testing.T) {
	env := setupTestEnv(t)
	router := env.router()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing block", http.MethodGet, "/flatblocks/missing", nil, http.StatusNotFound},
		{"duplicate slug", http.MethodPost, "/flatblocks", admin.CreateRequest{Slug: "contact", Content: "x"}, http.StatusConflict},
		{"blank content", http.MethodPost, "/flatblocks", admin.CreateRequest{Slug: "empty"}, http.StatusBadRequest},
		{"invalid slug", http.MethodPost, "/flatblocks", admin.CreateRequest{Slug: "no spaces"}, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/flatblocks/missing", map[string]string{"content": "x"}, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/flatblocks/missing", nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/flatblocks?limit=abc", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandler_ListUpdateDelete(t *testing.T) {
	env := setupTestEnv(t)
	router := env.router()

	w := doJSON(t, router, http.MethodPost, "/flatblocks", admin.CreateRequest{Slug: "about", Content: "About ACME"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/flatblocks?q=acme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list admin.ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.FlatBlocks, 1)
	assert.Equal(t, "about", list.FlatBlocks[0].Slug)
	assert.Equal(t, int64(1), list.Total)

	w = doJSON(t, router, http.MethodPut, "/flatblocks/contact", map[string]string{"content": "Email us"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated flatblocks.FlatBlock
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Email us", updated.Content)
	assert.Equal(t, "Contact", updated.Header)

	w = doJSON(t, router, http.MethodDelete, "/flatblocks/contact", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/flatblocks", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.Total)
}

func TestHandler_Form(t *testing.T) {
	env := setupTestEnv(t)

	w := doJSON(t, env.router(), http.MethodGet, "/flatblocks/_form", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var form admin.Form
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))
	content, ok := form.Field("content")
	require.True(t, ok)
	assert.Equal(t, admin.WidgetTextarea, content.Widget)
}

func TestHandler_Render(t *testing.T) {
	env := setupTestEnv(t)
	router := env.router()

	w := doJSON(t, router, http.MethodPost, "/render", api.RenderRequest{
		Template: `Help: {% plain_flatblock which %}`,
		Context:  map[string]any{"which": "contact"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Help: Call us", resp.Output)

	w = doJSON(t, router, http.MethodPost, "/render", api.RenderRequest{Template: `{% flatblock "contact" %}`})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Output, `class="flatblock block-contact"`)
	assert.Contains(t, resp.Output, "Call us")

	w = doJSON(t, router, http.MethodPost, "/render", api.RenderRequest{Template: `{% flatblock "contact" soon %}`})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/render", api.RenderRequest{Template: `{% plain_flatblock undefined_var %}`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_JWTAuth(t *testing.T) {
	env := setupTestEnv(t)
	auth := api.NewJWTAuth("test-secret")
	router := env.router(api.WithAuth(auth))

	w := doJSON(t, router, http.MethodGet, "/flatblocks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, token, err := auth.Encode(map[string]interface{}{"sub": "editor"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/flatblocks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPageHandler(t *testing.T) {
	env := setupTestEnv(t)
	pages := api.NewPageHandler(env.engine, env.pages, false)
	router := pages.Routes()

	req := httptest.NewRequest(http.MethodGet, "/index.html?slug=contact", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>Call us</p><p>Call us</p>", w.Body.String())

	// Compiled pages are cached until invalidated.
	require.NoError(t, env.pages.PutTemplate(context.Background(), "index.html", []byte("changed")))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/index.html?slug=contact", nil))
	assert.Equal(t, "<p>Call us</p><p>Call us</p>", w.Body.String())

	pages.Invalidate("index.html")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, "changed", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken.html", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A missing wrapper template is a server fault, not a missing page.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wrapped.html", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMiddleware_RequestID(t *testing.T) {
	var seen string
	h := api.RequestIDMiddleware(api.LoggingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = api.RequestID(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestMiddleware_Recovery(t *testing.T) {
	h := api.RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
