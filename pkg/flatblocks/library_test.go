package flatblocks_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
	cachememory "github.com/tendant/simple-flatblocks/pkg/flatblocks/cache/memory"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/repo/memory"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
	tplmemory "github.com/tendant/simple-flatblocks/pkg/flatblocks/templates/memory"
)

// countingStore records how often the backing repository is queried.
type countingStore struct {
	flatblocks.Repository
	gets int32
	err  error
}

func (s *countingStore) GetFlatBlockBySlug(ctx context.Context, slug string) (*flatblocks.FlatBlock, error) {
	atomic.AddInt32(&s.gets, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.Repository.GetFlatBlockBySlug(ctx, slug)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	repo   flatblocks.Repository
	store  *countingStore
	clock  *clock
	tpls   *tplmemory.Source
	engine *engine.Library
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.New()
	store := &countingStore{Repository: repo}
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache, err := cachememory.New(cachememory.Config{Now: clk.Now})
	require.NoError(t, err)

	tpls := tplmemory.New(map[string]string{
		"custom.html": `[{{ .flatblock.Header }}|{{ .flatblock.Content }}|{{ .page_title }}]`,
		"other.html":  `other:{{ .flatblock.Slug }}`,
	})

	lib, err := flatblocks.New(
		flatblocks.WithStore(store),
		flatblocks.WithCache(cache),
		flatblocks.WithTemplates(templates.New(templates.Chain{tpls, templates.Defaults()})),
	)
	require.NoError(t, err)

	eng := engine.NewLibrary()
	lib.Register(eng)

	return &fixture{repo: repo, store: store, clock: clk, tpls: tpls, engine: eng}
}

func (f *fixture) create(t *testing.T, slug, header, content string) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.repo.CreateFlatBlock(context.Background(), &flatblocks.FlatBlock{
		ID: uuid.New(), Slug: slug, Header: header, Content: content, CreatedAt: now, UpdatedAt: now,
	}))
}

func (f *fixture) update(t *testing.T, slug, content string) {
	t.Helper()
	block, err := f.repo.GetFlatBlockBySlug(context.Background(), slug)
	require.NoError(t, err)
	block.Content = content
	require.NoError(t, f.repo.UpdateFlatBlock(context.Background(), block))
}

func (f *fixture) render(t *testing.T, src string, vars engine.Context) string {
	t.Helper()
	tpl, err := f.engine.Compile("test.html", src)
	require.NoError(t, err)
	out, err := tpl.Render(context.Background(), vars)
	require.NoError(t, err)
	return out
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := flatblocks.New()
	assert.Error(t, err)
}

func TestRender_PlainRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "Contact", "Call us")

	assert.Equal(t, "Call us", f.render(t, `{% plain_flatblock "contact_help" %}`, nil))
}

func TestRender_MissingSlugIsEmpty(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "", f.render(t, `{% flatblock "no_such_slug" %}`, nil))
	assert.Equal(t, "a--b", f.render(t, `a-{% plain_flatblock "no_such_slug" 60 %}-b`, nil))

	// not-found results are not cached
	f.create(t, "no_such_slug", "", "now here")
	assert.Equal(t, "now here", f.render(t, `{% plain_flatblock "no_such_slug" 60 %}`, nil))
}

func TestRender_DefaultWrapper(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "Contact", "<p>Call us</p>")

	out := f.render(t, `{% flatblock "contact_help" %}`, nil)
	assert.Contains(t, out, `class="flatblock block-contact_help"`)
	assert.Contains(t, out, `<h2 class="title">Contact</h2>`)
	assert.Contains(t, out, `<p>Call us</p>`)
}

func TestRender_CustomTemplateSeesRecordAndContext(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "Contact", "Call us")

	out := f.render(t, `{% flatblock "contact_help" using "custom.html" %}`, engine.Context{"page_title": "Home"})
	assert.Equal(t, "[Contact|Call us|Home]", out)
}

func TestRender_VariableSlugAndTemplate(t *testing.T) {
	f := newFixture(t)
	f.create(t, "sidebar", "", "side")
	f.create(t, "footer", "", "foot")

	src := `{% flatblock page.block 10 using tpl %}`
	assert.Equal(t, "other:sidebar", f.render(t, src, engine.Context{
		"page": map[string]any{"block": "sidebar"},
		"tpl":  "other.html",
	}))
	assert.Equal(t, "other:footer", f.render(t, src, engine.Context{
		"page": map[string]any{"block": "footer"},
		"tpl":  "other.html",
	}))
}

func TestRender_VariableContextIsNotModified(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "", "x")

	vars := engine.Context{"page_title": "Home"}
	f.render(t, `{% flatblock "contact_help" using "custom.html" %}`, vars)
	assert.NotContains(t, vars, flatblocks.ContextKey)
}

func TestRender_UndefinedVariablePropagates(t *testing.T) {
	f := newFixture(t)
	tpl, err := f.engine.Compile("test.html", `{% flatblock missing_var %}`)
	require.NoError(t, err)

	_, err = tpl.Render(context.Background(), engine.Context{})
	assert.ErrorIs(t, err, engine.ErrVariableDoesNotExist)

	tpl, err = f.engine.Compile("test.html", `{% flatblock "x" using missing_tpl %}`)
	require.NoError(t, err)
	_, err = tpl.Render(context.Background(), engine.Context{})
	assert.ErrorIs(t, err, engine.ErrVariableDoesNotExist)

	tpl, err = f.engine.Compile("test.html", `{% plain_flatblock slug %}`)
	require.NoError(t, err)
	_, err = tpl.Render(context.Background(), engine.Context{"slug": nil})
	var varErr *engine.VariableError
	assert.ErrorAs(t, err, &varErr)
}

func TestRender_IdempotentAndServedFromCache(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "Contact", "Call us")

	tpl, err := f.engine.Compile("test.html", `{% flatblock "contact_help" 60 %}`)
	require.NoError(t, err)

	first, err := tpl.Render(context.Background(), nil)
	require.NoError(t, err)
	second, err := tpl.Render(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.store.gets))
}

func TestRender_HugeTimeoutIsCached(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "", "v1")

	src := `{% plain_flatblock "contact_help" 10000000000 %}`
	assert.Equal(t, "v1", f.render(t, src, nil))
	f.update(t, "contact_help", "v2")
	assert.Equal(t, "v1", f.render(t, src, nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.store.gets))
}

func TestRender_ZeroTimeoutAlwaysHitsStore(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "", "v1")

	src := `{% plain_flatblock "contact_help" %}`
	assert.Equal(t, "v1", f.render(t, src, nil))
	f.update(t, "contact_help", "v2")
	assert.Equal(t, "v2", f.render(t, src, nil))
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.store.gets))
}

func TestRender_CacheExpiry(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "Contact", "Call us")

	src := `{% flatblock "contact_help" 5 using "custom.html" %}`
	vars := engine.Context{"page_title": "Home"}
	assert.Equal(t, "[Contact|Call us|Home]", f.render(t, src, vars))

	f.update(t, "contact_help", "Email us")
	f.clock.Advance(4 * time.Second)
	assert.Equal(t, "[Contact|Call us|Home]", f.render(t, src, vars))

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, "[Contact|Email us|Home]", f.render(t, src, vars))
}

func TestRender_DeletedBlockRendersEmptyAfterExpiry(t *testing.T) {
	f := newFixture(t)
	f.create(t, "promo", "", "Sale")

	src := `{% plain_flatblock "promo" 5 %}`
	assert.Equal(t, "Sale", f.render(t, src, nil))

	require.NoError(t, f.repo.DeleteFlatBlock(context.Background(), "promo"))
	assert.Equal(t, "Sale", f.render(t, src, nil))

	f.clock.Advance(5 * time.Second)
	assert.Equal(t, "", f.render(t, src, nil))
}

func TestRender_StoreErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection refused")
	f.store.err = boom

	tpl, err := f.engine.Compile("test.html", `{% flatblock "contact_help" %}`)
	require.NoError(t, err)

	_, err = tpl.Render(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	var fbErr *flatblocks.FlatBlockError
	require.ErrorAs(t, err, &fbErr)
	assert.Equal(t, "contact_help", fbErr.Slug)
}

func TestRender_TemplateErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.create(t, "contact_help", "", "x")

	tpl, err := f.engine.Compile("test.html", `{% flatblock "contact_help" using "nope.html" %}`)
	require.NoError(t, err)

	_, err = tpl.Render(context.Background(), nil)
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
}

func TestRender_WithoutTemplateRenderer(t *testing.T) {
	repo := memory.New()
	require.NoError(t, repo.CreateFlatBlock(context.Background(), &flatblocks.FlatBlock{Slug: "a", Content: "raw"}))
	lib, err := flatblocks.New(flatblocks.WithStore(repo))
	require.NoError(t, err)
	eng := engine.NewLibrary()
	lib.Register(eng)

	tpl, err := eng.Compile("t", `{% plain_flatblock "a" %}|{% flatblock "a" %}`)
	require.NoError(t, err)
	_, err = tpl.Render(context.Background(), nil)
	assert.ErrorIs(t, err, flatblocks.ErrNoTemplateRenderer)
}

func TestCompile_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Compile("test.html", `{% flatblock %}`)
	var syntaxErr *engine.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)

	_, err = f.engine.Compile("test.html", `{% flatblock "a" later %}`)
	var timeoutErr *flatblocks.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)

	_, err = f.engine.Compile("test.html", `{% plain_flatblock "a" using "b.html" %}`)
	assert.ErrorAs(t, err, &syntaxErr)

	// compiling never touches the store
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.store.gets))
}

func TestLibrary_CachePrefix(t *testing.T) {
	lib, err := flatblocks.New(flatblocks.WithStore(memory.New()), flatblocks.WithCachePrefix("site1:"))
	require.NoError(t, err)
	assert.Equal(t, "site1:contact_help", lib.CacheKey("contact_help"))

	lib, err = flatblocks.New(flatblocks.WithStore(memory.New()))
	require.NoError(t, err)
	assert.Equal(t, "flatblocks_contact_help", lib.CacheKey("contact_help"))
}

func TestCompileFlatBlock_ExposesRequest(t *testing.T) {
	f := newFixture(t)
	lib, err := flatblocks.New(flatblocks.WithStore(f.repo))
	require.NoError(t, err)

	node, err := lib.CompileFlatBlock([]string{"flatblock", `"a"`, "7"})
	require.NoError(t, err)
	req := node.(*flatblocks.Node).Request()
	assert.Equal(t, 7, req.Timeout)
	assert.True(t, req.Wrap)

	node, err = lib.CompilePlainFlatBlock([]string{"plain_flatblock", `"a"`})
	require.NoError(t, err)
	assert.False(t, node.(*flatblocks.Node).Request().Wrap)
}
