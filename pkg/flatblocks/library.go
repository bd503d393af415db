package flatblocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
)

// Library holds the collaborators shared by every compiled flatblock node.
type Library struct {
	store       ContentStore
	cache       Cache
	templates   TemplateRenderer
	cachePrefix string
	logger      *slog.Logger
}

// Option represents a functional option for configuring the library
type Option func(*Library)

// WithStore sets the content store blocks are read from
func WithStore(store ContentStore) Option {
	return func(l *Library) {
		l.store = store
	}
}

// WithCache sets the cache fronting the store
func WithCache(cache Cache) Option {
	return func(l *Library) {
		l.cache = cache
	}
}

// WithTemplates sets the renderer used for wrapper templates
func WithTemplates(renderer TemplateRenderer) Option {
	return func(l *Library) {
		l.templates = renderer
	}
}

// WithCachePrefix sets the prefix prepended to every cache key
func WithCachePrefix(prefix string) Option {
	return func(l *Library) {
		l.cachePrefix = prefix
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a library. A store is required; the cache defaults to
// NoopCache and the prefix to DefaultCachePrefix.
func New(options ...Option) (*Library, error) {
	l := &Library{
		cachePrefix: DefaultCachePrefix,
		logger:      slog.Default(),
	}

	for _, option := range options {
		option(l)
	}

	if l.store == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if l.cache == nil {
		l.cache = NewNoopCache()
	}

	return l, nil
}

// Register adds the flatblock and plain_flatblock tags to lib.
func (l *Library) Register(lib *engine.Library) {
	lib.Register(TagFlatBlock, l.CompileFlatBlock)
	lib.Register(TagPlainFlatBlock, l.CompilePlainFlatBlock)
}

// CompileFlatBlock compiles a flatblock directive that renders through a
// wrapper template.
func (l *Library) CompileFlatBlock(tokens []string) (engine.Node, error) {
	return l.compile(tokens, true)
}

// CompilePlainFlatBlock compiles a plain_flatblock directive that emits the
// raw content.
func (l *Library) CompilePlainFlatBlock(tokens []string) (engine.Node, error) {
	return l.compile(tokens, false)
}

func (l *Library) compile(tokens []string, wrap bool) (engine.Node, error) {
	req, err := ParseBlockRequest(tokens, wrap)
	if err != nil {
		return nil, err
	}
	return &Node{req: req, lib: l}, nil
}

// CacheKey returns the namespaced cache key for slug.
func (l *Library) CacheKey(slug string) string {
	return l.cachePrefix + slug
}

// Lookup returns the block for slug, serving it from the cache when
// possible and populating the cache with ttl on a miss. Not-found results
// are returned as ErrFlatBlockNotFound and are never cached.
func (l *Library) Lookup(ctx context.Context, slug string, ttl time.Duration) (*FlatBlock, error) {
	key := l.CacheKey(slug)

	block, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		return nil, &FlatBlockError{Slug: slug, Op: "cache get", Err: err}
	}
	if ok {
		return block, nil
	}

	block, err = l.store.GetFlatBlockBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrFlatBlockNotFound) {
			return nil, err
		}
		return nil, &FlatBlockError{Slug: slug, Op: "get", Err: err}
	}

	if err := l.cache.Set(ctx, key, block, ttl); err != nil {
		return nil, &FlatBlockError{Slug: slug, Op: "cache set", Err: err}
	}
	l.logger.Debug("flatblock cached", "slug", slug, "key", key, "ttl", ttl)

	return block, nil
}
