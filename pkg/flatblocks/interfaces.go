package flatblocks

import (
	"context"
	"time"
)

// ContentStore is the read side used at render time.
type ContentStore interface {
	// GetFlatBlockBySlug returns ErrFlatBlockNotFound (possibly wrapped)
	// when the slug does not exist.
	GetFlatBlockBySlug(ctx context.Context, slug string) (*FlatBlock, error)
}

// Repository is the full persistence interface used by the admin surface.
type Repository interface {
	ContentStore

	CreateFlatBlock(ctx context.Context, block *FlatBlock) error
	UpdateFlatBlock(ctx context.Context, block *FlatBlock) error
	DeleteFlatBlock(ctx context.Context, slug string) error
	ListFlatBlocks(ctx context.Context, params ListParams) ([]*FlatBlock, error)
	CountFlatBlocks(ctx context.Context, params ListParams) (int64, error)
}

// Cache stores resolved blocks with a per-entry lifetime. Implementations
// must be safe for concurrent use and must not retain the pointer passed to
// Set or hand out shared pointers from Get.
type Cache interface {
	// Get returns (block, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) (*FlatBlock, bool, error)

	// Set stores block under key. A ttl <= 0 stores an entry that is
	// already expired; callers must not expect it to be served later.
	Set(ctx context.Context, key string, block *FlatBlock, ttl time.Duration) error
}

// TemplateRenderer renders a named wrapper template with data.
type TemplateRenderer interface {
	RenderTemplate(ctx context.Context, name string, data map[string]any) (string, error)
}
