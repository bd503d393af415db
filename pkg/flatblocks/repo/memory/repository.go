package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
)

// Repository implements flatblocks.Repository using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	blocks map[string]*flatblocks.FlatBlock // slug -> block
}

// New creates a new in-memory repository
func New() flatblocks.Repository {
	return &Repository{
		blocks: make(map[string]*flatblocks.FlatBlock),
	}
}

func (r *Repository) GetFlatBlockBySlug(ctx context.Context, slug string) (*flatblocks.FlatBlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	block, exists := r.blocks[slug]
	if !exists {
		return nil, flatblocks.ErrFlatBlockNotFound
	}

	// Return a copy to prevent external modifications
	blockCopy := *block
	return &blockCopy, nil
}

func (r *Repository) CreateFlatBlock(ctx context.Context, block *flatblocks.FlatBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blocks[block.Slug]; exists {
		return flatblocks.ErrFlatBlockExists
	}

	blockCopy := *block
	r.blocks[block.Slug] = &blockCopy
	return nil
}

func (r *Repository) UpdateFlatBlock(ctx context.Context, block *flatblocks.FlatBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.blocks[block.Slug]
	if !exists {
		return flatblocks.ErrFlatBlockNotFound
	}

	blockCopy := *block
	blockCopy.ID = existing.ID
	blockCopy.CreatedAt = existing.CreatedAt
	r.blocks[block.Slug] = &blockCopy
	return nil
}

func (r *Repository) DeleteFlatBlock(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blocks[slug]; !exists {
		return flatblocks.ErrFlatBlockNotFound
	}
	delete(r.blocks, slug)
	return nil
}

func (r *Repository) ListFlatBlocks(ctx context.Context, params flatblocks.ListParams) ([]*flatblocks.FlatBlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.filter(params)

	// Sort by slug ascending
	sort.Slice(result, func(i, j int) bool {
		return result[i].Slug < result[j].Slug
	})

	if params.Offset > 0 {
		if params.Offset >= len(result) {
			return []*flatblocks.FlatBlock{}, nil
		}
		result = result[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(result) {
		result = result[:params.Limit]
	}

	return result, nil
}

func (r *Repository) CountFlatBlocks(ctx context.Context, params flatblocks.ListParams) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.filter(params))), nil
}

// filter returns copies of the blocks matching params.Search. Callers hold the lock.
func (r *Repository) filter(params flatblocks.ListParams) []*flatblocks.FlatBlock {
	terms := flatblocks.SearchTerms(params.Search)
	result := make([]*flatblocks.FlatBlock, 0, len(r.blocks))
	for _, block := range r.blocks {
		if !flatblocks.MatchesSearch(block, terms) {
			continue
		}
		blockCopy := *block
		result = append(result, &blockCopy)
	}
	return result
}
