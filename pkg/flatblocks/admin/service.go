package admin

import (
	"context"
	"log/slog"

	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
)

// Service defines the administrative operations on flatblocks.
//
// Endpoints using this service should be protected with authentication
// middleware; it performs no authorization of its own.
type Service interface {
	// List returns a page of blocks ordered by slug. Search terms are split
	// on whitespace and every term must match slug, header or content.
	List(ctx context.Context, req ListRequest) (*ListResponse, error)

	// Count returns the number of blocks matching the search.
	Count(ctx context.Context, search string) (int64, error)

	Get(ctx context.Context, slug string) (*flatblocks.FlatBlock, error)

	// Create validates and stores a new block.
	Create(ctx context.Context, req CreateRequest) (*flatblocks.FlatBlock, error)

	// Update changes header and/or content. The slug cannot be changed.
	Update(ctx context.Context, slug string, req UpdateRequest) (*flatblocks.FlatBlock, error)

	Delete(ctx context.Context, slug string) error

	// Form describes the edit form for admin UIs.
	Form() Form
}

// Option configures the admin service
type Option func(*service)

// WithRichTextEditor switches the content field to a rich-text widget
func WithRichTextEditor(enabled bool) Option {
	return func(s *service) {
		s.richText = enabled
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new admin Service backed by repo.
func New(repo flatblocks.Repository, opts ...Option) Service {
	s := &service{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
