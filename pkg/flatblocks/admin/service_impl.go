package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
)

type service struct {
	repo     flatblocks.Repository
	richText bool
	logger   *slog.Logger
}

func (s *service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	params := flatblocks.ListParams{Search: req.Search, Limit: limit, Offset: offset}

	blocks, err := s.repo.ListFlatBlocks(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list flatblocks: %w", err)
	}

	total, err := s.repo.CountFlatBlocks(ctx, flatblocks.ListParams{Search: req.Search})
	if err != nil {
		return nil, fmt.Errorf("failed to count flatblocks: %w", err)
	}

	return &ListResponse{
		FlatBlocks: blocks,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

func (s *service) Count(ctx context.Context, search string) (int64, error) {
	total, err := s.repo.CountFlatBlocks(ctx, flatblocks.ListParams{Search: search})
	if err != nil {
		return 0, fmt.Errorf("failed to count flatblocks: %w", err)
	}
	return total, nil
}

func (s *service) Get(ctx context.Context, slug string) (*flatblocks.FlatBlock, error) {
	block, err := s.repo.GetFlatBlockBySlug(ctx, slug)
	if err != nil {
		return nil, &flatblocks.FlatBlockError{Slug: slug, Op: "get", Err: err}
	}
	return block, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*flatblocks.FlatBlock, error) {
	if err := flatblocks.ValidateSlug(req.Slug); err != nil {
		return nil, err
	}
	header, err := flatblocks.NormalizeHeader(req.Header)
	if err != nil {
		return nil, err
	}
	if err := s.validateContent(req.Content); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	block := &flatblocks.FlatBlock{
		ID:        uuid.New(),
		Slug:      req.Slug,
		Header:    header,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateFlatBlock(ctx, block); err != nil {
		return nil, &flatblocks.FlatBlockError{Slug: req.Slug, Op: "create", Err: err}
	}

	s.logger.InfoContext(ctx, "flatblock created", "slug", block.Slug, "id", block.ID)
	return block, nil
}

func (s *service) Update(ctx context.Context, slug string, req UpdateRequest) (*flatblocks.FlatBlock, error) {
	block, err := s.repo.GetFlatBlockBySlug(ctx, slug)
	if err != nil {
		return nil, &flatblocks.FlatBlockError{Slug: slug, Op: "update", Err: err}
	}

	if req.Header != nil {
		header, err := flatblocks.NormalizeHeader(*req.Header)
		if err != nil {
			return nil, err
		}
		block.Header = header
	}
	if req.Content != nil {
		if err := s.validateContent(*req.Content); err != nil {
			return nil, err
		}
		block.Content = *req.Content
	}
	block.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateFlatBlock(ctx, block); err != nil {
		return nil, &flatblocks.FlatBlockError{Slug: slug, Op: "update", Err: err}
	}

	s.logger.InfoContext(ctx, "flatblock updated", "slug", slug)
	return block, nil
}

// validateContent enforces the content field's Required flag from Form.
func (s *service) validateContent(content string) error {
	if !s.richText && strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", flatblocks.ErrInvalidContent)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteFlatBlock(ctx, slug); err != nil {
		if errors.Is(err, flatblocks.ErrFlatBlockNotFound) {
			s.logger.DebugContext(ctx, "delete of missing flatblock", "slug", slug)
		}
		return &flatblocks.FlatBlockError{Slug: slug, Op: "delete", Err: err}
	}

	s.logger.InfoContext(ctx, "flatblock deleted", "slug", slug)
	return nil
}

func (s *service) Form() Form {
	content := FormField{
		Name:     "content",
		Label:    "Content",
		Widget:   WidgetTextarea,
		Required: true,
	}
	if s.richText {
		// Rich-text editors submit empty markup for blank bodies.
		content.Widget = WidgetRichText
		content.Required = false
	}

	return Form{
		Fields: []FormField{
			{
				Name:      "slug",
				Label:     "Slug",
				Widget:    WidgetText,
				Required:  true,
				MaxLength: flatblocks.MaxSlugLength,
				HelpText:  "A unique name used for reference in the templates",
			},
			{
				Name:      "header",
				Label:     "Header",
				Widget:    WidgetText,
				MaxLength: flatblocks.MaxHeaderLength,
				HelpText:  "An optional header for this content",
			},
			content,
		},
		ListDisplay:  []string{"slug", "header", "content"},
		SearchFields: []string{"slug", "header", "content"},
		Ordering:     []string{"slug"},
	}
}
