// Package fixtures imports and exports flatblocks as YAML or JSON documents.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/admin"
)

// Format is a fixture encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat indicates a fixture format other than YAML or JSON
var ErrUnsupportedFormat = errors.New("unsupported fixture format")

// Block is the portable representation of a flatblock.
type Block struct {
	Slug    string `json:"slug" yaml:"slug"`
	Header  string `json:"header,omitempty" yaml:"header,omitempty"`
	Content string `json:"content" yaml:"content"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Decode reads a list of blocks.
func Decode(r io.Reader, format Format) ([]Block, error) {
	var blocks []Block
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&blocks); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml fixtures: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&blocks); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode json fixtures: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return blocks, nil
}

// Encode writes a list of blocks.
func Encode(w io.Writer, format Format, blocks []Block) error {
	if blocks == nil {
		blocks = []Block{}
	}
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(blocks)
		if err != nil {
			return fmt.Errorf("failed to encode yaml fixtures: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(blocks); err != nil {
			return fmt.Errorf("failed to encode json fixtures: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ImportResult counts the blocks written by Import.
type ImportResult struct {
	Created int
	Updated int
}

// Import upserts every block by slug. It stops at the first failure;
// blocks before it stay written.
func Import(ctx context.Context, svc admin.Service, blocks []Block) (ImportResult, error) {
	var result ImportResult
	for _, b := range blocks {
		header, content := b.Header, b.Content
		_, err := svc.Update(ctx, b.Slug, admin.UpdateRequest{Header: &header, Content: &content})
		if err == nil {
			result.Updated++
			continue
		}
		if !errors.Is(err, flatblocks.ErrFlatBlockNotFound) {
			return result, err
		}

		if _, err := svc.Create(ctx, admin.CreateRequest{Slug: b.Slug, Header: b.Header, Content: b.Content}); err != nil {
			return result, err
		}
		result.Created++
	}
	return result, nil
}

// Export returns every block ordered by slug.
func Export(ctx context.Context, svc admin.Service) ([]Block, error) {
	var blocks []Block
	offset := 0
	for {
		page, err := svc.List(ctx, admin.ListRequest{Limit: admin.MaxLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, fb := range page.FlatBlocks {
			blocks = append(blocks, Block{Slug: fb.Slug, Header: fb.Header, Content: fb.Content})
		}
		offset += len(page.FlatBlocks)
		if len(page.FlatBlocks) == 0 || int64(offset) >= page.Total {
			return blocks, nil
		}
	}
}
