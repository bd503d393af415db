package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
)

// Source is a filesystem implementation of templates.Store
type Source struct {
	*templates.FSSource
	baseDir string
}

// Config options for the filesystem source
type Config struct {
	BaseDir string // Directory holding templates, e.g. ./templates
}

// New creates a filesystem template source rooted at config.BaseDir
func New(config Config) (*Source, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	info, err := os.Stat(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %s is not a directory", config.BaseDir)
	}

	return &Source{
		FSSource: templates.NewFSSource(os.DirFS(config.BaseDir)),
		baseDir:  config.BaseDir,
	}, nil
}

var _ templates.Store = (*Source)(nil)

// PutTemplate writes template text to baseDir/name, creating directories
// as needed
func (s *Source) PutTemplate(ctx context.Context, name string, data []byte) error {
	if !filepath.IsLocal(name) {
		return fmt.Errorf("invalid template name %q", name)
	}

	filePath := filepath.Join(s.baseDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}
