// Package templates renders flatblock wrapper templates with html/template.
//
// Template text comes from a Source. The default wrapper
// (flatblocks/flatblock.html) is embedded and available through Defaults;
// Chain lets a site directory, a memory map or an S3 bucket override it.
package templates

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

// ErrTemplateNotFound indicates that no source has the requested template
var ErrTemplateNotFound = errors.New("template not found")

// Source loads raw template text by name.
type Source interface {
	// ReadTemplate returns ErrTemplateNotFound (possibly wrapped) when the
	// name is unknown.
	ReadTemplate(ctx context.Context, name string) ([]byte, error)
}

//go:embed defaults
var defaultsFS embed.FS

// Defaults returns the embedded templates shipped with flatblocks.
func Defaults() Source {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		// embed paths are fixed at build time
		panic(err)
	}
	return NewFSSource(sub)
}

// FSSource reads templates from an fs.FS.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a source backed by fsys
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// ReadTemplate reads name from the file system
func (s *FSSource) ReadTemplate(ctx context.Context, name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: invalid template name %q", ErrTemplateNotFound, name)
	}
	data, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return data, nil
}

// Chain tries each source in order and returns the first template found.
type Chain []Source

// ReadTemplate returns the template from the first source that has it
func (c Chain) ReadTemplate(ctx context.Context, name string) ([]byte, error) {
	for _, source := range c {
		data, err := source.ReadTemplate(ctx, name)
		if errors.Is(err, ErrTemplateNotFound) {
			continue
		}
		return data, err
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// Store is a Source that also accepts new template text.
type Store interface {
	Source
	PutTemplate(ctx context.Context, name string, data []byte) error
}
