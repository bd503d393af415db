package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
)

// Source is an in-memory implementation of templates.Store
type Source struct {
	mu        sync.RWMutex
	templates map[string][]byte
}

// New creates an in-memory template source seeded with initial
func New(initial map[string]string) *Source {
	s := &Source{templates: make(map[string][]byte, len(initial))}
	for name, text := range initial {
		s.templates[name] = []byte(text)
	}
	return s
}

var _ templates.Store = (*Source)(nil)

// ReadTemplate returns a copy of the stored template text
func (s *Source) ReadTemplate(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.templates[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", templates.ErrTemplateNotFound, name)
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	return dataCopy, nil
}

// PutTemplate stores template text under name
func (s *Source) PutTemplate(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	s.templates[name] = dataCopy
	return nil
}
