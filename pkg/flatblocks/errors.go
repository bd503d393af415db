package flatblocks

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrFlatBlockNotFound indicates no block exists for a slug
	ErrFlatBlockNotFound = errors.New("flatblock not found")

	// ErrFlatBlockExists indicates a block with the same slug already exists
	ErrFlatBlockExists = errors.New("flatblock already exists")

	// ErrInvalidSlug indicates a slug that is empty, too long or has invalid characters
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrInvalidHeader indicates a header that is too long
	ErrInvalidHeader = errors.New("invalid header")

	// ErrInvalidContent indicates blank content where content is required
	ErrInvalidContent = errors.New("invalid content")

	// ErrNoTemplateRenderer indicates a wrapped block was rendered without a TemplateRenderer
	ErrNoTemplateRenderer = errors.New("no template renderer configured")
)

// TimeoutError reports a cache timeout argument that is not a base-10 integer.
type TimeoutError struct {
	Tag   string
	Value string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%q tag: invalid timeout %q: %v", e.Tag, e.Value, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// FlatBlockError represents a failure while fetching or rendering a block
type FlatBlockError struct {
	Slug string
	Op   string
	Err  error
}

func (e *FlatBlockError) Error() string {
	return fmt.Sprintf("flatblock operation %s failed for slug %q: %v", e.Op, e.Slug, e.Err)
}

func (e *FlatBlockError) Unwrap() error {
	return e.Err
}
