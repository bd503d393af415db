package admin

import "github.com/tendant/simple-flatblocks/pkg/flatblocks"

const (
	// DefaultLimit is used when a list request does not set a limit.
	DefaultLimit = 100
	// MaxLimit caps the page size.
	MaxLimit = 1000
)

// ListRequest contains parameters for listing flatblocks
type ListRequest struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ListResponse contains a page of flatblocks and the total match count
type ListResponse struct {
	FlatBlocks []*flatblocks.FlatBlock `json:"flatblocks"`
	Total      int64                   `json:"total"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
}

// CreateRequest contains parameters for creating a flatblock
type CreateRequest struct {
	Slug    string `json:"slug"`
	Header  string `json:"header,omitempty"`
	Content string `json:"content"`
}

// UpdateRequest contains the fields to change. Nil fields are left as-is.
type UpdateRequest struct {
	Header  *string `json:"header,omitempty"`
	Content *string `json:"content,omitempty"`
}
