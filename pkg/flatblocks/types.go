package flatblocks

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// TagFlatBlock renders a block through a wrapper template.
	TagFlatBlock = "flatblock"
	// TagPlainFlatBlock renders the raw block content.
	TagPlainFlatBlock = "plain_flatblock"

	// DefaultTemplate is the wrapper template used when no "using" clause is given.
	DefaultTemplate = "flatblocks/flatblock.html"
	// DefaultCachePrefix namespaces cache keys.
	DefaultCachePrefix = "flatblocks_"
	// ContextKey is the name the resolved block is bound to in wrapper templates.
	ContextKey = "flatblock"

	// MaxSlugLength and MaxHeaderLength bound the stored fields.
	MaxSlugLength   = 255
	MaxHeaderLength = 255
)

// FlatBlock is a single editable piece of content identified by its slug.
type FlatBlock struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Header    string    `json:"header"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref is a directive argument that is either a literal or the name of a
// variable in the render context.
type Ref struct {
	Value    string
	Variable bool
}

// Literal returns a literal Ref.
func Literal(v string) Ref {
	return Ref{Value: v}
}

// Variable returns a Ref resolved from the render context.
func Variable(name string) Ref {
	return Ref{Value: name, Variable: true}
}

// BlockRequest is the parsed form of one directive. It is never modified
// after parsing.
type BlockRequest struct {
	Tag      string
	Slug     Ref
	Timeout  int
	Template Ref
	Wrap     bool
}

// maxTimeout is the largest timeout in seconds a time.Duration can hold.
const maxTimeout = math.MaxInt64 / int64(time.Second)

// TTL returns the cache lifetime of the request. Timeouts too large for a
// time.Duration are clamped to the longest representable lifetime.
func (r BlockRequest) TTL() time.Duration {
	if int64(r.Timeout) > maxTimeout {
		return math.MaxInt64
	}
	return time.Duration(r.Timeout) * time.Second
}

// ListParams filters and pages repository listings. Results are always
// ordered by slug.
type ListParams struct {
	// Search is split on whitespace; every term must match the slug, header
	// or content case-insensitively.
	Search string
	// Limit of 0 means no limit.
	Limit  int
	Offset int
}
