package flatblocks

import (
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateSlug checks that a slug is non-empty, at most MaxSlugLength long
// and only contains letters, digits, hyphens and underscores.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidSlug)
	}
	if len(slug) > MaxSlugLength {
		return fmt.Errorf("%w: slug longer than %d characters", ErrInvalidSlug, MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q may only contain letters, numbers, underscores or hyphens", ErrInvalidSlug, slug)
	}
	return nil
}

// NormalizeHeader trims the header and checks its length.
func NormalizeHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if len(header) > MaxHeaderLength {
		return "", fmt.Errorf("%w: header longer than %d characters", ErrInvalidHeader, MaxHeaderLength)
	}
	return header, nil
}

// SearchTerms splits an admin search query into lowercase terms.
func SearchTerms(query string) []string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// MatchesSearch reports whether every term occurs in the block's slug,
// header or content, ignoring case.
func MatchesSearch(block *FlatBlock, terms []string) bool {
	slug := strings.ToLower(block.Slug)
	header := strings.ToLower(block.Header)
	content := strings.ToLower(block.Content)
	for _, term := range terms {
		if !strings.Contains(slug, term) && !strings.Contains(header, term) && !strings.Contains(content, term) {
			return false
		}
	}
	return true
}
