package engine

import (
	"strings"
	"unicode"
)

// SplitContents splits a directive body on whitespace while keeping quoted
// strings together. Quotes are preserved in the returned tokens, and a quote
// may start in the middle of a token (for example key="a b"). A backslash
// escapes the next character inside a quoted section.
func SplitContents(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		escaped bool
		inToken bool
	)

	for _, ch := range s {
		switch {
		case quote != 0:
			current.WriteRune(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inToken = true
			current.WriteRune(ch)
		case unicode.IsSpace(ch):
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			inToken = true
			current.WriteRune(ch)
		}
	}

	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens
}
