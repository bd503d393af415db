package flatblocks

import (
	"fmt"
	"strconv"

	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
)

const usingKeyword = "using"

// ParseBlockRequest turns the tokens of a flatblock directive into a
// BlockRequest. tokens[0] is the tag name and tokens[1] the slug; the
// remaining tokens follow one of these patterns:
//
//	(none)                     default timeout, default template
//	<timeout>                  cache for timeout seconds
//	using <template>           custom template, no caching
//	<timeout> using <template> both
//
// With wrap set to false (the plain form) only the first two patterns are
// accepted. The store is never consulted here.
func ParseBlockRequest(tokens []string, wrap bool) (BlockRequest, error) {
	if len(tokens) == 0 {
		return BlockRequest{}, &engine.SyntaxError{Msg: "empty directive"}
	}

	tag := tokens[0]
	if len(tokens) < 2 || len(tokens) > 5 {
		return BlockRequest{}, &engine.SyntaxError{Tag: tag, Msg: "tag should have between 1 and 4 arguments"}
	}

	req := BlockRequest{
		Tag:      tag,
		Slug:     parseRef(tokens[1]),
		Template: Literal(DefaultTemplate),
		Wrap:     wrap,
	}

	var timeoutToken string
	var tplToken string
	args := tokens[2:]
	switch len(args) {
	case 0:
	case 1:
		timeoutToken = args[0]
	case 2:
		if err := expectUsing(tag, args[0]); err != nil {
			return BlockRequest{}, err
		}
		tplToken = args[1]
	case 3:
		if err := expectUsing(tag, args[1]); err != nil {
			return BlockRequest{}, err
		}
		timeoutToken = args[0]
		tplToken = args[2]
	}

	if tplToken != "" {
		if !wrap {
			return BlockRequest{}, &engine.SyntaxError{Tag: tag, Msg: "tag does not accept a template; use \"" + TagFlatBlock + "\" instead"}
		}
		req.Template = parseRef(tplToken)
	}

	if timeoutToken != "" {
		timeout, err := strconv.Atoi(timeoutToken)
		if err != nil {
			return BlockRequest{}, &TimeoutError{Tag: tag, Value: timeoutToken, Err: err}
		}
		req.Timeout = timeout
	}

	return req, nil
}

func expectUsing(tag, token string) error {
	if token != usingKeyword {
		return &engine.SyntaxError{Tag: tag, Msg: fmt.Sprintf("expected %q before the template name, got %q", usingKeyword, token)}
	}
	return nil
}

// parseRef strips one matching pair of outer quotes from a literal token;
// any other token is a variable reference.
func parseRef(token string) Ref {
	if isQuoted(token) {
		return Literal(token[1 : len(token)-1])
	}
	return Variable(token)
}

func isQuoted(token string) bool {
	if len(token) < 2 {
		return false
	}
	first, last := token[0], token[len(token)-1]
	return first == last && (first == '"' || first == '\'')
}
