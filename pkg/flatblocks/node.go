package flatblocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
)

// Node renders one flatblock directive. It is built once at compile time
// and shared by every render of the page.
type Node struct {
	req BlockRequest
	lib *Library
}

var _ engine.Node = (*Node)(nil)

// Request returns the parsed directive.
func (n *Node) Request() BlockRequest {
	return n.req
}

// Render resolves the slug (and template) against vars, fetches the block
// through the cache and produces the output. A missing block renders as "".
func (n *Node) Render(ctx context.Context, vars engine.Context) (string, error) {
	slug, err := resolveRef(n.req.Slug, vars)
	if err != nil {
		return "", err
	}

	var tplName string
	if n.req.Wrap {
		if tplName, err = resolveRef(n.req.Template, vars); err != nil {
			return "", err
		}
	}

	block, err := n.lib.Lookup(ctx, slug, n.req.TTL())
	if errors.Is(err, ErrFlatBlockNotFound) {
		n.lib.logger.Debug("flatblock not found", "slug", slug, "tag", n.req.Tag)
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if !n.req.Wrap {
		return block.Content, nil
	}

	if n.lib.templates == nil {
		return "", &FlatBlockError{Slug: slug, Op: "render", Err: ErrNoTemplateRenderer}
	}

	data := vars.Copy()
	data[ContextKey] = block
	out, err := n.lib.templates.RenderTemplate(ctx, tplName, data)
	if err != nil {
		return "", &FlatBlockError{Slug: slug, Op: "render " + tplName, Err: err}
	}
	return out, nil
}

func resolveRef(ref Ref, vars engine.Context) (string, error) {
	if !ref.Variable {
		return ref.Value, nil
	}

	v, err := vars.Resolve(ref.Value)
	if err != nil {
		return "", err
	}

	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	case nil:
		return "", &engine.VariableError{Name: ref.Value, Err: errors.New("resolved to nil")}
	default:
		return fmt.Sprint(s), nil
	}
}
