package engine

import (
	"context"
	"io"

	"github.com/valyala/fasttemplate"
)

// Template is a compiled page. It is immutable and may be rendered
// concurrently.
type Template struct {
	name  string
	tpl   *fasttemplate.Template
	nodes map[string]Node
}

// Name returns the name the template was compiled with.
func (t *Template) Name() string {
	return t.name
}

// Render executes every directive against vars and returns the page text.
// The first node error aborts the render and is returned unchanged.
func (t *Template) Render(ctx context.Context, vars Context) (string, error) {
	if vars == nil {
		vars = Context{}
	}
	return t.tpl.ExecuteFuncStringWithErr(func(w io.Writer, raw string) (int, error) {
		out, err := t.nodes[raw].Render(ctx, vars)
		if err != nil {
			return 0, err
		}
		return io.WriteString(w, out)
	})
}
