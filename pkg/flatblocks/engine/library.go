package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/valyala/fasttemplate"
)

const (
	// StartTag opens a directive.
	StartTag = "{%"
	// EndTag closes a directive.
	EndTag = "%}"
)

// Node is a compiled directive. Nodes are built once per directive
// occurrence and rendered many times, so they must not hold render state.
type Node interface {
	Render(ctx context.Context, vars Context) (string, error)
}

// TagFunc compiles the tokens of one directive into a Node. tokens[0] is
// the tag name.
type TagFunc func(tokens []string) (Node, error)

// Library is a registry of tags and the compiler for templates using them.
// All methods are safe for concurrent use.
type Library struct {
	mu     sync.RWMutex
	tags   map[string]TagFunc
	logger *slog.Logger
}

// Option configures a Library
type Option func(*Library)

// WithLogger sets the logger used for compile diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLibrary creates an empty tag library.
func NewLibrary(opts ...Option) *Library {
	l := &Library{
		tags:   make(map[string]TagFunc),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register binds a tag name to its compiler, replacing any previous one.
func (l *Library) Register(name string, fn TagFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tags[name] = fn
}

// Tags returns the registered tag names in sorted order.
func (l *Library) Tags() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.tags))
	for name := range l.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Library) tag(name string) (TagFunc, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.tags[name]
	return fn, ok
}

// Compile parses src and compiles every directive in it. The name is only
// used in error messages.
func (l *Library) Compile(name, src string) (*Template, error) {
	tpl, err := fasttemplate.NewTemplate(src, StartTag, EndTag)
	if err != nil {
		return nil, &CompileError{Template: name, Err: &SyntaxError{Msg: err.Error()}}
	}

	nodes := make(map[string]Node)
	_, err = tpl.ExecuteFuncStringWithErr(func(_ io.Writer, raw string) (int, error) {
		if _, seen := nodes[raw]; seen {
			return 0, nil
		}
		node, err := l.compileDirective(raw)
		if err != nil {
			return 0, &CompileError{Template: name, Directive: strings.TrimSpace(raw), Err: err}
		}
		nodes[raw] = node
		return 0, nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("template compiled", "template", name, "directives", len(nodes))
	return &Template{name: name, tpl: tpl, nodes: nodes}, nil
}

func (l *Library) compileDirective(raw string) (Node, error) {
	tokens := SplitContents(raw)
	if len(tokens) == 0 {
		return nil, &SyntaxError{Msg: "empty directive"}
	}

	fn, ok := l.tag(tokens[0])
	if !ok {
		return nil, &SyntaxError{Tag: tokens[0], Msg: fmt.Sprintf("invalid block tag; registered tags: %s", strings.Join(l.Tags(), ", "))}
	}
	return fn(tokens)
}
