package engine

import (
	"errors"
	"fmt"
)

// ErrVariableDoesNotExist is returned when a variable reference cannot be
// resolved against the render context.
var ErrVariableDoesNotExist = errors.New("variable does not exist")

// SyntaxError reports a malformed directive at compile time.
type SyntaxError struct {
	Tag string
	Msg string
}

func (e *SyntaxError) Error() string {
	if e.Tag == "" {
		return "template syntax error: " + e.Msg
	}
	return fmt.Sprintf("template syntax error in %q tag: %s", e.Tag, e.Msg)
}

// VariableError represents a failed variable lookup
type VariableError struct {
	Name string
	Err  error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("failed to resolve variable %q: %v", e.Name, e.Err)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

// CompileError wraps a tag compilation failure with the template and
// directive that caused it.
type CompileError struct {
	Template  string
	Directive string
	Err       error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: {%% %s %%}: %v", e.Template, e.Directive, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
