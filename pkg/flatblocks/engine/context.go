package engine

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Context holds the variables visible to a single render.
type Context map[string]any

// Copy returns a shallow copy of the context. Values are shared.
func (c Context) Copy() Context {
	out := make(Context, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Resolve looks up a dotted variable name such as "page.help.slug".
//
// Each segment is matched against map keys, exported struct fields
// (case-insensitively, so "slug" finds Slug) or slice indexes. A missing
// segment yields a *VariableError wrapping ErrVariableDoesNotExist.
func (c Context) Resolve(name string) (any, error) {
	if name == "" {
		return nil, &VariableError{Name: name, Err: ErrVariableDoesNotExist}
	}

	parts := strings.Split(name, ".")
	current, ok := c[parts[0]]
	if !ok {
		return nil, &VariableError{Name: name, Err: ErrVariableDoesNotExist}
	}

	for _, part := range parts[1:] {
		next, ok := lookup(current, part)
		if !ok {
			return nil, &VariableError{
				Name: name,
				Err:  fmt.Errorf("%w: no %q in %T", ErrVariableDoesNotExist, part, current),
			}
		}
		current = next
	}
	return current, nil
}

func lookup(value any, key string) (any, bool) {
	switch v := value.(type) {
	case Context:
		out, ok := v[key]
		return out, ok
	case map[string]any:
		out, ok := v[key]
		return out, ok
	case map[string]string:
		out, ok := v[key]
		return out, ok
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !out.IsValid() {
			return nil, false
		}
		return out.Interface(), true
	case reflect.Struct:
		field := rv.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, key)
		})
		if !field.IsValid() || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	}
	return nil, false
}
