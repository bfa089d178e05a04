package schema

import (
	"errors"
	"fmt"
	"maps"
)

// ErrPath is returned by edits whose path does not fit the data tree.
var ErrPath = errors.New("invalid data path")

// The edit functions below never modify their input. Objects and arrays
// along the edited path are copied, every other node is shared with the
// input tree.

// Lookup returns the node of data at p.
func Lookup(data map[string]any, p Path) (any, bool) {
	var node any = data
	for _, elem := range p {
		switch key := elem.(type) {
		case string:
			m, ok := asMap(node)
			if !ok {
				return nil, false
			}
			if node, ok = m[key]; !ok {
				return nil, false
			}
		case int:
			list, ok := asList(node)
			if !ok || key < 0 || key >= len(list) {
				return nil, false
			}
			node = list[key]
		default:
			return nil, false
		}
	}
	return node, true
}

// SetValue returns data with the node at p set to value. Missing objects
// along the path are created.
func SetValue(data map[string]any, p Path, value any) (map[string]any, error) {
	return edit(data, p, func(any) (any, error) {
		return value, nil
	})
}

// Unset returns data without the key addressed by p. Data with no parent
// at p comes back unchanged.
func Unset(data map[string]any, p Path) (map[string]any, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrPath)
	}
	key, ok := p[len(p)-1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not address a field", ErrPath, p)
	}
	parent := p[:len(p)-1]
	if len(parent) == 0 {
		out := maps.Clone(data)
		delete(out, key)
		return out, nil
	}
	if node, ok := Lookup(data, parent); !ok || node == nil {
		return maps.Clone(data), nil
	}
	return edit(data, parent, func(node any) (any, error) {
		m, ok := asMap(node)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an object", ErrPath, parent)
		}
		out := maps.Clone(m)
		delete(out, key)
		return out, nil
	})
}

// AppendItem returns data with a new, empty element at the end of the array
// at p.
func AppendItem(data map[string]any, p Path) (map[string]any, error) {
	return edit(data, p, func(node any) (any, error) {
		var list []any
		if node != nil {
			l, ok := asList(node)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not an array", ErrPath, p)
			}
			list = l
		}
		out := make([]any, len(list), len(list)+1)
		copy(out, list)
		return append(out, map[string]any{}), nil
	})
}

// RemoveItem returns data without element i of the array at p; following
// elements shift down by one.
func RemoveItem(data map[string]any, p Path, i int) (map[string]any, error) {
	return edit(data, p, func(node any) (any, error) {
		list, ok := asList(node)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an array", ErrPath, p)
		}
		if i < 0 || i >= len(list) {
			return nil, fmt.Errorf("%w: %s has no element %d", ErrPath, p, i)
		}
		out := make([]any, 0, len(list)-1)
		out = append(out, list[:i]...)
		return append(out, list[i+1:]...), nil
	})
}

func edit(data map[string]any, p Path, fn func(any) (any, error)) (map[string]any, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrPath)
	}
	if _, ok := p[0].(string); !ok {
		return nil, fmt.Errorf("%w: %s must start with a field name", ErrPath, p)
	}
	out, err := update(data, p, fn)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func update(node any, p Path, fn func(any) (any, error)) (any, error) {
	if len(p) == 0 {
		return fn(node)
	}

	switch key := p[0].(type) {
	case string:
		var m map[string]any
		if node != nil {
			var ok bool
			if m, ok = asMap(node); !ok {
				return nil, fmt.Errorf("%w: no field %q in a non-object", ErrPath, key)
			}
		}
		child, err := update(m[key], p[1:], fn)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m)+1)
		for k, v := range m {
			out[k] = v
		}
		out[key] = child
		return out, nil
	case int:
		list, ok := asList(node)
		if !ok {
			return nil, fmt.Errorf("%w: no element %d in a non-array", ErrPath, key)
		}
		if key < 0 || key >= len(list) {
			return nil, fmt.Errorf("%w: element %d out of range", ErrPath, key)
		}
		child, err := update(list[key], p[1:], fn)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(list))
		copy(out, list)
		out[key] = child
		return out, nil
	}
	return nil, fmt.Errorf("%w: bad path element %v", ErrPath, p[0])
}
