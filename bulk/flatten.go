// Package bulk moves surveys in and out of spreadsheets. Every survey is a
// row; every leaf of its data tree is a column named after the data path,
// e.g. notes[0].note.
package bulk

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mbolis/hvac-survey/schema"
)

// layout returns the columns of fields in declaration order, with arrays
// expanded to their longest occurrence in data. An array present in data
// also gets a column of its own holding its length, so that empty
// elements survive a round trip.
func layout(fields schema.Fields, prefix string, data []map[string]any) []string {
	var cols []string
	for _, e := range fields {
		name := prefix + e.Name
		switch e.Field.Kind {
		case schema.KindObject:
			children := make([]map[string]any, 0, len(data))
			for _, d := range data {
				if m, ok := d[e.Name].(map[string]any); ok {
					children = append(children, m)
				}
			}
			cols = append(cols, layout(e.Field.Fields, name+".", children)...)
		case schema.KindArray:
			longest, present := 0, false
			for _, d := range data {
				if l, ok := d[e.Name].([]any); ok {
					present = true
					longest = max(longest, len(l))
				}
			}
			if present {
				cols = append(cols, name)
			}
			for i := 0; i < longest; i++ {
				items := make([]map[string]any, 0, len(data))
				for _, d := range data {
					l, _ := d[e.Name].([]any)
					if i < len(l) {
						if m, ok := l[i].(map[string]any); ok {
							items = append(items, m)
						}
					}
				}
				cols = append(cols, layout(e.Field.ItemTemplate, fmt.Sprintf("%s[%d].", name, i), items)...)
			}
		default:
			cols = append(cols, name)
		}
	}
	return cols
}

// extraKeys returns the sorted top-level keys of data not declared in
// fields.
func extraKeys(fields schema.Fields, data []map[string]any) []string {
	seen := map[string]bool{}
	for _, d := range data {
		for k := range d {
			if _, ok := fields.Get(k); !ok {
				seen[k] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flatten writes the cells of data into row, keyed by column.
func flatten(fields schema.Fields, prefix string, data map[string]any, row map[string]string) {
	for _, e := range fields {
		name := prefix + e.Name
		value, ok := data[e.Name]
		if !ok || value == nil {
			continue
		}
		switch e.Field.Kind {
		case schema.KindObject:
			if m, ok := value.(map[string]any); ok {
				flatten(e.Field.Fields, name+".", m, row)
			}
		case schema.KindArray:
			l, ok := value.([]any)
			if !ok {
				continue
			}
			row[name] = strconv.Itoa(len(l))
			for i, item := range l {
				if m, ok := item.(map[string]any); ok {
					flatten(e.Field.ItemTemplate, fmt.Sprintf("%s[%d].", name, i), m, row)
				}
			}
		case schema.KindNumber:
			if n, ok := schema.ParseNumber(value); ok {
				row[name] = strconv.FormatFloat(n, 'f', -1, 64)
			} else {
				row[name] = cell(value)
			}
		default:
			row[name] = cell(value)
		}
	}
}

// cell formats a scalar as is and anything else as JSON.
func cell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

var errUnknownColumn = errors.New("no such field")

// extraCell formats an undeclared value. It is always JSON, so that the
// string "42" is told apart from the number 42.
func extraCell(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// SetCell decodes raw as the value of the column and stores it into data,
// creating the objects and array elements along the way. Blank cells are
// skipped. A column naming an array holds its length. A column naming no
// declared field is only accepted at the top level, where raw is decoded as
// JSON; text that is not JSON is kept as a string.
func SetCell(fields schema.Fields, column, raw string, data map[string]any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	p, err := schema.ParsePath(column)
	if err != nil {
		return err
	}

	f, err := resolve(fields, p)
	if errors.Is(err, errUnknownColumn) && len(p) == 1 {
		var v any
		if json.Unmarshal([]byte(raw), &v) != nil {
			v = raw
		}
		_, err := put(data, p, v)
		return err
	}
	if err != nil {
		return err
	}

	var value any = raw
	switch f.Kind {
	case schema.KindArray:
		return setLength(data, p, raw)
	case schema.KindNumber:
		// left as text otherwise, for validation to report
		if n, ok := schema.ParseNumber(raw); ok {
			value = n
		}
	case schema.KindFile:
		if strings.HasPrefix(strings.TrimSpace(raw), "{") {
			var m map[string]any
			if err := json.Unmarshal([]byte(raw), &m); err != nil {
				return fmt.Errorf("bad file descriptor: %v", err)
			}
			value = m
		}
	}
	_, err = put(data, p, value)
	return err
}

// setLength grows the array at p to hold at least n elements.
func setLength(data map[string]any, p schema.Path, raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > maxItems {
		return fmt.Errorf("%s: %q is not an item count", p, raw)
	}
	node, _ := schema.Lookup(data, p)
	l, ok := node.([]any)
	if !ok && node != nil {
		return fmt.Errorf("%s: not an array", p)
	}
	if l == nil {
		l = []any{}
	}
	for len(l) < n {
		l = append(l, map[string]any{})
	}
	_, err = put(data, p, l)
	return err
}

// resolve finds the field addressed by p: a leaf, or an array when p ends
// at its name.
func resolve(fields schema.Fields, p schema.Path) (*schema.Field, error) {
	var f *schema.Field
	for i := 0; i < len(p); i++ {
		name, ok := p[i].(string)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected index", p[:i+1])
		}
		if f, ok = fields.Get(name); !ok {
			return nil, fmt.Errorf("%s: %w", p[:i+1], errUnknownColumn)
		}
		switch f.Kind {
		case schema.KindObject:
			fields = f.Fields
		case schema.KindArray:
			i++
			if i == len(p) {
				return f, nil
			}
			if _, ok := p[i].(int); !ok {
				return nil, fmt.Errorf("%s: missing index", p[:i+1])
			}
			fields = f.ItemTemplate
		default:
			if i != len(p)-1 {
				return nil, fmt.Errorf("%s: %s field has no sub-fields", p[:i+1], f.Kind)
			}
			return f, nil
		}
	}
	return nil, fmt.Errorf("%s: %s field is not a column", p, f.Kind)
}

// maxItems bounds the array indexes accepted from a column name.
const maxItems = 1000

// put stores v at p below node, creating objects and growing arrays as
// needed. Array elements skipped over are left as empty objects.
func put(node any, p schema.Path, v any) (any, error) {
	if len(p) == 0 {
		return v, nil
	}
	switch key := p[0].(type) {
	case string:
		m, ok := node.(map[string]any)
		if node == nil {
			m, ok = map[string]any{}, true
		}
		if !ok {
			return nil, fmt.Errorf("%q: not an object", key)
		}
		child, err := put(m[key], p[1:], v)
		if err != nil {
			return nil, err
		}
		m[key] = child
		return m, nil
	case int:
		if key >= maxItems {
			return nil, fmt.Errorf("index %d: too many items", key)
		}
		l, ok := node.([]any)
		if !ok && node != nil {
			return nil, fmt.Errorf("[%d]: not an array", key)
		}
		for len(l) <= key {
			l = append(l, map[string]any{})
		}
		child, err := put(l[key], p[1:], v)
		if err != nil {
			return nil, err
		}
		l[key] = child
		return l, nil
	}
	return nil, fmt.Errorf("bad path element %v", p[0])
}
