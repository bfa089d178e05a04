package schema

import "fmt"

// Control is the input handed to a renderer for one field.
type Control struct {
	Name  string
	Path  Path
	Field *Field
	// Value is the current value, nil when the field is unset.
	Value any
}

// Renderer turns field controls into T (HTML fragments, widgets, ...).
// There is one method per Kind, so an implementation covers every kind.
type Renderer[T any] interface {
	Text(c Control) T
	Number(c Control) T
	Date(c Control) T
	Select(c Control) T
	Radio(c Control) T
	Textarea(c Control) T
	File(c Control) T
	// Object receives the rendered nested fields.
	Object(c Control, children []T) T
	// Array receives the rendered sub-fields of each element, by index.
	Array(c Control, items [][]T) T
}

// Render renders fields against data in declaration order.
func Render[T any](r Renderer[T], fields Fields, data map[string]any) []T {
	return render(r, nil, fields, data)
}

func render[T any](r Renderer[T], p Path, fields Fields, data map[string]any) []T {
	out := make([]T, 0, len(fields))
	for _, e := range fields {
		out = append(out, RenderControl(r, Control{
			Name:  e.Name,
			Path:  p.Append(e.Name),
			Field: e.Field,
			Value: data[e.Name],
		}))
	}
	return out
}

// RenderControl dispatches c to the renderer method of its kind. Values of
// the wrong shape under object and array fields render as empty.
func RenderControl[T any](r Renderer[T], c Control) T {
	switch c.Field.Kind {
	case KindText:
		return r.Text(c)
	case KindNumber:
		return r.Number(c)
	case KindDate:
		return r.Date(c)
	case KindSelect:
		return r.Select(c)
	case KindRadio:
		return r.Radio(c)
	case KindTextarea:
		return r.Textarea(c)
	case KindFile:
		return r.File(c)
	case KindObject:
		m, _ := asMap(c.Value)
		return r.Object(c, render(r, c.Path, c.Field.Fields, m))
	case KindArray:
		list, _ := asList(c.Value)
		items := make([][]T, len(list))
		for i, item := range list {
			m, _ := asMap(item)
			items[i] = render(r, c.Path.Append(i), c.Field.ItemTemplate, m)
		}
		return r.Array(c, items)
	}
	panic(fmt.Sprintf("schema: unchecked field kind %q at %s", c.Field.Kind, c.Path))
}
