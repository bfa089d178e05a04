// Package form renders templates as HTML forms and decodes the submitted
// values back into survey data.
package form

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"strconv"
	"strings"

	"github.com/mbolis/hvac-survey/schema"
)

//go:embed templates/*.html
var tplFS embed.FS

var tpl = template.Must(template.ParseFS(tplFS, "templates/*.html"))

// lenPrefix marks the hidden input carrying the length of an array, so
// that elements left blank survive a round trip through the form.
const lenPrefix = "_len:"

// HTMLRenderer renders controls as HTML fragments. Violations, keyed by
// data path, are shown next to their control.
type HTMLRenderer struct {
	Errors map[string]string
	err    error
}

var _ schema.Renderer[template.HTML] = (*HTMLRenderer)(nil)

// NewHTMLRenderer returns a renderer showing the given violations.
func NewHTMLRenderer(violations []schema.Violation) *HTMLRenderer {
	r := &HTMLRenderer{Errors: map[string]string{}}
	for _, v := range violations {
		r.Errors[v.Path.String()] = message(v.Reason)
	}
	return r
}

func message(r schema.Reason) string {
	switch r {
	case schema.ReasonRequiredMissing:
		return "This field is required."
	case schema.ReasonTypeMismatch:
		return "This value has the wrong format."
	case schema.ReasonInvalidOption:
		return "Choose one of the listed options."
	}
	return string(r)
}

// Err returns the first template execution error, if any.
func (r *HTMLRenderer) Err() error {
	return r.err
}

type control struct {
	schema.Control
	ID       string
	Name     string
	Value    string
	Error    string
	Ref      string
	Filename string
	LenName  string
	Children []template.HTML
	Items    []item
}

type item struct {
	Name     string
	Children []template.HTML
}

func (r *HTMLRenderer) control(c schema.Control) control {
	name := c.Path.String()
	return control{
		Control: c,
		ID:      "f-" + strings.NewReplacer(".", "-", "[", "-", "]", "").Replace(name),
		Name:    name,
		Value:   display(c.Value),
		Error:   r.Errors[name],
	}
}

func (r *HTMLRenderer) exec(name string, data control) template.HTML {
	var b bytes.Buffer
	if err := tpl.ExecuteTemplate(&b, name, data); err != nil {
		if r.err == nil {
			r.err = err
		}
		return ""
	}
	return template.HTML(b.String())
}

func (r *HTMLRenderer) Text(c schema.Control) template.HTML {
	return r.exec("text", r.control(c))
}

func (r *HTMLRenderer) Number(c schema.Control) template.HTML {
	return r.exec("number", r.control(c))
}

func (r *HTMLRenderer) Date(c schema.Control) template.HTML {
	return r.exec("date", r.control(c))
}

func (r *HTMLRenderer) Select(c schema.Control) template.HTML {
	return r.exec("select", r.control(c))
}

func (r *HTMLRenderer) Radio(c schema.Control) template.HTML {
	return r.exec("radio", r.control(c))
}

func (r *HTMLRenderer) Textarea(c schema.Control) template.HTML {
	return r.exec("textarea", r.control(c))
}

func (r *HTMLRenderer) File(c schema.Control) template.HTML {
	data := r.control(c)
	if ref, ok := schema.ArtifactRef(c.Value); ok {
		data.Ref = ref
		if m, ok := c.Value.(map[string]any); ok {
			data.Filename, _ = m["filename"].(string)
		}
	}
	return r.exec("file", data)
}

func (r *HTMLRenderer) Object(c schema.Control, children []template.HTML) template.HTML {
	data := r.control(c)
	data.Value = ""
	data.Children = children
	return r.exec("object", data)
}

func (r *HTMLRenderer) Array(c schema.Control, items [][]template.HTML) template.HTML {
	data := r.control(c)
	data.Value = ""
	data.LenName = lenPrefix + data.Name
	data.Items = make([]item, len(items))
	for i, children := range items {
		data.Items[i] = item{
			Name:     c.Path.Append(i).String(),
			Children: children,
		}
	}
	return r.exec("array", data)
}

// display formats a value for an input: strings as they are, numbers
// without exponent, anything else as JSON.
func display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	if n, ok := schema.ParseNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
