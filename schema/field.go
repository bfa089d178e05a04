package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Option is one choice of a select or radio field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Text returns the label shown for the option, falling back to its value.
func (o Option) Text() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// Field describes one form field. Options are only set on choice kinds,
// Fields only on objects and ItemTemplate only on arrays.
type Field struct {
	Kind         Kind     `json:"kind" yaml:"kind"`
	Label        string   `json:"label" yaml:"label"`
	Required     bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Options      []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Fields       Fields   `json:"fields,omitempty" yaml:"fields,omitempty"`
	ItemTemplate Fields   `json:"itemTemplate,omitempty" yaml:"itemTemplate,omitempty"`
}

// HasOption reports whether value is one of the field's option values.
func (f *Field) HasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func (f *Field) check(path string) error {
	if f == nil {
		return errorf(path, "missing definition")
	}
	if f.Kind == "" {
		return errorf(path, "missing kind")
	}
	if !f.Kind.Valid() {
		return errorf(path, "unknown kind %q, want one of %s", f.Kind, kindList())
	}
	if strings.TrimSpace(f.Label) == "" {
		return errorf(path, "missing label")
	}

	switch f.Kind {
	case KindSelect, KindRadio:
		if len(f.Options) == 0 {
			return errorf(path, "%s field needs options", f.Kind)
		}
		seen := make(map[string]bool, len(f.Options))
		for i, o := range f.Options {
			if o.Value == "" {
				return errorf(path, "option %d has no value", i)
			}
			if seen[o.Value] {
				return errorf(path, "duplicate option %q", o.Value)
			}
			seen[o.Value] = true
		}
	case KindObject:
		if len(f.Fields) == 0 {
			return errorf(path, "object field needs fields")
		}
	case KindArray:
		if len(f.ItemTemplate) == 0 {
			return errorf(path, "array field needs itemTemplate")
		}
	}

	if len(f.Options) > 0 && !f.Kind.Choice() {
		return errorf(path, "options not allowed on %s field", f.Kind)
	}
	if len(f.Fields) > 0 && f.Kind != KindObject {
		return errorf(path, "fields not allowed on %s field", f.Kind)
	}
	if len(f.ItemTemplate) > 0 && f.Kind != KindArray {
		return errorf(path, "itemTemplate not allowed on %s field", f.Kind)
	}

	switch f.Kind {
	case KindObject:
		return f.Fields.check(joinPath(path, "fields"))
	case KindArray:
		return f.ItemTemplate.check(joinPath(path, "itemTemplate"))
	}
	return nil
}

// Entry is a named field.
type Entry struct {
	Name  string
	Field *Field
}

// Fields maps field names to their schema, keeping declaration order.
type Fields []Entry

var reFieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

func (fs Fields) index(name string) int {
	for i, e := range fs {
		if e.Name == name {
			return i
		}
	}
	return -1
}

func (fs Fields) Get(name string) (*Field, bool) {
	if i := fs.index(name); i >= 0 {
		return fs[i].Field, true
	}
	return nil, false
}

func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, e := range fs {
		names[i] = e.Name
	}
	return names
}

// Check validates every field of the map, prefixing reported paths.
func (fs Fields) Check(prefix string) error {
	return fs.check(prefix)
}

func (fs Fields) check(prefix string) error {
	seen := make(map[string]bool, len(fs))
	for _, e := range fs {
		path := joinPath(prefix, e.Name)
		if !reFieldName.MatchString(e.Name) {
			return errorf(path, "invalid field name %q", e.Name)
		}
		if seen[e.Name] {
			return errorf(path, "duplicate field")
		}
		seen[e.Name] = true
		if err := e.Field.check(path); err != nil {
			return err
		}
	}
	return nil
}

func (fs Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (fs *Fields) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*fs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: field map must be an object", ErrMalformed)
	}

	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		if out.index(name) >= 0 {
			return errorf(name, "duplicate field")
		}
		f := new(Field)
		if err := dec.Decode(f); err != nil {
			return err
		}
		out = append(out, Entry{Name: name, Field: f})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*fs = out
	return nil
}

func (fs Fields) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range fs {
		value := &yaml.Node{}
		if err := value.Encode(e.Field); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			value,
		)
	}
	return node, nil
}

func (fs *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*fs = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: field map must be a mapping", ErrMalformed, node.Line)
	}

	out := make(Fields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if out.index(name) >= 0 {
			return errorf(name, "duplicate field")
		}
		f := new(Field)
		if err := node.Content[i+1].Decode(f); err != nil {
			return err
		}
		out = append(out, Entry{Name: name, Field: f})
	}

	*fs = out
	return nil
}

// At returns the field addressed by the data path p; array indexes in p
// select the item template.
func (fs Fields) At(p Path) (*Field, bool) {
	var f *Field
	for i := 0; i < len(p); i++ {
		name, ok := p[i].(string)
		if !ok || fs == nil {
			return nil, false
		}
		if f, ok = fs.Get(name); !ok {
			return nil, false
		}
		fs = nil
		switch f.Kind {
		case KindObject:
			fs = f.Fields
		case KindArray:
			if i+1 < len(p) {
				if _, ok := p[i+1].(int); !ok {
					return nil, false
				}
				i++
			}
			fs = f.ItemTemplate
		}
	}
	return f, f != nil
}
