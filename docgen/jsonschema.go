package docgen

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mbolis/hvac-survey/schema"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema describes the survey data of t as stored, i.e. after
// schema.Normalize: numbers are JSON numbers and blank values are absent.
// Undeclared keys are allowed.
func JSONSchema(t *schema.Template) *jsonschema.Schema {
	s := object(t.Fields())
	s.Schema = draft
	s.Title = t.Name
	s.Description = t.Description
	return s
}

func object(fields schema.Fields) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(fields)),
	}
	for _, e := range fields {
		s.Properties[e.Name] = field(e.Field)
		if e.Field.Required {
			s.Required = append(s.Required, e.Name)
		}
	}
	return s
}

func field(f *schema.Field) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch f.Kind {
	case schema.KindNumber:
		s = &jsonschema.Schema{Type: "number"}
	case schema.KindDate:
		s = &jsonschema.Schema{Type: "string", Format: "date", Pattern: `^\d{4}-\d{2}-\d{2}$`}
	case schema.KindSelect, schema.KindRadio:
		enum := make([]any, len(f.Options))
		for i, o := range f.Options {
			enum[i] = o.Value
		}
		s = &jsonschema.Schema{Type: "string", Enum: enum}
	case schema.KindFile:
		s = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
			{Type: "string", Pattern: `\S`},
			{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"ref": {Type: "string", Pattern: `\S`}},
				Required:   []string{"ref"},
			},
		}}
	case schema.KindObject:
		s = object(f.Fields)
	case schema.KindArray:
		s = &jsonschema.Schema{Type: "array", Items: object(f.ItemTemplate)}
	default:
		s = &jsonschema.Schema{Type: "string"}
		if f.Required {
			s.Pattern = `\S`
		}
	}
	s.Title = f.Label
	return s
}
