package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseTemplate_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		wantPath string
	}{
		{
			name:     "missing name",
			json:     `{"baseFields": {}}`,
			wantPath: "name",
		},
		{
			name:     "unknown kind",
			json:     `{"name": "x", "baseFields": {"a": {"kind": "checkbox", "label": "A"}}}`,
			wantPath: "baseFields.a",
		},
		{
			name:     "missing label",
			json:     `{"name": "x", "baseFields": {"a": {"kind": "text"}}}`,
			wantPath: "baseFields.a",
		},
		{
			name:     "select without options",
			json:     `{"name": "x", "baseFields": {"a": {"kind": "select", "label": "A"}}}`,
			wantPath: "baseFields.a",
		},
		{
			name:     "options on text",
			json:     `{"name": "x", "baseFields": {"a": {"kind": "text", "label": "A", "options": [{"value": "1"}]}}}`,
			wantPath: "baseFields.a",
		},
		{
			name:     "object without fields",
			json:     `{"name": "x", "specificFields": {"o": {"kind": "object", "label": "O"}}}`,
			wantPath: "specificFields.o",
		},
		{
			name:     "array without item template",
			json:     `{"name": "x", "specificFields": {"l": {"kind": "array", "label": "L", "fields": {"a": {"kind": "text", "label": "A"}}}}}`,
			wantPath: "specificFields.l",
		},
		{
			name: "nested item",
			json: `{"name": "x", "baseFields": {"surveyNotes": {"kind": "array", "label": "Notes", "itemTemplate": {
				"priority": {"kind": "select", "label": "Priority", "options": []}
			}}}}`,
			wantPath: "baseFields.surveyNotes.itemTemplate.priority",
		},
		{
			name:     "nested object field",
			json:     `{"name": "x", "baseFields": {"site": {"kind": "object", "label": "Site", "fields": {"city": {"kind": "town", "label": "City"}}}}}`,
			wantPath: "baseFields.site.fields.city",
		},
		{
			name:     "overlapping maps",
			json:     `{"name": "x", "baseFields": {"a": {"kind": "text", "label": "A"}}, "specificFields": {"a": {"kind": "text", "label": "A"}}}`,
			wantPath: "specificFields.a",
		},
		{
			name:     "duplicate option",
			json:     `{"name": "x", "baseFields": {"a": {"kind": "radio", "label": "A", "options": [{"value": "1"}, {"value": "1"}]}}}`,
			wantPath: "baseFields.a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate([]byte(tt.json))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))

			var serr *Error
			require.True(t, errors.As(err, &serr), err.Error())
			assert.Equal(t, tt.wantPath, serr.Path)
			assert.Contains(t, err.Error(), tt.wantPath)
		})
	}
}

func TestParseTemplate_DuplicateKey(t *testing.T) {
	_, err := ParseTemplate([]byte(`{"name": "x", "baseFields": {
		"a": {"kind": "text", "label": "A"},
		"a": {"kind": "text", "label": "B"}
	}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseTemplate_UnknownKindListsKinds(t *testing.T) {
	_, err := ParseTemplate([]byte(`{"name": "x", "baseFields": {"a": {"kind": "checkbox", "label": "A"}}}`))
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown kind "checkbox", want one of text, number, date, select, radio, textarea, file, object, array`)

	for _, k := range Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("checkbox").Valid())
}

func TestParseTemplate_InvalidJSON(t *testing.T) {
	_, err := ParseTemplate([]byte(`{"name": `))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFields_KeepsDeclarationOrder(t *testing.T) {
	src := `{"zeta":{"kind":"text","label":"Z"},"alpha":{"kind":"number","label":"A"},"mid":{"kind":"object","label":"M","fields":{"b":{"kind":"text","label":"B"},"a":{"kind":"text","label":"A"}}}}`

	var fs Fields
	require.NoError(t, json.Unmarshal([]byte(src), &fs))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, fs.Names())
	mid, ok := fs.Get("mid")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, mid.Fields.Names())

	out, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))
	assert.Equal(t, src, string(out))
}

func TestFields_YAML(t *testing.T) {
	src := `
name: Rooftop unit
baseFields:
  tag:
    kind: text
    label: Tag
    required: true
  condition:
    kind: radio
    label: Condition
    options:
      - value: good
      - value: poor
        label: Poor
specificFields:
  filters:
    kind: array
    label: Filters
    itemTemplate:
      size:
        kind: text
        label: Size
      qty:
        kind: number
        label: Quantity
`
	var tmpl Template
	require.NoError(t, yaml.Unmarshal([]byte(src), &tmpl))
	require.NoError(t, tmpl.Check())

	assert.Equal(t, []string{"tag", "condition"}, tmpl.BaseFields.Names())
	filters, ok := tmpl.SpecificFields.Get("filters")
	require.True(t, ok)
	assert.Equal(t, []string{"size", "qty"}, filters.ItemTemplate.Names())
	cond, _ := tmpl.BaseFields.Get("condition")
	assert.Equal(t, "good", cond.Options[0].Text())
	assert.Equal(t, "Poor", cond.Options[1].Text())

	out, err := yaml.Marshal(&tmpl)
	require.NoError(t, err)
	var again Template
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, tmpl.Fields().Names(), again.Fields().Names())
}

func TestMergeFields(t *testing.T) {
	base := Fields{
		{Name: "a", Field: &Field{Kind: KindText, Label: "A"}},
		{Name: "b", Field: &Field{Kind: KindText, Label: "B"}},
	}
	additions := Fields{
		{Name: "c", Field: &Field{Kind: KindNumber, Label: "C"}},
		{Name: "a", Field: &Field{Kind: KindDate, Label: "A2"}},
	}

	merged := MergeFields(base, additions)
	assert.Equal(t, []string{"a", "b", "c"}, merged.Names())
	a, _ := merged.Get("a")
	assert.Equal(t, KindDate, a.Kind)

	orig, _ := base.Get("a")
	assert.Equal(t, KindText, orig.Kind, "base must be left untouched")
}

func TestFields_At(t *testing.T) {
	fields := mustFields(t, `{
		"site": {"kind": "object", "label": "Site", "fields": {"city": {"kind": "text", "label": "City"}}},
		"notes": {"kind": "array", "label": "Notes", "itemTemplate": {"photo": {"kind": "file", "label": "Photo"}}}
	}`)

	f, ok := fields.At(Path{"notes", 2, "photo"})
	require.True(t, ok)
	assert.Equal(t, KindFile, f.Kind)

	f, ok = fields.At(Path{"site", "city"})
	require.True(t, ok)
	assert.Equal(t, KindText, f.Kind)

	f, ok = fields.At(Path{"notes"})
	require.True(t, ok)
	assert.Equal(t, KindArray, f.Kind)

	for _, p := range []Path{{"site", "zip"}, {"site", "city", "x"}, {"notes", "photo"}, {0}, {}} {
		_, ok := fields.At(p)
		assert.False(t, ok, p.String())
	}
}
