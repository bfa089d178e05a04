package form

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
	"testing"

	"github.com/mbolis/hvac-survey/model"
	"github.com/mbolis/hvac-survey/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boilerTemplate(t *testing.T) *schema.Template {
	t.Helper()
	tmpl, err := schema.ParseTemplate([]byte(`{
		"name": "Boiler",
		"baseFields": {
			"location": {"kind": "text", "label": "Location", "required": true},
			"photo": {"kind": "file", "label": "Photo"}
		},
		"specificFields": {
			"fuel": {"kind": "radio", "label": "Fuel", "options": [{"value": "gas"}, {"value": "oil", "label": "Heating oil"}]},
			"pressure": {"kind": "number", "label": "Pressure (bar)"},
			"burner": {"kind": "object", "label": "Burner", "fields": {
				"brand": {"kind": "select", "label": "Brand", "options": [{"value": "A"}, {"value": "B"}]}
			}},
			"notes": {"kind": "array", "label": "Notes", "itemTemplate": {
				"note": {"kind": "textarea", "label": "Note", "required": true}
			}}
		}
	}`))
	require.NoError(t, err)
	tmpl.ID = 3
	tmpl.Version = 4
	return tmpl
}

func render(t *testing.T, fields schema.Fields, data map[string]any, violations []schema.Violation) string {
	t.Helper()
	r := NewHTMLRenderer(violations)
	controls := schema.Render[template.HTML](r, fields, data)
	require.NoError(t, r.Err())

	var b strings.Builder
	for _, c := range controls {
		b.WriteString(string(c))
	}
	return b.String()
}

func TestRender_Controls(t *testing.T) {
	tmpl := boilerTemplate(t)
	data := map[string]any{
		"location": `Boiler <room>`,
		"photo":    map[string]any{"ref": "abc", "filename": "front.jpg"},
		"fuel":     "oil",
		"pressure": 1.5,
		"burner":   map[string]any{"brand": "B"},
		"notes":    []any{map[string]any{"note": "leak"}, map[string]any{}},
	}
	violations := schema.Validate(tmpl.Fields(), data)
	require.Len(t, violations, 1)

	html := render(t, tmpl.Fields(), data, violations)

	assert.Contains(t, html, `name="location" value="Boiler &lt;room&gt;" required`)
	assert.Contains(t, html, `<a class="artifact" href="/api/files/abc">front.jpg</a>`)
	assert.Contains(t, html, `value="oil" checked> Heating oil`)
	assert.Contains(t, html, `name="pressure" value="1.5"`)
	assert.Contains(t, html, `<option value="B" selected>B</option>`)
	assert.Contains(t, html, `name="_len:notes" value="2"`)
	assert.Contains(t, html, `id="f-notes-0-note" name="notes[0].note"`)
	assert.Contains(t, html, `name="_remove" value="notes[1]"`)
	assert.Contains(t, html, `name="_append" value="notes"`)
	assert.Contains(t, html, "This field is required.")
}

func TestRender_EmptyData(t *testing.T) {
	html := render(t, boilerTemplate(t).Fields(), nil, nil)

	assert.Contains(t, html, `name="location" value="" required`)
	assert.Contains(t, html, `name="_len:notes" value="0"`)
	assert.NotContains(t, html, "checked")
	assert.NotContains(t, html, "artifact")
}

func TestDecode(t *testing.T) {
	tmpl := boilerTemplate(t)
	values := url.Values{
		"_equipmentId":   {"12"},
		"_surveyDate":    {"2024-09-30"},
		"_preparedBy":    {" M. Neri "},
		"location":       {"Cellar"},
		"photo":          {`{"ref":"abc","filename":"front.jpg"}`},
		"fuel":           {"gas"},
		"pressure":       {"2"},
		"burner.brand":   {""},
		"_len:notes":     {"2"},
		"notes[0].note":  {"check valve"},
		"notes[1].note":  {"  "},
	}

	s, err := DecodeSurvey(tmpl, values)
	require.NoError(t, err)
	assert.Equal(t, model.Survey{
		EquipmentID:     12,
		TemplateID:      3,
		TemplateVersion: 4,
		SurveyDate:      "2024-09-30",
		PreparedBy:      "M. Neri",
		SurveyData: map[string]any{
			"location": "Cellar",
			"photo":    map[string]any{"ref": "abc", "filename": "front.jpg"},
			"fuel":     "gas",
			"pressure": 2.0,
			"notes":    []any{map[string]any{"note": "check valve"}, map[string]any{}},
		},
	}, s)
}

func TestDecode_RejectsUnknownNestedInput(t *testing.T) {
	_, err := Decode(boilerTemplate(t).Fields(), url.Values{"burner.model": {"X"}})
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	data := map[string]any{"notes": []any{map[string]any{"note": "a"}, map[string]any{"note": "b"}}}

	out, ok, err := Apply(data, url.Values{ActionAppend: {"notes"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, out["notes"], 3)

	out, ok, err = Apply(data, url.Values{ActionRemove: {"notes[0]"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{map[string]any{"note": "b"}}, out["notes"])
	// the input is untouched
	assert.Len(t, data["notes"], 2)

	_, ok, err = Apply(data, url.Values{ActionRemove: {"notes"}})
	assert.True(t, ok)
	assert.ErrorIs(t, err, schema.ErrPath)

	out, ok, err = Apply(data, url.Values{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, data, out)
}

func TestPage_Render(t *testing.T) {
	var buf bytes.Buffer
	err := Page{
		Template:  boilerTemplate(t),
		Equipment: []model.Equipment{{ID: 1, Tag: "B-01", Category: "boiler"}, {ID: 2, Tag: "B-02", Category: "boiler"}},
		Survey:    model.Survey{EquipmentID: 2, SurveyDate: "2024-09-30"},
		Message:   "Survey saved.",
		Action:    "/forms/3",
	}.Render(&buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<form method="post" action="/forms/3" enctype="multipart/form-data">`)
	assert.Contains(t, html, `<option value="2" selected>B-02 (boiler)</option>`)
	assert.Contains(t, html, `<p class="message">Survey saved.</p>`)
	assert.Contains(t, html, `name="location"`)
}
