package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_StringAndParse(t *testing.T) {
	tests := []struct {
		path Path
		str  string
	}{
		{Path{"tag"}, "tag"},
		{Path{"notes", 0, "note"}, "notes[0].note"},
		{Path{"site", "address", "city"}, "site.address.city"},
		{Path{"grid", 2, 10}, "grid[2][10]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.str, tt.path.String())
		p, err := ParsePath(tt.str)
		require.NoError(t, err, tt.str)
		assert.True(t, tt.path.Equal(p), "%v != %v", tt.path, p)
	}

	for _, bad := range []string{"", ".a", "a..b", "a[", "a[x]", "a[-1]", "[0]b", "a]"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestSetValue_SharesSiblings(t *testing.T) {
	notes := []any{
		map[string]any{"note": "first"},
		map[string]any{"note": "second"},
	}
	site := map[string]any{"city": "Turin"}
	data := map[string]any{"tag": "T1", "notes": notes, "site": site}

	out, err := SetValue(data, Path{"notes", 1, "note"}, "changed")
	require.NoError(t, err)

	assert.Equal(t, "second", notes[1].(map[string]any)["note"], "input must not change")
	outNotes := out["notes"].([]any)
	assert.Equal(t, "changed", outNotes[1].(map[string]any)["note"])
	assert.Len(t, outNotes, 2)
	assert.Equal(t, "T1", out["tag"])
	// untouched subtrees are shared, not copied
	out["site"].(map[string]any)["touched"] = true
	assert.Equal(t, true, site["touched"])
	outNotes[0].(map[string]any)["touched"] = true
	assert.Equal(t, true, notes[0].(map[string]any)["touched"])
}

func TestSetValue_CreatesObjects(t *testing.T) {
	out, err := SetValue(nil, Path{"site", "city"}, "Milan")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"site": map[string]any{"city": "Milan"}}, out)

	_, err = SetValue(map[string]any{"tag": "x"}, Path{"tag", "sub"}, 1)
	assert.ErrorIs(t, err, ErrPath)
	_, err = SetValue(map[string]any{}, Path{"notes", 0}, 1)
	assert.ErrorIs(t, err, ErrPath)
	_, err = SetValue(map[string]any{}, nil, 1)
	assert.ErrorIs(t, err, ErrPath)
}

func TestAppendAndRemoveItem(t *testing.T) {
	data := map[string]any{"tag": "T"}

	out, err := AppendItem(data, Path{"notes"})
	require.NoError(t, err)
	out, err = AppendItem(out, Path{"notes"})
	require.NoError(t, err)
	out, err = SetValue(out, Path{"notes", 0, "note"}, "a")
	require.NoError(t, err)
	out, err = SetValue(out, Path{"notes", 1, "note"}, "b")
	require.NoError(t, err)
	out, err = AppendItem(out, Path{"notes"})
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"note": "a"},
		map[string]any{"note": "b"},
		map[string]any{},
	}, out["notes"])
	assert.NotContains(t, data, "notes")

	removed, err := RemoveItem(out, Path{"notes"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"note": "b"},
		map[string]any{},
	}, removed["notes"])
	assert.Len(t, out["notes"], 3)

	_, err = RemoveItem(out, Path{"notes"}, 3)
	assert.ErrorIs(t, err, ErrPath)
	_, err = AppendItem(out, Path{"tag"})
	assert.ErrorIs(t, err, ErrPath)
}

func TestUnset(t *testing.T) {
	data := map[string]any{"tag": "T", "site": map[string]any{"city": "Rome", "zip": "00100"}}

	out, err := Unset(data, Path{"site", "zip"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Rome"}, out["site"])
	assert.Contains(t, data["site"], "zip")

	out, err = Unset(out, Path{"tag"})
	require.NoError(t, err)
	assert.NotContains(t, out, "tag")
	assert.Contains(t, data, "tag")
}

func TestUnset_MissingParent(t *testing.T) {
	data := map[string]any{"tag": "T", "notes": []any{}}

	for _, p := range []Path{{"site", "zip"}, {"site", "address", "zip"}, {"notes", 2, "note"}} {
		out, err := Unset(data, p)
		require.NoError(t, err, p.String())
		assert.Equal(t, data, out, p.String())
	}

	_, err := Unset(data, Path{"tag", "zip"})
	assert.ErrorIs(t, err, ErrPath)
}

func TestLookup(t *testing.T) {
	data := map[string]any{"notes": []any{map[string]any{"note": "a"}}}

	v, ok := Lookup(data, Path{"notes", 0, "note"})
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = Lookup(data, Path{"notes", 1})
	assert.False(t, ok)
	_, ok = Lookup(data, Path{"notes", "note"})
	assert.False(t, ok)
}

type textRenderer struct{}

func (textRenderer) leaf(c Control) string {
	return string(c.Field.Kind) + ":" + c.Path.String()
}

func (r textRenderer) Text(c Control) string     { return r.leaf(c) }
func (r textRenderer) Number(c Control) string   { return r.leaf(c) }
func (r textRenderer) Date(c Control) string     { return r.leaf(c) }
func (r textRenderer) Select(c Control) string   { return r.leaf(c) }
func (r textRenderer) Radio(c Control) string    { return r.leaf(c) }
func (r textRenderer) Textarea(c Control) string { return r.leaf(c) }
func (r textRenderer) File(c Control) string     { return r.leaf(c) }

func (r textRenderer) Object(c Control, children []string) string {
	return r.leaf(c) + "{" + strings.Join(children, ",") + "}"
}

func (r textRenderer) Array(c Control, items [][]string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = "(" + strings.Join(item, ",") + ")"
	}
	return r.leaf(c) + "[" + strings.Join(parts, "") + "]"
}

func TestRender_DispatchesOnKind(t *testing.T) {
	fields := mustFields(t, `{
		"tag": {"kind": "text", "label": "Tag"},
		"site": {"kind": "object", "label": "Site", "fields": {"zip": {"kind": "number", "label": "Zip"}}},
		"notes": {"kind": "array", "label": "Notes", "itemTemplate": {
			"note": {"kind": "textarea", "label": "Note"},
			"level": {"kind": "radio", "label": "L", "options": [{"value": "x"}]}
		}},
		"photo": {"kind": "file", "label": "Photo"}
	}`)
	data := map[string]any{"notes": []any{map[string]any{}, "garbage"}, "site": 4}

	got := Render[string](textRenderer{}, fields, data)
	assert.Equal(t, []string{
		"text:tag",
		"object:site{number:site.zip}",
		"array:notes[(textarea:notes[0].note,radio:notes[0].level)(textarea:notes[1].note,radio:notes[1].level)]",
		"file:photo",
	}, got)
}
