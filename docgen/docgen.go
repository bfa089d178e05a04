// Package docgen documents templates for people (Markdown, outline) and
// for other programs (JSON Schema).
package docgen

import (
	"fmt"
	"strings"

	"github.com/mbolis/hvac-survey/schema"
)

// Markdown renders a reference page for the template: one table row per
// field, nested fields addressed by data path.
func Markdown(t *schema.Template) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Name)
	if t.Version > 0 {
		fmt.Fprintf(&b, "_Version %d_\n\n", t.Version)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Description)
	}

	section := func(title string, fields schema.Fields) {
		if len(fields) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		b.WriteString("| Field | Label | Kind | Required | Options |\n")
		b.WriteString("|---|---|---|---|---|\n")
		walk(fields, nil, func(p schema.Path, f *schema.Field) {
			required := ""
			if f.Required {
				required = "yes"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
				p, cell(f.Label), f.Kind, required, cell(options(f)))
		})
		b.WriteString("\n")
	}
	section("Base fields", t.BaseFields)
	section("Specific fields", t.SpecificFields)
	return b.String()
}

// Outline renders the field tree as indented text.
func Outline(t *schema.Template) string {
	var b strings.Builder
	b.WriteString(t.Name)
	if t.Version > 0 {
		fmt.Fprintf(&b, " (v%d)", t.Version)
	}
	b.WriteString("\n")
	walk(t.Fields(), nil, func(p schema.Path, f *schema.Field) {
		depth := 0
		for _, elem := range p {
			if _, ok := elem.(string); ok {
				depth++
			}
		}
		b.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(&b, "%s: %s", p[len(p)-1], f.Kind)
		if f.Required {
			b.WriteString(" *")
		}
		fmt.Fprintf(&b, " %q", f.Label)
		if len(f.Options) > 0 {
			fmt.Fprintf(&b, " [%s]", options(f))
		}
		b.WriteString("\n")
	})
	return b.String()
}

// walk visits fields depth first. Array items are addressed by index 0.
func walk(fields schema.Fields, p schema.Path, fn func(schema.Path, *schema.Field)) {
	for _, e := range fields {
		fp := p.Append(e.Name)
		fn(fp, e.Field)
		switch e.Field.Kind {
		case schema.KindObject:
			walk(e.Field.Fields, fp, fn)
		case schema.KindArray:
			walk(e.Field.ItemTemplate, fp.Append(0), fn)
		}
	}
}

func options(f *schema.Field) string {
	values := make([]string, len(f.Options))
	for i, o := range f.Options {
		values[i] = o.Value
		if o.Label != "" && o.Label != o.Value {
			values[i] += " (" + o.Label + ")"
		}
	}
	return strings.Join(values, ", ")
}

// cell escapes a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
