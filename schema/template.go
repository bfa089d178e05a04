package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Template is a named survey form: fields shared by every equipment
// category plus the fields specific to one category.
type Template struct {
	ID             int       `json:"id,omitempty" yaml:"-"`
	Version        int       `json:"version,omitempty" yaml:"-"`
	Name           string    `json:"name" yaml:"name"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	BaseFields     Fields    `json:"baseFields" yaml:"baseFields"`
	SpecificFields Fields    `json:"specificFields" yaml:"specificFields"`
	CreatedAt      time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"-"`
}

// ParseTemplate decodes a JSON template definition and checks its schema.
func ParseTemplate(b []byte) (*Template, error) {
	t := &Template{}
	if err := json.Unmarshal(b, t); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

// Check reports the first schema problem of the template. Base and specific
// field names must not overlap.
func (t *Template) Check() error {
	if strings.TrimSpace(t.Name) == "" {
		return errorf("name", "missing name")
	}
	if err := t.BaseFields.check("baseFields"); err != nil {
		return err
	}
	if err := t.SpecificFields.check("specificFields"); err != nil {
		return err
	}
	for _, e := range t.SpecificFields {
		if _, ok := t.BaseFields.Get(e.Name); ok {
			return errorf(joinPath("specificFields", e.Name), "already declared in baseFields")
		}
	}
	return nil
}

// Fields returns base fields followed by specific fields.
func (t *Template) Fields() Fields {
	return MergeFields(t.BaseFields, t.SpecificFields)
}

func (t *Template) Validate(data map[string]any) []Violation {
	return Validate(t.Fields(), data)
}

// MergeFields composes two field maps: additions are appended after base,
// and an addition named like a base field takes its place.
func MergeFields(base, additions Fields) Fields {
	out := make(Fields, len(base), len(base)+len(additions))
	copy(out, base)
	for _, add := range additions {
		if i := out.index(add.Name); i >= 0 {
			out[i] = add
			continue
		}
		out = append(out, add)
	}
	return out
}
