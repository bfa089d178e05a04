package schema

import "maps"

// Reason classifies a violation.
type Reason string

const (
	ReasonRequiredMissing Reason = "required-missing"
	ReasonTypeMismatch    Reason = "type-mismatch"
	ReasonInvalidOption   Reason = "invalid-option"
)

// Violation reports one field whose value does not satisfy its schema.
type Violation struct {
	Path   Path   `json:"path"`
	Reason Reason `json:"reason"`
}

func (v Violation) String() string {
	return v.Path.String() + ": " + string(v.Reason)
}

// Validate checks data against fields and returns the violations found, in
// declaration order, depth first. Keys of data not declared in fields are
// ignored. Blank values (nil or whitespace-only strings) count as missing.
//
// fields must have passed Check; data may have any shape.
func Validate(fields Fields, data map[string]any) []Violation {
	v := &validator{}
	v.fields(nil, fields, data)
	return v.out
}

type validator struct {
	out []Violation
}

func (v *validator) report(p Path, r Reason) {
	v.out = append(v.out, Violation{Path: p, Reason: r})
}

func (v *validator) fields(p Path, fields Fields, data map[string]any) {
	for _, e := range fields {
		path := p.Append(e.Name)
		value, ok := data[e.Name]
		if !ok || isBlank(value) {
			if e.Field.Required {
				v.report(path, ReasonRequiredMissing)
			}
			continue
		}
		v.value(path, e.Field, value)
	}
}

func (v *validator) value(p Path, f *Field, value any) {
	switch f.Kind {
	case KindText, KindTextarea:
		if _, ok := value.(string); !ok {
			v.report(p, ReasonTypeMismatch)
		}
	case KindNumber:
		if _, ok := ParseNumber(value); !ok {
			v.report(p, ReasonTypeMismatch)
		}
	case KindDate:
		if !isDate(value) {
			v.report(p, ReasonTypeMismatch)
		}
	case KindSelect, KindRadio:
		s, ok := value.(string)
		if !ok || !f.HasOption(s) {
			v.report(p, ReasonInvalidOption)
		}
	case KindFile:
		if _, ok := ArtifactRef(value); !ok {
			v.report(p, ReasonTypeMismatch)
		}
	case KindObject:
		m, ok := asMap(value)
		if !ok {
			v.report(p, ReasonTypeMismatch)
			return
		}
		v.fields(p, f.Fields, m)
	case KindArray:
		items, ok := asList(value)
		if !ok {
			v.report(p, ReasonTypeMismatch)
			return
		}
		for i, item := range items {
			ip := p.Append(i)
			m, ok := asMap(item)
			if !ok {
				v.report(ip, ReasonTypeMismatch)
				continue
			}
			v.fields(ip, f.ItemTemplate, m)
		}
	default:
		v.report(p, ReasonTypeMismatch)
	}
}

// Normalize returns a copy of data ready for storage: blank values of
// declared fields are dropped and numbers are stored as float64. Values
// that would not validate, and undeclared keys, are kept as they are.
func Normalize(fields Fields, data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := maps.Clone(data)
	for _, e := range fields {
		value, ok := data[e.Name]
		if !ok {
			continue
		}
		if isBlank(value) {
			delete(out, e.Name)
			continue
		}
		out[e.Name] = normalize(e.Field, value)
	}
	return out
}

func normalize(f *Field, value any) any {
	switch f.Kind {
	case KindNumber:
		if n, ok := ParseNumber(value); ok {
			return n
		}
	case KindObject:
		if m, ok := asMap(value); ok {
			return Normalize(f.Fields, m)
		}
	case KindArray:
		if items, ok := asList(value); ok {
			out := make([]any, len(items))
			for i, item := range items {
				if m, ok := asMap(item); ok {
					out[i] = Normalize(f.ItemTemplate, m)
				} else {
					out[i] = item
				}
			}
			return out
		}
	}
	return value
}
