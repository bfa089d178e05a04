package schema

import (
	"slices"
	"strings"
)

// Kind is the type of a form field.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindSelect   Kind = "select"
	KindRadio    Kind = "radio"
	KindTextarea Kind = "textarea"
	KindFile     Kind = "file"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{
	KindText,
	KindNumber,
	KindDate,
	KindSelect,
	KindRadio,
	KindTextarea,
	KindFile,
	KindObject,
	KindArray,
}

func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// kindList is Kinds as a comma separated list, for error messages.
func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Choice reports whether fields of this kind carry options.
func (k Kind) Choice() bool {
	return k == KindSelect || k == KindRadio
}

