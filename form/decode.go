package form

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mbolis/hvac-survey/bulk"
	"github.com/mbolis/hvac-survey/model"
	"github.com/mbolis/hvac-survey/schema"
)

// Names of the form inputs that are not survey data.
const (
	InputEquipmentID = "_equipmentId"
	InputSurveyDate  = "_surveyDate"
	InputPreparedBy  = "_preparedBy"
	ActionAppend     = "_append"
	ActionRemove     = "_remove"
)

const maxItems = 1000

func reserved(name string) bool {
	switch name {
	case InputEquipmentID, InputSurveyDate, InputPreparedBy, ActionAppend, ActionRemove:
		return true
	}
	return false
}

// Decode converts submitted form values into survey data. Inputs are named
// after data paths; blank inputs are left out.
func Decode(fields schema.Fields, values url.Values) (map[string]any, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		if !reserved(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	data := map[string]any{}
	var lengths []string
	for _, name := range names {
		if strings.HasPrefix(name, lenPrefix) {
			lengths = append(lengths, name)
			continue
		}
		if err := bulk.SetCell(fields, name, values.Get(name), data); err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
	}

	// outer arrays first
	sort.SliceStable(lengths, func(i, j int) bool {
		return strings.Count(lengths[i], ".") < strings.Count(lengths[j], ".")
	})
	for _, name := range lengths {
		var err error
		if data, err = grow(data, strings.TrimPrefix(name, lenPrefix), values.Get(name)); err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
	}
	return data, nil
}

// grow appends empty elements to the array at path until it has n of them.
func grow(data map[string]any, path, n string) (map[string]any, error) {
	p, err := schema.ParsePath(path)
	if err != nil {
		return nil, err
	}
	want, err := strconv.Atoi(n)
	if err != nil || want < 0 || want > maxItems {
		return nil, fmt.Errorf("bad length %q", n)
	}
	for {
		node, _ := schema.Lookup(data, p)
		list, _ := node.([]any)
		if len(list) >= want {
			return data, nil
		}
		if data, err = schema.AppendItem(data, p); err != nil {
			return nil, err
		}
	}
}

// DecodeSurvey reads a whole survey form: the header inputs and the data.
func DecodeSurvey(tmpl *schema.Template, values url.Values) (model.Survey, error) {
	s := model.Survey{
		TemplateID:      tmpl.ID,
		TemplateVersion: tmpl.Version,
		SurveyDate:      strings.TrimSpace(values.Get(InputSurveyDate)),
		PreparedBy:      strings.TrimSpace(values.Get(InputPreparedBy)),
	}
	if id := strings.TrimSpace(values.Get(InputEquipmentID)); id != "" {
		n, err := strconv.Atoi(id)
		if err != nil {
			return s, fmt.Errorf("input %q: not an integer", InputEquipmentID)
		}
		s.EquipmentID = n
	}

	data, err := Decode(tmpl.Fields(), values)
	if err != nil {
		return s, err
	}
	s.SurveyData = data
	return s, nil
}

// Apply performs the add/remove item action carried by a submission. It
// reports false when there is none.
func Apply(data map[string]any, values url.Values) (map[string]any, bool, error) {
	if path := values.Get(ActionAppend); path != "" {
		p, err := schema.ParsePath(path)
		if err != nil {
			return nil, true, err
		}
		data, err = schema.AppendItem(data, p)
		return data, true, err
	}

	if path := values.Get(ActionRemove); path != "" {
		p, err := schema.ParsePath(path)
		if err != nil {
			return nil, true, err
		}
		i, ok := p[len(p)-1].(int)
		if !ok || len(p) < 2 {
			return nil, true, fmt.Errorf("%w: %s is not an array element", schema.ErrPath, p)
		}
		data, err = schema.RemoveItem(data, p[:len(p)-1], i)
		return data, true, err
	}
	return data, false, nil
}
