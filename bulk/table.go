package bulk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mbolis/hvac-survey/model"
	"github.com/mbolis/hvac-survey/schema"
)

// Survey header columns. They come first, before the data columns.
const (
	ColID          = "_id"
	ColEquipmentID = "_equipmentId"
	ColSurveyDate  = "_surveyDate"
	ColPreparedBy  = "_preparedBy"
)

var metaColumns = []string{ColID, ColEquipmentID, ColSurveyDate, ColPreparedBy}

// Table is a decoded spreadsheet: a header row and the data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Export lays out the surveys of one template as a table. Columns follow
// the template field order; keys the template does not declare come last.
func Export(tmpl *schema.Template, surveys []model.Survey) Table {
	fields := tmpl.Fields()
	data := make([]map[string]any, len(surveys))
	for i, s := range surveys {
		data[i] = s.SurveyData
	}

	extra := extraKeys(fields, data)
	t := Table{Header: append(append(append([]string{}, metaColumns...), layout(fields, "", data)...), extra...)}
	for _, s := range surveys {
		cells := map[string]string{
			ColID:          strconv.Itoa(s.ID),
			ColEquipmentID: strconv.Itoa(s.EquipmentID),
			ColSurveyDate:  s.SurveyDate,
			ColPreparedBy:  s.PreparedBy,
		}
		flatten(fields, "", s.SurveyData, cells)
		for _, k := range extra {
			if v, ok := s.SurveyData[k]; ok && v != nil {
				cells[k] = extraCell(v)
			}
		}

		row := make([]string, len(t.Header))
		for i, col := range t.Header {
			row[i] = cells[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ImportError reports why one row could not be imported.
type ImportError struct {
	Row    int    `json:"row"`              // 1-based, the header being row 1
	Column string `json:"column,omitempty"` // empty when the problem is not tied to a column
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e *ImportError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d, column %q: value %q - %s", e.Row, e.Column, e.Value, e.Reason)
}

// ImportResult holds the surveys decoded from the valid rows, and the
// errors of the others.
type ImportResult struct {
	TotalRows int
	Surveys   []model.Survey
	// Rows holds the row number of each survey.
	Rows   []int
	Errors []*ImportError

	// set by Save
	Imported int
	Skipped  int
}

func (r *ImportResult) Summary() string {
	return fmt.Sprintf("%d/%d rows valid, %d failed", len(r.Surveys), r.TotalRows, r.TotalRows-len(r.Surveys))
}

// Import decodes the rows of t into surveys of tmpl. Every row is validated
// against the template; rows with any error are left out of the surveys.
// Surveys carry the _id of their row, zero when the cell is blank.
func Import(tmpl *schema.Template, t Table) *ImportResult {
	fields := tmpl.Fields()
	result := &ImportResult{Surveys: []model.Survey{}, Errors: []*ImportError{}}

	for i, row := range t.Rows {
		rowNum := i + 2
		if blankRow(row) {
			continue
		}
		result.TotalRows++

		s := model.Survey{
			TemplateID:      tmpl.ID,
			TemplateVersion: tmpl.Version,
			SurveyData:      map[string]any{},
		}
		var errs []*ImportError
		for j, col := range t.Header {
			if j >= len(row) {
				break
			}
			raw := row[j]
			var err error
			switch col {
			case ColID:
				s.ID, err = optionalInt(raw)
			case ColEquipmentID:
				s.EquipmentID, err = optionalInt(raw)
			case ColSurveyDate:
				s.SurveyDate = strings.TrimSpace(raw)
			case ColPreparedBy:
				s.PreparedBy = strings.TrimSpace(raw)
			default:
				err = SetCell(fields, col, raw, s.SurveyData)
			}
			if err != nil {
				errs = append(errs, &ImportError{Row: rowNum, Column: col, Value: raw, Reason: err.Error()})
			}
		}

		if len(errs) == 0 {
			if err := s.Check(); err != nil {
				errs = append(errs, &ImportError{Row: rowNum, Reason: err.Error()})
			}
			for _, v := range schema.Validate(fields, s.SurveyData) {
				errs = append(errs, &ImportError{Row: rowNum, Column: v.Path.String(), Reason: string(v.Reason)})
			}
		}
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Surveys = append(result.Surveys, s)
		result.Rows = append(result.Rows, rowNum)
	}
	return result
}

func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	return n, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
