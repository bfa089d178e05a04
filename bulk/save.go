package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbolis/hvac-survey/model"
	"github.com/mbolis/hvac-survey/schema"
	"github.com/mbolis/hvac-survey/store"
)

// SurveyStore is the part of store.SurveyStore an import writes to.
type SurveyStore interface {
	Get(ctx context.Context, id int) (model.Survey, error)
	Create(ctx context.Context, s model.Survey) (model.Survey, error)
}

// Save stores the surveys of an import. A survey whose _id is already
// stored is skipped, so that re-importing an export is harmless. Rows
// pointing at unknown equipment become import errors; any other store
// error aborts the import.
func Save(ctx context.Context, surveys SurveyStore, tmpl *schema.Template, result *ImportResult) error {
	fields := tmpl.Fields()
	for i, s := range result.Surveys {
		row := result.Rows[i]
		if s.ID != 0 {
			_, err := surveys.Get(ctx, s.ID)
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("row %d: %w", row, err)
			}
		}

		s.ID = 0
		s.SurveyData = schema.Normalize(fields, s.SurveyData)
		_, err := surveys.Create(ctx, s)
		if errors.Is(err, store.ErrNotFound) {
			result.Errors = append(result.Errors, &ImportError{Row: row, Column: ColEquipmentID, Reason: err.Error()})
			continue
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		result.Imported++
	}
	return nil
}
