package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/hvac-survey/database"
	"github.com/mbolis/hvac-survey/model"
)

type SurveyStore struct {
	db *database.DB
}

const surveyColumns = `id, equipment_id, template_id, template_version, survey_date, prepared_by, survey_data, created_at, updated_at`

func scanSurvey(row scanner) (model.Survey, error) {
	s := model.Survey{}
	var data []byte
	err := row.Scan(
		&s.ID, &s.EquipmentID, &s.TemplateID, &s.TemplateVersion,
		&s.SurveyDate, &s.PreparedBy, &data,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}
	if err = json.Unmarshal(data, &s.SurveyData); err != nil {
		return s, fmt.Errorf("survey %d: parse data: %w", s.ID, err)
	}
	return s, nil
}

// Create stores a survey that has already been validated against its
// template.
func (s *SurveyStore) Create(ctx context.Context, survey model.Survey) (model.Survey, error) {
	if survey.SurveyData == nil {
		survey.SurveyData = map[string]any{}
	}
	data, err := json.Marshal(survey.SurveyData)
	if err != nil {
		return survey, err
	}

	now := time.Now().UTC()
	err = s.db.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO survey (equipment_id, template_id, template_version, survey_date, prepared_by, survey_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		survey.EquipmentID,
		survey.TemplateID,
		survey.TemplateVersion,
		survey.SurveyDate,
		survey.PreparedBy,
		string(data),
		now,
		now,
	).Scan(&survey.ID)
	if isForeignKeyViolation(err) {
		return survey, fmt.Errorf("equipment %d or template %d: %w", survey.EquipmentID, survey.TemplateID, ErrNotFound)
	}
	if err != nil {
		return survey, err
	}

	survey.CreatedAt = now
	survey.UpdatedAt = now
	return survey, nil
}

func (s *SurveyStore) Get(ctx context.Context, id int) (model.Survey, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT `+surveyColumns+`
		FROM survey
		WHERE id = ?`),
		id,
	)
	survey, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return survey, fmt.Errorf("survey %d: %w", id, ErrNotFound)
	}
	return survey, err
}

func (s *SurveyStore) list(ctx context.Context, where string, args ...any) ([]model.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM survey`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY survey_date DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, survey)
	}
	return surveys, rows.Err()
}

// ListByEquipment returns the surveys of one equipment, newest first.
func (s *SurveyStore) ListByEquipment(ctx context.Context, equipmentID int) ([]model.Survey, error) {
	return s.list(ctx, "equipment_id = ?", equipmentID)
}

// ListByTemplate returns the surveys filled in from one template, newest
// first.
func (s *SurveyStore) ListByTemplate(ctx context.Context, templateID int) ([]model.Survey, error) {
	return s.list(ctx, "template_id = ?", templateID)
}

func (s *SurveyStore) List(ctx context.Context) ([]model.Survey, error) {
	return s.list(ctx, "")
}

func (s *SurveyStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM survey WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("survey %d: %w", id, ErrNotFound)
	}
	return nil
}
