package store

import (
	"context"

	"github.com/mbolis/hvac-survey/model"
)

// Stats counts the records shown on the dashboard.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	stats := model.Stats{SurveysByTemplate: []model.TemplateCount{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM equipment),
			(SELECT COUNT(*) FROM template),
			(SELECT COUNT(*) FROM survey)`,
	).Scan(&stats.Equipment, &stats.Templates, &stats.Surveys)
	if err != nil {
		return stats, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, COUNT(s.id)
		FROM template t
		LEFT OUTER JOIN survey s ON (t.id = s.template_id)
		GROUP BY t.id, t.name
		ORDER BY t.name`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		c := model.TemplateCount{}
		if err := rows.Scan(&c.TemplateID, &c.Name, &c.Surveys); err != nil {
			return stats, err
		}
		stats.SurveysByTemplate = append(stats.SurveysByTemplate, c)
	}
	return stats, rows.Err()
}
