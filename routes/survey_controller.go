package routes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/model"
	"github.com/mbolis/hvac-survey/schema"
)

// submit validates a survey against the current version of its template and
// stores it. Violations are returned instead of an error.
func submit(ctx context.Context, app app.App, s model.Survey) (model.Survey, []schema.Violation, error) {
	t, err := app.Templates.Get(ctx, s.TemplateID)
	if err != nil {
		return s, nil, err
	}
	if violations := t.Validate(s.SurveyData); len(violations) > 0 {
		return s, violations, nil
	}

	s.TemplateVersion = t.Version
	s.SurveyData = schema.Normalize(t.Fields(), s.SurveyData)
	s, err = app.Surveys.Create(ctx, s)
	if err != nil {
		return s, nil, err
	}
	log.WithFields(log.Fields{
		"id":        s.ID,
		"equipment": s.EquipmentID,
		"template":  t.Name,
		"version":   t.Version,
	}).Info("survey submitted")
	return s, nil, nil
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := model.Survey{}
		if err := render.DecodeJSON(r.Body, &s); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := s.Check(); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.check_survey", "%s", err)
			return
		}

		s, violations, err := submit(r.Context(), app, s)
		if err != nil {
			httpx.LogStoreError(w, "db.insert_survey", err)
			return
		}
		if len(violations) > 0 {
			httpx.WriteViolations(w, r, "submit_survey", violations)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, s)
	}
}

// ListSurveys lists all surveys, or those of the equipmentId or templateId
// given as query parameter.
func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var (
			surveys []model.Survey
			err     error
		)
		switch {
		case query.Has("equipmentId"):
			id, perr := strconv.Atoi(query.Get("equipmentId"))
			if perr != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.equipmentId")
				return
			}
			surveys, err = app.Surveys.ListByEquipment(r.Context(), id)
		case query.Has("templateId"):
			id, perr := strconv.Atoi(query.Get("templateId"))
			if perr != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.templateId")
				return
			}
			surveys, err = app.Surveys.ListByTemplate(r.Context(), id)
		default:
			surveys, err = app.Surveys.List(r.Context())
		}
		if err != nil {
			httpx.LogStoreError(w, "db.list_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		s, err := app.Surveys.Get(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.get_survey", err)
			return
		}
		render.JSON(w, r, s)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := app.Surveys.Delete(r.Context(), id); err != nil {
			httpx.LogStoreError(w, "db.delete_survey", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
